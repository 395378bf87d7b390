// Package notify writes in-app notifications.
package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/steemit/agora/internal/errs"
	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/pkg/logging"
)

// Store persists notification rows
type Store interface {
	CreateBatch(ctx context.Context, notifs []*models.Notification) error
}

// Counter tracks unread counts. It may be nil.
type Counter interface {
	IncrUnread(ctx context.Context, userIDs ...int64) error
}

// Notice is one notification addressed to any number of users
type Notice struct {
	Recipients []int64
	Title      string
	Message    string
	Type       models.NotifyType
	Link       string
	Metadata   map[string]interface{}
}

// Dispatcher fans a Notice out to one row per recipient
type Dispatcher struct {
	store   Store
	counter Counter
	now     func() time.Time
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher. counter may be nil.
func NewDispatcher(store Store, counter Counter) *Dispatcher {
	return &Dispatcher{
		store:   store,
		counter: counter,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logging.WithComponent("notify"),
	}
}

// Dispatch writes the notice for every distinct recipient, unread and stamped
// with the server time.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notice) error {
	if !n.Type.Valid() {
		return errs.Ef(errs.Invalid, "unknown notification type %q", n.Type)
	}

	recipients := uniqueIDs(n.Recipients)
	if len(recipients) == 0 {
		return nil
	}

	var link, meta sql.NullString
	if n.Link != "" {
		link = sql.NullString{String: n.Link, Valid: true}
	}
	if len(n.Metadata) > 0 {
		raw, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("encode notification metadata: %w", err)
		}
		meta = sql.NullString{String: string(raw), Valid: true}
	}

	now := d.now()
	rows := make([]*models.Notification, 0, len(recipients))
	for _, id := range recipients {
		rows = append(rows, &models.Notification{
			UserID:    id,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			Read:      false,
			Link:      link,
			Metadata:  meta,
			CreatedAt: now,
		})
	}

	if err := d.store.CreateBatch(ctx, rows); err != nil {
		return fmt.Errorf("store notifications: %w", err)
	}

	if d.counter != nil {
		if err := d.counter.IncrUnread(ctx, recipients...); err != nil {
			d.logger.Warn("unread counter update failed", zap.Error(err))
		}
	}

	d.logger.Debug("[NOTIFY]",
		zap.String("type", string(n.Type)),
		zap.Int("recipients", len(recipients)))
	return nil
}

// Send dispatches best-effort: failures are logged and never returned, so a
// notification problem cannot fail the operation that triggered it.
func (d *Dispatcher) Send(ctx context.Context, n Notice) {
	if d == nil {
		return
	}
	if err := d.Dispatch(ctx, n); err != nil {
		d.logger.Error("notification dispatch failed",
			zap.String("type", string(n.Type)),
			zap.Int("recipients", len(n.Recipients)),
			zap.Error(err))
	}
}

// Except returns the distinct ids without the excluded ones
func Except(ids []int64, exclude ...int64) []int64 {
	skip := make(map[int64]bool, len(ids)+len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !skip[id] {
			skip[id] = true
			out = append(out, id)
		}
	}
	return out
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
