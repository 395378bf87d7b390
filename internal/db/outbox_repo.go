package db

import (
	"context"
	"strconv"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/steemit/agora/internal/models"
)

// OutboxRepository provides outbox event operations
type OutboxRepository struct {
	*Repository
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(repo *Repository) *OutboxRepository {
	return &OutboxRepository{Repository: repo}
}

// Enqueue stores an event outside of any other transaction
func (r *OutboxRepository) Enqueue(ctx context.Context, event *models.OutboxEvent) error {
	return insertEvent(r.db.WithContext(ctx), event)
}

// ClaimDue locks up to limit due pending events, pushes their next attempt
// out by lease so concurrent relays skip them, and returns them.
func (r *OutboxRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*models.OutboxEvent, error) {
	var events []*models.OutboxEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND next_attempt_at <= ?", models.OutboxPending, now).
			Order("next_attempt_at").
			Limit(limit).
			Find(&events).Error; err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		ids := make([]string, 0, len(events))
		for _, e := range events {
			ids = append(ids, e.ID)
		}
		return tx.Model(&models.OutboxEvent{}).
			Where("id IN ?", ids).
			Update("next_attempt_at", now.Add(lease)).Error
	})
	return events, err
}

// MarkDelivered records a successful delivery
func (r *OutboxRepository) MarkDelivered(ctx context.Context, id string, attempts int, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.OutboxDelivered,
			"attempts":     attempts,
			"delivered_at": at,
			"last_error":   "",
		}).Error
}

// maxLastError matches the width of outbox_events.last_error
const maxLastError = 2000

// clip shortens s to at most max runes without splitting a character
func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// MarkFailed records a failed attempt. dead events are never retried.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, attempts int, next time.Time, lastErr string, dead bool) error {
	status := models.OutboxPending
	if dead {
		status = models.OutboxDead
	}
	lastErr = clip(lastErr, maxLastError)
	return r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"attempts":        attempts,
			"next_attempt_at": next,
			"last_error":      lastErr,
		}).Error
}

// Requeue puts dead events of a kind back to pending
func (r *OutboxRepository) Requeue(ctx context.Context, kind string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).Where("status = ?", models.OutboxDead)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	res := q.Updates(map[string]interface{}{
		"status":          models.OutboxPending,
		"attempts":        0,
		"next_attempt_at": time.Now().UTC(),
	})
	return res.RowsAffected, res.Error
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
