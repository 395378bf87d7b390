package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/pkg/config"
	"github.com/steemit/agora/pkg/logging"
	"github.com/steemit/agora/pkg/telemetry"
)

// Store is the outbox table as seen by the relay
type Store interface {
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*models.OutboxEvent, error)
	MarkDelivered(ctx context.Context, id string, attempts int, at time.Time) error
	MarkFailed(ctx context.Context, id string, attempts int, next time.Time, lastErr string, dead bool) error
}

// Bridge performs the on-chain calls
type Bridge interface {
	Mint(ctx context.Context, wallet string) (string, error)
	UpdateRole(ctx context.Context, wallet string, communityID int64, role string) (string, error)
}

// errMalformed marks payloads that can never be delivered
var errMalformed = errors.New("malformed payload")

// Relay claims due events and delivers them to the bridge
type Relay struct {
	store       Store
	bridge      Bridge
	schedule    string
	batchSize   int
	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	lease       time.Duration
	now         func() time.Time
	logger      *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewRelay creates a relay from outbox configuration
func NewRelay(store Store, bridge Bridge, cfg *config.OutboxConfig) *Relay {
	r := &Relay{
		store:       store,
		bridge:      bridge,
		schedule:    cfg.Schedule,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		baseBackoff: cfg.BaseBackoff,
		maxBackoff:  cfg.MaxBackoff,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logging.WithComponent("outbox"),
	}
	if r.schedule == "" {
		r.schedule = "@every 10s"
	}
	if r.batchSize <= 0 {
		r.batchSize = 50
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = 8
	}
	if r.baseBackoff <= 0 {
		r.baseBackoff = 5 * time.Second
	}
	if r.maxBackoff < r.baseBackoff {
		r.maxBackoff = r.baseBackoff
	}
	r.lease = 2 * time.Minute
	return r
}

// Backoff returns the delay before retry number attempt (1-based)
func (r *Relay) Backoff(attempt int) time.Duration {
	d := r.baseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= r.maxBackoff {
			return r.maxBackoff
		}
	}
	return d
}

// Start runs the relay on its cron schedule until Stop is called
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(r.schedule, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("outbox run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid outbox schedule %q: %w", r.schedule, err)
	}
	c.Start()
	r.cron = c
	r.logger.Info("Outbox relay started", zap.String("schedule", r.schedule))
	return nil
}

// Stop halts scheduling and waits for a running batch to finish
func (r *Relay) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	r.logger.Info("Outbox relay stopped")
}

// RunOnce delivers one batch of due events and returns how many were delivered
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "outbox.run")
	defer span.End()

	events, err := r.store.ClaimDue(ctx, r.now(), r.lease, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("claim due events: %w", err)
	}

	delivered := 0
	for _, e := range events {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		if r.deliver(ctx, e) {
			delivered++
		}
	}
	return delivered, nil
}

func (r *Relay) deliver(ctx context.Context, e *models.OutboxEvent) bool {
	attempts := e.Attempts + 1
	logger := r.logger.With(
		zap.String("event_id", e.ID),
		zap.String("kind", e.Kind),
		zap.Int("attempt", attempts))

	tx, err := r.dispatch(ctx, e)
	if err == nil {
		if err := r.store.MarkDelivered(ctx, e.ID, attempts, r.now()); err != nil {
			logger.Error("failed to mark event delivered", zap.Error(err))
		}
		telemetry.RecordOutboxDelivery(ctx, e.Kind, "delivered")
		logger.Info("outbox event delivered", zap.String("tx", tx))
		return true
	}

	dead := attempts >= r.maxAttempts || errors.Is(err, errMalformed)
	next := r.now().Add(r.Backoff(attempts))
	if markErr := r.store.MarkFailed(ctx, e.ID, attempts, next, err.Error(), dead); markErr != nil {
		logger.Error("failed to record delivery failure", zap.Error(markErr))
	}

	if dead {
		telemetry.RecordOutboxDelivery(ctx, e.Kind, "dead")
		logger.Error("outbox event dead", zap.Error(err))
	} else {
		telemetry.RecordOutboxDelivery(ctx, e.Kind, "retry")
		logger.Warn("outbox delivery failed, will retry", zap.Time("next_attempt", next), zap.Error(err))
	}
	return false
}

func (r *Relay) dispatch(ctx context.Context, e *models.OutboxEvent) (string, error) {
	if !gjson.Valid(e.Payload) {
		return "", errMalformed
	}
	payload := gjson.Parse(e.Payload)
	wallet := payload.Get("wallet").String()
	if wallet == "" {
		return "", fmt.Errorf("%w: no wallet", errMalformed)
	}

	switch e.Kind {
	case models.EventSBTMint:
		return r.bridge.Mint(ctx, wallet)
	case models.EventSBTRoleChange:
		role := payload.Get("role").String()
		communityID := payload.Get("communityId").Int()
		if role == "" || communityID <= 0 {
			return "", fmt.Errorf("%w: role change without role or community", errMalformed)
		}
		return r.bridge.UpdateRole(ctx, wallet, communityID, role)
	default:
		return "", fmt.Errorf("%w: unknown kind %q", errMalformed, e.Kind)
	}
}
