package outbox

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/pkg/config"
)

type memStore struct {
	mu     sync.Mutex
	events map[string]*models.OutboxEvent
}

func newMemStore(events ...*models.OutboxEvent) *memStore {
	s := &memStore{events: map[string]*models.OutboxEvent{}}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

func (s *memStore) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*models.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.OutboxEvent
	for _, e := range s.events {
		if e.Status == models.OutboxPending && !e.NextAttemptAt.After(now) && len(out) < limit {
			cp := *e
			out = append(out, &cp)
			e.NextAttemptAt = now.Add(lease)
		}
	}
	return out, nil
}

func (s *memStore) MarkDelivered(ctx context.Context, id string, attempts int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.events[id]
	e.Status = models.OutboxDelivered
	e.Attempts = attempts
	e.DeliveredAt = &at
	return nil
}

func (s *memStore) MarkFailed(ctx context.Context, id string, attempts int, next time.Time, lastErr string, dead bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.events[id]
	e.Attempts = attempts
	e.NextAttemptAt = next
	e.LastError = lastErr
	if dead {
		e.Status = models.OutboxDead
	}
	return nil
}

type fakeBridge struct {
	mu       sync.Mutex
	failures int
	mints    []string
	roles    []string
}

func (b *fakeBridge) Mint(ctx context.Context, wallet string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures > 0 {
		b.failures--
		return "", errors.New("relayer unavailable")
	}
	b.mints = append(b.mints, wallet)
	return "0xtx", nil
}

func (b *fakeBridge) UpdateRole(ctx context.Context, wallet string, communityID int64, role string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures > 0 {
		b.failures--
		return "", errors.New("relayer unavailable")
	}
	b.roles = append(b.roles, wallet+":"+role)
	return "0xtx", nil
}

func walletUser(id int64) *models.User {
	return &models.User{ID: id, WalletAddress: sql.NullString{String: "0xw", Valid: true}}
}

func testRelay(store Store, bridge Bridge, clock *time.Time) *Relay {
	r := NewRelay(store, bridge, &config.OutboxConfig{
		BatchSize:   10,
		MaxAttempts: 3,
		BaseBackoff: time.Second,
		MaxBackoff:  3 * time.Second,
	})
	r.now = func() time.Time { return *clock }
	return r
}

func TestBackoff(t *testing.T) {
	r := NewRelay(nil, nil, &config.OutboxConfig{BaseBackoff: time.Second, MaxBackoff: 10 * time.Second})
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{20, 10 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Backoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestEventsWithoutWallet(t *testing.T) {
	assert.Nil(t, NewMintEvent(&models.User{ID: 1}))
	assert.Nil(t, NewRoleEvent(&models.User{ID: 1}, 2, models.RoleContributor))

	e := NewRoleEvent(walletUser(1), 2, models.RoleContributor)
	require.NotNil(t, e)
	assert.Equal(t, models.EventSBTRoleChange, e.Kind)
	assert.Equal(t, "membership:2:1", e.AggregateKey)
	assert.JSONEq(t, `{"userId":1,"wallet":"0xw","communityId":2,"role":"contributor"}`, e.Payload)
}

func TestRunOnceDelivers(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mint := NewMintEvent(walletUser(1))
	role := NewRoleEvent(walletUser(1), 5, models.RoleContributor)
	mint.NextAttemptAt, role.NextAttemptAt = clock, clock

	store := newMemStore(mint, role)
	bridge := &fakeBridge{}
	r := testRelay(store, bridge, &clock)

	n, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"0xw"}, bridge.mints)
	assert.Equal(t, []string{"0xw:contributor"}, bridge.roles)
	assert.Equal(t, models.OutboxDelivered, store.events[mint.ID].Status)

	n, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRunOnceRetriesThenDies(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewMintEvent(walletUser(1))
	e.NextAttemptAt = clock

	store := newMemStore(e)
	bridge := &fakeBridge{failures: 10}
	r := testRelay(store, bridge, &clock)

	_, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	stored := store.events[e.ID]
	assert.Equal(t, models.OutboxPending, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.Equal(t, clock.Add(time.Second), stored.NextAttemptAt)

	// not yet due
	n, _ := r.RunOnce(context.Background())
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, stored.Attempts)

	clock = clock.Add(time.Second)
	_, _ = r.RunOnce(context.Background())
	assert.Equal(t, 2, stored.Attempts)
	assert.Equal(t, clock.Add(2*time.Second), stored.NextAttemptAt)

	clock = clock.Add(2 * time.Second)
	_, _ = r.RunOnce(context.Background())
	assert.Equal(t, 3, stored.Attempts)
	assert.Equal(t, models.OutboxDead, stored.Status)
	assert.Contains(t, stored.LastError, "relayer unavailable")
}

func TestRunOnceRecoversAfterFailure(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewMintEvent(walletUser(1))
	e.NextAttemptAt = clock

	store := newMemStore(e)
	bridge := &fakeBridge{failures: 1}
	r := testRelay(store, bridge, &clock)

	_, _ = r.RunOnce(context.Background())
	clock = clock.Add(time.Second)
	n, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, models.OutboxDelivered, store.events[e.ID].Status)
	assert.Equal(t, 2, store.events[e.ID].Attempts)
}

func TestMalformedEventsDieImmediately(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		event *models.OutboxEvent
	}{
		{"bad json", &models.OutboxEvent{ID: "a", Kind: models.EventSBTMint, Payload: "{", Status: models.OutboxPending}},
		{"unknown kind", &models.OutboxEvent{ID: "b", Kind: "other", Payload: `{"wallet":"0x1"}`, Status: models.OutboxPending}},
		{"no wallet", &models.OutboxEvent{ID: "c", Kind: models.EventSBTMint, Payload: `{}`, Status: models.OutboxPending}},
		{"role without community", &models.OutboxEvent{ID: "d", Kind: models.EventSBTRoleChange, Payload: `{"wallet":"0x1","role":"learner"}`, Status: models.OutboxPending}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.event.NextAttemptAt = clock
			store := newMemStore(tt.event)
			r := testRelay(store, &fakeBridge{}, &clock)

			_, err := r.RunOnce(context.Background())
			require.NoError(t, err)
			assert.Equal(t, models.OutboxDead, store.events[tt.event.ID].Status)
			assert.Equal(t, 1, store.events[tt.event.ID].Attempts)
		})
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	r := NewRelay(newMemStore(), &fakeBridge{}, &config.OutboxConfig{Schedule: "not a schedule"})
	assert.Error(t, r.Start(context.Background()))
	r.Stop()
}
