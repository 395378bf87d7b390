package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steemit/agora/internal/cache"
	"github.com/steemit/agora/internal/errs"
	"github.com/steemit/agora/internal/models"
)

type memNotifications struct {
	rows []*models.Notification
}

func (m *memNotifications) ListForUser(ctx context.Context, userID int64, unreadOnly bool, lastID int64, limit int) ([]*models.Notification, error) {
	var out []*models.Notification
	for i := len(m.rows) - 1; i >= 0; i-- {
		n := m.rows[i]
		if n.UserID != userID || (unreadOnly && n.Read) || (lastID > 0 && n.ID >= lastID) {
			continue
		}
		out = append(out, n)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memNotifications) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var n int64
	for _, row := range m.rows {
		if row.UserID == userID && !row.Read {
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) MarkRead(ctx context.Context, userID, id int64) (bool, error) {
	for _, row := range m.rows {
		if row.ID == id && row.UserID == userID && !row.Read {
			row.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memNotifications) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	var n int64
	for _, row := range m.rows {
		if row.UserID == userID && !row.Read {
			row.Read = true
			n++
		}
	}
	return n, nil
}

type memCounter struct {
	counts map[int64]int64
	resets int
}

func (m *memCounter) GetUnread(ctx context.Context, userID int64) (int64, error) {
	n, ok := m.counts[userID]
	if !ok {
		return 0, cache.ErrNotFound
	}
	return n, nil
}

func (m *memCounter) SetUnread(ctx context.Context, userID, count int64) error {
	m.counts[userID] = count
	return nil
}

func (m *memCounter) ResetUnread(ctx context.Context, userID int64) error {
	delete(m.counts, userID)
	m.resets++
	return nil
}

func seedNotifications(userID int64, n int) *memNotifications {
	store := &memNotifications{}
	for i := 1; i <= n; i++ {
		store.rows = append(store.rows, &models.Notification{ID: int64(i), UserID: userID, Type: models.NotifyReview})
	}
	store.rows = append(store.rows, &models.Notification{ID: int64(n + 1), UserID: userID + 1})
	return store
}

func TestUnreadCount(t *testing.T) {
	ctx := context.Background()
	store := seedNotifications(7, 3)
	counter := &memCounter{counts: map[int64]int64{}}
	svc := NewNotificationService(store, counter)

	n, err := svc.UnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, int64(3), counter.counts[7])

	// served from the cache while warm
	counter.counts[7] = 42
	n, err = svc.UnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	require.NoError(t, svc.MarkRead(ctx, 7, 2))
	n, err = svc.UnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// already read: nothing to reset
	require.NoError(t, svc.MarkRead(ctx, 7, 2))
	assert.Equal(t, 1, counter.resets)

	changed, err := svc.MarkAllRead(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)
	n, err = svc.UnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUnreadCountWithoutCache(t *testing.T) {
	svc := NewNotificationService(seedNotifications(7, 2), nil)
	n, err := svc.UnreadCount(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestListNotifications(t *testing.T) {
	ctx := context.Background()
	store := seedNotifications(7, 5)
	svc := NewNotificationService(store, nil)

	first, err := svc.List(ctx, 7, false, 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int64(5), first[0].ID)

	next, err := svc.List(ctx, 7, false, first[1].ID, 2)
	require.NoError(t, err)
	require.Len(t, next, 2)
	assert.Equal(t, int64(3), next[0].ID)

	require.NoError(t, svc.MarkRead(ctx, 7, 5))
	unread, err := svc.List(ctx, 7, true, 0, 10)
	require.NoError(t, err)
	assert.Len(t, unread, 4)
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	pinner := &memPinner{}
	svc := NewUploadService(pinner, 16)

	asset, err := svc.Upload(ctx, 1, "Photo.PNG", 5, strings.NewReader("image"))
	require.NoError(t, err)
	assert.Equal(t, "QmTestCID", asset.CID)
	assert.Equal(t, "https://gateway.test/ipfs/QmTestCID", asset.URL)
	assert.True(t, strings.HasSuffix(asset.Name, ".png"))
	assert.Equal(t, []string{asset.Name}, pinner.names)

	_, err = svc.Upload(ctx, 1, "big.bin", 17, bytes.NewReader(make([]byte, 17)))
	assert.Equal(t, errs.Invalid, errs.KindOf(err))
	_, err = svc.Upload(ctx, 1, "empty.txt", 0, strings.NewReader(""))
	assert.Equal(t, errs.Invalid, errs.KindOf(err))

	pinner.err = errors.New("gateway down")
	_, err = svc.Upload(ctx, 1, "a.txt", 1, strings.NewReader("a"))
	assert.Equal(t, errs.Internal, errs.KindOf(err))
}
