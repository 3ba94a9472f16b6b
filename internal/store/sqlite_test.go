package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "protrader/internal/errors"
	"protrader/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testUser() *models.User {
	return &models.User{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "hunter2",
		Subscriptions: []models.Subscription{
			{Ticker: "GOOG", Quantity: 10, AddedAt: time.Now().Add(-time.Hour)},
			{Ticker: "TSLA", Quantity: 5, AddedAt: time.Now()},
		},
	}
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser()))

	got, err := s.GetUser(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Test User", got.Name)
	assert.Equal(t, "hunter2", got.Password)
	require.Len(t, got.Subscriptions, 2)
	assert.Equal(t, models.TickerSymbol("GOOG"), got.Subscriptions[0].Ticker)
	assert.Equal(t, 10, got.Subscriptions[0].Quantity)
	assert.Equal(t, models.TickerSymbol("TSLA"), got.Subscriptions[1].Ticker)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser()))
	err := s.CreateUser(ctx, testUser())
	assert.ErrorIs(t, err, apperrors.ErrUserExists)
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUser(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
}

func TestAuthenticate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, testUser()))

	user, err := s.Authenticate(ctx, "test@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Len(t, user.Subscriptions, 2)

	_, err = s.Authenticate(ctx, "test@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	// An unknown account looks the same as a bad password.
	_, err = s.Authenticate(ctx, "ghost@example.com", "hunter2")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestUpdateSubscriptionsReplacesList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, testUser()))

	now := time.Now()
	err := s.UpdateSubscriptions("test@example.com", []models.Subscription{
		{Ticker: "NVDA", Quantity: 3, AddedAt: now},
	})
	require.NoError(t, err)

	got, err := s.GetUser(ctx, "test@example.com")
	require.NoError(t, err)
	require.Len(t, got.Subscriptions, 1)
	assert.Equal(t, models.TickerSymbol("NVDA"), got.Subscriptions[0].Ticker)
	assert.Equal(t, 3, got.Subscriptions[0].Quantity)

	require.NoError(t, s.UpdateSubscriptions("test@example.com", nil))
	got, err = s.GetUser(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Empty(t, got.Subscriptions)
}

func TestAlertLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := time.Now().Truncate(time.Second)
	first := models.Alert{
		ID:        "alert-1",
		Ticker:    "TSLA",
		Kind:      models.AlertAbove,
		Threshold: 460,
		Active:    true,
		CreatedAt: created,
	}
	second := models.Alert{
		ID:        "alert-2",
		Ticker:    "GOOG",
		Kind:      models.AlertBelow,
		Threshold: 300,
		Active:    true,
		CreatedAt: created.Add(time.Second),
	}
	require.NoError(t, s.SaveAlert(first))
	require.NoError(t, s.SaveAlert(second))

	active, err := s.ActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "alert-1", active[0].ID)
	assert.Equal(t, models.AlertAbove, active[0].Kind)
	assert.Equal(t, 460.0, active[0].Threshold)
	assert.True(t, active[0].Active)
	assert.Nil(t, active[0].TriggeredAt)

	require.NoError(t, s.MarkTriggered("alert-1", created.Add(2*time.Second)))

	active, err = s.ActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "alert-2", active[0].ID)
}

func TestDeleteAlertRemovesRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alert := models.Alert{
		ID:        "alert-1",
		Ticker:    "TSLA",
		Kind:      models.AlertAbove,
		Threshold: 460,
		Active:    true,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.SaveAlert(alert))
	require.NoError(t, s.DeleteAlert("alert-1"))

	active, err := s.ActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, active, "deleted alerts must not be restored")

	// Unknown ids are a no-op.
	assert.NoError(t, s.DeleteAlert("no-such-alert"))
}

func TestDeleteAlertsClearsTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"alert-1", "alert-2"} {
		require.NoError(t, s.SaveAlert(models.Alert{
			ID:        id,
			Ticker:    "GOOG",
			Kind:      models.AlertBelow,
			Threshold: 300,
			Active:    true,
			CreatedAt: time.Now(),
		}))
	}
	require.NoError(t, s.DeleteAlerts())

	active, err := s.ActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestMarkTriggeredUnknownAlert(t *testing.T) {
	s := newTestStore(t)

	err := s.MarkTriggered("no-such-alert", time.Now())
	assert.Error(t, err)
}

func TestSaveAlertIsUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alert := models.Alert{
		ID:        "alert-1",
		Ticker:    "NVDA",
		Kind:      models.AlertAbove,
		Threshold: 180,
		Active:    true,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.SaveAlert(alert))

	alert.Active = false
	require.NoError(t, s.SaveAlert(alert))

	active, err := s.ActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestNotificationHistoryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		err := s.AppendNotification(models.NotificationHistoryEntry{
			ID:        string(rune('a' + i)),
			Message:   "TSLA crossed above 460",
			Ticker:    "TSLA",
			Kind:      models.AlertAbove,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	entries, err := s.Notifications(ctx, 50)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// Newest first.
	assert.Equal(t, "c", entries[0].ID)
	assert.Equal(t, "a", entries[2].ID)
	assert.Equal(t, models.TickerSymbol("TSLA"), entries[0].Ticker)

	limited, err := s.Notifications(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	require.NoError(t, s.ClearNotifications())
	entries, err = s.Notifications(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
