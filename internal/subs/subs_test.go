package subs

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "protrader/internal/errors"
	"protrader/internal/models"
	"protrader/internal/notify"
)

type fakePersister struct {
	mu      sync.Mutex
	updates [][]models.Subscription
}

func (f *fakePersister) UpdateSubscriptions(email string, subs []models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, subs)
	return nil
}

func newTestManager(t *testing.T) (*Manager, *notify.Center, *fakePersister) {
	t.Helper()
	center := notify.NewCenter(notify.CenterConfig{Logger: zerolog.Nop()})
	persister := &fakePersister{}
	manager := NewManager(ManagerConfig{
		MaxPerUser: 5,
		Center:     center,
		Persister:  persister,
		Logger:     zerolog.Nop(),
	})
	manager.SetUser(&models.User{Name: "Test", Email: "test@example.com"})
	return manager, center, persister
}

func TestSubscribeAppendsAndLogsActivity(t *testing.T) {
	manager, center, persister := newTestManager(t)

	require.NoError(t, manager.Subscribe("NVDA", 10))

	subs := manager.Subscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, models.TickerSymbol("NVDA"), subs[0].Ticker)
	assert.Equal(t, 10, subs[0].Quantity)
	assert.False(t, subs[0].AddedAt.IsZero())

	activity := center.Activity()
	require.Len(t, activity, 1)
	assert.Equal(t, "Subscribed to 10 share(s) of NVDA", activity[0].Message)
	assert.Equal(t, models.ActivityNeutral, activity[0].Category)

	assert.Eventually(t, func() bool {
		persister.mu.Lock()
		defer persister.mu.Unlock()
		return len(persister.updates) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSubscribeDuplicateIsSilentNoOp(t *testing.T) {
	manager, center, _ := newTestManager(t)

	require.NoError(t, manager.Subscribe("TSLA", 5))
	require.NoError(t, manager.Subscribe("TSLA", 99))

	subs := manager.Subscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, 5, subs[0].Quantity, "duplicate subscribe must not change the holding")
	assert.Len(t, center.Activity(), 1, "duplicate subscribe logs nothing")
}

func TestSubscribeRejectsInvalidQuantity(t *testing.T) {
	manager, center, _ := newTestManager(t)

	for _, q := range []int{0, -3} {
		err := manager.Subscribe("GOOG", q)
		assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity, "quantity %d", q)
	}
	assert.Empty(t, manager.Subscriptions())
	assert.Empty(t, center.Activity())
}

func TestSubscribeCapRejectsSixthTicker(t *testing.T) {
	manager, center, _ := newTestManager(t)

	tickers := []models.TickerSymbol{"GOOG", "TSLA", "AMZN", "META", "NVDA"}
	for _, ticker := range tickers {
		require.NoError(t, manager.Subscribe(ticker, 1))
	}
	activityBefore := len(center.Activity())

	err := manager.Subscribe("EXTRA", 1)
	var capErr *apperrors.CapacityError
	require.True(t, apperrors.As(err, &capErr))
	assert.Equal(t, 5, capErr.Limit)
	assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded)

	subs := manager.Subscriptions()
	assert.Len(t, subs, 5, "rejected subscribe leaves the list unchanged")
	for i, ticker := range tickers {
		assert.Equal(t, ticker, subs[i].Ticker)
	}
	assert.Len(t, center.Activity(), activityBefore, "no activity entry for a rejected subscribe")
}

func TestUnsubscribeRemovesAndLogs(t *testing.T) {
	manager, center, _ := newTestManager(t)

	require.NoError(t, manager.Subscribe("NVDA", 10))
	require.NoError(t, manager.Unsubscribe("NVDA"))

	assert.Empty(t, manager.Subscriptions())
	activity := center.Activity()
	require.Len(t, activity, 2)
	assert.Equal(t, "Unsubscribed from NVDA", activity[0].Message)
}

func TestUnsubscribeMissingTickerStillLogs(t *testing.T) {
	manager, center, _ := newTestManager(t)

	require.NoError(t, manager.Unsubscribe("META"))

	assert.Empty(t, manager.Subscriptions())
	activity := center.Activity()
	require.Len(t, activity, 1, "a no-op unsubscribe still logs an activity entry")
	assert.Equal(t, "Unsubscribed from META", activity[0].Message)
}

func TestGuestGetsDemoPortfolio(t *testing.T) {
	center := notify.NewCenter(notify.CenterConfig{Logger: zerolog.Nop()})
	manager := NewManager(ManagerConfig{MaxPerUser: 5, Center: center, Logger: zerolog.Nop()})

	subs := manager.Subscriptions()
	require.Len(t, subs, 5)
	for _, sub := range subs {
		assert.Equal(t, 10, sub.Quantity)
	}

	assert.ErrorIs(t, manager.Subscribe("NVDA", 1), apperrors.ErrNotAuthenticated)
	assert.ErrorIs(t, manager.Unsubscribe("NVDA"), apperrors.ErrNotAuthenticated)
}

func TestActiveTickersFollowsSubscriptionOrder(t *testing.T) {
	manager, _, _ := newTestManager(t)

	require.NoError(t, manager.Subscribe("META", 2))
	require.NoError(t, manager.Subscribe("GOOG", 4))

	assert.Equal(t, []models.TickerSymbol{"META", "GOOG"}, manager.ActiveTickers())
}
