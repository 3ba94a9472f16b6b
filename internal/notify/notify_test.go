package notify

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protrader/internal/models"
)

func newTestCenter() *Center {
	return NewCenter(CenterConfig{Logger: zerolog.Nop()})
}

func TestActivityFeedIsCappedNewestFirst(t *testing.T) {
	center := NewCenter(CenterConfig{ActivityCap: 50, Logger: zerolog.Nop()})

	for i := 0; i < 75; i++ {
		center.AddActivity(fmt.Sprintf("event %d", i), models.ActivityNeutral)
	}

	activity := center.Activity()
	require.Len(t, activity, 50, "activity feed must stay at its cap")
	assert.Equal(t, "event 74", activity[0].Message, "newest entry first")
	assert.Equal(t, "event 25", activity[49].Message, "oldest surviving entry last")
}

func TestActivityEntriesGetIDsAndTimestamps(t *testing.T) {
	center := newTestCenter()

	entry := center.AddActivity("NVDA seeing high buy volume", models.ActivityPositive)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Equal(t, models.ActivityPositive, entry.Category)
}

func TestClearActivity(t *testing.T) {
	center := newTestCenter()
	center.AddActivity("one", models.ActivityNeutral)
	center.AddActivity("two", models.ActivityNeutral)

	center.ClearActivity()
	assert.Empty(t, center.Activity())
}

func TestUnreadQueueAndDismiss(t *testing.T) {
	center := newTestCenter()

	first := center.Emit(models.NotificationEvent{Message: "Price Alert: TSLA passed above $460", Category: models.NotificationSuccess})
	second := center.Emit(models.NotificationEvent{Message: "Welcome back", Category: models.NotificationInfo})

	unread := center.Unread()
	require.Len(t, unread, 2)
	assert.NotEmpty(t, first.ID)

	center.Dismiss(first.ID)
	unread = center.Unread()
	require.Len(t, unread, 1)
	assert.Equal(t, second.ID, unread[0].ID)

	// Dismissing an unknown id is a no-op.
	center.Dismiss("nope")
	assert.Len(t, center.Unread(), 1)
}

func TestHistoryIsCappedAndPrepended(t *testing.T) {
	center := NewCenter(CenterConfig{HistoryCap: 200, Logger: zerolog.Nop()})

	for i := 0; i < 230; i++ {
		center.AppendHistory(models.NotificationHistoryEntry{
			Message: fmt.Sprintf("alert %d", i),
			Ticker:  "TSLA",
			Kind:    models.AlertAbove,
		})
	}

	history := center.History()
	require.Len(t, history, 200)
	assert.Equal(t, "alert 229", history[0].Message)
}

type recordingSink struct {
	mu      sync.Mutex
	entries []models.NotificationHistoryEntry
	cleared int
}

func (r *recordingSink) AppendNotification(entry models.NotificationHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingSink) ClearNotifications() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
	return nil
}

func TestHistoryPersistsThroughSink(t *testing.T) {
	center := newTestCenter()
	sink := &recordingSink{}
	center.SetHistorySink(sink)

	center.AppendHistory(models.NotificationHistoryEntry{Message: "m", Ticker: "GOOG", Kind: models.AlertBelow})

	assert.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.entries) == 1
	}, time.Second, 10*time.Millisecond)

	center.ClearHistory()
	assert.Empty(t, center.History())
	assert.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.cleared == 1
	}, time.Second, 10*time.Millisecond)
}

func TestOnActivityReceivesAppends(t *testing.T) {
	center := newTestCenter()

	received := make(chan models.ActivityEntry, 1)
	require.NoError(t, center.OnActivity(func(entry models.ActivityEntry) {
		received <- entry
	}))

	center.AddActivity("TSLA under selling pressure", models.ActivityNegative)

	select {
	case entry := <-received:
		assert.Equal(t, "TSLA under selling pressure", entry.Message)
	case <-time.After(time.Second):
		t.Fatal("activity handler was not invoked")
	}
}

func TestChatterDedupesInsideWindow(t *testing.T) {
	center := newTestCenter()

	current := time.Unix(1000, 0)
	chatter := NewChatter(ChatterConfig{
		Center:    center,
		Source:    func() []models.TickerSymbol { return []models.TickerSymbol{"NVDA"} },
		Chance:    1.0,
		DedupeTTL: 5 * time.Second,
		Rand:      rand.New(rand.NewSource(1)),
		Now:       func() time.Time { return current },
	})

	// Single ticker, chance 1: the RNG only picks the category. Replay the
	// same RNG sequence to compute how many entries survive consecutive
	// dedup inside the frozen TTL window.
	ref := rand.New(rand.NewSource(1))
	messages := []string{
		"NVDA seeing high buy volume",
		"NVDA under selling pressure",
		"Analyst update for NVDA",
	}
	expected := 0
	last := ""
	for i := 0; i < 50; i++ {
		ref.Float64() // chance roll
		ref.Intn(1)   // ticker pick
		msg := messages[ref.Intn(len(messages))]
		if msg != last {
			last = msg
			expected++
		}
	}

	for i := 0; i < 50; i++ {
		chatter.attempt()
	}
	assert.Len(t, center.Activity(), expected)
	assert.Less(t, expected, 50, "identical consecutive messages inside the window are suppressed")

	// Outside the window the same message is allowed again.
	center.ClearActivity()
	current = current.Add(10 * time.Second)
	chatter.attempt()
	current = current.Add(10 * time.Second)
	chatter.attempt()
	assert.Len(t, center.Activity(), 2)
}

func TestChatterWithoutSubscriptionsStaysQuiet(t *testing.T) {
	center := newTestCenter()
	chatter := NewChatter(ChatterConfig{
		Center: center,
		Source: func() []models.TickerSymbol { return nil },
		Chance: 1.0,
		Rand:   rand.New(rand.NewSource(1)),
	})

	for i := 0; i < 10; i++ {
		chatter.attempt()
	}
	assert.Empty(t, center.Activity())
}

func TestChatterRestartsAfterStop(t *testing.T) {
	center := newTestCenter()
	chatter := NewChatter(ChatterConfig{
		Center:   center,
		Source:   func() []models.TickerSymbol { return []models.TickerSymbol{"NVDA"} },
		Interval: 5 * time.Millisecond,
		Chance:   1.0,
		Rand:     rand.New(rand.NewSource(1)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chatter.Start(ctx)
	assert.Eventually(t, func() bool { return len(center.Activity()) > 0 },
		time.Second, 5*time.Millisecond)
	chatter.Stop()
	chatter.Stop() // repeated Stop is a no-op

	center.ClearActivity()
	chatter.Start(ctx)
	assert.Eventually(t, func() bool { return len(center.Activity()) > 0 },
		time.Second, 5*time.Millisecond, "generation resumes after a restart")
	chatter.Stop()
}
