// Package notify provides the notification center and market activity feed.
package notify

import (
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"protrader/internal/logging"
	"protrader/internal/models"
)

// EventBus topics published by the Center.
const (
	TopicNotification = "notify:event"
	TopicActivity     = "notify:activity"
)

// HistorySink receives notification history writes for persistence.
// The center treats persistence as fire-and-forget.
type HistorySink interface {
	AppendNotification(entry models.NotificationHistoryEntry) error
	ClearNotifications() error
}

// CenterConfig holds notification center configuration.
type CenterConfig struct {
	// HistoryCap bounds the persistent notification history. Oldest entries
	// are evicted first.
	HistoryCap int
	// ActivityCap bounds the market activity feed.
	ActivityCap int
	Logger      zerolog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Center owns the unread notification queue, the persistent notification
// history and the bounded activity feed. All mutation goes through its
// methods; reads return copies.
type Center struct {
	mu          sync.Mutex
	unread      []models.NotificationEvent
	history     []models.NotificationHistoryEntry
	activity    []models.ActivityEntry
	historyCap  int
	activityCap int
	sink        HistorySink
	bus         EventBus.Bus
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCenter creates a notification center.
func NewCenter(cfg CenterConfig) *Center {
	if cfg.HistoryCap <= 0 {
		cfg.HistoryCap = 200
	}
	if cfg.ActivityCap <= 0 {
		cfg.ActivityCap = 50
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Center{
		historyCap:  cfg.HistoryCap,
		activityCap: cfg.ActivityCap,
		bus:         EventBus.New(),
		logger:      logging.WithComponent(cfg.Logger, "notify"),
		now:         cfg.Now,
	}
}

// SetHistorySink sets the optional persistence sink for notification history.
func (c *Center) SetHistorySink(sink HistorySink) {
	c.mu.Lock()
	c.sink = sink
	c.mu.Unlock()
}

// Emit appends an unread notification and publishes it on the bus.
// A missing ID is filled in.
func (c *Center) Emit(event models.NotificationEvent) models.NotificationEvent {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	c.mu.Lock()
	c.unread = append(c.unread, event)
	c.mu.Unlock()

	c.bus.Publish(TopicNotification, event)
	return event
}

// Dismiss removes an unread notification by id. Unknown ids are a no-op.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.unread {
		if n.ID == id {
			c.unread = append(c.unread[:i], c.unread[i+1:]...)
			return
		}
	}
}

// Unread returns the unread queue in insertion order.
func (c *Center) Unread() []models.NotificationEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.NotificationEvent, len(c.unread))
	copy(out, c.unread)
	return out
}

// AppendHistory prepends an entry to the notification history, evicting the
// oldest entries beyond the cap. Persistence happens in the background.
func (c *Center) AppendHistory(entry models.NotificationHistoryEntry) models.NotificationHistoryEntry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = c.now()
	}

	c.mu.Lock()
	c.history = append([]models.NotificationHistoryEntry{entry}, c.history...)
	if len(c.history) > c.historyCap {
		c.history = c.history[:c.historyCap]
	}
	sink := c.sink
	c.mu.Unlock()

	if sink != nil {
		go func() {
			if err := sink.AppendNotification(entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to persist notification history entry")
			}
		}()
	}
	return entry
}

// History returns the notification history, newest first.
func (c *Center) History() []models.NotificationHistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.NotificationHistoryEntry, len(c.history))
	copy(out, c.history)
	return out
}

// ClearHistory drops all history entries.
func (c *Center) ClearHistory() {
	c.mu.Lock()
	c.history = nil
	sink := c.sink
	c.mu.Unlock()

	if sink != nil {
		go func() {
			if err := sink.ClearNotifications(); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to clear persisted notification history")
			}
		}()
	}
}

// AddActivity prepends an entry to the activity feed and truncates it to the
// configured cap.
func (c *Center) AddActivity(message string, category models.ActivityCategory) models.ActivityEntry {
	entry := models.ActivityEntry{
		ID:        uuid.NewString(),
		Message:   message,
		Category:  category,
		Timestamp: c.now(),
	}

	c.mu.Lock()
	c.activity = append([]models.ActivityEntry{entry}, c.activity...)
	if len(c.activity) > c.activityCap {
		c.activity = c.activity[:c.activityCap]
	}
	c.mu.Unlock()

	c.bus.Publish(TopicActivity, entry)
	logging.LogActivity(c.logger, message, string(category))
	return entry
}

// ClearActivity drops the activity feed. Used when the session user changes.
func (c *Center) ClearActivity() {
	c.mu.Lock()
	c.activity = nil
	c.mu.Unlock()
}

// Activity returns the activity feed, newest first.
func (c *Center) Activity() []models.ActivityEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ActivityEntry, len(c.activity))
	copy(out, c.activity)
	return out
}

// OnNotification subscribes a handler to emitted notifications.
func (c *Center) OnNotification(fn func(models.NotificationEvent)) error {
	return c.bus.SubscribeAsync(TopicNotification, fn, false)
}

// OnActivity subscribes a handler to activity feed appends.
func (c *Center) OnActivity(fn func(models.ActivityEntry)) error {
	return c.bus.SubscribeAsync(TopicActivity, fn, false)
}
