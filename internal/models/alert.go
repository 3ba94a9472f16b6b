package models

import "time"

// AlertKind is the direction of a threshold alert.
type AlertKind string

const (
	AlertAbove AlertKind = "ABOVE"
	AlertBelow AlertKind = "BELOW"
)

// Alert is a user-defined price threshold condition.
//
// Active flips to false exactly once, at the tick where the condition first
// holds, and is never set back to true. Triggered alerts stay in the
// collection for display until explicitly removed.
type Alert struct {
	ID          string
	Ticker      TickerSymbol
	Kind        AlertKind
	Threshold   float64
	Active      bool
	CreatedAt   time.Time
	TriggeredAt *time.Time
}

// NotificationCategory classifies unread notifications.
type NotificationCategory string

const (
	NotificationInfo    NotificationCategory = "info"
	NotificationSuccess NotificationCategory = "success"
)

// NotificationEvent is an unread, dismissible notification.
type NotificationEvent struct {
	ID       string
	Message  string
	Category NotificationCategory
	AlertID  string
}

// NotificationHistoryEntry is one row of the persistent notification history.
type NotificationHistoryEntry struct {
	ID        string
	Message   string
	Timestamp time.Time
	Ticker    TickerSymbol
	Kind      AlertKind
}
