// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"protrader/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Accounts
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, email string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	UpdateSubscriptions(email string, subs []models.Subscription) error

	// Alerts
	SaveAlert(alert models.Alert) error
	MarkTriggered(id string, at time.Time) error
	DeleteAlert(id string) error
	DeleteAlerts() error
	ActiveAlerts(ctx context.Context) ([]models.Alert, error)

	// Notification history
	AppendNotification(entry models.NotificationHistoryEntry) error
	ClearNotifications() error
	Notifications(ctx context.Context, limit int) ([]models.NotificationHistoryEntry, error)

	Close() error
}
