package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "protrader/internal/errors"
	"protrader/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Registered accounts
	CREATE TABLE IF NOT EXISTS users (
		email TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		password TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Per-user holdings
	CREATE TABLE IF NOT EXISTS subscriptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL,
		ticker TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		added_at DATETIME NOT NULL,
		UNIQUE(email, ticker),
		FOREIGN KEY (email) REFERENCES users(email)
	);

	-- Price alerts
	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		ticker TEXT NOT NULL,
		kind TEXT NOT NULL,
		threshold REAL NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		triggered_at DATETIME
	);

	-- Triggered-alert history
	CREATE TABLE IF NOT EXISTS notification_history (
		id TEXT PRIMARY KEY,
		message TEXT NOT NULL,
		ticker TEXT NOT NULL,
		kind TEXT NOT NULL,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_subscriptions_email ON subscriptions(email);
	CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts(active);
	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON notification_history(timestamp DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Account Methods
// ============================================================================

// CreateUser registers a new account. The email must not already exist.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, user.Email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists > 0 {
		return apperrors.ErrUserExists
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (email, name, password) VALUES (?, ?, ?)
	`, user.Email, user.Name, user.Password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	for _, sub := range user.Subscriptions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO subscriptions (email, ticker, quantity, added_at) VALUES (?, ?, ?, ?)
		`, user.Email, string(sub.Ticker), sub.Quantity, sub.AddedAt)
		if err != nil {
			return fmt.Errorf("failed to save subscription: %w", err)
		}
	}

	return tx.Commit()
}

// GetUser loads an account and its subscriptions by email.
func (s *SQLiteStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT email, name, password FROM users WHERE email = ?
	`, email).Scan(&user.Email, &user.Name, &user.Password)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, quantity, added_at FROM subscriptions WHERE email = ? ORDER BY added_at ASC, id ASC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sub models.Subscription
		var ticker string
		if err := rows.Scan(&ticker, &sub.Quantity, &sub.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		sub.Ticker = models.TickerSymbol(ticker)
		user.Subscriptions = append(user.Subscriptions, sub)
	}

	return &user, rows.Err()
}

// Authenticate verifies credentials and returns the account on success.
func (s *SQLiteStore) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetUser(ctx, email)
	if err == apperrors.ErrAccountNotFound {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.Password != password {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// UpdateSubscriptions replaces the stored subscription list for an account.
func (s *SQLiteStore) UpdateSubscriptions(email string, subs []models.Subscription) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions WHERE email = ?`, email); err != nil {
		return fmt.Errorf("failed to clear subscriptions: %w", err)
	}

	for _, sub := range subs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO subscriptions (email, ticker, quantity, added_at) VALUES (?, ?, ?, ?)
		`, email, string(sub.Ticker), sub.Quantity, sub.AddedAt)
		if err != nil {
			return fmt.Errorf("failed to save subscription: %w", err)
		}
	}

	return tx.Commit()
}

// ============================================================================
// Alert Methods
// ============================================================================

// SaveAlert saves an alert to the database.
func (s *SQLiteStore) SaveAlert(alert models.Alert) error {
	active := 0
	if alert.Active {
		active = 1
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO alerts (id, ticker, kind, threshold, active, created_at, triggered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, alert.ID, string(alert.Ticker), string(alert.Kind), alert.Threshold, active, alert.CreatedAt, alert.TriggeredAt)
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

// MarkTriggered deactivates a stored alert and records the trigger time.
func (s *SQLiteStore) MarkTriggered(id string, at time.Time) error {
	result, err := s.db.Exec(`
		UPDATE alerts SET active = 0, triggered_at = ? WHERE id = ?
	`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark alert triggered: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("alert not found: %s", id)
	}
	return nil
}

// DeleteAlert removes a stored alert. Unknown ids are a no-op.
func (s *SQLiteStore) DeleteAlert(id string) error {
	if _, err := s.db.Exec(`DELETE FROM alerts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return nil
}

// DeleteAlerts removes all stored alerts.
func (s *SQLiteStore) DeleteAlerts() error {
	if _, err := s.db.Exec(`DELETE FROM alerts`); err != nil {
		return fmt.Errorf("failed to delete alerts: %w", err)
	}
	return nil
}

// ActiveAlerts retrieves all active (non-triggered) alerts.
func (s *SQLiteStore) ActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticker, kind, threshold, active, created_at, triggered_at
		FROM alerts WHERE active = 1 ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		var ticker, kind string
		var active int
		if err := rows.Scan(&a.ID, &ticker, &kind, &a.Threshold, &active, &a.CreatedAt, &a.TriggeredAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Ticker = models.TickerSymbol(ticker)
		a.Kind = models.AlertKind(kind)
		a.Active = active == 1
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// ============================================================================
// Notification History Methods
// ============================================================================

// AppendNotification saves a triggered-alert history entry.
func (s *SQLiteStore) AppendNotification(entry models.NotificationHistoryEntry) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO notification_history (id, message, ticker, kind, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ID, entry.Message, string(entry.Ticker), string(entry.Kind), entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// ClearNotifications deletes all persisted history entries.
func (s *SQLiteStore) ClearNotifications() error {
	if _, err := s.db.Exec(`DELETE FROM notification_history`); err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	return nil
}

// Notifications retrieves persisted history entries, newest first.
func (s *SQLiteStore) Notifications(ctx context.Context, limit int) ([]models.NotificationHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message, ticker, kind, timestamp
		FROM notification_history ORDER BY timestamp DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var entries []models.NotificationHistoryEntry
	for rows.Next() {
		var e models.NotificationHistoryEntry
		var ticker, kind string
		if err := rows.Scan(&e.ID, &e.Message, &ticker, &kind, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		e.Ticker = models.TickerSymbol(ticker)
		e.Kind = models.AlertKind(kind)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
