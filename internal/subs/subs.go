// Package subs manages a user's bounded subscription list.
package subs

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"protrader/internal/errors"
	"protrader/internal/logging"
	"protrader/internal/market"
	"protrader/internal/models"
	"protrader/internal/notify"
)

// Persister receives subscription-list updates for the session subsystem.
// Updates are fire-and-forget from the manager's perspective.
type Persister interface {
	UpdateSubscriptions(email string, subs []models.Subscription) error
}

// ManagerConfig holds subscription manager configuration.
type ManagerConfig struct {
	MaxPerUser int
	Center     *notify.Center
	Persister  Persister
	Logger     zerolog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Manager is the sole mutator of the current user's subscription list.
// Operations are atomic with respect to the list: no duplicate ticker and
// never more than MaxPerUser entries are observable.
type Manager struct {
	mu        sync.Mutex
	user      *models.User
	max       int
	center    *notify.Center
	persister Persister
	logger    zerolog.Logger
	now       func() time.Time
}

// NewManager creates a subscription manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.MaxPerUser <= 0 {
		cfg.MaxPerUser = 5
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		max:       cfg.MaxPerUser,
		center:    cfg.Center,
		persister: cfg.Persister,
		logger:    logging.WithComponent(cfg.Logger, "subs"),
		now:       cfg.Now,
	}
}

// SetUser switches the current session user. Nil means guest.
func (m *Manager) SetUser(user *models.User) {
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
}

// User returns the current session user, or nil for guest.
func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// GuestSubscriptions is the demo holdings shown to unauthenticated visitors.
func GuestSubscriptions() []models.Subscription {
	out := make([]models.Subscription, 0, len(market.DemoTickers))
	for _, t := range market.DemoTickers {
		out = append(out, models.Subscription{Ticker: t, Quantity: 10})
	}
	return out
}

// Subscriptions returns the current subscription list. Guests get the demo
// holdings.
func (m *Manager) Subscriptions() []models.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return GuestSubscriptions()
	}
	out := make([]models.Subscription, len(m.user.Subscriptions))
	copy(out, m.user.Subscriptions)
	return out
}

// ActiveTickers returns the tickers of the current subscription list, in
// subscription order.
func (m *Manager) ActiveTickers() []models.TickerSymbol {
	subs := m.Subscriptions()
	out := make([]models.TickerSymbol, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.Ticker)
	}
	return out
}

// Subscribe adds a holding for the current user.
//
// A duplicate ticker is a silent no-op. Subscribing past the cap is rejected
// with a CapacityError and leaves the list unchanged, with no activity
// entry. Quantity must be a positive integer.
func (m *Manager) Subscribe(ticker models.TickerSymbol, quantity int) error {
	if quantity <= 0 {
		return errors.Wrapf(errors.ErrInvalidQuantity, "subscribe %s", ticker)
	}

	m.mu.Lock()
	if m.user == nil {
		m.mu.Unlock()
		return errors.ErrNotAuthenticated
	}

	for _, s := range m.user.Subscriptions {
		if s.Ticker == ticker {
			m.mu.Unlock()
			return nil
		}
	}

	if len(m.user.Subscriptions) >= m.max {
		m.mu.Unlock()
		return errors.NewCapacityError(string(ticker), m.max)
	}

	m.user.Subscriptions = append(m.user.Subscriptions, models.Subscription{
		Ticker:   ticker,
		Quantity: quantity,
		AddedAt:  m.now(),
	})
	email := m.user.Email
	snapshot := make([]models.Subscription, len(m.user.Subscriptions))
	copy(snapshot, m.user.Subscriptions)
	held := len(m.user.Subscriptions)
	m.mu.Unlock()

	m.persist(email, snapshot)
	if m.center != nil {
		m.center.AddActivity(
			fmt.Sprintf("Subscribed to %d share(s) of %s", quantity, ticker),
			models.ActivityNeutral,
		)
	}
	logging.LogSubscription(m.logger, "subscribe", string(ticker), quantity, held)
	return nil
}

// Unsubscribe removes the holding for a ticker. Removing a ticker that is
// not held leaves the list unchanged, but the activity entry is logged
// either way.
func (m *Manager) Unsubscribe(ticker models.TickerSymbol) error {
	m.mu.Lock()
	if m.user == nil {
		m.mu.Unlock()
		return errors.ErrNotAuthenticated
	}

	kept := m.user.Subscriptions[:0]
	for _, s := range m.user.Subscriptions {
		if s.Ticker != ticker {
			kept = append(kept, s)
		}
	}
	m.user.Subscriptions = kept
	email := m.user.Email
	snapshot := make([]models.Subscription, len(m.user.Subscriptions))
	copy(snapshot, m.user.Subscriptions)
	held := len(m.user.Subscriptions)
	m.mu.Unlock()

	m.persist(email, snapshot)
	if m.center != nil {
		m.center.AddActivity(fmt.Sprintf("Unsubscribed from %s", ticker), models.ActivityNeutral)
	}
	logging.LogSubscription(m.logger, "unsubscribe", string(ticker), 0, held)
	return nil
}

func (m *Manager) persist(email string, snapshot []models.Subscription) {
	if m.persister == nil {
		return
	}
	go func() {
		if err := m.persister.UpdateSubscriptions(email, snapshot); err != nil {
			m.logger.Warn().Err(err).Str("email", email).Msg("Failed to persist subscriptions")
		}
	}()
}
