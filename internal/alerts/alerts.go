// Package alerts provides the price-threshold alert engine.
package alerts

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"protrader/internal/errors"
	"protrader/internal/logging"
	"protrader/internal/market"
	"protrader/internal/models"
	"protrader/internal/notify"
)

// Sink receives alert state changes for persistence. The monitor treats
// persistence as fire-and-forget.
type Sink interface {
	SaveAlert(alert models.Alert) error
	MarkTriggered(id string, at time.Time) error
	DeleteAlert(id string) error
	DeleteAlerts() error
}

// MonitorConfig holds alert monitor configuration.
type MonitorConfig struct {
	Center *notify.Center
	Sink   Sink
	// Known reports whether a ticker belongs to the universe. Defaults to
	// the market package's universe check.
	Known  func(models.TickerSymbol) bool
	Logger zerolog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Monitor evaluates every active alert against the latest simulated prices
// once per tick.
//
// Triggering is idempotent: the Active -> false transition under the monitor
// mutex is the single source of truth, and notification emission derives
// strictly from that transition. Re-running evaluation for the same logical
// tick emits nothing. Triggered alerts stay in the collection for display
// until explicitly removed.
type Monitor struct {
	mu     sync.Mutex
	alerts []*models.Alert
	center *notify.Center
	sink   Sink
	known  func(models.TickerSymbol) bool
	logger zerolog.Logger
	now    func() time.Time
}

// NewMonitor creates an alert monitor.
func NewMonitor(cfg MonitorConfig) *Monitor {
	if cfg.Known == nil {
		cfg.Known = market.IsKnown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Monitor{
		center: cfg.Center,
		sink:   cfg.Sink,
		known:  cfg.Known,
		logger: logging.WithComponent(cfg.Logger, "alerts"),
		now:    cfg.Now,
	}
}

// AddAlert validates and registers a new active alert. Validation failures
// reject the request before any state is mutated.
func (m *Monitor) AddAlert(ticker models.TickerSymbol, kind models.AlertKind, threshold float64) (models.Alert, error) {
	if kind != models.AlertAbove && kind != models.AlertBelow {
		return models.Alert{}, errors.NewValidationError("kind", string(kind), "must be ABOVE or BELOW")
	}
	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return models.Alert{}, errors.Wrapf(errors.ErrInvalidThreshold, "alert on %s", ticker)
	}
	if !m.known(ticker) {
		return models.Alert{}, errors.Wrapf(errors.ErrUnknownTicker, "%s", ticker)
	}

	alert := models.Alert{
		ID:        uuid.NewString(),
		Ticker:    ticker,
		Kind:      kind,
		Threshold: threshold,
		Active:    true,
		CreatedAt: m.now(),
	}

	m.mu.Lock()
	stored := alert
	m.alerts = append(m.alerts, &stored)
	m.mu.Unlock()

	if m.sink != nil {
		go func() {
			if err := m.sink.SaveAlert(alert); err != nil {
				m.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("Failed to persist alert")
			}
		}()
	}

	if m.center != nil {
		comparator := ">"
		if kind == models.AlertBelow {
			comparator = "<"
		}
		m.center.AddActivity(
			"Set alert for "+string(ticker)+" "+comparator+" "+formatThreshold(threshold),
			models.ActivityNeutral,
		)
	}

	return alert, nil
}

// Restore loads previously persisted alerts into the monitor without
// re-emitting activity or re-saving. Duplicate ids are skipped.
func (m *Monitor) Restore(alerts []models.Alert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range alerts {
		known := false
		for _, existing := range m.alerts {
			if existing.ID == alerts[i].ID {
				known = true
				break
			}
		}
		if known {
			continue
		}
		a := alerts[i]
		m.alerts = append(m.alerts, &a)
	}
}

// RemoveAlert removes an alert by id, from the store as well. Unknown ids
// are a no-op.
func (m *Monitor) RemoveAlert(id string) {
	m.mu.Lock()
	removed := false
	for i, a := range m.alerts {
		if a.ID == id {
			m.alerts = append(m.alerts[:i], m.alerts[i+1:]...)
			removed = true
			break
		}
	}
	m.mu.Unlock()

	if !removed || m.sink == nil {
		return
	}
	go func() {
		if err := m.sink.DeleteAlert(id); err != nil {
			m.logger.Warn().Err(err).Str("alert_id", id).Msg("Failed to delete persisted alert")
		}
	}()
}

// ClearAlerts removes all alerts, from the store as well.
func (m *Monitor) ClearAlerts() {
	m.mu.Lock()
	m.alerts = nil
	m.mu.Unlock()

	if m.sink == nil {
		return
	}
	go func() {
		if err := m.sink.DeleteAlerts(); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to delete persisted alerts")
		}
	}()
}

// Alerts returns all alerts, triggered included, in creation order.
func (m *Monitor) Alerts() []models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		out = append(out, *a)
	}
	return out
}

// ActiveCount returns the number of alerts still awaiting their trigger.
func (m *Monitor) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, a := range m.alerts {
		if a.Active {
			count++
		}
	}
	return count
}

// OnTick implements market.TickConsumer. The engine invokes it after the
// tick's price update is fully applied.
func (m *Monitor) OnTick(seq uint64, snap market.Snapshot) {
	m.Evaluate(snap)
}

// Evaluate checks every active alert against the snapshot and triggers the
// ones whose condition holds. Calling it again with the same or a
// still-qualifying snapshot produces no further notifications.
func (m *Monitor) Evaluate(snap market.Snapshot) {
	type fired struct {
		alert models.Alert
		price float64
	}

	now := m.now()

	m.mu.Lock()
	var triggered []fired
	for _, a := range m.alerts {
		if !a.Active {
			continue
		}
		st, ok := snap[a.Ticker]
		if !ok {
			continue
		}

		hit := false
		switch a.Kind {
		case models.AlertAbove:
			hit = st.Price >= a.Threshold
		case models.AlertBelow:
			hit = st.Price <= a.Threshold
		}
		if !hit {
			continue
		}

		a.Active = false
		at := now
		a.TriggeredAt = &at
		triggered = append(triggered, fired{alert: *a, price: st.Price})
	}
	m.mu.Unlock()

	for _, f := range triggered {
		m.emit(f.alert, f.price)
	}
}

// emit produces exactly one notification and one history entry for a
// transition that has already been applied.
func (m *Monitor) emit(alert models.Alert, price float64) {
	direction := "above"
	if alert.Kind == models.AlertBelow {
		direction = "below"
	}
	message := "Price Alert: " + string(alert.Ticker) + " passed " + direction + " $" + formatThreshold(alert.Threshold)

	if m.center != nil {
		m.center.Emit(models.NotificationEvent{
			Message:  message,
			Category: models.NotificationSuccess,
			AlertID:  alert.ID,
		})
		m.center.AppendHistory(models.NotificationHistoryEntry{
			Message:   message,
			Ticker:    alert.Ticker,
			Kind:      alert.Kind,
			Timestamp: *alert.TriggeredAt,
		})
	}

	if m.sink != nil {
		go func() {
			if err := m.sink.MarkTriggered(alert.ID, *alert.TriggeredAt); err != nil {
				m.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("Failed to persist alert trigger")
			}
		}()
	}

	logging.LogAlert(m.logger, alert.ID, string(alert.Ticker), string(alert.Kind), alert.Threshold, price)
}

// formatThreshold renders a threshold without trailing zeros, so a 460.00
// threshold reads "$460".
func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
