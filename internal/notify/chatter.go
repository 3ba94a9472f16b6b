package notify

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"protrader/internal/models"
)

// ChatterConfig holds configuration for the synthetic activity generator.
type ChatterConfig struct {
	Center *Center
	// Source returns the tickers chatter may be generated for, typically the
	// current user's subscriptions or the guest demo set.
	Source func() []models.TickerSymbol
	// Interval between generation attempts.
	Interval time.Duration
	// Chance of generating a message on each attempt, in [0, 1].
	Chance float64
	// DedupeTTL suppresses an identical message repeated inside this window.
	// Cosmetic only; trigger correctness never depends on it.
	DedupeTTL time.Duration
	Rand      *rand.Rand
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Chatter periodically synthesizes market-activity messages for a random
// ticker from the active set.
type Chatter struct {
	center    *Center
	source    func() []models.TickerSymbol
	interval  time.Duration
	chance    float64
	dedupeTTL time.Duration
	rng       *rand.Rand
	now       func() time.Time

	mu      sync.Mutex
	lastMsg string
	lastAt  time.Time
	done    chan struct{}
	started bool
}

// NewChatter creates a synthetic activity generator.
func NewChatter(cfg ChatterConfig) *Chatter {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.Chance <= 0 {
		cfg.Chance = 0.05
	}
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Chatter{
		center:    cfg.Center,
		source:    cfg.Source,
		interval:  cfg.Interval,
		chance:    cfg.Chance,
		dedupeTTL: cfg.DedupeTTL,
		rng:       cfg.Rand,
		now:       cfg.Now,
	}
}

// Start begins the generation loop. A stopped generator can be started again.
func (g *Chatter) Start(ctx context.Context) {
	g.mu.Lock()
	if g.started {
		g.mu.Unlock()
		return
	}
	g.started = true
	done := make(chan struct{})
	g.done = done
	g.mu.Unlock()

	go g.loop(ctx, done)
}

// Stop halts the generation loop.
func (g *Chatter) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.started {
		return
	}
	close(g.done)
	g.started = false
}

func (g *Chatter) loop(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			g.attempt()
		}
	}
}

// attempt rolls the generation chance and appends at most one activity entry.
func (g *Chatter) attempt() {
	if g.rng == nil || g.source == nil {
		return
	}
	if g.rng.Float64() >= g.chance {
		return
	}

	tickers := g.source()
	if len(tickers) == 0 {
		return
	}
	ticker := tickers[g.rng.Intn(len(tickers))]

	categories := []models.ActivityCategory{
		models.ActivityPositive,
		models.ActivityNegative,
		models.ActivityNeutral,
	}
	category := categories[g.rng.Intn(len(categories))]

	var message string
	switch category {
	case models.ActivityPositive:
		message = fmt.Sprintf("%s seeing high buy volume", ticker)
	case models.ActivityNegative:
		message = fmt.Sprintf("%s under selling pressure", ticker)
	default:
		message = fmt.Sprintf("Analyst update for %s", ticker)
	}

	now := g.now()
	g.mu.Lock()
	if message == g.lastMsg && now.Sub(g.lastAt) < g.dedupeTTL {
		g.mu.Unlock()
		return
	}
	g.lastMsg = message
	g.lastAt = now
	g.mu.Unlock()

	g.center.AddActivity(message, category)
}
