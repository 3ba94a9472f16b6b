package market

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"protrader/internal/logging"
	"protrader/internal/models"
)

// MinPrice is the floor applied to every simulated price.
const MinPrice = 0.01

// Snapshot is a consistent read-only copy of all ticker state as of one tick.
type Snapshot map[models.TickerSymbol]models.TickerState

// TickConsumer receives the snapshot of each tick after the update for that
// tick is fully applied.
type TickConsumer interface {
	OnTick(seq uint64, snap Snapshot)
}

// QuotePublisher receives one quote per ticker per tick, for fan-out to
// display subscribers.
type QuotePublisher interface {
	Publish(quote models.Quote)
}

// EngineConfig holds simulation engine configuration.
type EngineConfig struct {
	TickInterval  time.Duration
	Volatility    float64
	HistoryLength int
	// Rand is the perturbation source. A nil source degrades to zero
	// perturbation rather than failing.
	Rand *rand.Rand
	// Now overrides the clock, for tests.
	Now    func() time.Time
	Logger zerolog.Logger
}

// Engine advances the simulated price of every ticker once per tick and owns
// the process-wide ticker state. It is the single writer; all other
// components read through Snapshot or State.
type Engine struct {
	interval   time.Duration
	volatility float64
	historyLen int
	rng        *rand.Rand
	now        func() time.Time
	logger     zerolog.Logger

	mu     sync.RWMutex
	states map[models.TickerSymbol]*models.TickerState
	seq    uint64

	consumersMu sync.RWMutex
	consumers   []TickConsumer
	publisher   QuotePublisher

	lifecycleMu sync.Mutex
	done        chan struct{}
	started     bool
}

// NewEngine creates a simulation engine over the fixed universe, with every
// ticker at its base price and a full history buffer.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Volatility <= 0 {
		cfg.Volatility = 0.01
	}
	if cfg.HistoryLength <= 0 {
		cfg.HistoryLength = 60
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	e := &Engine{
		interval:   cfg.TickInterval,
		volatility: cfg.Volatility,
		historyLen: cfg.HistoryLength,
		rng:        cfg.Rand,
		now:        cfg.Now,
		logger:     logging.WithComponent(cfg.Logger, "market"),
		states:     make(map[models.TickerSymbol]*models.TickerState, len(universe)),
	}

	now := e.now()
	for ticker, ref := range universe {
		history := make([]models.PricePoint, e.historyLen)
		for i := range history {
			history[i] = models.PricePoint{Price: ref.BasePrice, Timestamp: now}
		}
		e.states[ticker] = &models.TickerState{
			Ticker:    ticker,
			Price:     ref.BasePrice,
			PrevPrice: ref.BasePrice,
			History:   history,
		}
	}

	return e
}

// RegisterConsumer adds a tick consumer. Consumers are invoked synchronously
// on the tick goroutine, after the price update for that tick is fully
// applied and before the next tick can begin.
func (e *Engine) RegisterConsumer(c TickConsumer) {
	e.consumersMu.Lock()
	e.consumers = append(e.consumers, c)
	e.consumersMu.Unlock()
}

// SetPublisher sets the quote publisher.
func (e *Engine) SetPublisher(p QuotePublisher) {
	e.consumersMu.Lock()
	e.publisher = p
	e.consumersMu.Unlock()
}

// Start begins the tick loop. It is a no-op if already started; a stopped
// engine can be started again.
func (e *Engine) Start(ctx context.Context) {
	e.lifecycleMu.Lock()
	if e.started {
		e.lifecycleMu.Unlock()
		return
	}
	e.started = true
	done := make(chan struct{})
	e.done = done
	e.lifecycleMu.Unlock()

	go e.loop(ctx, done)
}

// Stop halts the tick loop. No tick is applied after Stop returns.
func (e *Engine) Stop() {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()
	if !e.started {
		return
	}
	close(e.done)
	e.started = false
}

func (e *Engine) loop(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			e.Step()
		}
	}
}

// Step applies exactly one simulation tick: perturb every price, append to
// history, recompute change against the base price, then hand the resulting
// snapshot to consumers. The state update is atomic; no reader can observe a
// new price with stale history.
func (e *Engine) Step() uint64 {
	start := e.now()

	e.mu.Lock()
	e.seq++
	seq := e.seq
	now := e.now()

	for _, ticker := range tickerOrder {
		st := e.states[ticker]
		ref := universe[ticker]

		st.PrevPrice = st.Price
		newPrice := st.Price + st.Price*e.perturbation()
		if newPrice < MinPrice {
			newPrice = MinPrice
			tl := logging.WithTicker(e.logger, string(ticker))
			tl.Debug().Uint64("seq", seq).Msg("Price clamped at floor")
		}
		st.Price = newPrice

		// Ring semantics: evict oldest, append newest. Length is invariant.
		copy(st.History, st.History[1:])
		st.History[len(st.History)-1] = models.PricePoint{Price: newPrice, Timestamp: now}

		st.Change = newPrice - ref.BasePrice
		st.ChangePercent = st.Change / ref.BasePrice * 100
	}

	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.consumersMu.RLock()
	consumers := make([]TickConsumer, len(e.consumers))
	copy(consumers, e.consumers)
	publisher := e.publisher
	e.consumersMu.RUnlock()

	for _, c := range consumers {
		c.OnTick(seq, snap)
	}

	if publisher != nil {
		for _, ticker := range tickerOrder {
			st := snap[ticker]
			publisher.Publish(models.Quote{
				Ticker:        ticker,
				Price:         st.Price,
				PrevPrice:     st.PrevPrice,
				Change:        st.Change,
				ChangePercent: st.ChangePercent,
				Seq:           seq,
				Timestamp:     now,
			})
		}
	}

	logging.LogTick(e.logger, seq, len(tickerOrder), e.now().Sub(start))
	return seq
}

// perturbation returns a bounded multiplicative delta factor in
// [-volatility, +volatility). A missing random source yields zero.
func (e *Engine) perturbation() float64 {
	if e.rng == nil {
		return 0
	}
	return e.rng.Float64()*2*e.volatility - e.volatility
}

// Snapshot returns a consistent deep copy of all ticker state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := make(Snapshot, len(e.states))
	for ticker, st := range e.states {
		snap[ticker] = st.Clone()
	}
	return snap
}

// State returns a deep copy of one ticker's state.
func (e *Engine) State(ticker models.TickerSymbol) (models.TickerState, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, ok := e.states[ticker]
	if !ok {
		return models.TickerState{}, false
	}
	return st.Clone(), true
}

// Seq returns the sequence number of the most recently applied tick.
func (e *Engine) Seq() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.seq
}
