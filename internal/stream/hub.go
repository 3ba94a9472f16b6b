// Package stream provides quote distribution to display-layer consumers.
package stream

import (
	"context"
	"sync"
	"time"

	"protrader/internal/models"
)

// HubConfig holds configuration for the quote hub.
type HubConfig struct {
	// BufferSize is the size of the internal quote channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:           1000,
		SubscriberBufferSize: 100,
	}
}

// Hub fans quotes from the simulation engine out to multiple subscribers.
// Sends to subscribers are non-blocking; a slow consumer drops quotes rather
// than stalling the rest.
type Hub struct {
	config      HubConfig
	mu          sync.RWMutex
	subscribers map[models.TickerSymbol][]*Subscriber
	quoteChan   chan models.Quote
	done        chan struct{}
	started     bool

	consumersMu sync.RWMutex
	consumers   []Consumer

	metricsMu       sync.RWMutex
	quotesReceived  uint64
	quotesBroadcast uint64
	quotesDropped   uint64
}

// Subscriber represents a channel subscriber with metadata.
type Subscriber struct {
	ID           string
	Channel      chan models.Quote
	DroppedCount int
	CreatedAt    time.Time
}

// NewHub creates a new hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a new hub with custom configuration.
func NewHubWithConfig(config HubConfig) *Hub {
	return &Hub{
		config:      config,
		subscribers: make(map[models.TickerSymbol][]*Subscriber),
		quoteChan:   make(chan models.Quote, config.BufferSize),
	}
}

// Start begins the hub's distribution loop. A stopped hub can be started
// again; earlier subscriptions do not carry over.
func (h *Hub) Start(ctx context.Context) {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	done := make(chan struct{})
	h.done = done
	h.mu.Unlock()

	go h.broadcastLoop(ctx, done)
}

func (h *Hub) broadcastLoop(ctx context.Context, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case quote := <-h.quoteChan:
			h.metricsMu.Lock()
			h.quotesReceived++
			h.metricsMu.Unlock()

			h.broadcast(quote)
			h.notifyConsumers(quote)
		}
	}
}

// Stop stops the hub and closes all subscriber channels.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return
	}

	close(h.done)
	h.started = false

	for ticker, subs := range h.subscribers {
		for _, sub := range subs {
			close(sub.Channel)
		}
		delete(h.subscribers, ticker)
	}
}

// Subscribe adds a subscriber for a ticker and returns a channel of quotes.
func (h *Hub) Subscribe(ticker models.TickerSymbol) <-chan models.Quote {
	return h.SubscribeWithID(ticker, "")
}

// SubscribeWithID adds a subscriber with a specific ID for a ticker.
func (h *Hub) SubscribeWithID(ticker models.TickerSymbol, id string) <-chan models.Quote {
	ch := make(chan models.Quote, h.config.SubscriberBufferSize)
	sub := &Subscriber{
		ID:        id,
		Channel:   ch,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.subscribers[ticker] = append(h.subscribers[ticker], sub)
	h.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscriber channel for a ticker.
func (h *Hub) Unsubscribe(ticker models.TickerSymbol, ch <-chan models.Quote) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[ticker]
	for i, sub := range subs {
		if sub.Channel == ch {
			close(sub.Channel)
			h.subscribers[ticker] = append(subs[:i], subs[i+1:]...)
			break
		}
	}

	if len(h.subscribers[ticker]) == 0 {
		delete(h.subscribers, ticker)
	}
}

// Publish sends a quote to the hub for distribution. Non-blocking: if the
// internal buffer is full, the quote is dropped.
func (h *Hub) Publish(quote models.Quote) {
	select {
	case h.quoteChan <- quote:
	default:
		h.metricsMu.Lock()
		h.quotesDropped++
		h.metricsMu.Unlock()
	}
}

func (h *Hub) broadcast(quote models.Quote) {
	h.mu.RLock()
	subs := h.subscribers[quote.Ticker]
	h.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.Channel <- quote:
			h.metricsMu.Lock()
			h.quotesBroadcast++
			h.metricsMu.Unlock()
		default:
			sub.DroppedCount++
			h.metricsMu.Lock()
			h.quotesDropped++
			h.metricsMu.Unlock()
		}
	}
}

// Consumer processes every quote regardless of ticker filter.
type Consumer interface {
	// OnQuote is called when a new quote is distributed.
	OnQuote(quote models.Quote)
	// Tickers returns the tickers this consumer is interested in.
	// Nil or empty means all tickers.
	Tickers() []models.TickerSymbol
}

// RegisterConsumer adds a consumer to receive quotes.
func (h *Hub) RegisterConsumer(consumer Consumer) {
	h.consumersMu.Lock()
	h.consumers = append(h.consumers, consumer)
	h.consumersMu.Unlock()
}

// UnregisterConsumer removes a consumer.
func (h *Hub) UnregisterConsumer(consumer Consumer) {
	h.consumersMu.Lock()
	defer h.consumersMu.Unlock()

	for i, c := range h.consumers {
		if c == consumer {
			h.consumers = append(h.consumers[:i], h.consumers[i+1:]...)
			break
		}
	}
}

func (h *Hub) notifyConsumers(quote models.Quote) {
	h.consumersMu.RLock()
	consumers := make([]Consumer, len(h.consumers))
	copy(consumers, h.consumers)
	h.consumersMu.RUnlock()

	for _, consumer := range consumers {
		tickers := consumer.Tickers()
		if len(tickers) == 0 || containsTicker(tickers, quote.Ticker) {
			consumer.OnQuote(quote)
		}
	}
}

func containsTicker(tickers []models.TickerSymbol, ticker models.TickerSymbol) bool {
	for _, t := range tickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// GetSubscriberCount returns the number of subscribers for a ticker.
func (h *Hub) GetSubscriberCount(ticker models.TickerSymbol) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[ticker])
}

// HubMetrics contains hub performance metrics.
type HubMetrics struct {
	QuotesReceived  uint64
	QuotesBroadcast uint64
	QuotesDropped   uint64
	Subscribers     int
}

// GetMetrics returns hub metrics.
func (h *Hub) GetMetrics() HubMetrics {
	h.mu.RLock()
	subscribers := 0
	for _, subs := range h.subscribers {
		subscribers += len(subs)
	}
	h.mu.RUnlock()

	h.metricsMu.RLock()
	defer h.metricsMu.RUnlock()
	return HubMetrics{
		QuotesReceived:  h.quotesReceived,
		QuotesBroadcast: h.quotesBroadcast,
		QuotesDropped:   h.quotesDropped,
		Subscribers:     subscribers,
	}
}

// IsStarted returns whether the hub is running.
func (h *Hub) IsStarted() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.started
}
