// Package models provides domain models for the simulated trading dashboard.
package models

import (
	"time"
)

// TickerSymbol identifies one simulated equity. The set of valid symbols is
// fixed at startup and never changes for the process lifetime.
type TickerSymbol string

// ReferenceInfo holds the immutable baseline attributes of a ticker.
// BasePrice is the basis for all change/changePercent calculations.
type ReferenceInfo struct {
	Name      string
	Sector    string
	BasePrice float64
	Open      float64
	DayLow    float64
	DayHigh   float64
	Volume    string
	MarketCap string
	PERatio   float64
}

// PricePoint is one observation in a ticker's rolling history.
type PricePoint struct {
	Price     float64
	Timestamp time.Time
}

// TickerState is the mutable per-ticker simulation state.
//
// Change is always relative to the immutable reference price, not the
// previous tick: Change = Price - BasePrice.
type TickerState struct {
	Ticker        TickerSymbol
	Price         float64
	PrevPrice     float64
	History       []PricePoint
	Change        float64
	ChangePercent float64
}

// Clone returns a deep copy of the state, including the history slice.
func (s TickerState) Clone() TickerState {
	out := s
	out.History = make([]PricePoint, len(s.History))
	copy(out.History, s.History)
	return out
}

// Quote is the per-ticker view published to stream consumers after each tick.
type Quote struct {
	Ticker        TickerSymbol
	Price         float64
	PrevPrice     float64
	Change        float64
	ChangePercent float64
	Seq           uint64
	Timestamp     time.Time
}

// Subscription is a user's declared holding of a ticker.
type Subscription struct {
	Ticker   TickerSymbol
	Quantity int
	AddedAt  time.Time
}

// User is owned by the session subsystem. The simulation core only reads
// Subscriptions; identity fields are never mutated here.
type User struct {
	Name          string
	Email         string
	Password      string
	Subscriptions []Subscription
}

// ActivityCategory classifies activity feed entries.
type ActivityCategory string

const (
	ActivityPositive ActivityCategory = "positive"
	ActivityNegative ActivityCategory = "negative"
	ActivityNeutral  ActivityCategory = "neutral"
)

// ActivityEntry is one row of the bounded market activity feed.
type ActivityEntry struct {
	ID        string
	Message   string
	Category  ActivityCategory
	Timestamp time.Time
}
