// Package market provides the ticker universe and the price simulation engine.
package market

import (
	"protrader/internal/models"
)

// The tradable universe is fixed at startup. Reference attributes are never
// mutated; BasePrice is the basis for every change calculation.
var universe = map[models.TickerSymbol]models.ReferenceInfo{
	"GOOG": {
		Name:      "Alphabet Inc.",
		Sector:    "Technology",
		BasePrice: 309.00,
		Open:      308.00,
		DayLow:    305.50,
		DayHigh:   312.20,
		Volume:    "15.2M",
		MarketCap: "1.95T",
		PERatio:   26.5,
	},
	"TSLA": {
		Name:      "Tesla Inc.",
		Sector:    "Automotive",
		BasePrice: 459.00,
		Open:      450.00,
		DayLow:    448.00,
		DayHigh:   465.50,
		Volume:    "98.5M",
		MarketCap: "850B",
		PERatio:   72.4,
	},
	"AMZN": {
		Name:      "Amazon.com Inc.",
		Sector:    "E-commerce",
		BasePrice: 226.00,
		Open:      224.00,
		DayLow:    222.00,
		DayHigh:   229.50,
		Volume:    "42.1M",
		MarketCap: "1.82T",
		PERatio:   55.2,
	},
	"META": {
		Name:      "Meta Platforms",
		Sector:    "Technology",
		BasePrice: 644.00,
		Open:      650.00,
		DayLow:    638.00,
		DayHigh:   652.00,
		Volume:    "14M",
		MarketCap: "1.84T",
		PERatio:   31.52,
	},
	"NVDA": {
		Name:      "NVIDIA Corp",
		Sector:    "Semiconductors",
		BasePrice: 175.00,
		Open:      174.00,
		DayLow:    172.00,
		DayHigh:   178.50,
		Volume:    "55.8M",
		MarketCap: "2.2T",
		PERatio:   65.8,
	},
}

// tickerOrder gives a stable iteration order for simulation and display.
var tickerOrder = []models.TickerSymbol{"GOOG", "TSLA", "AMZN", "META", "NVDA"}

// DemoTickers is the watchlist shown to unauthenticated guests.
var DemoTickers = []models.TickerSymbol{"NVDA", "TSLA", "AMZN", "GOOG", "META"}

// Tickers returns all symbols in the universe in stable order.
func Tickers() []models.TickerSymbol {
	out := make([]models.TickerSymbol, len(tickerOrder))
	copy(out, tickerOrder)
	return out
}

// Reference returns the immutable reference data for a ticker.
func Reference(ticker models.TickerSymbol) (models.ReferenceInfo, bool) {
	ref, ok := universe[ticker]
	return ref, ok
}

// IsKnown reports whether a ticker belongs to the universe.
func IsKnown(ticker models.TickerSymbol) bool {
	_, ok := universe[ticker]
	return ok
}

// ReferenceTable returns a copy of the full reference table.
func ReferenceTable() map[models.TickerSymbol]models.ReferenceInfo {
	out := make(map[models.TickerSymbol]models.ReferenceInfo, len(universe))
	for t, ref := range universe {
		out[t] = ref
	}
	return out
}
