package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protrader/internal/market"
	"protrader/internal/models"
)

func state(ticker models.TickerSymbol, price, base float64) models.TickerState {
	change := price - base
	return models.TickerState{
		Ticker:        ticker,
		Price:         price,
		Change:        change,
		ChangePercent: change / base * 100,
	}
}

func TestSummarizeSingleHolding(t *testing.T) {
	// NVDA base 175.00, live 178.50, 10 shares.
	snap := market.Snapshot{
		"NVDA": state("NVDA", 178.50, 175.00),
	}
	subs := []models.Subscription{{Ticker: "NVDA", Quantity: 10}}

	summary := Summarize(snap, subs)

	assert.InDelta(t, 1785.00, summary.TotalValue, 1e-9)
	assert.InDelta(t, 35.00, summary.TotalChange, 1e-9)
	assert.InDelta(t, 2.0, summary.ChangePercent, 1e-9)
	require.NotNil(t, summary.TopGainer)
	assert.Equal(t, models.TickerSymbol("NVDA"), summary.TopGainer.Ticker)
	assert.InDelta(t, 3.50, summary.TopGainer.Change, 1e-9)
	assert.Equal(t, 1, summary.RisingCount)
	assert.Zero(t, summary.FallingCount)
}

func TestSummarizeEmptyPortfolioIsAllZero(t *testing.T) {
	snap := market.Snapshot{"NVDA": state("NVDA", 178.50, 175.00)}

	summary := Summarize(snap, nil)

	assert.Zero(t, summary.TotalValue)
	assert.Zero(t, summary.TotalChange)
	assert.Zero(t, summary.ChangePercent, "no division by zero on an empty portfolio")
	assert.Nil(t, summary.TopGainer)
}

func TestSummarizeSkipsUnknownTickers(t *testing.T) {
	snap := market.Snapshot{"GOOG": state("GOOG", 310.00, 309.00)}
	subs := []models.Subscription{
		{Ticker: "GOOG", Quantity: 2},
		{Ticker: "DELISTED", Quantity: 100},
	}

	summary := Summarize(snap, subs)

	assert.InDelta(t, 620.00, summary.TotalValue, 1e-9)
	assert.Equal(t, 1, summary.RisingCount+summary.FallingCount)
}

func TestTopGainerTieKeepsSubscriptionOrder(t *testing.T) {
	// Identical percentage moves; the first subscribed ticker wins the tie.
	snap := market.Snapshot{
		"GOOG": state("GOOG", 309.00*1.01, 309.00),
		"TSLA": state("TSLA", 459.00*1.01, 459.00),
	}
	subs := []models.Subscription{
		{Ticker: "TSLA", Quantity: 1},
		{Ticker: "GOOG", Quantity: 1},
	}

	summary := Summarize(snap, subs)
	require.NotNil(t, summary.TopGainer)
	assert.Equal(t, models.TickerSymbol("TSLA"), summary.TopGainer.Ticker)
}

func TestTopGainerIsPerTickerNotHoldingsWeighted(t *testing.T) {
	snap := market.Snapshot{
		"GOOG": state("GOOG", 309.00*1.05, 309.00), // +5%
		"TSLA": state("TSLA", 459.00*1.01, 459.00), // +1%, but far more shares
	}
	subs := []models.Subscription{
		{Ticker: "TSLA", Quantity: 1000},
		{Ticker: "GOOG", Quantity: 1},
	}

	summary := Summarize(snap, subs)
	require.NotNil(t, summary.TopGainer)
	assert.Equal(t, models.TickerSymbol("GOOG"), summary.TopGainer.Ticker)
}

func TestChangePercentUsesValueBeforeChangeAsBase(t *testing.T) {
	// Value 1785, change 35: base is 1750, so +2%, not 35/1785.
	snap := market.Snapshot{"NVDA": state("NVDA", 178.50, 175.00)}
	subs := []models.Subscription{{Ticker: "NVDA", Quantity: 10}}

	summary := Summarize(snap, subs)
	assert.InDelta(t, summary.TotalChange/(summary.TotalValue-summary.TotalChange)*100, summary.ChangePercent, 1e-12)
}

func TestRisingAndFallingCounts(t *testing.T) {
	snap := market.Snapshot{
		"GOOG": state("GOOG", 310.00, 309.00),
		"TSLA": state("TSLA", 450.00, 459.00),
		"AMZN": state("AMZN", 226.00, 226.00), // flat counts as rising
	}
	subs := []models.Subscription{
		{Ticker: "GOOG", Quantity: 1},
		{Ticker: "TSLA", Quantity: 1},
		{Ticker: "AMZN", Quantity: 1},
	}

	summary := Summarize(snap, subs)
	assert.Equal(t, 2, summary.RisingCount)
	assert.Equal(t, 1, summary.FallingCount)
}

func TestSectorAllocation(t *testing.T) {
	refs := market.ReferenceTable()
	subs := []models.Subscription{
		{Ticker: "GOOG", Quantity: 1},
		{Ticker: "META", Quantity: 1},
		{Ticker: "TSLA", Quantity: 1},
		{Ticker: "UNKNOWN", Quantity: 1},
	}

	sectors := SectorAllocation(refs, subs)
	assert.Equal(t, 2, sectors["Technology"])
	assert.Equal(t, 1, sectors["Automotive"])
	assert.NotContains(t, sectors, "")
}

func TestPerformanceSortsBestFirst(t *testing.T) {
	snap := market.Snapshot{
		"GOOG": state("GOOG", 302.00, 309.00),
		"NVDA": state("NVDA", 180.00, 175.00),
		"AMZN": state("AMZN", 226.50, 226.00),
	}
	subs := []models.Subscription{
		{Ticker: "GOOG", Quantity: 1},
		{Ticker: "NVDA", Quantity: 2},
		{Ticker: "AMZN", Quantity: 3},
	}

	rows := Performance(snap, market.ReferenceTable(), subs)
	require.Len(t, rows, 3)
	assert.Equal(t, models.TickerSymbol("NVDA"), rows[0].Ticker)
	assert.Equal(t, models.TickerSymbol("GOOG"), rows[2].Ticker)
	assert.Equal(t, 2, rows[0].Quantity)
	assert.Equal(t, "NVIDIA Corp", rows[0].Name)
}
