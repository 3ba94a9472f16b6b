// Package portfolio derives holdings-weighted aggregates from ticker state.
package portfolio

import (
	"sort"

	"protrader/internal/market"
	"protrader/internal/models"
)

// Gainer identifies the best-performing subscribed ticker.
type Gainer struct {
	Ticker        models.TickerSymbol
	Price         float64
	Change        float64
	ChangePercent float64
}

// Summary is the holdings-weighted portfolio view.
type Summary struct {
	TotalValue    float64
	TotalChange   float64
	ChangePercent float64
	TopGainer     *Gainer
	RisingCount   int
	FallingCount  int
}

// Summarize computes the portfolio summary from a snapshot and an ordered
// subscription list. It is a pure function of its inputs.
//
// Subscriptions referencing tickers absent from the snapshot are skipped;
// the subscription list and the universe evolve independently.
func Summarize(snap market.Snapshot, subs []models.Subscription) Summary {
	var out Summary

	for _, sub := range subs {
		st, ok := snap[sub.Ticker]
		if !ok {
			continue
		}

		qty := float64(sub.Quantity)
		out.TotalValue += st.Price * qty
		out.TotalChange += st.Change * qty

		// Per-ticker performance, not holdings-weighted. Ties keep the
		// first ticker in subscription order.
		if out.TopGainer == nil || st.ChangePercent > out.TopGainer.ChangePercent {
			out.TopGainer = &Gainer{
				Ticker:        sub.Ticker,
				Price:         st.Price,
				Change:        st.Change,
				ChangePercent: st.ChangePercent,
			}
		}

		if st.Change >= 0 {
			out.RisingCount++
		} else {
			out.FallingCount++
		}
	}

	if out.TotalValue > 0 {
		if base := out.TotalValue - out.TotalChange; base != 0 {
			out.ChangePercent = out.TotalChange / base * 100
		}
	}

	return out
}

// SectorAllocation counts subscribed tickers per sector.
func SectorAllocation(refs map[models.TickerSymbol]models.ReferenceInfo, subs []models.Subscription) map[string]int {
	out := make(map[string]int)
	for _, sub := range subs {
		ref, ok := refs[sub.Ticker]
		if !ok {
			continue
		}
		out[ref.Sector]++
	}
	return out
}

// PerformanceRow is one row of the performance table.
type PerformanceRow struct {
	Ticker        models.TickerSymbol
	Name          string
	Quantity      int
	Price         float64
	ChangePercent float64
}

// Performance builds per-ticker performance rows for the subscribed set,
// best performer first.
func Performance(snap market.Snapshot, refs map[models.TickerSymbol]models.ReferenceInfo, subs []models.Subscription) []PerformanceRow {
	rows := make([]PerformanceRow, 0, len(subs))
	for _, sub := range subs {
		st, ok := snap[sub.Ticker]
		if !ok {
			continue
		}
		name := string(sub.Ticker)
		if ref, ok := refs[sub.Ticker]; ok {
			name = ref.Name
		}
		rows = append(rows, PerformanceRow{
			Ticker:        sub.Ticker,
			Name:          name,
			Quantity:      sub.Quantity,
			Price:         st.Price,
			ChangePercent: st.ChangePercent,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ChangePercent > rows[j].ChangePercent
	})
	return rows
}
