// Package analytics derives weekly trend metrics, risk classification and
// correlation data from simulated market state.
package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"protrader/internal/market"
	"protrader/internal/models"
)

// Risk classification levels for a portfolio, by average weekly volatility.
const (
	RiskStable   = "Stable"
	RiskModerate = "Moderate"
	RiskRisky    = "Risky"
)

// Volatility thresholds separating the risk levels.
const (
	moderateVolatility = 0.8
	riskyVolatility    = 1.5
)

// correlationWindow is the number of trailing history points used for the
// correlation matrix.
const correlationWindow = 50

// StockInsight is the weekly trend summary for one subscribed ticker.
//
// The first four weekly points are a deterministic walk seeded from the
// ticker name so they stay stable across recomputation. The fifth point is
// the live price.
type StockInsight struct {
	Ticker           models.TickerSymbol
	Name             string
	Weekly           []float64
	NetChange        float64
	Volatility       float64
	PositiveSessions int
	Low              float64
	High             float64
	// DailyChanges holds seven day-over-day percent moves. The last two
	// entries are nil (weekend).
	DailyChanges []*float64
}

// TextInsight is one generated observation about the portfolio.
type TextInsight struct {
	Type    string
	Title   string
	Subtext string
}

// PortfolioInsights aggregates the per-stock metrics into a portfolio view.
type PortfolioInsights struct {
	Stocks        []StockInsight
	AvgReturn     float64
	AvgVolatility float64
	BestPerformer *StockInsight
	MostVolatile  *StockInsight
	RiskLevel     string
	Observations  []TextInsight
}

// seededRandom maps a seed to a deterministic value in [0, 1).
func seededRandom(seed float64) float64 {
	x := math.Sin(seed) * 10000
	return x - math.Floor(x)
}

// tickerSeed sums the byte values of the ticker name.
func tickerSeed(ticker models.TickerSymbol) float64 {
	var sum float64
	for _, b := range []byte(ticker) {
		sum += float64(b)
	}
	return sum
}

// WeeklySeries builds the five-point weekly series for a ticker: four
// seeded moves of at most ±2.5% applied to the reference price, then the
// live price.
func WeeklySeries(ticker models.TickerSymbol, basePrice, livePrice float64) []float64 {
	seed := tickerSeed(ticker)
	points := make([]float64, 0, 5)
	ref := basePrice
	for i := 0; i < 4; i++ {
		move := (seededRandom(seed+float64(i)) - 0.5) * 5
		ref = ref * (1 + move/100)
		points = append(points, ref)
	}
	return append(points, livePrice)
}

// StockInsightFor computes the weekly metrics for a single ticker.
func StockInsightFor(ticker models.TickerSymbol, ref models.ReferenceInfo, state models.TickerState) (StockInsight, error) {
	weekly := WeeklySeries(ticker, ref.BasePrice, state.Price)

	mean, err := stats.Mean(weekly)
	if err != nil {
		return StockInsight{}, fmt.Errorf("failed to calculate mean for %s: %w", ticker, err)
	}
	sd, err := stats.StandardDeviation(weekly)
	if err != nil {
		return StockInsight{}, fmt.Errorf("failed to calculate standard deviation for %s: %w", ticker, err)
	}

	insight := StockInsight{
		Ticker:     ticker,
		Name:       ref.Name,
		Weekly:     weekly,
		NetChange:  (weekly[len(weekly)-1] - weekly[0]) / weekly[0] * 100,
		Volatility: sd / mean * 100,
		Low:        weekly[0],
		High:       weekly[0],
	}

	for i, v := range weekly {
		if v < insight.Low {
			insight.Low = v
		}
		if v > insight.High {
			insight.High = v
		}
		if i == 0 || v >= weekly[i-1] {
			insight.PositiveSessions++
		}
	}

	insight.DailyChanges = make([]*float64, 7)
	zero := 0.0
	insight.DailyChanges[0] = &zero
	for i := 1; i < len(weekly); i++ {
		change := (weekly[i] - weekly[i-1]) / weekly[i-1] * 100
		insight.DailyChanges[i] = &change
	}
	return insight, nil
}

// Insights computes the full portfolio insight view for the subscribed
// tickers. Returns nil when no subscription maps to a known ticker.
func Insights(snap market.Snapshot, subs []models.Subscription) (*PortfolioInsights, error) {
	var stocks []StockInsight
	for _, sub := range subs {
		ref, ok := market.Reference(sub.Ticker)
		if !ok {
			continue
		}
		state, ok := snap[sub.Ticker]
		if !ok {
			continue
		}
		insight, err := StockInsightFor(sub.Ticker, ref, state)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, insight)
	}
	if len(stocks) == 0 {
		return nil, nil
	}

	out := &PortfolioInsights{Stocks: stocks}
	for i := range stocks {
		out.AvgReturn += stocks[i].NetChange
		out.AvgVolatility += stocks[i].Volatility
	}
	out.AvgReturn /= float64(len(stocks))
	out.AvgVolatility /= float64(len(stocks))

	byChange := make([]*StockInsight, len(stocks))
	for i := range stocks {
		byChange[i] = &stocks[i]
	}
	byVol := append([]*StockInsight(nil), byChange...)
	sort.SliceStable(byChange, func(i, j int) bool { return byChange[i].NetChange > byChange[j].NetChange })
	sort.SliceStable(byVol, func(i, j int) bool { return byVol[i].Volatility > byVol[j].Volatility })
	out.BestPerformer = byChange[0]
	out.MostVolatile = byVol[0]

	out.RiskLevel = RiskStable
	if out.AvgVolatility > riskyVolatility {
		out.RiskLevel = RiskRisky
	} else if out.AvgVolatility > moderateVolatility {
		out.RiskLevel = RiskModerate
	}

	out.Observations = observations(out)
	return out, nil
}

func observations(p *PortfolioInsights) []TextInsight {
	insights := []TextInsight{{
		Type:    "volatility",
		Title:   fmt.Sprintf("Your most volatile stock this week was %s with a variance of %.1f%%.", p.MostVolatile.Ticker, p.MostVolatile.Volatility),
		Subtext: "High volatility can create trading opportunities, but also increases risk.",
	}}

	if p.BestPerformer.NetChange > p.AvgReturn+1 {
		insights = append(insights, TextInsight{
			Type:    "outperformance",
			Title:   fmt.Sprintf("%s outperformed your portfolio average by %.1f%% this week.", p.BestPerformer.Ticker, p.BestPerformer.NetChange-p.AvgReturn),
			Subtext: "Strong momentum driver.",
		})
	}

	if len(p.Stocks) < 3 {
		insights = append(insights, TextInsight{
			Type:    "concentration",
			Title:   fmt.Sprintf("Your portfolio is concentrated in %d stocks.", len(p.Stocks)),
			Subtext: "Consider adding more stocks to diversify risk.",
		})
	} else {
		insights = append(insights, TextInsight{
			Type:    "risk",
			Title:   fmt.Sprintf("Based on simulated volatility and drawdowns, your portfolio is currently classified as %s.", p.RiskLevel),
			Subtext: "Keep monitoring your allocation.",
		})
	}
	return insights
}

// CorrelationMatrix computes the pairwise Pearson correlation of the
// trailing price history for the given tickers. Tickers with no history get
// zero rows. Needs at least two tickers; returns nil otherwise.
func CorrelationMatrix(snap market.Snapshot, tickers []models.TickerSymbol) map[models.TickerSymbol]map[models.TickerSymbol]float64 {
	if len(tickers) < 2 {
		return nil
	}

	series := make(map[models.TickerSymbol][]float64, len(tickers))
	for _, t := range tickers {
		state, ok := snap[t]
		if !ok {
			series[t] = nil
			continue
		}
		history := state.History
		if len(history) > correlationWindow {
			history = history[len(history)-correlationWindow:]
		}
		prices := make([]float64, len(history))
		for i, p := range history {
			prices[i] = p.Price
		}
		series[t] = prices
	}

	matrix := make(map[models.TickerSymbol]map[models.TickerSymbol]float64, len(tickers))
	for _, row := range tickers {
		matrix[row] = make(map[models.TickerSymbol]float64, len(tickers))
		for _, col := range tickers {
			// Correlation returns 0 for degenerate inputs, matching the
			// zero-denominator convention.
			corr, err := stats.Correlation(series[row], series[col])
			if err != nil {
				corr = 0
			}
			matrix[row][col] = corr
		}
	}
	return matrix
}
