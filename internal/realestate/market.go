package realestate

import (
	"context"
	"fmt"
	"math"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// Market temperature labels.
const (
	MarketHot      = "hot"
	MarketBalanced = "balanced"
	MarketCool     = "cool"
	MarketUnknown  = "unknown"
)

type listingAggregate struct {
	Count   int64   `db:"listings"`
	Average float64 `db:"avg_price"`
	Min     float64 `db:"min_price"`
	Max     float64 `db:"max_price"`
	PerSqFt float64 `db:"avg_ppsf"`
}

type salesAggregate struct {
	Count   int64   `db:"sales"`
	Average float64 `db:"avg_sale"`
	Days    float64 `db:"avg_days"`
	Ratio   float64 `db:"ratio"`
}

// MarketStats aggregates active listings and closed sales for one area, or
// the whole market when areaID is empty.
func (s *Store) MarketStats(ctx context.Context, areaID string) (MarketStats, error) {
	byArea := func(ex ...exp.Expression) []exp.Expression {
		if areaID != "" {
			ex = append(ex, goqu.C("area_id").Eq(areaID))
		}
		return ex
	}
	active := byArea(goqu.C("status").Eq(StatusActive))

	var la listingAggregate
	if _, err := s.q.From("properties").Select(
		goqu.COUNT("*").As("listings"),
		goqu.COALESCE(goqu.AVG("price"), 0).As("avg_price"),
		goqu.COALESCE(goqu.MIN("price"), 0).As("min_price"),
		goqu.COALESCE(goqu.MAX("price"), 0).As("max_price"),
		goqu.COALESCE(goqu.AVG(goqu.L("price / NULLIF(square_feet, 0)")), 0).As("avg_ppsf"),
	).Where(active...).ScanStructContext(ctx, &la); err != nil {
		return MarketStats{}, fmt.Errorf("listing stats: %w", err)
	}

	var prices []float64
	if err := s.q.From("properties").Select("price").Where(active...).
		Order(goqu.C("price").Asc()).ScanValsContext(ctx, &prices); err != nil {
		return MarketStats{}, fmt.Errorf("listing prices: %w", err)
	}

	pending, err := s.q.From("properties").
		Where(byArea(goqu.C("status").Eq(StatusPending))...).CountContext(ctx)
	if err != nil {
		return MarketStats{}, fmt.Errorf("pending listings: %w", err)
	}

	var sa salesAggregate
	if _, err := s.q.From("sales").Select(
		goqu.COUNT("*").As("sales"),
		goqu.COALESCE(goqu.AVG("sale_price"), 0).As("avg_sale"),
		goqu.COALESCE(goqu.AVG("days_on_market"), 0).As("avg_days"),
		goqu.COALESCE(goqu.AVG(goqu.L("sale_price / NULLIF(list_price, 0)")), 0).As("ratio"),
	).Where(byArea()...).ScanStructContext(ctx, &sa); err != nil {
		return MarketStats{}, fmt.Errorf("sales stats: %w", err)
	}

	return MarketStats{
		AreaID:            areaID,
		ActiveListings:    la.Count,
		PendingListings:   pending,
		AveragePrice:      round(la.Average, 0),
		MedianPrice:       median(prices),
		MinPrice:          la.Min,
		MaxPrice:          la.Max,
		AveragePricePerSF: round(la.PerSqFt, 2),
		SalesCount:        sa.Count,
		AverageSalePrice:  round(sa.Average, 0),
		AverageDaysOnMkt:  round(sa.Days, 1),
		SaleToListRatio:   round(sa.Ratio, 3),
		MarketTemperature: Temperature(sa.Count, sa.Days, sa.Ratio),
	}, nil
}

// Temperature classifies a market from its sales pace and pricing power.
func Temperature(sales int64, avgDays, saleToList float64) string {
	switch {
	case sales == 0:
		return MarketUnknown
	case saleToList >= 1 || avgDays < 15:
		return MarketHot
	case avgDays <= 35:
		return MarketBalanced
	default:
		return MarketCool
	}
}

func median(sorted []float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n%2 == 1:
		return sorted[n/2]
	default:
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
