package timebucket

import (
	"fmt"
	"math"
	"sort"
	"time"

	"coldplan/pkg/domain/entities"
)

// aggregationTolerance bounds acceptable floating-point drift between
// original and aggregated demand totals.
const aggregationTolerance = 1e-6

// AggregateForecast sums forecast demand into buckets per
// (location, product). Each aggregated entry is dated with its bucket's
// representative date. Entries whose date no bucket covers are an error.
func AggregateForecast(f *entities.Forecast, buckets []Bucket) (*entities.Forecast, error) {
	dayToBucket := make(map[time.Time]int)
	for i, b := range buckets {
		for d := b.Start; !d.After(b.End); d = entities.AddDays(d, 1) {
			dayToBucket[d] = i
		}
	}

	type aggKey struct {
		bucket   int
		location entities.NodeID
		product  entities.ProductID
	}
	totals := make(map[aggKey]float64)
	for _, e := range f.Entries {
		idx, ok := dayToBucket[e.Date]
		if !ok {
			return nil, fmt.Errorf("forecast date %s not covered by any bucket", e.Date.Format("2006-01-02"))
		}
		totals[aggKey{idx, e.Location, e.Product}] += e.Quantity
	}

	entries := make([]entities.ForecastEntry, 0, len(totals))
	for k, qty := range totals {
		entries = append(entries, entities.ForecastEntry{
			Location: k.location,
			Product:  k.product,
			Date:     buckets[k.bucket].Representative,
			Quantity: qty,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		return a.Product < b.Product
	})

	return &entities.Forecast{Name: f.Name + "_aggregated", Entries: entries}, nil
}

// ValidateAggregation verifies aggregation preserved total demand per
// (location, product).
func ValidateAggregation(original, aggregated *entities.Forecast) error {
	origTotals := original.TotalsByLocationProduct()
	aggTotals := aggregated.TotalsByLocationProduct()
	for loc, byProduct := range origTotals {
		for product, want := range byProduct {
			got := aggTotals[loc][product]
			if math.Abs(got-want) > aggregationTolerance {
				return fmt.Errorf("aggregation changed demand for (%s, %s): %f != %f", loc, product, got, want)
			}
		}
	}
	return nil
}

// DistributeOverBucket spreads a bucketed quantity across the bucket's
// days in proportion to the daily weights (typically the original daily
// demand). Zero total weight distributes uniformly.
func DistributeOverBucket(b Bucket, quantity float64, dailyWeights map[time.Time]float64) map[time.Time]float64 {
	days := entities.DateRange(b.Start, b.End)
	out := make(map[time.Time]float64, len(days))

	var totalWeight float64
	for _, d := range days {
		totalWeight += dailyWeights[d]
	}
	if totalWeight <= 0 {
		share := quantity / float64(len(days))
		for _, d := range days {
			out[d] = share
		}
		return out
	}
	for _, d := range days {
		out[d] = quantity * dailyWeights[d] / totalWeight
	}
	return out
}
