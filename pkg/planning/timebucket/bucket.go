// Package timebucket provides temporal aggregation for planning
// horizons: contiguous date buckets with a representative date, demand
// aggregation into buckets, and disaggregation of bucketed plans back
// to daily resolution.
package timebucket

import (
	"fmt"
	"time"

	"coldplan/pkg/domain/entities"
)

// Granularity represents a time-bucket size
type Granularity int

const (
	Daily Granularity = iota
	TwoDay
	ThreeDay
	Weekly
)

// Days returns the number of days in a bucket of this granularity.
func (g Granularity) Days() int {
	switch g {
	case TwoDay:
		return 2
	case ThreeDay:
		return 3
	case Weekly:
		return 7
	default:
		return 1
	}
}

// String method for Granularity enum
func (g Granularity) String() string {
	switch g {
	case Daily:
		return "daily"
	case TwoDay:
		return "two_day"
	case ThreeDay:
		return "three_day"
	case Weekly:
		return "weekly"
	default:
		return "unknown"
	}
}

// Bucket represents an aggregated time period. Representative is the
// date that indexes the bucket inside an optimization model; it
// defaults to Start.
type Bucket struct {
	Start          time.Time
	End            time.Time
	Representative time.Time
}

// NumDays returns the bucket length in days.
func (b Bucket) NumDays() int {
	return entities.DaysBetween(b.Start, b.End) + 1
}

// Contains reports whether the date falls inside the bucket.
func (b Bucket) Contains(date time.Time) bool {
	return !date.Before(b.Start) && !date.After(b.End)
}

// String method for diagnostics
func (b Bucket) String() string {
	if b.NumDays() == 1 {
		return b.Start.Format("2006-01-02")
	}
	return fmt.Sprintf("%s to %s (%d days)", b.Start.Format("2006-01-02"), b.End.Format("2006-01-02"), b.NumDays())
}

// VariableGranularityConfig varies bucket size across a window: the
// first NearTermDays use NearTermGranularity, the remainder uses
// FarTermGranularity.
type VariableGranularityConfig struct {
	NearTermDays        int
	NearTermGranularity Granularity
	FarTermGranularity  Granularity
}

// DefaultVariableGranularity keeps the first week daily and the rest in
// two-day buckets.
func DefaultVariableGranularity() VariableGranularityConfig {
	return VariableGranularityConfig{
		NearTermDays:        7,
		NearTermGranularity: Daily,
		FarTermGranularity:  TwoDay,
	}
}

// CreateDailyBuckets creates one bucket per day in [start, end].
func CreateDailyBuckets(start, end time.Time) ([]Bucket, error) {
	return CreateUniformBuckets(start, end, Daily)
}

// CreateUniformBuckets creates fixed-size buckets covering [start, end].
// The trailing bucket may be shorter when the horizon does not divide
// evenly.
func CreateUniformBuckets(start, end time.Time, g Granularity) ([]Bucket, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("bucket range end %s precedes start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	size := g.Days()
	var buckets []Bucket
	for cur := start; !cur.After(end); {
		bucketEnd := entities.AddDays(cur, size-1)
		if bucketEnd.After(end) {
			bucketEnd = end
		}
		buckets = append(buckets, Bucket{Start: cur, End: bucketEnd, Representative: cur})
		cur = entities.AddDays(bucketEnd, 1)
	}
	return buckets, nil
}

// CreateVariableBuckets creates near-term fine buckets followed by
// far-term coarse buckets per the config.
func CreateVariableBuckets(start, end time.Time, cfg VariableGranularityConfig) ([]Bucket, error) {
	if cfg.NearTermDays < 1 {
		return nil, fmt.Errorf("near-term days must be at least 1, got %d", cfg.NearTermDays)
	}
	nearEnd := entities.AddDays(start, cfg.NearTermDays-1)
	if !nearEnd.Before(end) {
		return CreateUniformBuckets(start, end, cfg.NearTermGranularity)
	}
	near, err := CreateUniformBuckets(start, nearEnd, cfg.NearTermGranularity)
	if err != nil {
		return nil, err
	}
	far, err := CreateUniformBuckets(entities.AddDays(nearEnd, 1), end, cfg.FarTermGranularity)
	if err != nil {
		return nil, err
	}
	return append(near, far...), nil
}

// BucketFor returns the bucket containing the date.
func BucketFor(buckets []Bucket, date time.Time) (Bucket, bool) {
	for _, b := range buckets {
		if b.Contains(date) {
			return b, true
		}
	}
	return Bucket{}, false
}
