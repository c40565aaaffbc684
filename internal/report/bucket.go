package report

import (
	"fmt"
	"time"
)

// Granularity selects how a report range is split into buckets.
type Granularity string

const (
	GranularityDay          Granularity = "day"
	GranularityWeek         Granularity = "week"
	GranularityMonth        Granularity = "month"
	GranularityCuatrimestre Granularity = "cuatrimestre"
	GranularityYear         Granularity = "year"
)

// ParseGranularity maps a query-string value to a Granularity, falling
// back to month.
func ParseGranularity(s string) Granularity {
	switch Granularity(s) {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityCuatrimestre, GranularityYear:
		return Granularity(s)
	default:
		return GranularityMonth
	}
}

// Bucket is a labeled half-open time window [Start, End). Buckets are
// ephemeral: built per report, never persisted.
type Bucket struct {
	Label string
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the bucket window.
func (b Bucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

var monthAbbrev = [...]string{
	"Ene", "Feb", "Mar", "Abr", "May", "Jun",
	"Jul", "Ago", "Sep", "Oct", "Nov", "Dic",
}

// BuildBuckets splits [from, to] into ordered, non-overlapping buckets.
// The first bucket starts at the natural period boundary containing
// from, and the last bucket runs to the end of its natural period even
// when that reaches past to. An inverted range produces no buckets.
func BuildBuckets(g Granularity, from, to time.Time) []Bucket {
	if from.After(to) {
		return nil
	}

	switch g {
	case GranularityDay:
		return dayBuckets(from, to)
	case GranularityWeek:
		return weekBuckets(from, to)
	case GranularityCuatrimestre:
		return cuatrimestreBuckets(from, to)
	case GranularityYear:
		return yearBuckets(from, to)
	default:
		return monthBuckets(from, to)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayBuckets(from, to time.Time) []Bucket {
	var buckets []Bucket
	cur := startOfDay(from)
	for !cur.After(to) {
		next := cur.AddDate(0, 0, 1)
		buckets = append(buckets, Bucket{
			Label: cur.Format("02/01"),
			Start: cur,
			End:   next,
		})
		cur = next
	}
	return buckets
}

func weekBuckets(from, to time.Time) []Bucket {
	// Align to Monday; time.Weekday puts Sunday at 0.
	cur := startOfDay(from)
	offset := (int(cur.Weekday()) + 6) % 7
	cur = cur.AddDate(0, 0, -offset)

	var buckets []Bucket
	for !cur.After(to) {
		next := cur.AddDate(0, 0, 7)
		_, week := cur.ISOWeek()
		buckets = append(buckets, Bucket{
			Label: fmt.Sprintf("Sem %d", week),
			Start: cur,
			End:   next,
		})
		cur = next
	}
	return buckets
}

func monthBuckets(from, to time.Time) []Bucket {
	cur := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location())

	var buckets []Bucket
	for !cur.After(to) {
		next := cur.AddDate(0, 1, 0)
		buckets = append(buckets, Bucket{
			Label: monthAbbrev[cur.Month()-1],
			Start: cur,
			End:   next,
		})
		cur = next
	}
	return buckets
}

// cuatrimestreBuckets emits 4-month periods: Ene-Abr, May-Ago, Sep-Dic.
// After the third period of a year, iteration wraps to Q1 of the next.
func cuatrimestreBuckets(from, to time.Time) []Bucket {
	year := from.Year()
	period := (int(from.Month()) - 1) / 4

	var buckets []Bucket
	for {
		start := time.Date(year, time.Month(period*4+1), 1, 0, 0, 0, 0, from.Location())
		if start.After(to) {
			break
		}
		buckets = append(buckets, Bucket{
			Label: fmt.Sprintf("Q%d %d", period+1, year),
			Start: start,
			End:   start.AddDate(0, 4, 0),
		})

		period++
		if period > 2 {
			period = 0
			year++
		}
	}
	return buckets
}

func yearBuckets(from, to time.Time) []Bucket {
	cur := time.Date(from.Year(), time.January, 1, 0, 0, 0, 0, from.Location())

	var buckets []Bucket
	for !cur.After(to) {
		next := cur.AddDate(1, 0, 0)
		buckets = append(buckets, Bucket{
			Label: fmt.Sprintf("%d", cur.Year()),
			Start: cur,
			End:   next,
		})
		cur = next
	}
	return buckets
}
