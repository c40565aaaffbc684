package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseGranularity(t *testing.T) {
	assert.Equal(t, GranularityDay, ParseGranularity("day"))
	assert.Equal(t, GranularityCuatrimestre, ParseGranularity("cuatrimestre"))
	assert.Equal(t, GranularityMonth, ParseGranularity(""))
	assert.Equal(t, GranularityMonth, ParseGranularity("fortnight"))
}

func TestBuildBucketsMonth(t *testing.T) {
	buckets := BuildBuckets(GranularityMonth, date(2024, time.January, 5), date(2024, time.March, 10))

	require.Len(t, buckets, 3)
	assert.Equal(t, "Ene", buckets[0].Label)
	assert.Equal(t, "Feb", buckets[1].Label)
	assert.Equal(t, "Mar", buckets[2].Label)

	// Full calendar months, even though the range starts on the 5th
	// and ends on the 10th.
	assert.Equal(t, date(2024, time.January, 1), buckets[0].Start)
	assert.Equal(t, date(2024, time.February, 1), buckets[0].End)
	assert.Equal(t, date(2024, time.March, 1), buckets[2].Start)
	assert.Equal(t, date(2024, time.April, 1), buckets[2].End)
}

func TestBuildBucketsDay(t *testing.T) {
	buckets := BuildBuckets(GranularityDay, date(2024, time.January, 30), date(2024, time.February, 2))

	require.Len(t, buckets, 4)
	assert.Equal(t, "30/01", buckets[0].Label)
	assert.Equal(t, "02/02", buckets[3].Label)
	for i := 1; i < len(buckets); i++ {
		assert.Equal(t, buckets[i-1].End, buckets[i].Start)
	}
}

func TestBuildBucketsWeekAlignsToMonday(t *testing.T) {
	// 2024-01-10 is a Wednesday; its week starts Monday the 8th.
	buckets := BuildBuckets(GranularityWeek, date(2024, time.January, 10), date(2024, time.January, 22))

	require.Len(t, buckets, 3)
	assert.Equal(t, date(2024, time.January, 8), buckets[0].Start)
	assert.Equal(t, time.Monday, buckets[0].Start.Weekday())
	assert.Equal(t, "Sem 2", buckets[0].Label)
	assert.Equal(t, "Sem 4", buckets[2].Label)
	assert.Equal(t, 7*24*time.Hour, buckets[0].End.Sub(buckets[0].Start))
}

func TestBuildBucketsCuatrimestre(t *testing.T) {
	// Starting mid-Q2 2024 and reaching into 2025 must wrap the year
	// after Q3.
	buckets := BuildBuckets(GranularityCuatrimestre, date(2024, time.June, 15), date(2025, time.February, 1))

	require.Len(t, buckets, 3)
	assert.Equal(t, "Q2 2024", buckets[0].Label)
	assert.Equal(t, date(2024, time.May, 1), buckets[0].Start)
	assert.Equal(t, date(2024, time.September, 1), buckets[0].End)

	assert.Equal(t, "Q3 2024", buckets[1].Label)
	assert.Equal(t, "Q1 2025", buckets[2].Label)
	assert.Equal(t, date(2025, time.January, 1), buckets[2].Start)
	assert.Equal(t, date(2025, time.May, 1), buckets[2].End)
}

func TestBuildBucketsYear(t *testing.T) {
	buckets := BuildBuckets(GranularityYear, date(2023, time.November, 1), date(2025, time.January, 15))

	require.Len(t, buckets, 3)
	assert.Equal(t, "2023", buckets[0].Label)
	assert.Equal(t, "2025", buckets[2].Label)
	assert.Equal(t, date(2025, time.January, 1), buckets[2].Start)
}

func TestBuildBucketsInvertedRange(t *testing.T) {
	buckets := BuildBuckets(GranularityMonth, date(2024, time.March, 1), date(2024, time.January, 1))
	assert.Empty(t, buckets)
}

func TestBuildBucketsLastBucketCoversRangeEnd(t *testing.T) {
	// The final bucket completes its natural period past the range end.
	buckets := BuildBuckets(GranularityMonth, date(2024, time.January, 1), date(2024, time.February, 15))

	require.Len(t, buckets, 2)
	assert.Equal(t, date(2024, time.March, 1), buckets[1].End)
	assert.True(t, buckets[1].Contains(date(2024, time.February, 15)))
}

func TestBucketContains(t *testing.T) {
	b := Bucket{Start: date(2024, time.January, 1), End: date(2024, time.February, 1)}

	assert.True(t, b.Contains(date(2024, time.January, 1)))
	assert.True(t, b.Contains(date(2024, time.January, 31)))
	assert.False(t, b.Contains(date(2024, time.February, 1))) // half-open
	assert.False(t, b.Contains(date(2023, time.December, 31)))
}
