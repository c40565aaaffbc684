package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/clinova/clinic-scheduling/internal/appointment"
)

const (
	// Opening hours shown in the hour-of-day histogram. Activity
	// outside this window exists in the ledger but is not reported.
	firstReportedHour = 8
	lastReportedHour  = 20

	topSpecialties = 6
	topBusiest     = 3
)

// weekdayNames is Monday-first, matching how the clinic reads a week.
var weekdayNames = [...]string{
	"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo",
}

// mondayIndex maps time.Weekday (Sunday=0) onto the Monday-first order.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Ledger is the slice of the appointment repository the engine reads
// from. Every sub-query failure aborts the whole report; partial
// payloads are never returned.
type Ledger interface {
	FindAppointments(ctx context.Context, f appointment.Filter) ([]appointment.Detail, error)
	CountAppointments(ctx context.Context, f appointment.Filter) (int, error)
	CountPatientsCreatedBefore(ctx context.Context, t time.Time) (int, error)
	CountPatientsCreatedInRange(ctx context.Context, from, to time.Time) (int, error)
}

type Engine struct {
	ledger Ledger
}

func NewEngine(ledger Ledger) *Engine {
	return &Engine{ledger: ledger}
}

// ledgerFilter renders the report filter as an appointment query
// scoped to [from, to).
func (f Filter) ledgerFilter(from, to time.Time) appointment.Filter {
	lf := appointment.Filter{
		ProfessionalID: f.ProfessionalID,
		Specialty:      f.Specialty,
		From:           &from,
		To:             &to,
	}
	if len(f.Statuses) > 0 {
		lf.Statuses = append(lf.Statuses, f.Statuses...)
	}
	return lf
}

// GenerateTrends builds the full aggregation payload for the filtered
// range at the requested granularity.
func (e *Engine) GenerateTrends(ctx context.Context, f Filter, g Granularity) (*TrendsReport, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	buckets := BuildBuckets(g, f.From, f.To)

	rep := &TrendsReport{
		Granularity: g,
		From:        f.From,
		To:          f.To,
	}

	// Per-bucket counts, one ledger query per metric per bucket.
	totals := make([]int, len(buckets))
	for i, b := range buckets {
		total, err := e.ledger.CountAppointments(ctx, f.ledgerFilter(b.Start, b.End))
		if err != nil {
			return nil, fmt.Errorf("count bucket %s: %w", b.Label, err)
		}

		completedFilter := f.ledgerFilter(b.Start, b.End)
		completedFilter.Statuses = []appointment.Status{appointment.StatusCompletado}
		completed, err := e.ledger.CountAppointments(ctx, completedFilter)
		if err != nil {
			return nil, fmt.Errorf("count completed %s: %w", b.Label, err)
		}

		cancelledFilter := f.ledgerFilter(b.Start, b.End)
		cancelledFilter.Statuses = []appointment.Status{appointment.StatusCancelado}
		cancelled, err := e.ledger.CountAppointments(ctx, cancelledFilter)
		if err != nil {
			return nil, fmt.Errorf("count cancelled %s: %w", b.Label, err)
		}

		totals[i] = total
		rep.Buckets = append(rep.Buckets, BucketMetrics{
			Label:     b.Label,
			Total:     total,
			Completed: completed,
			Cancelled: cancelled,
		})
	}

	// One pass over the non-cancelled set drives the histograms,
	// specialty breakdowns and attendance figures.
	activeFilter := f.ledgerFilter(f.From, f.To)
	activeFilter.NotStatuses = []appointment.Status{appointment.StatusCancelado}
	active, err := e.ledger.FindAppointments(ctx, activeFilter)
	if err != nil {
		return nil, fmt.Errorf("load active appointments: %w", err)
	}

	rep.HourHistogram = hourHistogram(active)
	rep.WeekdayHistogram = weekdayHistogram(active)
	rep.Specialties = specialtyDistribution(active)
	rep.AvgDurationBySpecialty = avgDurationBySpecialty(active)

	for i, b := range buckets {
		rep.Buckets[i].AttendancePct = attendancePct(active, func(d *appointment.Detail) bool {
			return b.Contains(d.StartTime)
		})
	}

	if err := e.fillPatientGrowth(ctx, f.From, buckets, rep); err != nil {
		return nil, err
	}

	rep.Summary = buildSummary(totals, active, rep)

	return rep, nil
}

func (e *Engine) fillPatientGrowth(ctx context.Context, rangeStart time.Time, buckets []Bucket, rep *TrendsReport) error {
	running, err := e.ledger.CountPatientsCreatedBefore(ctx, rangeStart)
	if err != nil {
		return fmt.Errorf("count baseline patients: %w", err)
	}

	for i, b := range buckets {
		n, err := e.ledger.CountPatientsCreatedInRange(ctx, b.Start, b.End)
		if err != nil {
			return fmt.Errorf("count patients in %s: %w", b.Label, err)
		}
		running += n
		rep.Buckets[i].PatientsToDate = running
	}

	return nil
}

func hourHistogram(active []appointment.Detail) []HourCount {
	counts := make(map[int]int)
	for i := range active {
		h := active[i].StartTime.Hour()
		if h >= firstReportedHour && h <= lastReportedHour {
			counts[h]++
		}
	}

	hist := make([]HourCount, 0, lastReportedHour-firstReportedHour+1)
	for h := firstReportedHour; h <= lastReportedHour; h++ {
		hist = append(hist, HourCount{Hour: h, Count: counts[h]})
	}
	return hist
}

func weekdayHistogram(active []appointment.Detail) []WeekdayCount {
	var counts [7]int
	for i := range active {
		counts[mondayIndex(active[i].StartTime.Weekday())]++
	}

	hist := make([]WeekdayCount, 7)
	for i := 0; i < 7; i++ {
		hist[i] = WeekdayCount{Weekday: weekdayNames[i], Count: counts[i]}
	}
	return hist
}

func specialtyOf(d *appointment.Detail) string {
	if d.Professional != nil && d.Professional.Specialty != nil {
		return *d.Professional.Specialty
	}
	return NoSpecialtyLabel
}

// specialtyDistribution returns the top specialties by appointment
// count with their share of the filtered total. Ties keep
// first-encountered order.
func specialtyDistribution(active []appointment.Detail) []SpecialtyShare {
	counts := make(map[string]int)
	var order []string
	for i := range active {
		sp := specialtyOf(&active[i])
		if _, seen := counts[sp]; !seen {
			order = append(order, sp)
		}
		counts[sp]++
	}

	shares := make([]SpecialtyShare, 0, len(order))
	for _, sp := range order {
		shares = append(shares, SpecialtyShare{Specialty: sp, Count: counts[sp]})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Count > shares[j].Count
	})

	if len(shares) > topSpecialties {
		shares = shares[:topSpecialties]
	}

	total := len(active)
	if total > 0 {
		for i := range shares {
			shares[i].Pct = float64(shares[i].Count) / float64(total) * 100
		}
	}
	return shares
}

// avgDurationBySpecialty averages appointment durations per specialty
// over completed appointments only, longest first.
func avgDurationBySpecialty(active []appointment.Detail) []SpecialtyDuration {
	sums := make(map[string]int)
	counts := make(map[string]int)
	var order []string

	for i := range active {
		if active[i].Status != appointment.StatusCompletado {
			continue
		}
		sp := specialtyOf(&active[i])
		if _, seen := counts[sp]; !seen {
			order = append(order, sp)
		}
		sums[sp] += int(active[i].Duration().Minutes())
		counts[sp]++
	}

	avgs := make([]SpecialtyDuration, 0, len(order))
	for _, sp := range order {
		avgs = append(avgs, SpecialtyDuration{
			Specialty:  sp,
			AvgMinutes: float64(sums[sp]) / float64(counts[sp]),
		})
	}
	sort.SliceStable(avgs, func(i, j int) bool {
		return avgs[i].AvgMinutes > avgs[j].AvgMinutes
	})

	if len(avgs) > topSpecialties {
		avgs = avgs[:topSpecialties]
	}
	return avgs
}

// attendancePct computes (COMPLETADO + CONFIRMADO) over the same plus
// NO_ASISTIO, as a 0-100 value. Cancelled appointments never reach
// here: the active set excludes them.
func attendancePct(active []appointment.Detail, in func(*appointment.Detail) bool) float64 {
	attended, missed := 0, 0
	for i := range active {
		if !in(&active[i]) {
			continue
		}
		switch active[i].Status {
		case appointment.StatusCompletado, appointment.StatusConfirmado:
			attended++
		case appointment.StatusNoAsistio:
			missed++
		}
	}

	denom := attended + missed
	if denom == 0 {
		return 0
	}
	return float64(attended) / float64(denom) * 100
}

// trendPct is the period-over-period delta of the last two bucket
// totals, as a percentage. An empty prior bucket falls back to a
// divisor of 1 so the signal stays directional instead of dividing by
// zero.
func trendPct(totals []int) float64 {
	if len(totals) == 0 {
		return 0
	}

	last := totals[len(totals)-1]
	prev := 0
	if len(totals) >= 2 {
		prev = totals[len(totals)-2]
	}

	divisor := prev
	if divisor == 0 {
		divisor = 1
	}
	return float64(last-prev) / float64(divisor) * 100
}

func buildSummary(totals []int, active []appointment.Detail, rep *TrendsReport) Summary {
	s := Summary{
		TrendPct:      trendPct(totals),
		AttendancePct: attendancePct(active, func(*appointment.Detail) bool { return true }),
	}
	for _, t := range totals {
		s.TotalAppointments += t
	}

	// Naive next-period extrapolation.
	s.ProjectedNextPeriod = s.TrendPct * 1.1

	hours := make([]HourCount, len(rep.HourHistogram))
	copy(hours, rep.HourHistogram)
	sort.SliceStable(hours, func(i, j int) bool { return hours[i].Count > hours[j].Count })
	if len(hours) > topBusiest {
		hours = hours[:topBusiest]
	}
	s.BusiestHours = hours

	days := make([]WeekdayCount, len(rep.WeekdayHistogram))
	copy(days, rep.WeekdayHistogram)
	sort.SliceStable(days, func(i, j int) bool { return days[i].Count > days[j].Count })
	if len(days) > topBusiest {
		days = days[:topBusiest]
	}
	s.BusiestWeekdays = days

	if len(rep.Specialties) > 0 {
		s.TopSpecialty = rep.Specialties[0].Specialty
	}

	return s
}
