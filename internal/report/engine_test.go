package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinova/clinic-scheduling/internal/appointment"
)

type scenario struct {
	repo   *appointment.MemoryRepository
	engine *Engine
}

func newScenario() *scenario {
	repo := appointment.NewMemoryRepository()
	return &scenario{repo: repo, engine: NewEngine(repo)}
}

func (s *scenario) professional(specialty string) uuid.UUID {
	p := appointment.Professional{ID: uuid.New(), Name: "Prof"}
	if specialty != "" {
		p.Specialty = &specialty
	}
	s.repo.AddProfessional(p)
	return p.ID
}

func (s *scenario) patientCreatedAt(t time.Time) uuid.UUID {
	p := appointment.Patient{ID: uuid.New(), Name: "Patient", CreatedAt: t}
	s.repo.AddPatient(p)
	return p.ID
}

func (s *scenario) appt(prof uuid.UUID, start time.Time, durationMin int, status appointment.Status) {
	patient := s.patientCreatedAt(start.AddDate(-2, 0, 0))
	var dur *int
	if durationMin > 0 {
		dur = &durationMin
	}
	_, err := s.repo.InsertAppointment(context.Background(), &appointment.Appointment{
		ProfessionalID:  prof,
		PatientID:       &patient,
		StartTime:       start,
		DurationMinutes: dur,
		Status:          status,
		Type:            appointment.ConsultationObraSocial,
		CreatedBy:       prof,
	})
	if err != nil {
		panic(err)
	}
}

func jan(day, hour int) time.Time {
	return time.Date(2026, time.January, day, hour, 0, 0, 0, time.UTC)
}

func feb(day, hour int) time.Time {
	return time.Date(2026, time.February, day, hour, 0, 0, 0, time.UTC)
}

func monthFilter(from, to time.Time) Filter {
	return Filter{From: from, To: to}
}

func TestGenerateTrendsValidatesRange(t *testing.T) {
	s := newScenario()

	_, err := s.engine.GenerateTrends(context.Background(), Filter{}, GranularityMonth)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestGenerateTrendsBucketCounts(t *testing.T) {
	s := newScenario()
	prof := s.professional("Cardiología")

	s.appt(prof, jan(5, 10), 30, appointment.StatusCompletado)
	s.appt(prof, jan(6, 10), 30, appointment.StatusCancelado)
	s.appt(prof, feb(3, 10), 30, appointment.StatusCompletado)
	s.appt(prof, feb(4, 10), 30, appointment.StatusProgramado)
	s.appt(prof, feb(5, 10), 30, appointment.StatusCompletado)

	rep, err := s.engine.GenerateTrends(context.Background(), monthFilter(jan(1, 0), feb(28, 0)), GranularityMonth)
	require.NoError(t, err)

	require.Len(t, rep.Buckets, 2)
	assert.Equal(t, "Ene", rep.Buckets[0].Label)
	assert.Equal(t, 2, rep.Buckets[0].Total)
	assert.Equal(t, 1, rep.Buckets[0].Completed)
	assert.Equal(t, 1, rep.Buckets[0].Cancelled)

	assert.Equal(t, "Feb", rep.Buckets[1].Label)
	assert.Equal(t, 3, rep.Buckets[1].Total)
	assert.Equal(t, 2, rep.Buckets[1].Completed)
	assert.Equal(t, 0, rep.Buckets[1].Cancelled)

	assert.Equal(t, 5, rep.Summary.TotalAppointments)
}

func TestAttendanceRate(t *testing.T) {
	s := newScenario()
	prof := s.professional("Clínica Médica")

	for i := 0; i < 8; i++ {
		s.appt(prof, jan(5+i, 9), 30, appointment.StatusCompletado)
	}
	for i := 0; i < 2; i++ {
		s.appt(prof, jan(13+i, 9), 30, appointment.StatusConfirmado)
	}

	rep, err := s.engine.GenerateTrends(context.Background(), monthFilter(jan(1, 0), jan(31, 0)), GranularityMonth)
	require.NoError(t, err)
	require.Len(t, rep.Buckets, 1)
	assert.InDelta(t, 100.0, rep.Buckets[0].AttendancePct, 0.001)
	assert.InDelta(t, 100.0, rep.Summary.AttendancePct, 0.001)

	// Five no-shows drag it down to 10/15.
	for i := 0; i < 5; i++ {
		s.appt(prof, jan(15+i, 9), 30, appointment.StatusNoAsistio)
	}

	rep, err = s.engine.GenerateTrends(context.Background(), monthFilter(jan(1, 0), jan(31, 0)), GranularityMonth)
	require.NoError(t, err)
	assert.InDelta(t, 66.67, rep.Buckets[0].AttendancePct, 0.01)

	// Cancellations change neither side of the ratio.
	s.appt(prof, jan(20, 9), 30, appointment.StatusCancelado)

	rep, err = s.engine.GenerateTrends(context.Background(), monthFilter(jan(1, 0), jan(31, 0)), GranularityMonth)
	require.NoError(t, err)
	assert.InDelta(t, 66.67, rep.Buckets[0].AttendancePct, 0.01)
}

func TestTrendPct(t *testing.T) {
	assert.Equal(t, 0.0, trendPct(nil))
	assert.Equal(t, 0.0, trendPct([]int{0, 0}))
	// Empty prior bucket falls back to a divisor of 1.
	assert.Equal(t, 500.0, trendPct([]int{0, 5}))
	assert.Equal(t, -50.0, trendPct([]int{10, 5}))
	assert.Equal(t, 100.0, trendPct([]int{5, 10}))
}

func TestTrendAndProjectionInReport(t *testing.T) {
	s := newScenario()
	prof := s.professional("Pediatría")

	for i := 0; i < 5; i++ {
		s.appt(prof, feb(2+i, 10), 30, appointment.StatusProgramado)
	}

	rep, err := s.engine.GenerateTrends(context.Background(), monthFilter(jan(1, 0), feb(28, 0)), GranularityMonth)
	require.NoError(t, err)
	assert.InDelta(t, 500.0, rep.Summary.TrendPct, 0.001)
	assert.InDelta(t, 550.0, rep.Summary.ProjectedNextPeriod, 0.001)
}

func TestHourHistogramWindow(t *testing.T) {
	s := newScenario()
	prof := s.professional("Dermatología")

	s.appt(prof, jan(5, 7), 30, appointment.StatusCompletado)  // before opening, dropped
	s.appt(prof, jan(6, 8), 30, appointment.StatusCompletado)  // first reported hour
	s.appt(prof, jan(7, 20), 30, appointment.StatusCompletado) // last reported hour
	s.appt(prof, jan(8, 21), 30, appointment.StatusCompletado) // after closing, dropped
	s.appt(prof, jan(9, 10), 30, appointment.StatusCancelado)  // cancelled, dropped

	rep, err := s.engine.GenerateTrends(context.Background(), monthFilter(jan(1, 0), jan(31, 0)), GranularityMonth)
	require.NoError(t, err)

	require.Len(t, rep.HourHistogram, 13)
	assert.Equal(t, 8, rep.HourHistogram[0].Hour)
	assert.Equal(t, 20, rep.HourHistogram[12].Hour)

	total := 0
	for _, h := range rep.HourHistogram {
		total += h.Count
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, rep.HourHistogram[0].Count)
	assert.Equal(t, 1, rep.HourHistogram[12].Count)
}

func TestWeekdayHistogramMondayFirst(t *testing.T) {
	s := newScenario()
	prof := s.professional("Neurología")

	s.appt(prof, jan(5, 10), 30, appointment.StatusCompletado) // Monday
	s.appt(prof, jan(5, 11), 30, appointment.StatusCompletado) // Monday
	s.appt(prof, jan(4, 10), 30, appointment.StatusCompletado) // Sunday

	rep, err := s.engine.GenerateTrends(context.Background(), monthFilter(jan(1, 0), jan(31, 0)), GranularityMonth)
	require.NoError(t, err)

	require.Len(t, rep.WeekdayHistogram, 7)
	assert.Equal(t, "Lunes", rep.WeekdayHistogram[0].Weekday)
	assert.Equal(t, 2, rep.WeekdayHistogram[0].Count)
	assert.Equal(t, "Domingo", rep.WeekdayHistogram[6].Weekday)
	assert.Equal(t, 1, rep.WeekdayHistogram[6].Count)

	require.NotEmpty(t, rep.Summary.BusiestWeekdays)
	assert.Equal(t, "Lunes", rep.Summary.BusiestWeekdays[0].Weekday)
}

func TestSpecialtyDistribution(t *testing.T) {
	s := newScenario()
	cardio := s.professional("Cardiología")
	derma := s.professional("Dermatología")
	none := s.professional("")

	for i := 0; i < 3; i++ {
		s.appt(cardio, jan(5+i, 10), 30, appointment.StatusCompletado)
	}
	for i := 0; i < 2; i++ {
		s.appt(derma, jan(5+i, 11), 30, appointment.StatusCompletado)
	}
	s.appt(none, jan(5, 12), 30, appointment.StatusCompletado)

	rep, err := s.engine.GenerateTrends(context.Background(), monthFilter(jan(1, 0), jan(31, 0)), GranularityMonth)
	require.NoError(t, err)

	require.Len(t, rep.Specialties, 3)
	assert.Equal(t, "Cardiología", rep.Specialties[0].Specialty)
	assert.Equal(t, 3, rep.Specialties[0].Count)
	assert.InDelta(t, 50.0, rep.Specialties[0].Pct, 0.001)
	assert.Equal(t, NoSpecialtyLabel, rep.Specialties[2].Specialty)

	assert.Equal(t, "Cardiología", rep.Summary.TopSpecialty)
}

func TestSpecialtyDistributionTopSix(t *testing.T) {
	s := newScenario()

	names := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for i, name := range names {
		prof := s.professional(name)
		// i+1 appointments each, so H leads and A drops off.
		for j := 0; j <= i; j++ {
			s.appt(prof, jan(2+j, 9+i%10), 30, appointment.StatusProgramado)
		}
	}

	rep, err := s.engine.GenerateTrends(context.Background(), monthFilter(jan(1, 0), jan(31, 0)), GranularityMonth)
	require.NoError(t, err)

	require.Len(t, rep.Specialties, 6)
	assert.Equal(t, "H", rep.Specialties[0].Specialty)
	assert.Equal(t, "C", rep.Specialties[5].Specialty)
}

func TestAvgDurationBySpecialty(t *testing.T) {
	s := newScenario()
	cardio := s.professional("Cardiología")
	derma := s.professional("Dermatología")

	s.appt(cardio, jan(5, 10), 30, appointment.StatusCompletado)
	s.appt(cardio, jan(6, 10), 60, appointment.StatusCompletado)
	s.appt(derma, jan(5, 11), 0, appointment.StatusCompletado)   // unset duration defaults to 30
	s.appt(derma, jan(6, 11), 120, appointment.StatusProgramado) // not completed, excluded

	rep, err := s.engine.GenerateTrends(context.Background(), monthFilter(jan(1, 0), jan(31, 0)), GranularityMonth)
	require.NoError(t, err)

	require.Len(t, rep.AvgDurationBySpecialty, 2)
	assert.Equal(t, "Cardiología", rep.AvgDurationBySpecialty[0].Specialty)
	assert.InDelta(t, 45.0, rep.AvgDurationBySpecialty[0].AvgMinutes, 0.001)
	assert.Equal(t, "Dermatología", rep.AvgDurationBySpecialty[1].Specialty)
	assert.InDelta(t, 30.0, rep.AvgDurationBySpecialty[1].AvgMinutes, 0.001)
}

func TestPatientGrowth(t *testing.T) {
	s := newScenario()
	prof := s.professional("Clínica Médica")
	_ = prof

	// Two patients predate the range, one joins in January, one in
	// February.
	s.patientCreatedAt(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	s.patientCreatedAt(time.Date(2025, time.December, 20, 0, 0, 0, 0, time.UTC))
	s.patientCreatedAt(jan(10, 12))
	s.patientCreatedAt(feb(10, 12))

	rep, err := s.engine.GenerateTrends(context.Background(), monthFilter(jan(1, 0), feb(28, 0)), GranularityMonth)
	require.NoError(t, err)

	require.Len(t, rep.Buckets, 2)
	assert.Equal(t, 3, rep.Buckets[0].PatientsToDate)
	assert.Equal(t, 4, rep.Buckets[1].PatientsToDate)
}

func TestProfessionalFilterScopesReport(t *testing.T) {
	s := newScenario()
	mine := s.professional("Cardiología")
	other := s.professional("Dermatología")

	s.appt(mine, jan(5, 10), 30, appointment.StatusCompletado)
	s.appt(other, jan(5, 11), 30, appointment.StatusCompletado)
	s.appt(other, jan(6, 11), 30, appointment.StatusCompletado)

	f := monthFilter(jan(1, 0), jan(31, 0))
	f.ProfessionalID = &mine

	rep, err := s.engine.GenerateTrends(context.Background(), f, GranularityMonth)
	require.NoError(t, err)

	require.Len(t, rep.Buckets, 1)
	assert.Equal(t, 1, rep.Buckets[0].Total)
	require.Len(t, rep.Specialties, 1)
	assert.Equal(t, "Cardiología", rep.Specialties[0].Specialty)
}

// failingLedger aborts at a chosen call to prove no partial report
// leaks out.
type failingLedger struct {
	Ledger
	failFind bool
}

var errLedgerDown = errors.New("ledger unreachable")

func (f *failingLedger) FindAppointments(ctx context.Context, filter appointment.Filter) ([]appointment.Detail, error) {
	if f.failFind {
		return nil, errLedgerDown
	}
	return f.Ledger.FindAppointments(ctx, filter)
}

func TestReportFailsWholesale(t *testing.T) {
	s := newScenario()
	prof := s.professional("Cardiología")
	s.appt(prof, jan(5, 10), 30, appointment.StatusCompletado)

	engine := NewEngine(&failingLedger{Ledger: s.repo, failFind: true})

	rep, err := engine.GenerateTrends(context.Background(), monthFilter(jan(1, 0), jan(31, 0)), GranularityMonth)
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, errLedgerDown)
}

func TestProfessionalStats(t *testing.T) {
	s := newScenario()
	prof := s.professional("Traumatología")

	s.appt(prof, jan(5, 9), 30, appointment.StatusCompletado)
	s.appt(prof, jan(5, 10), 30, appointment.StatusCompletado)
	s.appt(prof, jan(6, 9), 30, appointment.StatusNoAsistio)
	s.appt(prof, jan(6, 10), 30, appointment.StatusCancelado)

	stats, err := s.engine.ProfessionalStats(context.Background(), prof, jan(5, 0), jan(6, 23))
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[appointment.StatusCompletado])
	assert.Equal(t, 1, stats.ByStatus[appointment.StatusNoAsistio])
	// Two calendar days.
	assert.InDelta(t, 2.0, stats.AveragePerDay, 0.001)
	// 2 attended out of 3 counted; the cancellation is ignored.
	assert.InDelta(t, 66.67, stats.AttendancePct, 0.01)
}

func TestProfessionalStatsSubDayRange(t *testing.T) {
	s := newScenario()
	prof := s.professional("Traumatología")

	s.appt(prof, jan(5, 9), 30, appointment.StatusCompletado)
	s.appt(prof, jan(5, 10), 30, appointment.StatusCompletado)

	// A few hours still divide by one full day.
	stats, err := s.engine.ProfessionalStats(context.Background(), prof, jan(5, 8), jan(5, 12))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, stats.AveragePerDay, 0.001)
}

func TestCalendarDays(t *testing.T) {
	assert.Equal(t, 1, calendarDays(jan(5, 8), jan(5, 12)))
	assert.Equal(t, 2, calendarDays(jan(5, 23), jan(6, 1)))
	assert.Equal(t, 31, calendarDays(jan(1, 0), jan(31, 0)))
	assert.Equal(t, 1, calendarDays(jan(6, 0), jan(5, 0))) // inverted floors to one
}
