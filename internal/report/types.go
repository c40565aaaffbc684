package report

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinova/clinic-scheduling/internal/appointment"
)

// NoSpecialtyLabel groups appointments whose professional has no
// recorded specialty.
const NoSpecialtyLabel = "Sin especialidad"

// Filter enumerates every dimension a report can be scoped by. It is
// validated once at the entry point; zero optional fields mean "all".
type Filter struct {
	From           time.Time
	To             time.Time
	ProfessionalID *uuid.UUID
	Specialty      *string
	Statuses       []appointment.Status
}

var ErrInvalidRange = errors.New("report range requires both from and to")

func (f Filter) Validate() error {
	if f.From.IsZero() || f.To.IsZero() {
		return ErrInvalidRange
	}
	return nil
}

// BucketMetrics is one row of the per-bucket series.
type BucketMetrics struct {
	Label          string  `json:"label"`
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Cancelled      int     `json:"cancelled"`
	AttendancePct  float64 `json:"attendance_pct"`
	PatientsToDate int     `json:"patients_to_date"` // cumulative new-patient growth
}

type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type WeekdayCount struct {
	Weekday string `json:"weekday"`
	Count   int    `json:"count"`
}

type SpecialtyShare struct {
	Specialty string  `json:"specialty"`
	Count     int     `json:"count"`
	Pct       float64 `json:"pct"`
}

type SpecialtyDuration struct {
	Specialty  string  `json:"specialty"`
	AvgMinutes float64 `json:"avg_minutes"`
}

type Summary struct {
	TotalAppointments   int            `json:"total_appointments"`
	TrendPct            float64        `json:"trend_pct"`
	ProjectedNextPeriod float64        `json:"projected_next_period"`
	BusiestHours        []HourCount    `json:"busiest_hours"`
	BusiestWeekdays     []WeekdayCount `json:"busiest_weekdays"`
	TopSpecialty        string         `json:"top_specialty"`
	AttendancePct       float64        `json:"attendance_pct"`
}

// TrendsReport is the full aggregation payload.
type TrendsReport struct {
	Granularity            Granularity         `json:"granularity"`
	From                   time.Time           `json:"from"`
	To                     time.Time           `json:"to"`
	Buckets                []BucketMetrics     `json:"buckets"`
	HourHistogram          []HourCount         `json:"hour_histogram"`
	WeekdayHistogram       []WeekdayCount      `json:"weekday_histogram"`
	Specialties            []SpecialtyShare    `json:"specialties"`
	AvgDurationBySpecialty []SpecialtyDuration `json:"avg_duration_by_specialty"`
	Summary                Summary             `json:"summary"`
}

// ProfessionalStats summarizes one professional's activity in a range.
type ProfessionalStats struct {
	ProfessionalID uuid.UUID                  `json:"professional_id"`
	From           time.Time                  `json:"from"`
	To             time.Time                  `json:"to"`
	Total          int                        `json:"total"`
	ByStatus       map[appointment.Status]int `json:"by_status"`
	AveragePerDay  float64                    `json:"average_per_day"`
	AttendancePct  float64                    `json:"attendance_pct"`
}
