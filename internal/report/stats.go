package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinova/clinic-scheduling/internal/appointment"
)

// ProfessionalStats summarizes one professional's appointments over a
// range: counts per status, attendance, and average bookings per day.
//
// The per-day denominator is the inclusive count of calendar days the
// range touches, never below one, so a range of a few hours still
// divides by a full day instead of blowing the average up.
func (e *Engine) ProfessionalStats(ctx context.Context, professionalID uuid.UUID, from, to time.Time) (*ProfessionalStats, error) {
	if from.IsZero() || to.IsZero() {
		return nil, ErrInvalidRange
	}

	appts, err := e.ledger.FindAppointments(ctx, appointment.Filter{
		ProfessionalID: &professionalID,
		From:           &from,
		To:             &to,
	})
	if err != nil {
		return nil, fmt.Errorf("load professional appointments: %w", err)
	}

	stats := &ProfessionalStats{
		ProfessionalID: professionalID,
		From:           from,
		To:             to,
		Total:          len(appts),
		ByStatus:       make(map[appointment.Status]int),
	}

	for i := range appts {
		stats.ByStatus[appts[i].Status]++
	}

	stats.AveragePerDay = float64(stats.Total) / float64(calendarDays(from, to))
	stats.AttendancePct = attendancePct(appts, func(*appointment.Detail) bool { return true })

	return stats, nil
}

// calendarDays counts the calendar days touched by [from, to],
// inclusive on both ends, with a floor of one.
func calendarDays(from, to time.Time) int {
	if to.Before(from) {
		return 1
	}
	days := int(startOfDay(to).Sub(startOfDay(from)).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}
