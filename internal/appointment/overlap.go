package appointment

import (
	"time"
)

// CheckOverlap decides whether a candidate booking can be admitted to a
// professional's agenda. existing must already be filtered to the same
// professional and the same calendar day as candidateStart, with
// CANCELADO and NO_ASISTIO records excluded: those free their slot.
//
// Intervals are half-open, so an appointment ending 10:30 does not
// conflict with one starting 10:30.
func CheckOverlap(candidateStart time.Time, candidateDuration time.Duration, existing []Appointment) error {
	candidateEnd := candidateStart.Add(candidateDuration)

	for i := range existing {
		exStart := existing[i].StartTime
		exEnd := existing[i].End()

		if candidateStart.Before(exEnd) && candidateEnd.After(exStart) {
			return ErrSlotTaken
		}
	}

	return nil
}

// DayWindow returns the [start, end) bounds of the calendar day
// containing t, in t's location. Used to scope the overlap query.
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
