package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2026, time.March, 10, hour, min, 0, 0, time.UTC)
}

func existingAt(hour, min, durationMin int) Appointment {
	d := durationMin
	return Appointment{
		StartTime:       at(hour, min),
		DurationMinutes: &d,
		Status:          StatusProgramado,
	}
}

func TestCheckOverlap(t *testing.T) {
	existing := []Appointment{existingAt(10, 0, 30)} // [10:00, 10:30)

	tests := []struct {
		name     string
		start    time.Time
		duration time.Duration
		wantErr  error
	}{
		{"contained overlap", at(10, 15), 30 * time.Minute, ErrSlotTaken},
		{"exact duplicate", at(10, 0), 30 * time.Minute, ErrSlotTaken},
		{"candidate swallows existing", at(9, 45), 60 * time.Minute, ErrSlotTaken},
		{"ends at existing start", at(9, 30), 30 * time.Minute, nil},
		{"starts at existing end", at(10, 30), 30 * time.Minute, nil},
		{"disjoint later", at(12, 0), 30 * time.Minute, nil},
		{"one minute into existing", at(10, 29), 15 * time.Minute, ErrSlotTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOverlap(tt.start, tt.duration, existing)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckOverlapDefaultDuration(t *testing.T) {
	// A legacy record without duration occupies 30 minutes.
	legacy := Appointment{StartTime: at(10, 0), Status: StatusConfirmado}

	err := CheckOverlap(at(10, 20), 30*time.Minute, []Appointment{legacy})
	assert.ErrorIs(t, err, ErrSlotTaken)

	err = CheckOverlap(at(10, 30), 30*time.Minute, []Appointment{legacy})
	assert.NoError(t, err)
}

func TestCheckOverlapEmptyAgenda(t *testing.T) {
	assert.NoError(t, CheckOverlap(at(10, 0), 30*time.Minute, nil))
}

func TestCheckOverlapFirstConflictWins(t *testing.T) {
	existing := []Appointment{
		existingAt(9, 0, 30),
		existingAt(10, 0, 30),
		existingAt(11, 0, 30),
	}

	require.ErrorIs(t, CheckOverlap(at(10, 15), 2*time.Hour, existing), ErrSlotTaken)
}

func TestDayWindow(t *testing.T) {
	start, end := DayWindow(at(14, 45))

	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC), end)
}
