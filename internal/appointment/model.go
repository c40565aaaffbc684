package appointment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusProgramado   Status = "PROGRAMADO"
	StatusConfirmado   Status = "CONFIRMADO"
	StatusEnSalaEspera Status = "EN_SALA_DE_ESPERA"
	StatusCompletado   Status = "COMPLETADO"
	StatusCancelado    Status = "CANCELADO"
	StatusNoAsistio    Status = "NO_ASISTIO"
)

// ConsultationType determines who pays: an insurance provider (obra
// social) or the patient out of pocket.
type ConsultationType string

const (
	ConsultationObraSocial ConsultationType = "obra_social"
	ConsultationParticular ConsultationType = "particular"
)

// DefaultDurationMinutes applies to appointments stored without an
// explicit duration.
const DefaultDurationMinutes = 30

const (
	MinDurationMinutes = 15
	MaxDurationMinutes = 120
)

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Professional struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID              uuid.UUID
	ProfessionalID  uuid.UUID
	PatientID       *uuid.UUID
	StartTime       time.Time
	DurationMinutes *int
	Status          Status
	Type            ConsultationType
	// Exactly one of InsuranceProviderID / Copay is set, driven by Type.
	InsuranceProviderID *uuid.UUID
	Copay               *decimal.Decimal
	CreatedBy           uuid.UUID
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Duration returns the stored duration, falling back to the default for
// legacy records that never captured one.
func (a *Appointment) Duration() time.Duration {
	mins := DefaultDurationMinutes
	if a.DurationMinutes != nil {
		mins = *a.DurationMinutes
	}
	return time.Duration(mins) * time.Minute
}

// End returns the exclusive end of the appointment interval.
func (a *Appointment) End() time.Time {
	return a.StartTime.Add(a.Duration())
}

// Cancellation is the immutable compensating record written when an
// appointment is cancelled. At most one exists per appointment.
type Cancellation struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	CancelledBy   uuid.UUID
	Reason        string
	CancelledAt   time.Time
}

// Detail hydrates an appointment with its professional, which reports
// need for specialty grouping.
type Detail struct {
	Appointment
	Professional *Professional
	Patient      *Patient
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompletado, StatusCancelado, StatusNoAsistio:
		return true
	}
	return false
}

// Valid reports whether s is one of the known lifecycle statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusProgramado, StatusConfirmado, StatusEnSalaEspera,
		StatusCompletado, StatusCancelado, StatusNoAsistio:
		return true
	}
	return false
}
