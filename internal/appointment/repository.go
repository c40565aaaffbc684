package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows appointment queries. Zero-value fields are ignored.
// From/To bound StartTime as a half-open [From, To) window.
type Filter struct {
	ProfessionalID *uuid.UUID
	PatientID      *uuid.UUID
	From           *time.Time
	To             *time.Time
	Statuses       []Status // match any of these
	NotStatuses    []Status // match none of these
	Specialty      *string  // via the professional join
}

// Repository contains all ledger interactions needed by the service and
// the report engine.
type Repository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error)

	// GetOwnedAppointment looks an appointment up scoped to its
	// professional; a mismatch reads as not found.
	GetOwnedAppointment(ctx context.Context, professionalID, id uuid.UUID) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	FindAppointments(ctx context.Context, f Filter) ([]Detail, error)
	CountAppointments(ctx context.Context, f Filter) (int, error)

	InsertAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// CancelAppointment flips the status to CANCELADO and writes the
	// compensating record in one atomic unit. A concurrent cancellation
	// surfaces as ErrAlreadyCancelled via the unique key on the
	// cancellation's appointment reference.
	CancelAppointment(ctx context.Context, c Cancellation) (*Cancellation, error)

	// Patient-growth inputs for the trends report.
	CountPatientsCreatedBefore(ctx context.Context, t time.Time) (int, error)
	CountPatientsCreatedInRange(ctx context.Context, from, to time.Time) (int, error)
}
