package appointment

import "errors"

var (
	// Not-found family. Ownership is enforced during lookup, so an
	// appointment owned by another professional is indistinguishable
	// from one that does not exist.
	ErrPatientNotFound      = errors.New("patient not found")
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")

	// Conflict family.
	ErrSlotTaken        = errors.New("the professional already has an appointment in that slot")
	ErrAgendaBusy       = errors.New("the professional's agenda is being modified, please retry")
	ErrAlreadyCancelled = errors.New("appointment is already cancelled")

	// State family.
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUseCancelOperation = errors.New("cancellation must use the cancel operation, not a status update")
	ErrUnknownStatus      = errors.New("unknown appointment status")

	// Validation family.
	ErrDurationOutOfRange = errors.New("duration must be between 15 and 120 minutes")
	ErrMissingPatient     = errors.New("appointment has no associated patient")
	ErrPaymentMismatch    = errors.New("exactly one of insurance provider or copay must be set for the consultation type")
	ErrEmptyCancelReason  = errors.New("cancellation reason is required")
)
