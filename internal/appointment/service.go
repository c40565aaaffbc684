package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clinova/clinic-scheduling/internal/clock"
	redisclient "github.com/clinova/clinic-scheduling/internal/redis"
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	clk    clock.Clock
	log    zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, clk clock.Clock, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		clk:    clk,
		log:    log,
	}
}

// BookingRequest carries everything needed to admit a new appointment.
type BookingRequest struct {
	ProfessionalID      uuid.UUID
	PatientID           uuid.UUID
	StartTime           time.Time
	DurationMinutes     *int
	Type                ConsultationType
	InsuranceProviderID *uuid.UUID
	Copay               *decimal.Decimal
	CreatedBy           uuid.UUID
}

func (req *BookingRequest) validate() error {
	if req.DurationMinutes != nil {
		if *req.DurationMinutes < MinDurationMinutes || *req.DurationMinutes > MaxDurationMinutes {
			return ErrDurationOutOfRange
		}
	}

	switch req.Type {
	case ConsultationObraSocial:
		if req.InsuranceProviderID == nil || req.Copay != nil {
			return ErrPaymentMismatch
		}
	case ConsultationParticular:
		if req.Copay == nil || req.InsuranceProviderID != nil {
			return ErrPaymentMismatch
		}
	default:
		return ErrPaymentMismatch
	}

	return nil
}

// Book admits a new appointment for a professional, rejecting any slot
// that overlaps a non-cancelled, non-no-show appointment on the same
// day. The overlap check and the insert run inside a per-professional
// agenda lock so concurrent requests for the same slot cannot both pass
// the check.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetPatientByID(ctx, req.PatientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if _, err := s.repo.GetProfessionalByID(ctx, req.ProfessionalID); err != nil {
		if errors.Is(err, ErrProfessionalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load professional: %w", err)
	}

	duration := time.Duration(DefaultDurationMinutes) * time.Minute
	if req.DurationMinutes != nil {
		duration = time.Duration(*req.DurationMinutes) * time.Minute
	}

	var created *Appointment

	err := s.locker.WithAgendaLock(ctx, req.ProfessionalID, req.StartTime, func(lockCtx context.Context) error {
		dayStart, dayEnd := DayWindow(req.StartTime)

		existing, err := s.repo.FindAppointments(lockCtx, Filter{
			ProfessionalID: &req.ProfessionalID,
			From:           &dayStart,
			To:             &dayEnd,
			NotStatuses:    []Status{StatusCancelado, StatusNoAsistio},
		})
		if err != nil {
			return fmt.Errorf("load day agenda: %w", err)
		}

		sameDay := make([]Appointment, 0, len(existing))
		for i := range existing {
			sameDay = append(sameDay, existing[i].Appointment)
		}

		if err := CheckOverlap(req.StartTime, duration, sameDay); err != nil {
			return err
		}

		patientID := req.PatientID
		appt, err := s.repo.InsertAppointment(lockCtx, &Appointment{
			ProfessionalID:      req.ProfessionalID,
			PatientID:           &patientID,
			StartTime:           req.StartTime,
			DurationMinutes:     req.DurationMinutes,
			Status:              StatusProgramado,
			Type:                req.Type,
			InsuranceProviderID: req.InsuranceProviderID,
			Copay:               req.Copay,
			CreatedBy:           req.CreatedBy,
		})
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrAgendaBusy
		}
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", created.ID.String()).
		Str("professional_id", req.ProfessionalID.String()).
		Time("start_time", req.StartTime).
		Msg("appointment booked")

	return created, nil
}

// ChangeStatus applies a professional-initiated status update. The
// lookup is scoped to the professional, so an appointment owned by
// someone else reads as not found. Setting CANCELADO through this path
// is rejected; that transition belongs to Cancel.
func (s *Service) ChangeStatus(ctx context.Context, professionalID, id uuid.UUID, newStatus Status) (*Appointment, error) {
	appt, err := s.repo.GetOwnedAppointment(ctx, professionalID, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if err := CheckTransition(appt.Status, newStatus, TransitionDirect); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, newStatus)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// The compare-and-set lost a race; the state we validated
			// against is gone.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	return updated, nil
}

// Cancel moves an appointment to CANCELADO and writes the compensating
// record, atomically. It distinguishes a stale read (status already
// terminal when we looked) from a race (another request cancelled it
// between our read and our write); both surface as ErrAlreadyCancelled
// when the prior state was CANCELADO.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string, cancelledBy uuid.UUID) (*Cancellation, error) {
	if reason == "" {
		return nil, ErrEmptyCancelReason
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.PatientID == nil {
		return nil, ErrMissingPatient
	}

	if err := CheckTransition(appt.Status, StatusCancelado, TransitionCancel); err != nil {
		return nil, err
	}

	rec, err := s.repo.CancelAppointment(ctx, Cancellation{
		AppointmentID: appt.ID,
		PatientID:     *appt.PatientID,
		CancelledBy:   cancelledBy,
		Reason:        reason,
		CancelledAt:   s.clk.Now(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("cancelled_by", cancelledBy.String()).
		Msg("appointment cancelled")

	return rec, nil
}

// GetAppointment retrieves an appointment by ID.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// ListForProfessionalDay returns a professional's appointments for one
// calendar day, ordered by start time.
func (s *Service) ListForProfessionalDay(ctx context.Context, professionalID uuid.UUID, day time.Time) ([]Detail, error) {
	dayStart, dayEnd := DayWindow(day)

	appts, err := s.repo.FindAppointments(ctx, Filter{
		ProfessionalID: &professionalID,
		From:           &dayStart,
		To:             &dayEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("list day agenda: %w", err)
	}
	return appts, nil
}
