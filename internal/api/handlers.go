package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinova/clinic-scheduling/internal/appointment"
	redisclient "github.com/clinova/clinic-scheduling/internal/redis"
	"github.com/clinova/clinic-scheduling/internal/report"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func appointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                  a.ID,
		ProfessionalID:      a.ProfessionalID,
		PatientID:           a.PatientID,
		StartTime:           a.StartTime,
		DurationMinutes:     a.DurationMinutes,
		Status:              string(a.Status),
		ConsultationType:    string(a.Type),
		InsuranceProviderID: a.InsuranceProviderID,
		Copay:               a.Copay,
	}
}

func bookAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		professionalID, err := uuid.Parse(req.ProfessionalID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", "professional_id must be a valid UUID")
			return
		}
		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}
		createdBy, err := uuid.Parse(req.CreatedBy)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_created_by", "created_by must be a valid UUID")
			return
		}
		if req.StartTime.IsZero() {
			writeError(w, http.StatusBadRequest, "missing_start_time", "start_time is required")
			return
		}

		var insuranceID *uuid.UUID
		if req.InsuranceProviderID != nil {
			id, err := uuid.Parse(*req.InsuranceProviderID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_insurance_provider_id", "insurance_provider_id must be a valid UUID")
				return
			}
			insuranceID = &id
		}

		appt, err := svc.Book(r.Context(), appointment.BookingRequest{
			ProfessionalID:      professionalID,
			PatientID:           patientID,
			StartTime:           req.StartTime,
			DurationMinutes:     req.DurationMinutes,
			Type:                appointment.ConsultationType(req.ConsultationType),
			InsuranceProviderID: insuranceID,
			Copay:               req.Copay,
			CreatedBy:           createdBy,
		})
		if err != nil {
			handleBookError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, appointmentResponse(appt))
	}
}

func changeStatusHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req ChangeStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		professionalID, err := uuid.Parse(req.ProfessionalID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", "professional_id must be a valid UUID")
			return
		}

		appt, err := svc.ChangeStatus(r.Context(), professionalID, id, appointment.Status(req.Status))
		if err != nil {
			handleStatusError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req CancelAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		cancelledBy, err := uuid.Parse(req.CancelledBy)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_cancelled_by", "cancelled_by must be a valid UUID")
			return
		}

		rec, err := svc.Cancel(r.Context(), id, req.Reason, cancelledBy)
		if err != nil {
			handleCancelError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, CancellationResponse{
			ID:            rec.ID,
			AppointmentID: rec.AppointmentID,
			PatientID:     rec.PatientID,
			CancelledBy:   rec.CancelledBy,
			Reason:        rec.Reason,
			CancelledAt:   rec.CancelledAt,
		})
	}
}

func agendaHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		professionalID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", "id must be a valid UUID")
			return
		}

		day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		appts, err := svc.ListForProfessionalDay(r.Context(), professionalID, day)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, appointmentResponse(&appts[i].Appointment))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func trendsHandler(engine *report.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		from, err := time.Parse("2006-01-02", q.Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be YYYY-MM-DD")
			return
		}
		to, err := time.Parse("2006-01-02", q.Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to must be YYYY-MM-DD")
			return
		}

		filter := report.Filter{From: from, To: to}

		if v := q.Get("professional_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_professional_id", "professional_id must be a valid UUID")
				return
			}
			filter.ProfessionalID = &id
		}
		if v := q.Get("specialty"); v != "" {
			filter.Specialty = &v
		}
		if v := q.Get("status"); v != "" {
			st := appointment.Status(v)
			if !st.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_status", "unknown status value")
				return
			}
			filter.Statuses = []appointment.Status{st}
		}

		rep, err := engine.GenerateTrends(r.Context(), filter, report.ParseGranularity(q.Get("granularity")))
		if err != nil {
			handleReportError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, rep)
	}
}

func professionalStatsHandler(engine *report.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		professionalID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", "id must be a valid UUID")
			return
		}

		q := r.URL.Query()
		from, err := time.Parse("2006-01-02", q.Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be YYYY-MM-DD")
			return
		}
		to, err := time.Parse("2006-01-02", q.Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to must be YYYY-MM-DD")
			return
		}

		stats, err := engine.ProfessionalStats(r.Context(), professionalID, from, to)
		if err != nil {
			handleReportError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, stats)
	}
}

func handleBookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrDurationOutOfRange),
		errors.Is(err, appointment.ErrPaymentMismatch):
		writeError(w, http.StatusBadRequest, "invalid_booking", err.Error())
	case errors.Is(err, appointment.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, appointment.ErrProfessionalNotFound):
		writeError(w, http.StatusNotFound, "professional_not_found", err.Error())
	case errors.Is(err, appointment.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, appointment.ErrAgendaBusy),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "agenda_busy", "the agenda is being modified, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleStatusError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrUseCancelOperation):
		writeError(w, http.StatusUnprocessableEntity, "use_cancel_operation", err.Error())
	case errors.Is(err, appointment.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, "unknown_status", err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleCancelError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrEmptyCancelReason),
		errors.Is(err, appointment.ErrMissingPatient):
		writeError(w, http.StatusBadRequest, "invalid_cancellation", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "already_cancelled", err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleReportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, report.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
