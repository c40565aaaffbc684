package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookAppointmentRequest struct {
	ProfessionalID      string           `json:"professional_id"`
	PatientID           string           `json:"patient_id"`
	StartTime           time.Time        `json:"start_time"`
	DurationMinutes     *int             `json:"duration_minutes,omitempty"`
	ConsultationType    string           `json:"consultation_type"`
	InsuranceProviderID *string          `json:"insurance_provider_id,omitempty"`
	Copay               *decimal.Decimal `json:"copay,omitempty"`
	CreatedBy           string           `json:"created_by"`
}

type ChangeStatusRequest struct {
	ProfessionalID string `json:"professional_id"`
	Status         string `json:"status"`
}

type CancelAppointmentRequest struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"`
}

type AppointmentResponse struct {
	ID                  uuid.UUID        `json:"id"`
	ProfessionalID      uuid.UUID        `json:"professional_id"`
	PatientID           *uuid.UUID       `json:"patient_id,omitempty"`
	StartTime           time.Time        `json:"start_time"`
	DurationMinutes     *int             `json:"duration_minutes,omitempty"`
	Status              string           `json:"status"`
	ConsultationType    string           `json:"consultation_type"`
	InsuranceProviderID *uuid.UUID       `json:"insurance_provider_id,omitempty"`
	Copay               *decimal.Decimal `json:"copay,omitempty"`
}

type CancellationResponse struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	CancelledBy   uuid.UUID `json:"cancelled_by"`
	Reason        string    `json:"reason"`
	CancelledAt   time.Time `json:"cancelled_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
