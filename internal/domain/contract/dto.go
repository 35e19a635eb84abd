// internal/domain/contract/dto.go
package contract

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateContractRequest struct {
	ClientID           string    `json:"client_id" binding:"required,uuid"`
	CoachID            string    `json:"coach_id"`
	StartDate          time.Time `json:"start_date" binding:"required"`
	BaseDurationMonths int       `json:"base_duration_months" binding:"required,min=1,max=60"`
}

// PhaseScheduleInput edits one phase's inputs to the cascade; nil fields are left untouched.
type PhaseScheduleInput struct {
	Phase          PhaseNumber `json:"phase" binding:"required,min=2,max=5"`
	DurationMonths *int        `json:"duration_months" binding:"omitempty,min=1,max=60"`
	ServiceName    *string     `json:"service_name"`
}

type UpdateScheduleRequest struct {
	StartDate          *time.Time           `json:"start_date"`
	BaseDurationMonths *int                 `json:"base_duration_months" binding:"omitempty,min=1,max=60"`
	Phases             []PhaseScheduleInput `json:"phases" binding:"omitempty,dive"`
}

type StageRenewalRequest struct {
	DurationMonths *int             `json:"duration_months" binding:"omitempty,min=1,max=60"`
	Amount         *decimal.Decimal `json:"amount"`
	PaymentMethod  *string          `json:"payment_method"`
	OfferRef       *string          `json:"offer_ref"`
}

type AttachReceiptRequest struct {
	ReceiptRef string `json:"receipt_ref" binding:"required"`
}

type SignContractRequest struct {
	ImageRef string `json:"image_ref" binding:"required"`
}

// ActivateRenewalRequest carries the manual overrides typed by staff.
type ActivateRenewalRequest struct {
	ManualDuration *int             `json:"manual_duration" binding:"omitempty,min=1,max=60"`
	ManualAmount   *decimal.Decimal `json:"manual_amount"`
	PaymentMethod  *string          `json:"payment_method"`
	OfferRef       *string          `json:"offer_ref"`
}

type ExpiringFilters struct {
	Days int `form:"days"`
}

type ExpiringContract struct {
	ClientID        string       `json:"client_id"`
	CoachID         string       `json:"coach_id,omitempty"`
	ActivePhase     PhaseNumber  `json:"active_phase"`
	NextPhase       PhaseNumber  `json:"next_phase"`
	ContractEndDate time.Time    `json:"contract_end_date"`
	DaysRemaining   int          `json:"days_remaining"`
	Status          ClientStatus `json:"status"`
}
