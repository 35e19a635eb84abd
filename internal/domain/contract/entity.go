// internal/domain/contract/entity.go
package contract

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxPhases is the number of phase slots (F1-F5) every contract carries.
const MaxPhases = 5

type ClientStatus string

const (
	StatusActive    ClientStatus = "active"
	StatusPaused    ClientStatus = "paused"
	StatusDropout   ClientStatus = "dropout"
	StatusInactive  ClientStatus = "inactive"
	StatusCompleted ClientStatus = "completed"
)

type RenewalPaymentStatus string

const (
	RenewalPaymentNone     RenewalPaymentStatus = "none"
	RenewalPaymentPending  RenewalPaymentStatus = "pending"
	RenewalPaymentUploaded RenewalPaymentStatus = "uploaded"
	RenewalPaymentVerified RenewalPaymentStatus = "verified"
)

// ContractPhase is one sequential renewal period.
type ContractPhase struct {
	Number         PhaseNumber      `json:"number"`
	Contracted     bool             `json:"contracted"`
	RenewalDate    *time.Time       `json:"renewal_date,omitempty"`
	DurationMonths *int             `json:"duration_months,omitempty"`
	EndDate        *time.Time       `json:"end_date,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	PaymentMethod  *PaymentMethod   `json:"payment_method,omitempty"`
	ServiceName    *string          `json:"service_name,omitempty"`

	// Days added to the end of this phase by closed pauses.
	PauseExtensionDays int `json:"pause_extension_days"`
}

type Signature struct {
	Signed   bool       `json:"signed"`
	SignedAt *time.Time `json:"signed_at,omitempty"`
	ImageRef *string    `json:"image_ref,omitempty"`
}

// RenewalState tracks the renewal currently being collected.
type RenewalState struct {
	NextPhase     PhaseNumber          `json:"next_phase"` // 0 when every phase is used
	PaymentStatus RenewalPaymentStatus `json:"payment_status"`
	ReceiptRef    *string              `json:"receipt_ref,omitempty"`
	Amount        *decimal.Decimal     `json:"amount,omitempty"`
	PaymentMethod *PaymentMethod       `json:"payment_method,omitempty"`
	VerifiedAt    *time.Time           `json:"verified_at,omitempty"`
}

// ContractAggregate is the whole contract of one client, persisted as a unit.
type ContractAggregate struct {
	ClientID           string                   `json:"client_id"`
	CoachID            string                   `json:"coach_id,omitempty"`
	StartDate          *time.Time               `json:"start_date,omitempty"`
	BaseDurationMonths int                      `json:"base_duration_months"`
	Phases             [MaxPhases]ContractPhase `json:"phases"`
	ContractEndDate    *time.Time               `json:"contract_end_date,omitempty"`

	Status      ClientStatus `json:"status"`
	PauseDate   *time.Time   `json:"pause_date,omitempty"`
	PauseReason *string      `json:"pause_reason,omitempty"`

	Signature Signature `json:"signature"`

	// Staging for an in-progress renewal
	StagedDuration      *int             `json:"staged_duration,omitempty"`
	StagedAmount        *decimal.Decimal `json:"staged_amount,omitempty"`
	StagedPaymentMethod *PaymentMethod   `json:"staged_payment_method,omitempty"`
	StagedOfferRef      *string          `json:"staged_offer_ref,omitempty"`

	Renewal RenewalState `json:"renewal"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAggregate returns a contract with empty phase placeholders.
func NewAggregate(clientID, coachID string, start time.Time, baseMonths int) ContractAggregate {
	agg := ContractAggregate{
		ClientID:           clientID,
		CoachID:            coachID,
		StartDate:          &start,
		BaseDurationMonths: baseMonths,
		Status:             StatusActive,
		Renewal: RenewalState{
			NextPhase:     2,
			PaymentStatus: RenewalPaymentNone,
		},
	}
	for i := range agg.Phases {
		agg.Phases[i].Number = PhaseNumber(i + 1)
	}
	return agg
}

// Phase returns the slot for phase n (1-based).
func (a *ContractAggregate) Phase(n PhaseNumber) *ContractPhase {
	return &a.Phases[n.Index()]
}

// Clone deep-copies the aggregate so a command can mutate it without touching the caller's snapshot.
func (a ContractAggregate) Clone() ContractAggregate {
	out := a
	out.StartDate = cloneTime(a.StartDate)
	out.ContractEndDate = cloneTime(a.ContractEndDate)
	out.PauseDate = cloneTime(a.PauseDate)
	out.PauseReason = cloneString(a.PauseReason)
	out.Signature.SignedAt = cloneTime(a.Signature.SignedAt)
	out.Signature.ImageRef = cloneString(a.Signature.ImageRef)
	out.StagedDuration = cloneInt(a.StagedDuration)
	out.StagedAmount = cloneDecimal(a.StagedAmount)
	out.StagedPaymentMethod = cloneMethod(a.StagedPaymentMethod)
	out.StagedOfferRef = cloneString(a.StagedOfferRef)
	out.Renewal.ReceiptRef = cloneString(a.Renewal.ReceiptRef)
	out.Renewal.Amount = cloneDecimal(a.Renewal.Amount)
	out.Renewal.PaymentMethod = cloneMethod(a.Renewal.PaymentMethod)
	out.Renewal.VerifiedAt = cloneTime(a.Renewal.VerifiedAt)

	for i, p := range a.Phases {
		out.Phases[i].RenewalDate = cloneTime(p.RenewalDate)
		out.Phases[i].DurationMonths = cloneInt(p.DurationMonths)
		out.Phases[i].EndDate = cloneTime(p.EndDate)
		out.Phases[i].Amount = cloneDecimal(p.Amount)
		out.Phases[i].PaymentMethod = cloneMethod(p.PaymentMethod)
		out.Phases[i].ServiceName = cloneString(p.ServiceName)
	}
	return out
}

// ClearStaging drops the staged renewal inputs and the uploaded receipt.
func (a *ContractAggregate) ClearStaging() {
	a.StagedDuration = nil
	a.StagedAmount = nil
	a.StagedPaymentMethod = nil
	a.StagedOfferRef = nil
	a.Renewal.ReceiptRef = nil
}

// ResetSignature marks the contract unsigned; every phase needs its own signature.
func (a *ContractAggregate) ResetSignature() {
	a.Signature = Signature{}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneMethod(m *PaymentMethod) *PaymentMethod {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}
