// internal/domain/sale/entity.go
package sale

import (
	"time"

	"github.com/shopspring/decimal"
)

const TransactionRenewal = "renewal"

// SaleRecord is one ledger entry. The ledger is write-only from this service.
type SaleRecord struct {
	ID                 string          `json:"id"`
	ClientID           string          `json:"client_id"`
	CoachID            string          `json:"coach_id,omitempty"`
	TransactionType    string          `json:"transaction_type"`
	GrossAmount        decimal.Decimal `json:"gross_amount"`
	FeePercent         decimal.Decimal `json:"fee_percent"`
	FeeAmount          decimal.Decimal `json:"fee_amount"`
	NetAmount          decimal.Decimal `json:"net_amount"`
	CommissionPercent  decimal.Decimal `json:"commission_percent"`
	CommissionAmount   decimal.Decimal `json:"commission_amount"`
	Phase              int             `json:"phase"`
	PaymentMethod      string          `json:"payment_method"`
	PaymentMethodLabel string          `json:"payment_method_label"`
	Date               time.Time       `json:"date"`
	Notes              string          `json:"notes"`
}
