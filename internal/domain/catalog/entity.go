// internal/domain/catalog/entity.go
package catalog

import "github.com/shopspring/decimal"

// Offer is a sellable renewal package. Price is kept as typed by the sales team ("1.200,00 €").
type Offer struct {
	OfferRef       string `json:"offer_ref"`
	Name           string `json:"name"`
	Price          string `json:"price"`
	DurationMonths *int   `json:"duration_months,omitempty"`
}

type PaymentMethodFee struct {
	Name       string          `json:"name"`
	FeePercent decimal.Decimal `json:"fee_percent"`
}

type Coach struct {
	CoachID           string          `json:"coach_id"`
	Name              string          `json:"name"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
}
