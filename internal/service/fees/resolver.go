// internal/service/fees/resolver.go
package fees

import (
	"strings"

	"contracts-service/internal/domain/catalog"
	"contracts-service/internal/domain/contract"
	"contracts-service/internal/domain/sale"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Config is the base fee table. Catalog entries take precedence over it.
type Config struct {
	BaseFees          map[contract.PaymentMethod]decimal.Decimal
	DefaultFeePercent decimal.Decimal
	Labels            map[contract.PaymentMethod]string
}

func DefaultConfig() Config {
	return Config{
		BaseFees: map[contract.PaymentMethod]decimal.Decimal{
			contract.PaymentHotmart:       decimal.RequireFromString("6.4"),
			contract.PaymentStripe:        decimal.NewFromInt(4),
			contract.PaymentTransferencia: decimal.Zero,
		},
		DefaultFeePercent: decimal.NewFromInt(4),
	}
}

// Resolver turns a gross renewal amount into a ledger entry. It performs no I/O.
type Resolver struct {
	base     map[contract.PaymentMethod]decimal.Decimal
	fallback decimal.Decimal
	labels   map[contract.PaymentMethod]string
}

func NewResolver(cfg Config) *Resolver {
	if cfg.BaseFees == nil {
		cfg.BaseFees = DefaultConfig().BaseFees
	}
	return &Resolver{
		base:     cfg.BaseFees,
		fallback: cfg.DefaultFeePercent,
		labels:   cfg.Labels,
	}
}

// FeePercent looks the method up in the catalog first (case-insensitive substring
// match on the entry name), then in the base table, then falls back to the default.
func (r *Resolver) FeePercent(method contract.PaymentMethod, feeCatalog []catalog.PaymentMethodFee) decimal.Decimal {
	token := strings.ToLower(strings.TrimSpace(string(method)))
	if token != "" {
		for _, entry := range feeCatalog {
			if strings.Contains(strings.ToLower(entry.Name), token) {
				return entry.FeePercent
			}
		}
	}
	if pct, ok := r.base[contract.PaymentMethod(token)]; ok {
		return pct
	}
	return r.fallback
}

func (r *Resolver) Label(method contract.PaymentMethod) string {
	if l, ok := r.labels[method]; ok && l != "" {
		return l
	}
	return method.Label()
}

// Resolve computes fee, net and coach commission for gross. A zero coachCommissionPercent
// (unknown coach) yields a zero commission.
func (r *Resolver) Resolve(gross decimal.Decimal, method contract.PaymentMethod, coachCommissionPercent decimal.Decimal, feeCatalog []catalog.PaymentMethodFee) sale.SaleRecord {
	pct := r.FeePercent(method, feeCatalog)
	fee := gross.Mul(pct).Div(hundred)
	net := gross.Sub(fee)
	commission := net.Mul(coachCommissionPercent).Div(hundred)

	return sale.SaleRecord{
		GrossAmount:        gross,
		FeePercent:         pct,
		FeeAmount:          fee,
		NetAmount:          net,
		CommissionPercent:  coachCommissionPercent,
		CommissionAmount:   commission,
		PaymentMethod:      string(method),
		PaymentMethodLabel: r.Label(method),
	}
}
