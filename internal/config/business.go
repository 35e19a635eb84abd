// internal/config/business.go
package config

import (
	"fmt"
	"os"

	"contracts-service/internal/domain/contract"
	"contracts-service/internal/service/fees"
	"contracts-service/internal/service/schedule"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// BusinessConfig is the operator-editable part of the configuration:
//
//	default_renewal_months: 3
//	default_fee_percent: 4
//	payment_methods:
//	  hotmart: {fee_percent: 6.4, label: "Hotmart"}
//	  bizum:   {fee_percent: 0}
type BusinessConfig struct {
	DefaultRenewalMonths int                            `yaml:"default_renewal_months"`
	DefaultFeePercent    string                         `yaml:"default_fee_percent"`
	PaymentMethods       map[string]PaymentMethodConfig `yaml:"payment_methods"`
}

type PaymentMethodConfig struct {
	FeePercent *string `yaml:"fee_percent"`
	Label      string  `yaml:"label"`
}

// Business is the resolved form consumed by the renewal engine.
type Business struct {
	Fees                 fees.Config
	DefaultRenewalMonths int
}

// LoadBusiness reads path and merges it over the built-in defaults.
// An empty path yields the defaults.
func LoadBusiness(path string) (Business, error) {
	if path == "" {
		return BusinessConfig{}.Resolve()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Business{}, fmt.Errorf("failed to read business config: %w", err)
	}
	return ParseBusiness(b)
}

func ParseBusiness(b []byte) (Business, error) {
	var raw BusinessConfig
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return Business{}, fmt.Errorf("failed to parse business config: %w", err)
	}
	return raw.Resolve()
}

func (bc BusinessConfig) Resolve() (Business, error) {
	def := fees.DefaultConfig()
	out := Business{
		DefaultRenewalMonths: schedule.DefaultDurationMonths,
		Fees: fees.Config{
			BaseFees:          make(map[contract.PaymentMethod]decimal.Decimal, len(def.BaseFees)),
			DefaultFeePercent: def.DefaultFeePercent,
			Labels:            map[contract.PaymentMethod]string{},
		},
	}
	for k, v := range def.BaseFees {
		out.Fees.BaseFees[k] = v
	}

	if bc.DefaultRenewalMonths < 0 {
		return Business{}, fmt.Errorf("default_renewal_months must be positive")
	}
	if bc.DefaultRenewalMonths > 0 {
		out.DefaultRenewalMonths = bc.DefaultRenewalMonths
	}

	if bc.DefaultFeePercent != "" {
		pct, err := parsePercent("default_fee_percent", bc.DefaultFeePercent)
		if err != nil {
			return Business{}, err
		}
		out.Fees.DefaultFeePercent = pct
	}

	for name, m := range bc.PaymentMethods {
		method, err := contract.ParsePaymentMethod(name)
		if err != nil {
			return Business{}, fmt.Errorf("business config: %w", err)
		}
		if m.FeePercent != nil {
			pct, err := parsePercent(name, *m.FeePercent)
			if err != nil {
				return Business{}, err
			}
			out.Fees.BaseFees[method] = pct
		}
		if m.Label != "" {
			out.Fees.Labels[method] = m.Label
		}
	}
	return out, nil
}

func parsePercent(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid percentage %q", field, s)
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("%s: percentage out of range", field)
	}
	return d, nil
}
