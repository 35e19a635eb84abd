package contract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PhaseNumber identifies a phase slot, 1 through 5.
type PhaseNumber int

var phaseTokenPattern = regexp.MustCompile(`(?i)f(\d+)`)

// ParsePhaseToken extracts the phase index from tokens like "f2", "F3" or "renewal_f4".
func ParsePhaseToken(token string) (PhaseNumber, error) {
	m := phaseTokenPattern.FindStringSubmatch(token)
	if m == nil {
		return 0, fmt.Errorf("invalid phase token %q", token)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid phase token %q: %w", token, err)
	}
	p := PhaseNumber(n)
	if !p.Valid() {
		return 0, fmt.Errorf("phase %d out of range 1..%d", n, MaxPhases)
	}
	return p, nil
}

func (p PhaseNumber) Valid() bool { return p >= 1 && p <= MaxPhases }

// Index is the zero-based slot in ContractAggregate.Phases.
func (p PhaseNumber) Index() int { return int(p) - 1 }

// Token renders the lower-case phase token used in ledger notes ("f2").
func (p PhaseNumber) Token() string { return fmt.Sprintf("f%d", int(p)) }

func (p PhaseNumber) String() string { return fmt.Sprintf("F%d", int(p)) }

// Next returns the phase after p, or 0 after the last one.
func (p PhaseNumber) Next() PhaseNumber {
	if p >= MaxPhases {
		return 0
	}
	return p + 1
}

type PaymentMethod string

const (
	PaymentStripe        PaymentMethod = "stripe"
	PaymentHotmart       PaymentMethod = "hotmart"
	PaymentTransferencia PaymentMethod = "transferencia"
	PaymentPaypal        PaymentMethod = "paypal"
	PaymentBizum         PaymentMethod = "bizum"
)

// DefaultPaymentMethod is assumed when a paid renewal carries no method.
const DefaultPaymentMethod = PaymentStripe

var paymentLabels = map[PaymentMethod]string{
	PaymentStripe:        "Stripe",
	PaymentHotmart:       "Hotmart",
	PaymentTransferencia: "Transferencia Bancaria",
	PaymentPaypal:        "PayPal",
	PaymentBizum:         "Bizum",
}

// ParsePaymentMethod accepts any casing and surrounding spaces.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown payment method %q", s)
	}
	return m, nil
}

func (m PaymentMethod) Valid() bool {
	_, ok := paymentLabels[m]
	return ok
}

// Label is the human readable name shown on ledger entries.
func (m PaymentMethod) Label() string {
	if l, ok := paymentLabels[m]; ok {
		return l
	}
	return string(m)
}

func MethodPtr(m PaymentMethod) *PaymentMethod { return &m }
