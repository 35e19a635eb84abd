package renewal

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"contracts-service/internal/domain/catalog"
	"contracts-service/internal/domain/contract"
	"contracts-service/internal/pkg/dates"
	xerrors "contracts-service/internal/pkg/errors"
	"contracts-service/internal/service/fees"
	"contracts-service/internal/service/schedule"

	"github.com/shopspring/decimal"
)

var activatedAt = time.Date(2024, time.March, 25, 10, 0, 0, 0, time.UTC)

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func methodPtr(m contract.PaymentMethod) *contract.PaymentMethod { return &m }

func newActivator() *Activator {
	return NewActivator(fees.NewResolver(fees.DefaultConfig()), 0)
}

func baseContract() contract.ContractAggregate {
	agg := contract.NewAggregate("11111111-1111-1111-1111-111111111111", "coach-1", dates.Date(2024, time.January, 1), 3)
	return schedule.Recompute(agg)
}

func TestActivateF2EndToEnd(t *testing.T) {
	agg := baseContract()
	agg.Signature = contract.Signature{Signed: true, SignedAt: &activatedAt, ImageRef: strPtr("sig.png")}
	agg.StagedOfferRef = strPtr("stale")
	agg.Renewal.ReceiptRef = strPtr("receipt.pdf")

	out, rec, err := newActivator().Activate(agg, Input{
		Token:     "f2",
		Overrides: Overrides{ManualDuration: intPtr(6)},
		Now:       activatedAt,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f2 := out.Phases[1]
	if !f2.Contracted {
		t.Fatal("F2 should be contracted")
	}
	if !f2.RenewalDate.Equal(dates.Date(2024, time.April, 1)) {
		t.Fatalf("expected F2 renewal 2024-04-01, got %s", f2.RenewalDate.Format(time.DateOnly))
	}
	if !f2.EndDate.Equal(dates.Date(2024, time.September, 30)) {
		t.Fatalf("expected F2 end 2024-09-30, got %s", f2.EndDate.Format(time.DateOnly))
	}
	if !out.ContractEndDate.Equal(dates.Date(2024, time.September, 30)) {
		t.Fatalf("expected contract end 2024-09-30, got %s", out.ContractEndDate.Format(time.DateOnly))
	}
	if rec != nil {
		t.Fatalf("no amount means no sale record, got %+v", rec)
	}
	if out.Signature.Signed || out.Signature.ImageRef != nil {
		t.Fatalf("signature must reset on activation, got %+v", out.Signature)
	}
	if out.Renewal.NextPhase != 3 {
		t.Fatalf("expected next phase F3, got %d", out.Renewal.NextPhase)
	}
	if out.StagedOfferRef != nil || out.Renewal.ReceiptRef != nil {
		t.Fatal("staging and receipt must be cleared")
	}
	if out.Renewal.PaymentStatus != contract.RenewalPaymentVerified || out.Renewal.VerifiedAt == nil {
		t.Fatalf("expected verified renewal, got %+v", out.Renewal)
	}
	if err := schedule.CheckCascade(out); err != nil {
		t.Fatalf("cascade broken: %v", err)
	}
	if agg.Phases[1].Contracted {
		t.Fatal("input aggregate must not be modified")
	}
}

func TestActivateWithAmountBuildsSale(t *testing.T) {
	agg := baseContract()

	out, rec, err := newActivator().Activate(agg, Input{
		Token: "F2",
		Overrides: Overrides{
			ManualDuration: intPtr(3),
			ManualAmount:   decPtr("297"),
			PaymentMethod:  methodPtr(contract.PaymentHotmart),
		},
		CoachCommissionPercent: decimal.NewFromInt(10),
		Now:                    activatedAt,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil {
		t.Fatal("expected sale record")
	}
	if rec.TransactionType != "renewal" || rec.Phase != 2 || rec.Notes != "renewal f2" {
		t.Fatalf("unexpected sale metadata %+v", rec)
	}
	if !rec.FeeAmount.Equal(decimal.RequireFromString("19.008")) || !rec.NetAmount.Equal(decimal.RequireFromString("277.992")) {
		t.Fatalf("unexpected fee %s / net %s", rec.FeeAmount, rec.NetAmount)
	}
	if !rec.CommissionAmount.Equal(decimal.RequireFromString("27.7992")) {
		t.Fatalf("unexpected commission %s", rec.CommissionAmount)
	}
	if rec.ClientID != agg.ClientID || rec.CoachID != "coach-1" {
		t.Fatalf("sale not attributed to client/coach: %+v", rec)
	}

	f2 := out.Phases[1]
	if f2.Amount == nil || !f2.Amount.Equal(decimal.NewFromInt(297)) {
		t.Fatalf("phase amount snapshot missing: %v", f2.Amount)
	}
	if f2.PaymentMethod == nil || *f2.PaymentMethod != contract.PaymentHotmart {
		t.Fatalf("phase payment method snapshot missing")
	}
	if out.Renewal.Amount == nil || !out.Renewal.Amount.Equal(decimal.NewFromInt(297)) {
		t.Fatalf("renewal amount not mirrored")
	}
}

func TestActivatePaymentMethodDefaultsToStripe(t *testing.T) {
	_, rec, err := newActivator().Activate(baseContract(), Input{
		Token:     "f2",
		Overrides: Overrides{ManualAmount: decPtr("100")},
		Now:       activatedAt,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.PaymentMethod != string(contract.PaymentStripe) || !rec.FeePercent.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("expected stripe at 4%%, got %s at %s", rec.PaymentMethod, rec.FeePercent)
	}
}

func TestActivatePreviousPhaseIncomplete(t *testing.T) {
	agg := baseContract()
	before := agg.Clone()

	out, rec, err := newActivator().Activate(agg, Input{Token: "f3", Now: activatedAt})

	var actErr *xerrors.ActivationError
	if !errors.As(err, &actErr) {
		t.Fatalf("expected ActivationError, got %v", err)
	}
	if actErr.Phase != 3 || actErr.Reason != "previous phase incomplete" {
		t.Fatalf("unexpected activation error %+v", actErr)
	}
	if !errors.Is(err, xerrors.ErrValidation) {
		t.Fatal("activation errors are validation errors")
	}
	if rec != nil {
		t.Fatal("no sale on failure")
	}
	if !reflect.DeepEqual(out, before) {
		t.Fatal("aggregate must be untouched on failure")
	}
}

func TestActivateRejectsRepeatAndBadTokens(t *testing.T) {
	a := newActivator()
	out, _, err := a.Activate(baseContract(), Input{Token: "f2", Now: activatedAt})
	if err != nil {
		t.Fatalf("first activation failed: %v", err)
	}
	if _, _, err := a.Activate(out, Input{Token: "f2", Now: activatedAt}); err == nil {
		t.Fatal("second activation of F2 must be rejected")
	}

	for _, token := range []string{"f1", "f9", "next"} {
		if _, _, err := a.Activate(baseContract(), Input{Token: token}); !errors.Is(err, xerrors.ErrValidation) {
			t.Errorf("token %q: expected validation error, got %v", token, err)
		}
	}
}

func TestActivateAdvancesToNoneAfterF5(t *testing.T) {
	a := newActivator()
	agg := baseContract()
	var err error
	for _, token := range []string{"f2", "f3", "f4", "f5"} {
		agg, _, err = a.Activate(agg, Input{Token: token, Now: activatedAt})
		if err != nil {
			t.Fatalf("%s: %v", token, err)
		}
	}
	if agg.Renewal.NextPhase != 0 {
		t.Fatalf("expected no next phase after F5, got %d", agg.Renewal.NextPhase)
	}
	if schedule.ActivePhase(agg) != 5 {
		t.Fatalf("expected F5 active")
	}
	// 3 months each from 2024-01-01: F5 ends 2025-03-31
	if !agg.ContractEndDate.Equal(dates.Date(2025, time.March, 31)) {
		t.Fatalf("unexpected contract end %s", agg.ContractEndDate.Format(time.DateOnly))
	}
}

func TestDurationPriority(t *testing.T) {
	offers := []catalog.Offer{{OfferRef: "PLAN-12", Name: "Plan anual", Price: "1.200,00 €", DurationMonths: intPtr(12)}}

	tests := []struct {
		name   string
		manual *int
		stored *int
		staged *int
		offer  *string
		want   int
	}{
		{"manual wins over everything", intPtr(2), intPtr(4), intPtr(6), strPtr("PLAN-12"), 2},
		{"manual wins over stored", intPtr(2), intPtr(4), nil, nil, 2},
		{"manual wins over offer", intPtr(2), nil, nil, strPtr("PLAN-12"), 2},
		{"stored wins over staged", nil, intPtr(4), intPtr(6), nil, 4},
		{"stored wins over offer", nil, intPtr(4), nil, strPtr("PLAN-12"), 4},
		{"staged wins over offer", nil, nil, intPtr(6), strPtr("PLAN-12"), 6},
		{"stored alone", nil, intPtr(4), nil, nil, 4},
		{"staged alone", nil, nil, intPtr(6), nil, 6},
		{"offer alone", nil, nil, nil, strPtr("plan-12"), 12},
		{"default", nil, nil, nil, nil, 3},
		{"unknown offer falls to default", nil, nil, nil, strPtr("missing"), 3},
		{"zero manual is empty", intPtr(0), intPtr(5), nil, nil, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := baseContract()
			agg.Phases[1].DurationMonths = tt.stored
			agg.StagedDuration = tt.staged
			out, _, err := newActivator().Activate(agg, Input{
				Token:     "f2",
				Overrides: Overrides{ManualDuration: tt.manual, OfferRef: tt.offer},
				Offers:    offers,
				Now:       activatedAt,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := *out.Phases[1].DurationMonths; got != tt.want {
				t.Fatalf("expected %d months, got %d", tt.want, got)
			}
		})
	}
}

func TestStagedValuesFeedActivation(t *testing.T) {
	offers := []catalog.Offer{{OfferRef: "PLAN-6", Price: "594", DurationMonths: intPtr(6)}}
	agg := baseContract()
	agg.StagedOfferRef = strPtr("PLAN-6")
	agg.StagedPaymentMethod = methodPtr(contract.PaymentTransferencia)

	out, rec, err := newActivator().Activate(agg, Input{Token: "f2", Offers: offers, Now: activatedAt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *out.Phases[1].DurationMonths != 6 {
		t.Fatalf("expected staged offer duration 6, got %d", *out.Phases[1].DurationMonths)
	}
	if rec == nil || !rec.GrossAmount.Equal(decimal.NewFromInt(594)) {
		t.Fatalf("expected staged offer price 594, got %+v", rec)
	}
	if !rec.FeeAmount.IsZero() || rec.PaymentMethodLabel != "Transferencia Bancaria" {
		t.Fatalf("expected zero-fee bank transfer, got %s %q", rec.FeeAmount, rec.PaymentMethodLabel)
	}
	if out.StagedOfferRef != nil || out.StagedPaymentMethod != nil {
		t.Fatal("staging must be cleared")
	}
}

func TestAmountPriority(t *testing.T) {
	offers := []catalog.Offer{{OfferRef: "PLAN", Price: "$1,200.50"}}

	_, rec, _ := newActivator().Activate(baseContract(), Input{
		Token:     "f2",
		Overrides: Overrides{ManualAmount: decPtr("500"), OfferRef: strPtr("PLAN")},
		Offers:    offers,
		Now:       activatedAt,
	})
	if rec == nil || !rec.GrossAmount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("manual amount should win, got %+v", rec)
	}

	_, rec, _ = newActivator().Activate(baseContract(), Input{
		Token:     "f2",
		Overrides: Overrides{OfferRef: strPtr("PLAN")},
		Offers:    offers,
		Now:       activatedAt,
	})
	if rec == nil || !rec.GrossAmount.Equal(decimal.RequireFromString("1200.50")) {
		t.Fatalf("offer price should be used, got %+v", rec)
	}
	if rec.Notes != "renewal f2 (offer PLAN)" {
		t.Fatalf("unexpected notes %q", rec.Notes)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"297", "297", true},
		{"297,50", "297.5", true},
		{"297.50", "297.5", true},
		{"1.200", "1200", true},
		{"1,200", "1200", true},
		{"1.200,00 €", "1200", true},
		{"$1,200.50", "1200.5", true},
		{"1.234.567", "1234567", true},
		{"€ 99", "99", true},
		{"gratis", "0", false},
		{"", "0", false},
	}
	for _, tt := range tests {
		got, ok := parsePrice(tt.in)
		if ok != tt.ok {
			t.Errorf("parsePrice(%q): ok=%v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("parsePrice(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
