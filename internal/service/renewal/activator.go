// internal/service/renewal/activator.go
package renewal

import (
	"fmt"
	"time"

	"contracts-service/internal/domain/catalog"
	"contracts-service/internal/domain/contract"
	"contracts-service/internal/domain/sale"
	xerrors "contracts-service/internal/pkg/errors"
	"contracts-service/internal/service/fees"
	"contracts-service/internal/service/schedule"

	"github.com/shopspring/decimal"
)

// Overrides are the values staff typed on the activation form.
type Overrides struct {
	ManualDuration *int
	ManualAmount   *decimal.Decimal
	PaymentMethod  *contract.PaymentMethod
	OfferRef       *string
}

// Input bundles everything Activate reads besides the aggregate.
type Input struct {
	Token                  string
	Overrides              Overrides
	Offers                 []catalog.Offer
	FeeCatalog             []catalog.PaymentMethodFee
	CoachCommissionPercent decimal.Decimal
	Now                    time.Time
}

// Activator applies a renewal to an aggregate. It performs no I/O; the caller persists
// the returned aggregate and then the sale record.
type Activator struct {
	fees            *fees.Resolver
	defaultDuration int
}

func NewActivator(resolver *fees.Resolver, defaultDuration int) *Activator {
	if defaultDuration <= 0 {
		defaultDuration = schedule.DefaultDurationMonths
	}
	return &Activator{fees: resolver, defaultDuration: defaultDuration}
}

// Activate contracts the phase named by in.Token. On error the input aggregate is
// returned unchanged. Calling it twice for the same phase is rejected because the
// phase is already contracted after the first call.
func (a *Activator) Activate(agg contract.ContractAggregate, in Input) (contract.ContractAggregate, *sale.SaleRecord, error) {
	n, err := contract.ParsePhaseToken(in.Token)
	if err != nil {
		return agg, nil, xerrors.NewValidation("activate renewal", err.Error())
	}
	if n < 2 {
		return agg, nil, xerrors.NewValidation("activate renewal", "only phases F2 to F5 can be renewed")
	}

	out := schedule.Recompute(agg)
	prev, cur := out.Phase(n-1), out.Phase(n)
	if prev.EndDate == nil {
		return agg, nil, &xerrors.ActivationError{Phase: int(n), Reason: "previous phase incomplete"}
	}
	if cur.Contracted {
		return agg, nil, &xerrors.ActivationError{Phase: int(n), Reason: "phase already contracted"}
	}

	offerRef := firstOf("", stringValue(in.Overrides.OfferRef), stringValue(out.StagedOfferRef))
	offer := findOffer(in.Offers, &offerRef)

	months := firstOf(a.defaultDuration,
		positiveInt(in.Overrides.ManualDuration),
		positiveInt(cur.DurationMonths),
		positiveInt(out.StagedDuration),
		offerDuration(offer),
	)
	amount := firstOf(decimal.Zero,
		positiveDecimal(in.Overrides.ManualAmount),
		positiveDecimal(out.StagedAmount),
		offerPrice(offer),
	)

	renewalDate, endDate := schedule.CascadeDates(*prev.EndDate, months, cur.PauseExtensionDays)
	cur.Contracted = true
	cur.DurationMonths = &months
	cur.RenewalDate = &renewalDate
	cur.EndDate = &endDate
	if cur.ServiceName == nil && offer != nil && offer.Name != "" {
		name := offer.Name
		cur.ServiceName = &name
	}

	var pm contract.PaymentMethod
	paid := amount.IsPositive()
	if paid {
		pm = firstOf(contract.DefaultPaymentMethod,
			method(in.Overrides.PaymentMethod),
			method(out.StagedPaymentMethod),
			method(cur.PaymentMethod),
		)
		amt := amount
		cur.Amount = &amt
		cur.PaymentMethod = contract.MethodPtr(pm)
		mirror := amount
		out.Renewal.Amount = &mirror
		out.Renewal.PaymentMethod = contract.MethodPtr(pm)
	}

	out = schedule.Recompute(out)
	out.ResetSignature()
	out.Renewal.NextPhase = n.Next()
	out.ClearStaging()
	out.Renewal.PaymentStatus = contract.RenewalPaymentVerified
	verifiedAt := in.Now
	out.Renewal.VerifiedAt = &verifiedAt

	if !paid {
		return out, nil, nil
	}

	rec := a.fees.Resolve(amount, pm, in.CoachCommissionPercent, in.FeeCatalog)
	rec.ClientID = out.ClientID
	rec.CoachID = out.CoachID
	rec.TransactionType = sale.TransactionRenewal
	rec.Phase = int(n)
	rec.Date = in.Now
	rec.Notes = fmt.Sprintf("renewal %s", n.Token())
	if offer != nil {
		rec.Notes += fmt.Sprintf(" (offer %s)", offer.OfferRef)
	}
	return out, &rec, nil
}

func stringValue(s *string) provider[string] {
	return func() (string, bool) {
		if s == nil || *s == "" {
			return "", false
		}
		return *s, true
	}
}
