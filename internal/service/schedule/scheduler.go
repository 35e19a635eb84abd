// Package schedule derives phase dates for a contract. Everything here is pure:
// no I/O, no clock, and the input aggregate is never modified.
package schedule

import (
	"fmt"
	"time"

	"contracts-service/internal/domain/contract"
	"contracts-service/internal/pkg/dates"
	xerrors "contracts-service/internal/pkg/errors"
)

// DefaultDurationMonths is used for a renewal when nothing else supplies a duration.
const DefaultDurationMonths = 3

// EndOfPeriod is the last day of a period of months starting on start.
func EndOfPeriod(start time.Time, months int) time.Time {
	return dates.EndOfPeriod(start, months)
}

// CascadeDates returns the renewal and end date of a phase that follows a phase ending on prevEnd.
func CascadeDates(prevEnd time.Time, months, extensionDays int) (renewal, end time.Time) {
	renewal = dates.AddDays(prevEnd, 1)
	end = dates.AddDays(EndOfPeriod(renewal, months), extensionDays)
	return renewal, end
}

// Recompute rebuilds every derived date of the aggregate from its inputs
// (start date, base duration, per-phase durations and pause extensions).
// Recompute(Recompute(x)) == Recompute(x).
func Recompute(agg contract.ContractAggregate) contract.ContractAggregate {
	out := agg.Clone()

	first := &out.Phases[0]
	if out.StartDate == nil || out.BaseDurationMonths <= 0 {
		first.RenewalDate = nil
		first.EndDate = nil
		clearFrom(&out, 1)
		out.ContractEndDate = nil
		return out
	}

	start := dates.Normalize(*out.StartDate)
	out.StartDate = &start
	base := out.BaseDurationMonths
	end := dates.AddDays(EndOfPeriod(start, base), first.PauseExtensionDays)
	first.RenewalDate = dates.Ptr(start)
	first.DurationMonths = &base
	first.EndDate = &end

	for i := 1; i < contract.MaxPhases; i++ {
		prev, cur := &out.Phases[i-1], &out.Phases[i]
		if prev.EndDate == nil {
			clearFrom(&out, i)
			break
		}
		if cur.DurationMonths == nil || *cur.DurationMonths <= 0 {
			renewal := dates.AddDays(*prev.EndDate, 1)
			cur.RenewalDate = &renewal
			cur.EndDate = nil
			continue
		}
		renewal, end := CascadeDates(*prev.EndDate, *cur.DurationMonths, cur.PauseExtensionDays)
		cur.RenewalDate = &renewal
		cur.EndDate = &end
	}

	active := ActivePhase(out)
	out.ContractEndDate = nil
	if e := out.Phase(active).EndDate; e != nil {
		v := *e
		out.ContractEndDate = &v
	}
	return out
}

// clearFrom drops the derived dates of every slot from index i on.
func clearFrom(agg *contract.ContractAggregate, i int) {
	for ; i < contract.MaxPhases; i++ {
		agg.Phases[i].RenewalDate = nil
		agg.Phases[i].EndDate = nil
	}
}

// ActivePhase is the highest contracted phase with an end date, or phase 1.
func ActivePhase(agg contract.ContractAggregate) contract.PhaseNumber {
	for n := contract.PhaseNumber(contract.MaxPhases); n >= 2; n-- {
		p := agg.Phases[n.Index()]
		if p.Contracted && p.EndDate != nil {
			return n
		}
	}
	return 1
}

// CheckCascade verifies the date invariants of an aggregate that has gone through Recompute.
func CheckCascade(agg contract.ContractAggregate) error {
	const op = "check cascade"

	for i, p := range agg.Phases {
		if p.EndDate != nil && (p.DurationMonths == nil || *p.DurationMonths <= 0) {
			return xerrors.NewValidation(op, fmt.Sprintf("%s has an end date without a positive duration", p.Number))
		}
		if i == 0 || !p.Contracted {
			continue
		}
		prev := agg.Phases[i-1]
		if prev.EndDate == nil {
			return xerrors.NewValidation(op, fmt.Sprintf("%s is contracted but %s has no end date", p.Number, prev.Number))
		}
		want := dates.AddDays(*prev.EndDate, 1)
		if p.RenewalDate == nil || !p.RenewalDate.Equal(want) {
			return xerrors.NewValidation(op, fmt.Sprintf("%s must renew on %s", p.Number, want.Format(time.DateOnly)))
		}
	}

	want := agg.Phase(ActivePhase(agg)).EndDate
	if !dates.Equal(agg.ContractEndDate, want) {
		return xerrors.NewValidation(op, "contract end date does not match the active phase")
	}
	return nil
}
