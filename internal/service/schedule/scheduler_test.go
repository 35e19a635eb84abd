package schedule

import (
	"reflect"
	"testing"
	"time"

	"contracts-service/internal/domain/contract"
	"contracts-service/internal/pkg/dates"
)

func intPtr(v int) *int { return &v }

func newContract(start time.Time, base int) contract.ContractAggregate {
	return contract.NewAggregate("11111111-1111-1111-1111-111111111111", "coach-1", start, base)
}

func assertDate(t *testing.T, label string, got *time.Time, want time.Time) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s: expected %s, got nil", label, want.Format(time.DateOnly))
	}
	if !got.Equal(want) {
		t.Fatalf("%s: expected %s, got %s", label, want.Format(time.DateOnly), got.Format(time.DateOnly))
	}
}

func TestRecomputePhaseOne(t *testing.T) {
	agg := Recompute(newContract(dates.Date(2024, time.January, 1), 3))

	assertDate(t, "phase1 end", agg.Phases[0].EndDate, dates.Date(2024, time.March, 31))
	assertDate(t, "contract end", agg.ContractEndDate, dates.Date(2024, time.March, 31))
	assertDate(t, "phase2 renewal", agg.Phases[1].RenewalDate, dates.Date(2024, time.April, 1))
	if agg.Phases[1].EndDate != nil {
		t.Fatalf("phase2 without duration must have no end date")
	}
	if agg.Phases[2].RenewalDate != nil {
		t.Fatalf("cascade must stop after a phase without end date")
	}
}

func TestRecomputeCascadeWithContractedPhase(t *testing.T) {
	agg := newContract(dates.Date(2024, time.January, 1), 3)
	agg.Phases[1].Contracted = true
	agg.Phases[1].DurationMonths = intPtr(6)

	out := Recompute(agg)

	assertDate(t, "f2 renewal", out.Phases[1].RenewalDate, dates.Date(2024, time.April, 1))
	assertDate(t, "f2 end", out.Phases[1].EndDate, dates.Date(2024, time.September, 30))
	assertDate(t, "contract end", out.ContractEndDate, dates.Date(2024, time.September, 30))
	assertDate(t, "f3 renewal", out.Phases[2].RenewalDate, dates.Date(2024, time.October, 1))

	if err := CheckCascade(out); err != nil {
		t.Fatalf("cascade invariant broken: %v", err)
	}
	if agg.Phases[1].EndDate != nil {
		t.Fatalf("Recompute must not modify its input")
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	cases := map[string]contract.ContractAggregate{}

	plain := newContract(dates.Date(2024, time.January, 31), 1)
	cases["month end start"] = plain

	full := newContract(dates.Date(2023, time.November, 30), 3)
	for i := 1; i < contract.MaxPhases; i++ {
		full.Phases[i].Contracted = true
		full.Phases[i].DurationMonths = intPtr(i + 1)
	}
	full.Phases[2].PauseExtensionDays = 10
	cases["all phases contracted"] = full

	gap := newContract(dates.Date(2024, time.February, 29), 12)
	gap.Phases[1].Contracted = true
	gap.Phases[1].DurationMonths = intPtr(3)
	gap.Phases[3].DurationMonths = intPtr(6) // unreachable: F3 has no duration
	cases["gap in cascade"] = gap

	noStart := newContract(time.Time{}, 3)
	noStart.StartDate = nil
	cases["no start date"] = noStart

	for name, agg := range cases {
		t.Run(name, func(t *testing.T) {
			once := Recompute(agg)
			twice := Recompute(once)
			if !reflect.DeepEqual(once, twice) {
				t.Fatalf("recompute not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
			}
			if err := CheckCascade(once); err != nil {
				t.Fatalf("cascade invariant broken: %v", err)
			}
		})
	}
}

func TestRecomputeClearsStaleDatesPastGap(t *testing.T) {
	agg := newContract(dates.Date(2024, time.January, 1), 3)
	agg.Phases[1].DurationMonths = intPtr(3)
	agg.Phases[2].DurationMonths = intPtr(3)
	out := Recompute(agg)
	if out.Phases[2].EndDate == nil {
		t.Fatalf("expected projected F3 end date")
	}

	out.Phases[1].DurationMonths = nil
	out = Recompute(out)
	if out.Phases[2].RenewalDate != nil || out.Phases[2].EndDate != nil {
		t.Fatalf("F3 dates should be cleared once F2 loses its end date, got %+v", out.Phases[2])
	}
}

func TestActivePhase(t *testing.T) {
	agg := Recompute(newContract(dates.Date(2024, time.January, 1), 3))
	if got := ActivePhase(agg); got != 1 {
		t.Fatalf("expected phase 1 with nothing contracted, got %d", got)
	}

	agg.Phases[1].Contracted = true
	agg.Phases[1].DurationMonths = intPtr(3)
	agg.Phases[2].Contracted = true
	agg.Phases[2].DurationMonths = intPtr(3)
	// projected but not contracted
	agg.Phases[3].DurationMonths = intPtr(3)
	agg = Recompute(agg)

	if got := ActivePhase(agg); got != 3 {
		t.Fatalf("expected phase 3, got %d", got)
	}
	assertDate(t, "contract end", agg.ContractEndDate, *agg.Phases[2].EndDate)
}

func TestPauseExtensionShiftsFollowingPhases(t *testing.T) {
	agg := newContract(dates.Date(2024, time.January, 1), 3)
	agg.Phases[1].Contracted = true
	agg.Phases[1].DurationMonths = intPtr(6)
	agg.Phases[1].PauseExtensionDays = 10
	agg.Phases[2].DurationMonths = intPtr(1)

	out := Recompute(agg)
	assertDate(t, "f2 end", out.Phases[1].EndDate, dates.Date(2024, time.October, 10))
	assertDate(t, "contract end", out.ContractEndDate, dates.Date(2024, time.October, 10))
	assertDate(t, "f3 renewal", out.Phases[2].RenewalDate, dates.Date(2024, time.October, 11))
}

func TestCheckCascadeDetectsBrokenChain(t *testing.T) {
	agg := newContract(dates.Date(2024, time.January, 1), 3)
	agg.Phases[1].Contracted = true
	agg.Phases[1].DurationMonths = intPtr(6)
	agg = Recompute(agg)

	bad := dates.Date(2024, time.April, 5)
	agg.Phases[1].RenewalDate = &bad
	if err := CheckCascade(agg); err == nil {
		t.Fatal("expected cascade violation")
	}
}
