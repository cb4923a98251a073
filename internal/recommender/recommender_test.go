package recommender

import (
	"testing"

	"github.com/ty819/nurse-shift/internal/compiler"
	"github.com/ty819/nurse-shift/internal/config"
	"github.com/ty819/nurse-shift/internal/roster"
)

func fixture(t *testing.T) *roster.ProblemInstance {
	t.Helper()
	nurses := []compiler.RawNurse{
		{ID: "n1", Team: "A", LeaderOK: true},
		{ID: "n2", Team: "A"},
		{ID: "n3", Team: "B", LeaderOK: true},
	}
	policy := compiler.Policy{
		DefaultNightMax:          31,
		DefaultWeeklyWorkMax:     6,
		DefaultWeekendHolidayMax: 6,
		DefaultDemand:            compiler.DefaultDemand{DayMin: 1, DayMax: 2, Late: 0, Night: 0},
	}
	inst, err := compiler.Compile(nurses, nil, 2026, 8, policy)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	inst.Dates = inst.Dates[:1]
	inst.Demand = map[roster.Date]roster.DayDemand{inst.Dates[0]: inst.Demand[inst.Dates[0]]}
	for id, buckets := range inst.WeeklyBuckets {
		inst.WeeklyBuckets[id] = buckets[:1]
	}
	return inst
}

func TestRecommendFillSuggestsIdleNurses(t *testing.T) {
	inst := fixture(t)
	a := roster.NewAssignment(inst)
	a.Set(0, 0, roster.DAY) // n1 fills the minimum; shortfall is irrelevant here.
	v := roster.Violation{Date: inst.Dates[0], Shift: roster.DAY, Kind: roster.Shortage}
	suggestions := Recommend(v, a, inst, config.Default())
	if len(suggestions) == 0 {
		t.Fatalf("expected at least one suggestion")
	}
	for _, s := range suggestions {
		if s.SuggestedShift != roster.DAY {
			t.Errorf("expected suggested shift DAY, got %v", s.SuggestedShift)
		}
		if s.CurrentShift == roster.DAY {
			t.Errorf("candidate %s already works DAY, should not be suggested", s.NurseID)
		}
	}
}

func TestRecommendDrainSuggestsCurrentOccupants(t *testing.T) {
	inst := fixture(t)
	a := roster.NewAssignment(inst)
	a.Set(0, 0, roster.DAY)
	a.Set(1, 0, roster.DAY)
	v := roster.Violation{Date: inst.Dates[0], Shift: roster.DAY, Kind: roster.Excess}
	suggestions := Recommend(v, a, inst, config.Default())
	if len(suggestions) == 0 {
		t.Fatalf("expected at least one suggestion")
	}
	for _, s := range suggestions {
		if s.CurrentShift != roster.DAY {
			t.Errorf("expected current shift DAY for a drain suggestion, got %v", s.CurrentShift)
		}
		if s.SuggestedShift != roster.OFF {
			t.Errorf("expected suggested shift OFF, got %v", s.SuggestedShift)
		}
	}
}

func TestRecommendLockedCandidatesSortLast(t *testing.T) {
	inst := fixture(t)
	inst.Nurses[2].Rules.FixedShifts = map[roster.Cell]struct{}{
		{Date: inst.Dates[0], Shift: roster.OFF}: {},
	}
	a := roster.NewAssignment(inst)
	v := roster.Violation{Date: inst.Dates[0], Shift: roster.DAY, Kind: roster.Shortage}
	suggestions := Recommend(v, a, inst, config.Default())
	var sawLocked bool
	for i, s := range suggestions {
		if s.Locked {
			sawLocked = true
		}
		if sawLocked && !s.Locked {
			t.Fatalf("unlocked suggestion at index %d appears after a locked one", i)
		}
	}
}

func TestRecommendNonRepairableKindReturnsNil(t *testing.T) {
	inst := fixture(t)
	a := roster.NewAssignment(inst)
	v := roster.Violation{Date: inst.Dates[0], Kind: roster.ConsecutiveWork, NurseID: "n1"}
	if got := Recommend(v, a, inst, config.Default()); got != nil {
		t.Fatalf("expected nil for non-repairable kind, got %+v", got)
	}
}

func TestRecommendCapsAtFiveSuggestions(t *testing.T) {
	nurses := make([]compiler.RawNurse, 0, 10)
	for i := 0; i < 10; i++ {
		id := string(rune('a' + i))
		nurses = append(nurses, compiler.RawNurse{ID: id, Team: "A", LeaderOK: true})
	}
	policy := compiler.Policy{
		DefaultNightMax:          31,
		DefaultWeeklyWorkMax:     7,
		DefaultWeekendHolidayMax: 7,
		DefaultDemand:            compiler.DefaultDemand{DayMin: 1, DayMax: 10, Late: 0, Night: 0},
	}
	inst, err := compiler.Compile(nurses, nil, 2026, 8, policy)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	inst.Dates = inst.Dates[:1]
	inst.Demand = map[roster.Date]roster.DayDemand{inst.Dates[0]: inst.Demand[inst.Dates[0]]}
	a := roster.NewAssignment(inst)
	v := roster.Violation{Date: inst.Dates[0], Shift: roster.DAY, Kind: roster.Shortage}
	suggestions := Recommend(v, a, inst, config.Default())
	if len(suggestions) > 5 {
		t.Fatalf("expected at most 5 suggestions, got %d", len(suggestions))
	}
}
