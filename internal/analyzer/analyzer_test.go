package analyzer

import (
	"testing"

	"github.com/ty819/nurse-shift/internal/compiler"
	"github.com/ty819/nurse-shift/internal/roster"
)

func smallInstance(t *testing.T) *roster.ProblemInstance {
	t.Helper()
	nurses := []compiler.RawNurse{
		{ID: "n1", Team: "A", LeaderOK: true},
		{ID: "n2", Team: "A"},
		{ID: "n3", Team: "B", LeaderOK: true},
		{ID: "n4", Team: "B"},
	}
	policy := compiler.Policy{
		DefaultNightMin:          0,
		DefaultNightMax:          8,
		DefaultWeeklyWorkMax:     5,
		DefaultWeekendHolidayMax: 3,
		DefaultDemand:            compiler.DefaultDemand{DayMin: 2, DayMax: 2, Late: 1, Night: 1},
	}
	inst, err := compiler.Compile(nurses, nil, 2026, 8, policy)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	inst.Dates = inst.Dates[:4]
	trimmed := make(map[roster.Date]roster.DayDemand, 4)
	for _, d := range inst.Dates {
		trimmed[d] = inst.Demand[d]
	}
	inst.Demand = trimmed
	return inst
}

func TestAnalyzeReportsNoViolationsOnFullCoverage(t *testing.T) {
	nurses := []compiler.RawNurse{
		{ID: "n1", Team: "A", LeaderOK: true},
		{ID: "n2", Team: "B"},
	}
	policy := compiler.Policy{
		DefaultNightMax:          31,
		DefaultWeeklyWorkMax:     5,
		DefaultWeekendHolidayMax: 3,
		DefaultDemand:            compiler.DefaultDemand{DayMin: 0, DayMax: 1, Late: 0, Night: 1},
	}
	inst, err := compiler.Compile(nurses, nil, 2026, 8, policy)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	inst.Dates = inst.Dates[:1]
	inst.Demand = map[roster.Date]roster.DayDemand{inst.Dates[0]: inst.Demand[inst.Dates[0]]}

	a := roster.NewAssignment(inst)
	a.Set(0, 0, roster.NIGHT) // n1 is leader_ok, satisfies H12.
	a.Set(1, 0, roster.OFF)

	report := Analyze(a, inst)
	if !report.OK() {
		t.Fatalf("expected no violations, got %+v", report.Violations)
	}
}

func TestAnalyzeDetectsShortage(t *testing.T) {
	inst := smallInstance(t)
	a := roster.NewAssignment(inst)
	// Leave day 0 completely OFF: DayMin=2 unmet, Late=1 unmet, Night=1 unmet.
	report := Analyze(a, inst)
	if report.OK() {
		t.Fatalf("expected violations for an all-OFF day")
	}
	found := map[roster.Shift]bool{}
	for _, v := range report.Violations {
		if v.Date == inst.Dates[0] && v.Kind == roster.Shortage {
			found[v.Shift] = true
		}
	}
	for _, s := range []roster.Shift{roster.DAY, roster.LATE, roster.NIGHT} {
		if !found[s] {
			t.Errorf("expected a shortage violation for %s on %s", s, inst.Dates[0])
		}
	}
}

func TestAnalyzeDetectsNightLeaderMissing(t *testing.T) {
	inst := smallInstance(t)
	a := roster.NewAssignment(inst)
	a.Set(1, 0, roster.NIGHT) // n2, not leader_ok
	report := Analyze(a, inst)
	var hit bool
	for _, v := range report.Violations {
		if v.Kind == roster.NightLeaderMissing && v.Date == inst.Dates[0] {
			hit = true
		}
	}
	if !hit {
		t.Fatalf("expected night_leader_missing violation, got %+v", report.Violations)
	}
}

func TestAnalyzeDetectsForbiddenAssigned(t *testing.T) {
	inst := smallInstance(t)
	cell := roster.Cell{Date: inst.Dates[0], Shift: roster.NIGHT}
	inst.Nurses[0].Rules.ForbiddenShifts = map[roster.Cell]struct{}{cell: {}}
	a := roster.NewAssignment(inst)
	a.Set(0, 0, roster.NIGHT)
	report := Analyze(a, inst)
	var hit bool
	for _, v := range report.Violations {
		if v.Kind == roster.ForbiddenAssigned && v.NurseID == "n1" {
			hit = true
		}
	}
	if !hit {
		t.Fatalf("expected forbidden_assigned violation, got %+v", report.Violations)
	}
}

func TestAnalyzeDetectsNightAfterNightDay(t *testing.T) {
	inst := smallInstance(t)
	a := roster.NewAssignment(inst)
	a.Set(0, 0, roster.NIGHT)
	a.Set(0, 1, roster.DAY)
	report := Analyze(a, inst)
	var hit bool
	for _, v := range report.Violations {
		if v.Kind == roster.NightAfterNightDay && v.NurseID == "n1" {
			hit = true
		}
	}
	if !hit {
		t.Fatalf("expected night_after_night_day violation, got %+v", report.Violations)
	}
}

func TestAnalyzeWarnsOnUnhonoredRequestedOff(t *testing.T) {
	inst := smallInstance(t)
	inst.Nurses[0].Rules.RequestedOff = map[roster.Date]struct{}{inst.Dates[0]: {}}
	a := roster.NewAssignment(inst)
	a.Set(0, 0, roster.DAY)
	report := Analyze(a, inst)
	if len(report.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %+v", len(report.Warnings), report.Warnings)
	}
	if report.Warnings[0].NurseID != "n1" {
		t.Fatalf("expected warning for n1, got %+v", report.Warnings[0])
	}
}

func TestAnalyzeViolationsSortedByDateThenRank(t *testing.T) {
	inst := smallInstance(t)
	a := roster.NewAssignment(inst)
	report := Analyze(a, inst)
	for i := 1; i < len(report.Violations); i++ {
		prev, cur := report.Violations[i-1], report.Violations[i]
		if cur.Date.Before(prev.Date) {
			t.Fatalf("violations not sorted by date: %+v before %+v", prev, cur)
		}
		if cur.Date == prev.Date && cur.Kind.Rank() < prev.Kind.Rank() {
			t.Fatalf("violations not sorted by rank within date: %+v before %+v", prev, cur)
		}
	}
}
