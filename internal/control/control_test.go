package control

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ty819/nurse-shift/internal/compiler"
	"github.com/ty819/nurse-shift/internal/config"
	"github.com/ty819/nurse-shift/internal/roster"
)

func tinyInstance(t *testing.T) *roster.ProblemInstance {
	t.Helper()
	nurses := []compiler.RawNurse{
		{ID: "n1", Team: "A", LeaderOK: true},
		{ID: "n2", Team: "B"},
	}
	policy := compiler.Policy{
		DefaultNightMax:          31,
		DefaultWeeklyWorkMax:     6,
		DefaultWeekendHolidayMax: 6,
		DefaultDemand:            compiler.DefaultDemand{DayMin: 0, DayMax: 1, Late: 0, Night: 0},
	}
	inst, err := compiler.Compile(nurses, nil, 2026, 8, policy)
	require.NoError(t, err)
	inst.Dates = inst.Dates[:1]
	inst.Demand = map[roster.Date]roster.DayDemand{inst.Dates[0]: inst.Demand[inst.Dates[0]]}
	return inst
}

func TestRecheckCleanAssignmentHasNoSuggestions(t *testing.T) {
	inst := tinyInstance(t)
	a := roster.NewAssignment(inst) // all OFF; DayMax=1,DayMin=0 so no shortage, no suggestions expected.
	resp := Recheck(a, inst, config.Default())
	require.NotNil(t, resp)
	require.True(t, resp.Report.OK())
	require.Empty(t, resp.Suggestions)
}

func TestRecheckFindsShortageAndSuggestsAFill(t *testing.T) {
	inst := tinyInstance(t)
	inst.Demand[inst.Dates[0]] = roster.DayDemand{
		Date: inst.Dates[0], DayMin: 1, DayMax: 2,
		Weekday: inst.Demand[inst.Dates[0]].Weekday,
	}
	a := roster.NewAssignment(inst)
	resp := Recheck(a, inst, config.Default())
	require.False(t, resp.Report.OK())
	require.NotEmpty(t, resp.Suggestions)
}

func TestPinInstanceDoesNotMutateOriginal(t *testing.T) {
	inst := tinyInstance(t)
	originalFixedCount := len(inst.Nurses[0].Rules.FixedShifts)
	pins := map[string][]roster.Cell{
		"n1": {{Date: inst.Dates[0], Shift: roster.DAY}},
	}
	pinned := pinInstance(inst, pins)
	require.Len(t, inst.Nurses[0].Rules.FixedShifts, originalFixedCount)
	require.Len(t, pinned.Nurses[0].Rules.FixedShifts, originalFixedCount+1)
	require.NotSame(t, inst, pinned)
}
