package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ty819/nurse-shift/internal/compiler"
	"github.com/ty819/nurse-shift/internal/roster"
)

func TestLoadPinsParsesNurseKeyedCells(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/pins.json"
	content := `{"pins": {"n1": [{"Date": "2026-08-05", "Shift": "NIGHT"}]}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	pins, err := loadPins(path)
	require.NoError(t, err)
	require.Len(t, pins["n1"], 1)
	require.Equal(t, roster.NIGHT, pins["n1"][0].Shift)
}

func TestAssignmentRoundTripsThroughFile(t *testing.T) {
	nurses := []compiler.RawNurse{{ID: "n1", Team: "A", LeaderOK: true}}
	policy := compiler.Policy{DefaultNightMax: 31, DefaultWeeklyWorkMax: 6, DefaultWeekendHolidayMax: 6}
	inst, err := compiler.Compile(nurses, nil, 2026, 8, policy)
	require.NoError(t, err)
	inst.Dates = inst.Dates[:1]
	inst.Demand = map[roster.Date]roster.DayDemand{inst.Dates[0]: inst.Demand[inst.Dates[0]]}

	a := roster.NewAssignment(inst)
	a.Set(0, 0, roster.DAY)

	dir := t.TempDir()
	path := dir + "/assignment.json"
	require.NoError(t, writeAssignment(path, a))

	loaded, err := loadAssignment(path, inst)
	require.NoError(t, err)
	got, ok := loaded.GetByID("n1", inst.Dates[0])
	require.True(t, ok)
	require.Equal(t, roster.DAY, got)
}
