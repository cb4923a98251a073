// Package analyzer is the Summary & Analyzer (§4.4): a pure function from
// an Assignment to per-day/per-nurse summaries plus a sorted violation
// list, used both as the post-solve report and, via repeated simulated
// calls, as the Recommender's evaluation oracle (§9's
// simulate-then-analyze pattern, avoiding an Analyzer<->Recommender
// import cycle).
package analyzer

import (
	"fmt"
	"sort"

	"github.com/ty819/nurse-shift/internal/roster"
)

// Analyze inspects assignment against instance and returns the full
// report (§4.4). It never mutates its inputs and never calls the solver.
func Analyze(assignment *roster.Assignment, instance *roster.ProblemInstance) roster.AnalysisReport {
	r := roster.AnalysisReport{}

	perDay := make([]roster.PerDaySummary, len(instance.Dates))
	for di, d := range instance.Dates {
		perDay[di] = roster.PerDaySummary{Date: d, Requirements: instance.Demand[d]}
	}

	perNurse := make([]roster.PerNurseSummary, len(instance.Nurses))
	for ni, n := range instance.Nurses {
		perNurse[ni] = roster.PerNurseSummary{NurseID: n.ID}
	}

	for ni := range instance.Nurses {
		for di, d := range instance.Dates {
			s := assignment.Get(ni, di)
			switch s {
			case roster.DAY:
				perDay[di].FilledDay++
				perNurse[ni].DayCount++
				perNurse[ni].TotalWorkDays++
			case roster.LATE:
				perDay[di].FilledLate++
				perNurse[ni].LateCount++
				perNurse[ni].TotalWorkDays++
			case roster.NIGHT:
				perDay[di].FilledNight++
				perNurse[ni].NightCount++
				perNurse[ni].TotalWorkDays++
			case roster.OFF:
				perNurse[ni].OffCount++
			}
			dem := instance.Demand[d]
			if s != roster.OFF && (dem.IsWeekend || dem.IsHoliday) {
				perNurse[ni].WeekendWork++
			}
		}
	}

	r.PerDay = perDay
	r.PerNurse = perNurse

	var violations []roster.Violation
	violations = append(violations, detectShortageExcess(assignment, instance)...)
	violations = append(violations, detectNightComposition(assignment, instance)...)
	violations = append(violations, detectSequencing(assignment, instance)...)
	violations = append(violations, detectForbiddenFixed(assignment, instance)...)
	violations = append(violations, detectCaps(assignment, instance)...)

	sort.SliceStable(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if a.Kind.Rank() != b.Kind.Rank() {
			return a.Kind.Rank() < b.Kind.Rank()
		}
		return a.NurseID < b.NurseID
	})
	r.Violations = violations

	r.ViolationCells = dedupeCells(violations)
	r.Warnings = detectWarnings(assignment, instance)

	return r
}

func dedupeCells(violations []roster.Violation) []roster.ViolationCell {
	seen := make(map[roster.ViolationCell]struct{})
	var cells []roster.ViolationCell
	for _, v := range violations {
		if v.Kind != roster.Shortage && v.Kind != roster.Excess {
			continue
		}
		c := roster.ViolationCell{Date: v.Date, Shift: v.Shift, Kind: v.Kind}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		cells = append(cells, c)
	}
	return cells
}

// detectShortageExcess compares filled DAY/LATE/NIGHT counts against
// requirements for every date (§4.4).
func detectShortageExcess(assignment *roster.Assignment, instance *roster.ProblemInstance) []roster.Violation {
	var out []roster.Violation
	for di, d := range instance.Dates {
		dem := instance.Demand[d]
		counts := map[roster.Shift]int{}
		for ni := range instance.Nurses {
			s := assignment.Get(ni, di)
			counts[s]++
		}
		checkRange(&out, d, roster.DAY, counts[roster.DAY], dem.DayMin, dem.DayMax)
		checkRange(&out, d, roster.LATE, counts[roster.LATE], dem.Late, dem.Late)
		checkRange(&out, d, roster.NIGHT, counts[roster.NIGHT], dem.Night, dem.Night)
	}
	return out
}

func checkRange(out *[]roster.Violation, d roster.Date, shift roster.Shift, got, lo, hi int) {
	if got < lo {
		*out = append(*out, roster.Violation{
			Date: d, Shift: shift, Kind: roster.Shortage,
			Message:    fmt.Sprintf("%s on %s: filled %d, need at least %d", shift, d, got, lo),
			Difference: lo - got, HasDiff: true,
		})
	}
	if got > hi {
		*out = append(*out, roster.Violation{
			Date: d, Shift: shift, Kind: roster.Excess,
			Message:    fmt.Sprintf("%s on %s: filled %d, allowed at most %d", shift, d, got, hi),
			Difference: got - hi, HasDiff: true,
		})
	}
}

// detectNightComposition checks H11/H12: mixed-team night presence and
// leader presence, whenever the day's night demand calls for it.
func detectNightComposition(assignment *roster.Assignment, instance *roster.ProblemInstance) []roster.Violation {
	var out []roster.Violation
	for di, d := range instance.Dates {
		dem := instance.Demand[d]
		if dem.Night == 0 {
			continue
		}
		var teamA, teamB, leader bool
		for ni, n := range instance.Nurses {
			if assignment.Get(ni, di) != roster.NIGHT {
				continue
			}
			switch n.Team {
			case roster.TeamA:
				teamA = true
			case roster.TeamB:
				teamB = true
			}
			if n.LeaderOK {
				leader = true
			}
		}
		if dem.Night >= 2 && (!teamA || !teamB) {
			out = append(out, roster.Violation{
				Date: d, Shift: roster.NIGHT, Kind: roster.NightTeamMix,
				Message: fmt.Sprintf("night shift on %s lacks coverage from both teams", d),
			})
		}
		if !leader {
			out = append(out, roster.Violation{
				Date: d, Shift: roster.NIGHT, Kind: roster.NightLeaderMissing,
				Message: fmt.Sprintf("night shift on %s has no leader-eligible nurse", d),
			})
		}
	}
	return out
}

// detectSequencing checks H5 (night-then-no-day), H13 (consecutive
// nights), and H14 (consecutive work days). The night-to-late pattern
// (§C.3) is a soft objective term only and is not reported here.
func detectSequencing(assignment *roster.Assignment, instance *roster.ProblemInstance) []roster.Violation {
	var out []roster.Violation
	dates := instance.Dates
	for ni, n := range instance.Nurses {
		for di := 0; di < len(dates)-1; di++ {
			if assignment.Get(ni, di) != roster.NIGHT {
				continue
			}
			next := assignment.Get(ni, di+1)
			if next == roster.DAY || next == roster.LATE {
				out = append(out, roster.Violation{
					Date: dates[di+1], Shift: next, NurseID: n.ID, Kind: roster.NightAfterNightDay,
					Message: fmt.Sprintf("%s works %s on %s right after a night shift", n.ID, next, dates[di+1]),
				})
			}
		}
		for di := 0; di <= len(dates)-3; di++ {
			count := 0
			for o := 0; o < 3; o++ {
				if assignment.Get(ni, di+o) == roster.NIGHT {
					count++
				}
			}
			if count > 2 {
				out = append(out, roster.Violation{
					Date: dates[di], NurseID: n.ID, Kind: roster.ConsecutiveNight,
					Message: fmt.Sprintf("%s has %d night shifts in the 3 days starting %s", n.ID, count, dates[di]),
				})
			}
		}
		const window = 6
		const maxWork = 5
		for start := 0; start <= len(dates)-window; start++ {
			work := 0
			for o := 0; o < window; o++ {
				if assignment.Get(ni, start+o) != roster.OFF {
					work++
				}
			}
			if work > maxWork {
				out = append(out, roster.Violation{
					Date: dates[start], NurseID: n.ID, Kind: roster.ConsecutiveWork,
					Message: fmt.Sprintf("%s works %d of %d days starting %s", n.ID, work, window, dates[start]),
				})
			}
		}
	}
	return out
}

// detectForbiddenFixed checks H9/H10.
func detectForbiddenFixed(assignment *roster.Assignment, instance *roster.ProblemInstance) []roster.Violation {
	var out []roster.Violation
	for ni, n := range instance.Nurses {
		for cell := range n.Rules.ForbiddenShifts {
			di := instance.DateIndex(cell.Date)
			if di < 0 {
				continue
			}
			if assignment.Get(ni, di) == cell.Shift {
				out = append(out, roster.Violation{
					Date: cell.Date, Shift: cell.Shift, NurseID: n.ID, Kind: roster.ForbiddenAssigned,
					Message: fmt.Sprintf("%s assigned %s on %s despite it being forbidden", n.ID, cell.Shift, cell.Date),
				})
			}
		}
		for cell := range n.Rules.FixedShifts {
			di := instance.DateIndex(cell.Date)
			if di < 0 {
				continue
			}
			if assignment.Get(ni, di) != cell.Shift {
				out = append(out, roster.Violation{
					Date: cell.Date, Shift: cell.Shift, NurseID: n.ID, Kind: roster.FixedViolated,
					Message: fmt.Sprintf("%s not assigned the fixed %s on %s", n.ID, cell.Shift, cell.Date),
				})
			}
		}
	}
	return out
}

// detectCaps checks H6/H7/H8 against the compiled per-nurse counters.
func detectCaps(assignment *roster.Assignment, instance *roster.ProblemInstance) []roster.Violation {
	var out []roster.Violation
	for ni, n := range instance.Nurses {
		nights := 0
		var nightDate roster.Date
		for di, d := range instance.Dates {
			if assignment.Get(ni, di) == roster.NIGHT {
				if nights == 0 {
					nightDate = d
				}
				nights++
			}
		}
		if nights == 0 && len(instance.Dates) > 0 {
			nightDate = instance.Dates[0]
		}
		if nights < n.Rules.NightMin || nights > n.Rules.NightMax {
			out = append(out, roster.Violation{
				Date: nightDate, NurseID: n.ID, Kind: roster.NightCapExceeded,
				Message: fmt.Sprintf("%s has %d night shifts, outside [%d,%d]", n.ID, nights, n.Rules.NightMin, n.Rules.NightMax),
			})
		}

		for _, bucket := range instance.WeeklyBuckets[n.ID] {
			work := 0
			for _, d := range bucket.Dates {
				di := instance.DateIndex(d)
				if di < 0 {
					continue
				}
				if assignment.Get(ni, di) != roster.OFF {
					work++
				}
			}
			if work > n.Rules.WeeklyWorkMax {
				out = append(out, roster.Violation{
					Date: bucket.Dates[0], NurseID: n.ID, Kind: roster.WeeklyCapExceeded,
					Message: fmt.Sprintf("%s works %d days in ISO week %d-%d, over cap %d", n.ID, work, bucket.ISOYear, bucket.ISOWeek, n.Rules.WeeklyWorkMax),
				})
			}
		}

		weekendWork := 0
		var firstWeekend roster.Date
		hasWeekend := false
		for di, d := range instance.Dates {
			dem := instance.Demand[d]
			if !(dem.IsWeekend || dem.IsHoliday) {
				continue
			}
			if assignment.Get(ni, di) != roster.OFF {
				weekendWork++
				if !hasWeekend {
					firstWeekend = d
					hasWeekend = true
				}
			}
		}
		if weekendWork > n.Rules.WeekendHolidayMax {
			out = append(out, roster.Violation{
				Date: firstWeekend, NurseID: n.ID, Kind: roster.WeekendCapExceeded,
				Message: fmt.Sprintf("%s works %d weekend/holiday days, over cap %d", n.ID, weekendWork, n.Rules.WeekendHolidayMax),
			})
		}
	}
	return out
}

// detectWarnings surfaces unhonored requested-off days (§4.4); these are
// soft objective terms, not hard violations.
func detectWarnings(assignment *roster.Assignment, instance *roster.ProblemInstance) []roster.Warning {
	var out []roster.Warning
	for ni, n := range instance.Nurses {
		for d := range n.Rules.RequestedOff {
			di := instance.DateIndex(d)
			if di < 0 {
				continue
			}
			if assignment.Get(ni, di) != roster.OFF {
				out = append(out, roster.Warning{
					Date: d, NurseID: n.ID,
					Message: fmt.Sprintf("%s requested %s off but was scheduled", n.ID, d),
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].NurseID < out[j].NurseID
	})
	return out
}
