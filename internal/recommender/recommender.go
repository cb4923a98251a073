// Package recommender is the Recommender (§4.5): given one detected
// violation it proposes a small number of ranked single-cell swaps that
// would resolve or reduce it, without ever calling the solver. It
// evaluates a candidate swap by cloning the assignment, mutating exactly
// one cell, and re-running the Analyzer -- the simulate-then-analyze
// pattern that keeps this package a pure consumer of analyzer, avoiding
// a cycle back into it (§9).
package recommender

import (
	"sort"

	"github.com/ty819/nurse-shift/internal/analyzer"
	"github.com/ty819/nurse-shift/internal/config"
	"github.com/ty819/nurse-shift/internal/roster"
)

const maxSuggestions = 5

// candidate is one simulated single-cell swap under evaluation.
type candidate struct {
	nurseID           string
	nurseIdx          int
	current           roster.Shift
	suggested         roster.Shift
	locked            bool
	newSoftViolations int
	sCount            int // this nurse's current count of the violation's shift, before the swap
}

// violKey and warnKey identify a violation/warning independent of its
// human-readable message, so a baseline analysis and a simulated one can
// be diffed by set membership rather than by raw count (§4.5 "new
// violations introduced").
type violKey struct {
	Date    roster.Date
	Shift   roster.Shift
	NurseID string
	Kind    roster.ViolationKind
}

type warnKey struct {
	Date    roster.Date
	NurseID string
}

// Recommend proposes up to 5 ranked swaps that address violation, given
// the current assignment (§4.5). Shortage violations look for an idle or
// reassignable nurse to add; Excess violations look for a nurse to pull
// off the over-filled shift. Other violation kinds return no suggestions
// here, since they are not single-cell-repairable by construction (e.g.
// night_team_mix needs a same-day swap between two specific nurses, which
// the caller can request by issuing two Recommend calls, one per cell).
func Recommend(violation roster.Violation, assignment *roster.Assignment, instance *roster.ProblemInstance, cfg config.Config) []roster.Suggestion {
	switch violation.Kind {
	case roster.Shortage:
		return recommendFill(violation, assignment, instance)
	case roster.Excess:
		return recommendDrain(violation, assignment, instance)
	default:
		return nil
	}
}

func recommendFill(v roster.Violation, assignment *roster.Assignment, instance *roster.ProblemInstance) []roster.Suggestion {
	di := instance.DateIndex(v.Date)
	if di < 0 {
		return nil
	}
	base := analyzer.Analyze(assignment, instance)
	baseViol, baseWarn := violationSet(base, v), warningSet(base)

	var candidates []candidate
	for ni, n := range instance.Nurses {
		cur := assignment.Get(ni, di)
		if cur == v.Shift {
			continue
		}
		locked := isFixed(n, v.Date, cur)
		newHard, newSoft := simulate(assignment, instance, ni, di, v.Shift, v, baseViol, baseWarn)
		if !locked && newHard > 0 {
			continue
		}
		candidates = append(candidates, candidate{
			nurseID: n.ID, nurseIdx: ni, current: cur, suggested: v.Shift,
			locked: locked, newSoftViolations: newSoft,
			sCount: countShift(assignment, instance, ni, v.Shift),
		})
	}
	return rank(candidates, "fills the shortage on "+v.Date.String(), true)
}

func recommendDrain(v roster.Violation, assignment *roster.Assignment, instance *roster.ProblemInstance) []roster.Suggestion {
	di := instance.DateIndex(v.Date)
	if di < 0 {
		return nil
	}
	base := analyzer.Analyze(assignment, instance)
	baseViol, baseWarn := violationSet(base, v), warningSet(base)

	var candidates []candidate
	for ni, n := range instance.Nurses {
		cur := assignment.Get(ni, di)
		if cur != v.Shift {
			continue
		}
		locked := isFixed(n, v.Date, cur)
		newHard, newSoft := simulate(assignment, instance, ni, di, roster.OFF, v, baseViol, baseWarn)
		if !locked && newHard > 0 {
			continue
		}
		candidates = append(candidates, candidate{
			nurseID: n.ID, nurseIdx: ni, current: cur, suggested: roster.OFF,
			locked: locked, newSoftViolations: newSoft,
			sCount: countShift(assignment, instance, ni, v.Shift),
		})
	}
	return rank(candidates, "relieves the excess on "+v.Date.String(), false)
}

func isFixed(n roster.Nurse, d roster.Date, s roster.Shift) bool {
	_, ok := n.Rules.FixedShifts[roster.Cell{Date: d, Shift: s}]
	return ok
}

// countShift returns how many dates nurse ni is currently assigned shift s,
// the fairness tie-break of §4.5 (b): shortage fills prefer the nurse with
// the fewest, excess drains prefer the nurse with the most.
func countShift(assignment *roster.Assignment, instance *roster.ProblemInstance, ni int, s roster.Shift) int {
	count := 0
	for di := range instance.Dates {
		if assignment.Get(ni, di) == s {
			count++
		}
	}
	return count
}

// violationSet projects a report's violations into a set of signatures,
// excluding any that match the violation being targeted for repair (its
// own demand bound is expected to move, that's not a "new" violation).
func violationSet(report roster.AnalysisReport, target roster.Violation) map[violKey]struct{} {
	out := make(map[violKey]struct{}, len(report.Violations))
	for _, v := range report.Violations {
		if v.Date == target.Date && v.Shift == target.Shift && v.Kind == target.Kind {
			continue
		}
		out[violKey{v.Date, v.Shift, v.NurseID, v.Kind}] = struct{}{}
	}
	return out
}

func warningSet(report roster.AnalysisReport) map[warnKey]struct{} {
	out := make(map[warnKey]struct{}, len(report.Warnings))
	for _, w := range report.Warnings {
		out[warnKey{w.Date, w.NurseID}] = struct{}{}
	}
	return out
}

// simulate clones assignment, sets one cell, and reports how many hard
// violations and soft warnings are newly present relative to baseViol/
// baseWarn -- the "new hard constraint" feasibility check and the "new
// soft violations" ranking criterion of §4.5, kept as two separate counts
// rather than one blended total.
func simulate(assignment *roster.Assignment, instance *roster.ProblemInstance, ni, di int, s roster.Shift, target roster.Violation, baseViol map[violKey]struct{}, baseWarn map[warnKey]struct{}) (newHard, newSoft int) {
	clone := assignment.Clone()
	clone.Set(ni, di, s)
	report := analyzer.Analyze(clone, instance)
	for _, v := range report.Violations {
		if v.Date == target.Date && v.Shift == target.Shift && v.Kind == target.Kind {
			continue
		}
		key := violKey{v.Date, v.Shift, v.NurseID, v.Kind}
		if _, ok := baseViol[key]; !ok {
			newHard++
		}
	}
	for _, w := range report.Warnings {
		key := warnKey{w.Date, w.NurseID}
		if _, ok := baseWarn[key]; !ok {
			newSoft++
		}
	}
	return newHard, newSoft
}

// rank orders candidates by: unlocked before locked, fewest new soft
// violations, then the §4.5 (b) fairness tie-break on the nurse's current
// count of the violation's shift (ascending for a fill, descending for a
// drain), then nurse id -- and converts the top maxSuggestions into
// roster.Suggestion values.
func rank(candidates []candidate, reason string, fillDirection bool) []roster.Suggestion {
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.locked != b.locked {
			return !a.locked
		}
		if a.newSoftViolations != b.newSoftViolations {
			return a.newSoftViolations < b.newSoftViolations
		}
		if a.sCount != b.sCount {
			if fillDirection {
				return a.sCount < b.sCount
			}
			return a.sCount > b.sCount
		}
		return a.nurseID < b.nurseID
	})
	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	out := make([]roster.Suggestion, len(candidates))
	for i, c := range candidates {
		out[i] = roster.Suggestion{
			NurseID:        c.nurseID,
			CurrentShift:   c.current,
			SuggestedShift: c.suggested,
			Reason:         reason,
			Locked:         c.locked,
		}
	}
	return out
}
