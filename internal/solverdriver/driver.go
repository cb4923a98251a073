// Package solverdriver is the Solver Driver (§4.3): it wraps the external
// CP-SAT-class solver (the teacher's cpmodel.SolveCpModelWithParameters
// family), manages the time budget, extracts primal solutions, and drives
// the diverse-enumeration loop described in §4.2.
package solverdriver

import (
	"fmt"
	"math"
	"time"

	log "github.com/golang/glog"
	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"
	"google.golang.org/protobuf/proto"

	"github.com/ty819/nurse-shift/internal/config"
	"github.com/ty819/nurse-shift/internal/cpbuild"
	"github.com/ty819/nurse-shift/internal/roster"
)

// Result is the outcome of one Enumerate call.
type Result struct {
	Status    roster.Status
	Solutions []roster.Solution
	Warnings  []string
}

// buildParams translates a Config and a per-solve time budget into
// SatParameters, following solve_with_time_limit_sample_sat.go's use of
// proto.Float64/proto.Int32 wrapping.
func buildParams(cfg config.Config, budget time.Duration) *sppb.SatParameters {
	p := &sppb.SatParameters{
		MaxTimeInSeconds: proto.Float64(budget.Seconds()),
		RandomSeed:       proto.Int32(int32(cfg.Seed)),
	}
	if cfg.NumSearchWorkers > 0 {
		p.NumSearchWorkers = proto.Int32(cfg.NumSearchWorkers)
	}
	return p
}

// mapStatus translates the raw CP-SAT status into the spec's four-way
// status (§6, §7). hasSolution is unused for OPTIMAL/FEASIBLE/INFEASIBLE,
// which are self-describing; UNKNOWN and MODEL_INVALID both mean "the
// solver stopped without proving anything" and map to TIME_LIMIT unless
// cancellation was requested, regardless of whether a prior incumbent
// exists (the caller tracks any incumbent separately via extractSolution).
func mapStatus(raw cmpb.CpSolverStatus, hasSolution bool, wasCancelled bool) roster.Status {
	switch raw {
	case cmpb.CpSolverStatus_OPTIMAL, cmpb.CpSolverStatus_FEASIBLE:
		return roster.StatusOK
	case cmpb.CpSolverStatus_INFEASIBLE:
		return roster.StatusInfeasible
	default: // UNKNOWN, MODEL_INVALID
		if wasCancelled {
			return roster.StatusCancelled
		}
		return roster.StatusTimeLimit
	}
}

// extractSolution reads the Boolean shift grid out of a CpSolverResponse
// and builds a roster.Solution, labeled by 1-based enumeration index
// (§4.2: plan_id is "plan-<i>").
func extractSolution(m *cpbuild.Model, resp *cmpb.CpSolverResponse, index int) roster.Solution {
	a := roster.NewAssignment(m.Instance)
	for ni := range m.Instance.Nurses {
		for di := range m.Instance.Dates {
			for _, s := range roster.AllShifts {
				if cpmodel.SolutionBooleanValue(resp, m.X[cpbuild.CellKey{NurseIdx: ni, DayIdx: di, Shift: s}]) {
					a.Set(ni, di, s)
					break
				}
			}
		}
	}
	return roster.Solution{
		PlanID:     fmt.Sprintf("plan-%d", index),
		Label:      fmt.Sprintf("Plan %d", index),
		Assignment: a,
		Objective:  int64(resp.GetObjectiveValue()),
	}
}

// hammingCutExpr builds the no-good cut expression of §4.2:
// Σ_{(n,d): A_i[n][d]=s} (1 − x[n][d][s]) for the given solution, as a
// LinearExpr ready to be compared against delta.
func hammingCutExpr(m *cpbuild.Model, sol roster.Solution) *cpmodel.LinearExpr {
	expr := cpmodel.NewLinearExpr()
	numCells := int64(0)
	for ni := range m.Instance.Nurses {
		for di := range m.Instance.Dates {
			s := sol.Assignment.Get(ni, di)
			expr.AddTerm(m.X[cpbuild.CellKey{NurseIdx: ni, DayIdx: di, Shift: s}], -1)
			numCells++
		}
	}
	expr.AddConstant(numCells)
	return expr
}

// objectiveBand returns ceil(z1*(1+epsilon)), the upper bound later plans'
// objectives must respect (§4.2).
func objectiveBand(z1 int64, epsilon float64) int64 {
	return int64(math.Ceil(float64(z1) * (1 + epsilon)))
}

// solveOnce invokes the external solver, honoring a cooperative
// cancellation channel when provided (§5), following
// cp_solver.go's SolveCpModelInterruptibleWithParameters.
func solveOnce(m *cpmodel.Builder, params *sppb.SatParameters, cancel <-chan struct{}) (*cmpb.CpSolverResponse, error) {
	built, err := m.Model()
	if err != nil {
		return nil, fmt.Errorf("solverdriver: failed to instantiate CP model: %w", err)
	}
	if cancel == nil {
		resp, err := cpmodel.SolveCpModelWithParameters(built, params)
		if err != nil {
			return nil, fmt.Errorf("solverdriver: solve failed: %w", err)
		}
		return resp, nil
	}
	resp, err := cpmodel.SolveCpModelInterruptibleWithParameters(built, params, cancel)
	if err != nil {
		return nil, fmt.Errorf("solverdriver: interruptible solve failed: %w", err)
	}
	return resp, nil
}

// Enumerate drives the diverse-enumeration loop of §4.2 over a single
// freshly-built model, honoring the combined enumeration time budget of
// §5 and the spec's Open Question resolution that a TIME_LIMIT first solve
// short-circuits the loop (SPEC_FULL.md, DESIGN.md #2).
func Enumerate(model *cpbuild.Model, cfg config.Config, k int, cancel <-chan struct{}) (*Result, error) {
	if k < 1 {
		k = 1
	}
	result := &Result{Status: roster.StatusInfeasible}
	remaining := cfg.EnumerationTimeBudget
	var firstObjective *int64
	var wasCancelled bool

	for i := 1; i <= k; i++ {
		select {
		case <-cancel:
			wasCancelled = true
		default:
		}
		if wasCancelled {
			break
		}

		plansLeft := k - i + 1
		budget := config.PerPlanBudget(remaining, plansLeft)
		if budget <= 0 {
			result.Warnings = append(result.Warnings, "enumeration time budget exhausted before all alternatives were found")
			break
		}
		if cfg.PerSolveTimeBudget > 0 && budget > cfg.PerSolveTimeBudget {
			budget = cfg.PerSolveTimeBudget
		}

		params := buildParams(cfg, budget)
		start := time.Now()
		resp, err := solveOnce(model.Builder, params, cancel)
		elapsed := time.Since(start)
		remaining -= elapsed
		if err != nil {
			return nil, err
		}

		raw := resp.GetStatus()
		hasSolution := raw == cmpb.CpSolverStatus_OPTIMAL || raw == cmpb.CpSolverStatus_FEASIBLE
		select {
		case <-cancel:
			wasCancelled = true
		default:
		}
		status := mapStatus(raw, hasSolution, wasCancelled)

		log.Infof("solverdriver: plan %d status=%v objective=%v elapsed=%v", i, raw, resp.GetObjectiveValue(), elapsed)

		if !hasSolution {
			if i == 1 {
				result.Status = status
				if status == roster.StatusTimeLimit {
					result.Warnings = append(result.Warnings, "solver returned UNKNOWN within the time budget before finding any feasible plan")
				}
				return result, nil
			}
			// A later plan in the loop came back infeasible/unknown: stop
			// enumerating, keep everything already found (§4.2 "Stop when
			// the solver reports infeasible, the time budget expires").
			break
		}

		sol := extractSolution(model, resp, i)
		result.Solutions = append(result.Solutions, sol)
		result.Status = roster.StatusOK

		if i == 1 {
			obj := sol.Objective
			firstObjective = &obj
			// FEASIBLE (an incumbent found but optimality unproven) is just as
			// unproven-optimal as UNKNOWN-with-no-solution for this check, even
			// though mapStatus reports it as OK; only OPTIMAL clears the bar to
			// start the no-good-cut loop (Open Question #2, DESIGN.md).
			if raw != cmpb.CpSolverStatus_OPTIMAL {
				result.Status = roster.StatusTimeLimit
				result.Warnings = append(result.Warnings, "first solve hit the time limit; returning the best solution found without enumerating alternatives")
				return result, nil
			}
			if k > 1 {
				band := objectiveBand(*firstObjective, cfg.Epsilon)
				model.Builder.AddLessOrEqual(model.Objective, cpmodel.NewConstant(band))
			}
		}

		if i < k {
			delta := int64(cfg.Delta(len(model.Instance.Nurses), len(model.Instance.Dates)))
			model.Builder.AddGreaterOrEqual(hammingCutExpr(model, sol), cpmodel.NewConstant(delta))
		}
	}

	if wasCancelled && len(result.Solutions) > 0 {
		result.Status = roster.StatusCancelled
		result.Warnings = append(result.Warnings, "enumeration cancelled; returning solutions found so far")
	} else if wasCancelled {
		result.Status = roster.StatusCancelled
	}

	return result, nil
}
