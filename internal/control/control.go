// Package control is the Re-optimization Controller (§4.6): the top-level
// entry points a host process calls -- Optimize, Reoptimize, and Recheck
// -- wiring the Rule Compiler's output through the Model Builder, Solver
// Driver, Analyzer, and Recommender. Every call is tagged with a
// request-scoped correlation id for logging only (SPEC_FULL.md §C.5),
// following the daemon's uuid.New().String() id-per-operation shape.
package control

import (
	"fmt"

	log "github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/ty819/nurse-shift/internal/analyzer"
	"github.com/ty819/nurse-shift/internal/config"
	"github.com/ty819/nurse-shift/internal/cpbuild"
	"github.com/ty819/nurse-shift/internal/recommender"
	"github.com/ty819/nurse-shift/internal/roster"
	"github.com/ty819/nurse-shift/internal/solverdriver"
)

// OptimizeResponse is the result of Optimize or Reoptimize (§4.6).
type OptimizeResponse struct {
	Status     roster.Status
	Solutions  []roster.Solution
	Warnings   []string
	Infeasible *InfeasibleReport
}

// InfeasibleReport is returned instead of solutions when the solver can
// prove infeasibility; it carries a diagnostic best-effort assignment
// plus the analysis of whatever base assignment was in play (§7).
type InfeasibleReport struct {
	SlackSummary []cpbuild.SlackTerm
	Best         *roster.Assignment
	BaseAnalysis roster.AnalysisReport
}

// RecheckResponse is the result of Recheck (§4.6): the full violation
// report plus one suggestion list per violation.
type RecheckResponse struct {
	Report      roster.AnalysisReport
	Suggestions map[int][]roster.Suggestion // index into Report.Violations
}

func newRequestID() string { return uuid.New().String() }

// Optimize builds a fresh model from instance and returns up to k diverse
// plans (§4.2, §4.6).
func Optimize(instance *roster.ProblemInstance, cfg config.Config, k int, cancel <-chan struct{}) (*OptimizeResponse, error) {
	reqID := newRequestID()
	log.Infof("control[%s]: optimize nurses=%d dates=%d k=%d", reqID, len(instance.Nurses), len(instance.Dates), k)

	model, err := cpbuild.Build(instance, cfg, cpbuild.Options{})
	if err != nil {
		return nil, fmt.Errorf("control[%s]: build model: %w", reqID, err)
	}

	result, err := solverdriver.Enumerate(model, cfg, k, cancel)
	if err != nil {
		return nil, fmt.Errorf("control[%s]: solve: %w", reqID, err)
	}

	if result.Status == roster.StatusInfeasible {
		log.Infof("control[%s]: infeasible, running diagnostic build", reqID)
		report, diagErr := diagnose(instance, cfg)
		if diagErr != nil {
			return nil, fmt.Errorf("control[%s]: diagnostic build: %w", reqID, diagErr)
		}
		return &OptimizeResponse{Status: roster.StatusInfeasible, Infeasible: report}, nil
	}

	return &OptimizeResponse{Status: result.Status, Solutions: result.Solutions, Warnings: result.Warnings}, nil
}

// Reoptimize builds a model from instance with pinnedCells injected as
// additional FixedShifts per nurse, then solves as Optimize does (§4.6).
// On infeasibility the report includes the analysis of baseAssignment, so
// the caller can see what the pins broke.
func Reoptimize(instance *roster.ProblemInstance, baseAssignment *roster.Assignment, pinnedCells map[string][]roster.Cell, cfg config.Config, k int, cancel <-chan struct{}) (*OptimizeResponse, error) {
	reqID := newRequestID()
	log.Infof("control[%s]: reoptimize nurses=%d pins=%d k=%d", reqID, len(instance.Nurses), len(pinnedCells), k)

	pinned := pinInstance(instance, pinnedCells)

	model, err := cpbuild.Build(pinned, cfg, cpbuild.Options{})
	if err != nil {
		return nil, fmt.Errorf("control[%s]: build model: %w", reqID, err)
	}

	result, err := solverdriver.Enumerate(model, cfg, k, cancel)
	if err != nil {
		return nil, fmt.Errorf("control[%s]: solve: %w", reqID, err)
	}

	if result.Status == roster.StatusInfeasible {
		log.Infof("control[%s]: infeasible after pinning, running diagnostic build", reqID)
		report, diagErr := diagnose(pinned, cfg)
		if diagErr != nil {
			return nil, fmt.Errorf("control[%s]: diagnostic build: %w", reqID, diagErr)
		}
		if baseAssignment != nil {
			report.BaseAnalysis = analyzer.Analyze(baseAssignment, instance)
		}
		return &OptimizeResponse{Status: roster.StatusInfeasible, Infeasible: report}, nil
	}

	return &OptimizeResponse{Status: result.Status, Solutions: result.Solutions, Warnings: result.Warnings}, nil
}

// Recheck runs the Analyzer and, for every violation, the Recommender,
// without ever invoking the solver (§4.6).
func Recheck(assignment *roster.Assignment, instance *roster.ProblemInstance, cfg config.Config) *RecheckResponse {
	reqID := newRequestID()
	report := analyzer.Analyze(assignment, instance)
	log.Infof("control[%s]: recheck violations=%d", reqID, len(report.Violations))

	suggestions := make(map[int][]roster.Suggestion)
	for i, v := range report.Violations {
		if s := recommender.Recommend(v, assignment, instance, cfg); len(s) > 0 {
			suggestions[i] = s
		}
	}
	return &RecheckResponse{Report: report, Suggestions: suggestions}
}

// pinInstance returns a copy of instance whose nurses carry pinnedCells
// merged into their FixedShifts, using CloneWithExtraFixed so the
// original instance (and any other in-flight caller holding it) is left
// untouched (§4.6, §9).
func pinInstance(instance *roster.ProblemInstance, pinnedCells map[string][]roster.Cell) *roster.ProblemInstance {
	out := *instance
	out.Nurses = make([]roster.Nurse, len(instance.Nurses))
	for i, n := range instance.Nurses {
		cells := pinnedCells[n.ID]
		if len(cells) == 0 {
			out.Nurses[i] = n
			continue
		}
		n.Rules = n.Rules.CloneWithExtraFixed(cells...)
		out.Nurses[i] = n
	}
	return &out
}

// diagnose rebuilds instance in diagnostic slack mode and solves once to
// produce a best-effort assignment plus the violated-constraint slack
// summary (§7).
func diagnose(instance *roster.ProblemInstance, cfg config.Config) (*InfeasibleReport, error) {
	model, err := cpbuild.Build(instance, cfg, cpbuild.Options{Diagnostic: true})
	if err != nil {
		return nil, err
	}
	result, err := solverdriver.Enumerate(model, cfg, 1, nil)
	if err != nil {
		return nil, err
	}
	report := &InfeasibleReport{SlackSummary: model.Slack}
	if len(result.Solutions) > 0 {
		report.Best = result.Solutions[0].Assignment
		report.BaseAnalysis = analyzer.Analyze(report.Best, instance)
	}
	return report, nil
}
