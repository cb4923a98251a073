// Package cpbuild is the Model Builder (§4.2): it turns a compiled
// roster.ProblemInstance into a CP-SAT model over the teacher's
// cpmodel.Builder, encoding hard constraints H1-H14 and the weighted
// soft objective, with an optional slack mode used only by the
// infeasibility diagnosis path (§7).
package cpbuild

import (
	"fmt"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"

	"github.com/ty819/nurse-shift/internal/config"
	"github.com/ty819/nurse-shift/internal/roster"
)

// CellKey identifies one decision variable x[n][d][s].
type CellKey struct {
	NurseIdx int
	DayIdx   int
	Shift    roster.Shift
}

// SlackTerm names one diagnostic slack variable, for §7's "caller sees
// exactly which constraints had to be violated and by how much".
type SlackTerm struct {
	Label   string
	NurseID string
	Date    roster.Date
	Var     cpmodel.IntVar
}

// Model is the built CP-SAT model plus enough bookkeeping for the Solver
// Driver and, in diagnostic mode, the infeasibility report.
type Model struct {
	Builder   *cpmodel.Builder
	Instance  *roster.ProblemInstance
	X         map[CellKey]cpmodel.BoolVar
	Slack     []SlackTerm
	Objective *cpmodel.LinearExpr
}

// Options configures one Build call.
type Options struct {
	// Diagnostic enables the §7 slack model: H2-H8 get non-negative slack
	// variables heavily penalized in the objective, so an otherwise
	// infeasible instance still yields a best-effort assignment.
	Diagnostic bool
}

// ctx carries the accumulating objective and slack bookkeeping through the
// constraint-building helpers below.
type ctx struct {
	cp         *cpmodel.Builder
	cfg        config.Config
	diagnostic bool
	objective  *cpmodel.LinearExpr
	slack      []SlackTerm
}

// Build constructs the CP-SAT model for instance under cfg (§4.2).
func Build(instance *roster.ProblemInstance, cfg config.Config, opts Options) (*Model, error) {
	if len(instance.Nurses) == 0 {
		return nil, fmt.Errorf("cpbuild: instance has no nurses")
	}
	if len(instance.Dates) == 0 {
		return nil, fmt.Errorf("cpbuild: instance has no dates")
	}

	cp := cpmodel.NewCpModelBuilder()
	c := &ctx{cp: cp, cfg: cfg, diagnostic: opts.Diagnostic, objective: cpmodel.NewLinearExpr()}

	x := makeShiftVars(cp, instance)

	addH1ExactlyOneShift(cp, instance, x)
	addH2DayRange(c, instance, x)
	addH3LateExact(c, instance, x)
	addH4NightExact(c, instance, x)
	addH5NightThenNoDay(c, instance, x)
	addH6NightCountPerNurse(c, instance, x)
	addH7WeeklyCap(c, instance, x)
	addH8WeekendHolidayCap(c, instance, x)
	addH9Forbidden(cp, instance, x)
	addH10Fixed(cp, instance, x)
	addH11NightTeamComposition(cp, instance, x)
	addH12NightLeaderPresence(cp, instance, x)
	addH13ConsecutiveNightCap(cp, instance, x)
	addH14MaxConsecutiveWorkDays(cp, instance, x)

	addFairnessObjective(c, instance, x)
	addRequestedOffObjective(c, instance, x)
	addPatternObjective(c, instance, x)

	cp.Minimize(c.objective)

	return &Model{Builder: cp, Instance: instance, X: x, Slack: c.slack, Objective: c.objective}, nil
}

func makeShiftVars(cp *cpmodel.Builder, instance *roster.ProblemInstance) map[CellKey]cpmodel.BoolVar {
	x := make(map[CellKey]cpmodel.BoolVar, len(instance.Nurses)*len(instance.Dates)*len(roster.AllShifts))
	for ni, n := range instance.Nurses {
		for di, d := range instance.Dates {
			for _, s := range roster.AllShifts {
				name := fmt.Sprintf("x_%s_%s_%s", n.ID, d, s)
				x[CellKey{ni, di, s}] = cp.NewBoolVar().WithName(name)
			}
		}
	}
	return x
}

// workExpr returns the linear expression for "nurse n works on day d",
// equal to DAY+LATE+NIGHT (and, by H1, equal to 1-OFF).
func workExpr(x map[CellKey]cpmodel.BoolVar, ni, di int) *cpmodel.LinearExpr {
	return cpmodel.NewLinearExpr().AddSum(
		x[CellKey{ni, di, roster.DAY}],
		x[CellKey{ni, di, roster.LATE}],
		x[CellKey{ni, di, roster.NIGHT}],
	)
}

func addH1ExactlyOneShift(cp *cpmodel.Builder, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	for ni := range instance.Nurses {
		for di := range instance.Dates {
			cp.AddExactlyOne(
				x[CellKey{ni, di, roster.DAY}],
				x[CellKey{ni, di, roster.LATE}],
				x[CellKey{ni, di, roster.NIGHT}],
				x[CellKey{ni, di, roster.OFF}],
			)
		}
	}
}

// addRange enforces lb <= expr <= ub, slackened in diagnostic mode.
func (c *ctx) addRange(expr *cpmodel.LinearExpr, lb, ub int64, maxSlack int64, label, nurseID string, date roster.Date) {
	if !c.diagnostic {
		c.cp.AddLinearConstraint(expr, lb, ub)
		return
	}
	short := c.cp.NewIntVar(0, maxSlack).WithName(label + "_short")
	over := c.cp.NewIntVar(0, maxSlack).WithName(label + "_over")
	c.cp.AddGreaterOrEqual(expr, cpmodel.NewLinearExpr().AddConstant(lb).AddTerm(short, -1))
	c.cp.AddLessOrEqual(expr, cpmodel.NewLinearExpr().AddConstant(ub).AddTerm(over, 1))
	c.objective.AddTerm(short, c.cfg.Weights.Slack).AddTerm(over, c.cfg.Weights.Slack)
	c.slack = append(c.slack,
		SlackTerm{Label: label + "_short", NurseID: nurseID, Date: date, Var: short},
		SlackTerm{Label: label + "_over", NurseID: nurseID, Date: date, Var: over},
	)
}

// addUpperBound enforces expr <= ub, slackened in diagnostic mode.
func (c *ctx) addUpperBound(expr *cpmodel.LinearExpr, ub int64, maxSlack int64, label, nurseID string, date roster.Date) {
	if !c.diagnostic {
		c.cp.AddLessOrEqual(expr, cpmodel.NewConstant(ub))
		return
	}
	over := c.cp.NewIntVar(0, maxSlack).WithName(label + "_over")
	c.cp.AddLessOrEqual(expr, cpmodel.NewLinearExpr().AddConstant(ub).AddTerm(over, 1))
	c.objective.AddTerm(over, c.cfg.Weights.Slack)
	c.slack = append(c.slack, SlackTerm{Label: label + "_over", NurseID: nurseID, Date: date, Var: over})
}

func addH2DayRange(c *ctx, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	n := int64(len(instance.Nurses))
	for di, d := range instance.Dates {
		expr := cpmodel.NewLinearExpr()
		for ni := range instance.Nurses {
			expr.Add(x[CellKey{ni, di, roster.DAY}])
		}
		dem := instance.Demand[d]
		c.addRange(expr, int64(dem.DayMin), int64(dem.DayMax), n, "h2_day_"+d.String(), "", d)
	}
}

func addH3LateExact(c *ctx, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	n := int64(len(instance.Nurses))
	for di, d := range instance.Dates {
		expr := cpmodel.NewLinearExpr()
		for ni := range instance.Nurses {
			expr.Add(x[CellKey{ni, di, roster.LATE}])
		}
		dem := instance.Demand[d]
		c.addRange(expr, int64(dem.Late), int64(dem.Late), n, "h3_late_"+d.String(), "", d)
	}
}

func addH4NightExact(c *ctx, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	n := int64(len(instance.Nurses))
	for di, d := range instance.Dates {
		expr := cpmodel.NewLinearExpr()
		for ni := range instance.Nurses {
			expr.Add(x[CellKey{ni, di, roster.NIGHT}])
		}
		dem := instance.Demand[d]
		c.addRange(expr, int64(dem.Night), int64(dem.Night), n, "h4_night_"+d.String(), "", d)
	}
}

func addH5NightThenNoDay(c *ctx, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	for ni, n := range instance.Nurses {
		for di := 0; di < len(instance.Dates)-1; di++ {
			night := x[CellKey{ni, di, roster.NIGHT}]
			nextDay := x[CellKey{ni, di + 1, roster.DAY}]
			nextLate := x[CellKey{ni, di + 1, roster.LATE}]
			d := instance.Dates[di]
			c.addUpperBound(cpmodel.NewLinearExpr().AddSum(night, nextDay), 1, 1,
				fmt.Sprintf("h5_nightday_%s_%d", n.ID, di), n.ID, d)
			c.addUpperBound(cpmodel.NewLinearExpr().AddSum(night, nextLate), 1, 1,
				fmt.Sprintf("h5_nightlate_%s_%d", n.ID, di), n.ID, d)
		}
	}
}

func addH6NightCountPerNurse(c *ctx, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	d := int64(len(instance.Dates))
	for ni, n := range instance.Nurses {
		expr := cpmodel.NewLinearExpr()
		for di := range instance.Dates {
			expr.Add(x[CellKey{ni, di, roster.NIGHT}])
		}
		c.addRange(expr, int64(n.Rules.NightMin), int64(n.Rules.NightMax), d, "h6_night_"+n.ID, n.ID, roster.Date{})
	}
}

func addH7WeeklyCap(c *ctx, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	for ni, n := range instance.Nurses {
		for _, bucket := range instance.WeeklyBuckets[n.ID] {
			expr := cpmodel.NewLinearExpr()
			for _, d := range bucket.Dates {
				di := instance.DateIndex(d)
				expr.Add(workExpr(x, ni, di))
			}
			label := fmt.Sprintf("h7_week_%s_%d_%d", n.ID, bucket.ISOYear, bucket.ISOWeek)
			c.addUpperBound(expr, int64(n.Rules.WeeklyWorkMax), int64(len(bucket.Dates)), label, n.ID, bucket.Dates[0])
		}
	}
}

func addH8WeekendHolidayCap(c *ctx, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	for ni, n := range instance.Nurses {
		expr := cpmodel.NewLinearExpr()
		var count int64
		for di, d := range instance.Dates {
			dem := instance.Demand[d]
			if dem.IsWeekend || dem.IsHoliday {
				expr.Add(workExpr(x, ni, di))
				count++
			}
		}
		c.addUpperBound(expr, int64(n.Rules.WeekendHolidayMax), count, "h8_weekend_"+n.ID, n.ID, roster.Date{})
	}
}

func addH9Forbidden(cp *cpmodel.Builder, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	for ni, n := range instance.Nurses {
		for cell := range n.Rules.ForbiddenShifts {
			di := instance.DateIndex(cell.Date)
			if di < 0 {
				continue
			}
			cp.AddEquality(x[CellKey{ni, di, cell.Shift}], cpmodel.NewConstant(0))
		}
	}
}

func addH10Fixed(cp *cpmodel.Builder, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	for ni, n := range instance.Nurses {
		for cell := range n.Rules.FixedShifts {
			di := instance.DateIndex(cell.Date)
			if di < 0 {
				continue
			}
			cp.AddEquality(x[CellKey{ni, di, cell.Shift}], cpmodel.NewConstant(1))
		}
	}
}

func addH11NightTeamComposition(cp *cpmodel.Builder, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	for di, d := range instance.Dates {
		dem := instance.Demand[d]
		if dem.Night < 2 {
			continue
		}
		var teamA, teamB, seniorOrLeader []cpmodel.BoolVar
		for ni, n := range instance.Nurses {
			v := x[CellKey{ni, di, roster.NIGHT}]
			switch n.Team {
			case roster.TeamA:
				teamA = append(teamA, v)
			case roster.TeamB:
				teamB = append(teamB, v)
			}
			if n.Team == roster.TeamEMG || n.LeaderOK {
				seniorOrLeader = append(seniorOrLeader, v)
			}
		}
		cp.AddBoolOr(teamA...)
		cp.AddBoolOr(teamB...)
		if dem.Night >= 3 {
			cp.AddBoolOr(seniorOrLeader...)
		}
	}
}

func addH12NightLeaderPresence(cp *cpmodel.Builder, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	for di, d := range instance.Dates {
		if instance.Demand[d].Night == 0 {
			continue
		}
		var leaders []cpmodel.BoolVar
		for ni, n := range instance.Nurses {
			if n.LeaderOK {
				leaders = append(leaders, x[CellKey{ni, di, roster.NIGHT}])
			}
		}
		cp.AddBoolOr(leaders...)
	}
}

func addH13ConsecutiveNightCap(cp *cpmodel.Builder, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	for ni := range instance.Nurses {
		for di := 0; di <= len(instance.Dates)-3; di++ {
			expr := cpmodel.NewLinearExpr().AddSum(
				x[CellKey{ni, di, roster.NIGHT}],
				x[CellKey{ni, di + 1, roster.NIGHT}],
				x[CellKey{ni, di + 2, roster.NIGHT}],
			)
			cp.AddLessOrEqual(expr, cpmodel.NewConstant(2))
		}
	}
}

func addH14MaxConsecutiveWorkDays(cp *cpmodel.Builder, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	const window = 6
	const maxWork = 5
	for ni := range instance.Nurses {
		for start := 0; start <= len(instance.Dates)-window; start++ {
			expr := cpmodel.NewLinearExpr()
			for di := start; di < start+window; di++ {
				expr.Add(workExpr(x, ni, di))
			}
			cp.AddLessOrEqual(expr, cpmodel.NewConstant(maxWork))
		}
	}
}

// addFairnessObjective adds the w_fair_night and w_fair_weekend deviation
// terms (§4.2), measured against the rounded integer mean per
// SPEC_FULL.md §C.2 (CP-SAT is integer-only).
func addFairnessObjective(c *ctx, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	numNurses := len(instance.Nurses)
	if numNurses == 0 {
		return
	}

	var totalNightDemand int64
	var weekendSlots int64
	for _, d := range instance.Dates {
		dem := instance.Demand[d]
		totalNightDemand += int64(dem.Night)
	}
	meanNights := roundedMean(totalNightDemand, int64(numNurses))

	for ni, n := range instance.Nurses {
		expr := cpmodel.NewLinearExpr()
		for di := range instance.Dates {
			expr.Add(x[CellKey{ni, di, roster.NIGHT}])
		}
		expr.AddConstant(-meanNights)
		dev := c.cp.NewIntVar(0, int64(len(instance.Dates))).WithName("dev_night_" + n.ID)
		c.cp.AddAbsEquality(dev, expr)
		c.objective.AddTerm(dev, c.cfg.Weights.FairNight)
	}

	// Weekend/holiday fairness: mean work-days among weekend/holiday dates,
	// derived the same way as meanNights above -- total staffed slots over
	// those dates, divided evenly across the roster.
	var totalWeekendDemand int64
	for _, d := range instance.Dates {
		dem := instance.Demand[d]
		if dem.IsWeekend || dem.IsHoliday {
			weekendSlots++
			totalWeekendDemand += int64(dem.DayMin) + int64(dem.Late) + int64(dem.Night)
		}
	}
	meanWeekend := roundedMean(totalWeekendDemand, int64(numNurses))

	for ni, n := range instance.Nurses {
		expr := cpmodel.NewLinearExpr()
		for di, d := range instance.Dates {
			dem := instance.Demand[d]
			if dem.IsWeekend || dem.IsHoliday {
				expr.Add(workExpr(x, ni, di))
			}
		}
		expr.AddConstant(-meanWeekend)
		dev := c.cp.NewIntVar(0, weekendSlots+meanWeekend).WithName("dev_weekend_" + n.ID)
		c.cp.AddAbsEquality(dev, expr)
		c.objective.AddTerm(dev, c.cfg.Weights.FairWeekend)
	}
}

func roundedMean(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return (total + count/2) / count
}

// addRequestedOffObjective adds the w_req_off penalty for each requested
// day off that ends up worked (§4.2).
func addRequestedOffObjective(c *ctx, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	for ni, n := range instance.Nurses {
		for d := range n.Rules.RequestedOff {
			di := instance.DateIndex(d)
			if di < 0 {
				continue
			}
			off := x[CellKey{ni, di, roster.OFF}]
			// Penalize (1 - off): constant + (-weight)*off.
			c.objective.AddConstant(c.cfg.Weights.RequestedOff).AddTerm(off, -c.cfg.Weights.RequestedOff)
		}
	}
}

// addPatternObjective penalizes the NIGHT-then-LATE-two-days-later
// quick-turnaround pattern (§4.2, defined in SPEC_FULL.md §C.3), using the
// teacher's half-reification idiom (reified_sample_sat.go).
func addPatternObjective(c *ctx, instance *roster.ProblemInstance, x map[CellKey]cpmodel.BoolVar) {
	for ni, n := range instance.Nurses {
		for di := 0; di <= len(instance.Dates)-3; di++ {
			night := x[CellKey{ni, di, roster.NIGHT}]
			lateTwoLater := x[CellKey{ni, di + 2, roster.LATE}]
			p := c.cp.NewBoolVar().WithName(fmt.Sprintf("pattern_%s_%d", n.ID, di))
			c.cp.AddImplication(p, night)
			c.cp.AddImplication(p, lateTwoLater)
			c.cp.AddBoolOr(night.Not(), lateTwoLater.Not(), p)
			c.objective.AddTerm(p, c.cfg.Weights.Pattern)
		}
	}
}
