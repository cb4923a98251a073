package roster

// Cell identifies a single (date, shift) pair within one nurse's rule
// record — the unit that `forbidden_shifts` and `fixed_shifts` are sets of
// (§3).
type Cell struct {
	Date  Date
	Shift Shift
}

// RuleOverride holds the per-nurse policy fields of §3. Zero values are
// meaningful only after the Rule Compiler has resolved them against the
// policy-level defaults — a raw, uncompiled override may leave any field
// unset (see compiler.RawRuleOverride).
type RuleOverride struct {
	NightMin           int
	NightMax           int
	WeeklyWorkMax      int
	WeekendHolidayMax  int
	RequestedOff       map[Date]struct{}
	ForbiddenShifts    map[Cell]struct{}
	FixedShifts        map[Cell]struct{}
}

// CloneWithExtraFixed returns a copy of r with the given cells added to
// FixedShifts, used by the Re-optimization Controller to inject pinned
// cells (§4.6) without mutating the compiled instance shared by other
// callers.
func (r RuleOverride) CloneWithExtraFixed(cells ...Cell) RuleOverride {
	out := r
	out.FixedShifts = make(map[Cell]struct{}, len(r.FixedShifts)+len(cells))
	for c := range r.FixedShifts {
		out.FixedShifts[c] = struct{}{}
	}
	for _, c := range cells {
		out.FixedShifts[c] = struct{}{}
	}
	return out
}

// Nurse is a single roster participant (§3).
type Nurse struct {
	ID        string
	Name      string
	Team      Team
	LeaderOK  bool
	Rules     RuleOverride
}

// DayDemand is the per-date staffing requirement (§3).
type DayDemand struct {
	Date      Date
	DayMin    int
	DayMax    int
	Late      int
	Night     int
	Weekday   int
	IsWeekend bool
	IsHoliday bool
}

// WeekBucket is a contiguous run of in-month dates belonging to one
// ISO-week, clipped at the month boundary (§4.1).
type WeekBucket struct {
	ISOYear int
	ISOWeek int
	Dates   []Date
}

// ProblemInstance is the immutable, fully-resolved input to the Model
// Builder (§3). It is produced only by the Rule Compiler.
type ProblemInstance struct {
	Year   int
	Month  int
	Dates  []Date
	Nurses []Nurse
	Demand map[Date]DayDemand

	// WeeklyBuckets maps a nurse id to its precomputed ISO-week buckets
	// (§4.1), already clipped to the month.
	WeeklyBuckets map[string][]WeekBucket
}

// DateIndex returns the 0-based offset of date within Dates, or -1 if the
// date is not part of this instance.
func (p *ProblemInstance) DateIndex(d Date) int {
	for i, dt := range p.Dates {
		if dt == d {
			return i
		}
	}
	return -1
}

// NurseIndex returns the 0-based offset of the nurse with the given id
// within Nurses, or -1 if absent.
func (p *ProblemInstance) NurseIndex(id string) int {
	for i, n := range p.Nurses {
		if n.ID == id {
			return i
		}
	}
	return -1
}
