package roster

import "fmt"

// ViolationKind is a tagged union over every constraint the Analyzer can
// detect (§4.4). Keeping it a closed Go type (rather than a bare string)
// lets downstream switches be exhaustive, per §9's "replace untyped dict
// payloads with explicit records" guidance.
type ViolationKind int

const (
	Shortage ViolationKind = iota
	Excess
	NightLeaderMissing
	NightTeamMix
	ConsecutiveWork
	ConsecutiveNight
	ForbiddenAssigned
	FixedViolated
	NightCapExceeded
	WeeklyCapExceeded
	WeekendCapExceeded
	NightAfterNightDay
)

// kindRank fixes the tie-break order within one date (Open Question in
// spec §9, resolved in DESIGN.md): date-scoped violations sort ahead of
// violations that are really nurse/month-scoped but get attributed to the
// date that triggered them.
var kindRank = map[ViolationKind]int{
	Shortage:            0,
	Excess:              1,
	NightTeamMix:        2,
	NightLeaderMissing:  3,
	NightAfterNightDay:  4,
	ConsecutiveNight:    5,
	ConsecutiveWork:     6,
	ForbiddenAssigned:   7,
	FixedViolated:       8,
	NightCapExceeded:    9,
	WeeklyCapExceeded:   10,
	WeekendCapExceeded:  11,
}

func (k ViolationKind) String() string {
	switch k {
	case Shortage:
		return "shortage"
	case Excess:
		return "excess"
	case NightLeaderMissing:
		return "night_leader_missing"
	case NightTeamMix:
		return "night_team_mix"
	case ConsecutiveWork:
		return "consecutive_work"
	case ConsecutiveNight:
		return "consecutive_night"
	case ForbiddenAssigned:
		return "forbidden_assigned"
	case FixedViolated:
		return "fixed_violated"
	case NightCapExceeded:
		return "night_cap_exceeded"
	case WeeklyCapExceeded:
		return "weekly_cap_exceeded"
	case WeekendCapExceeded:
		return "weekend_cap_exceeded"
	case NightAfterNightDay:
		return "night_after_night_day"
	default:
		return fmt.Sprintf("ViolationKind(%d)", int(k))
	}
}

// MarshalJSON implements json.Marshaler.
func (k ViolationKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// Rank returns this kind's position in the fixed tie-break order used to
// sort violations within one date (§4.4, DESIGN.md Open Question #3).
func (k ViolationKind) Rank() int { return kindRank[k] }

// Violation is one detected rule breach (§4.4).
type Violation struct {
	Date       Date
	Shift      Shift
	NurseID    string
	Kind       ViolationKind
	Message    string
	Difference int
	HasDiff    bool
}

// ViolationCell is the deduplicated (date, shift, kind) projection used by
// UI highlighting (§4.4); only Shortage/Excess ever appear here.
type ViolationCell struct {
	Date  Date
	Shift Shift
	Kind  ViolationKind
}

// Warning is a non-violation worth surfacing, e.g. an unhonored
// requested-off day (§4.4).
type Warning struct {
	Date    Date
	NurseID string
	Message string
}

// PerDaySummary is the per-date fill/requirement breakdown (§4.4).
type PerDaySummary struct {
	Date         Date
	FilledDay    int
	FilledLate   int
	FilledNight  int
	Requirements DayDemand
}

// PerNurseSummary is the per-nurse counter breakdown (§4.4).
type PerNurseSummary struct {
	NurseID       string
	DayCount      int
	LateCount     int
	NightCount    int
	OffCount      int
	WeekendWork   int
	TotalWorkDays int
}

// AnalysisReport is the pure output of Analyze (§4.4).
type AnalysisReport struct {
	PerDay         []PerDaySummary
	PerNurse       []PerNurseSummary
	Violations     []Violation
	ViolationCells []ViolationCell
	Warnings       []Warning
}

// OK reports whether the analyzed assignment has zero violations (§8 P6,
// the "ok" flag referenced throughout §6/§7).
func (r AnalysisReport) OK() bool { return len(r.Violations) == 0 }

// Suggestion is one ranked single-cell repair proposal (§4.5).
type Suggestion struct {
	NurseID        string
	CurrentShift   Shift
	SuggestedShift Shift
	Reason         string
	Locked         bool
}
