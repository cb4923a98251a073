package compiler

import "github.com/ty819/nurse-shift/internal/roster"

// RawRuleOverride is the uncompiled, partially-specified form of
// roster.RuleOverride. Nil pointer fields inherit from the policy-level
// default record (§4.1: "missing per-nurse rule fields inherit from a
// policy-level default record").
type RawRuleOverride struct {
	NightMin          *int           `json:"night_min,omitempty"`
	NightMax          *int           `json:"night_max,omitempty"`
	WeeklyWorkMax     *int           `json:"weekly_work_max,omitempty"`
	WeekendHolidayMax *int           `json:"weekend_holiday_max,omitempty"`
	RequestedOff      []roster.Date  `json:"requested_off,omitempty"`
	ForbiddenShifts   []roster.Cell  `json:"forbidden_shifts,omitempty"`
	FixedShifts       []roster.Cell  `json:"fixed_shifts,omitempty"`
}

// RawNurse is one uncompiled nurse record from the host (§6 NurseRecord).
type RawNurse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Team     string          `json:"team"`
	LeaderOK bool            `json:"leader_ok"`
	Rules    RawRuleOverride `json:"rules"`
}

// RawDemand is one uncompiled per-date demand record.
type RawDemand struct {
	Date   roster.Date `json:"date"`
	DayMin int         `json:"day_min"`
	DayMax int         `json:"day_max"`
	Late   int         `json:"late"`
	Night  int         `json:"night"`
}

// DefaultDemand is applied to any in-month date absent from the raw demand
// table.
type DefaultDemand struct {
	DayMin int `json:"day_min"`
	DayMax int `json:"day_max"`
	Late   int `json:"late"`
	Night  int `json:"night"`
}

// Policy carries the policy-level defaults the Rule Compiler resolves
// missing per-nurse fields against, plus the externally-supplied holiday
// lookup that §1 treats as an out-of-core collaborator.
type Policy struct {
	DefaultNightMin          int           `json:"default_night_min"`
	DefaultNightMax          int           `json:"default_night_max"`
	DefaultWeeklyWorkMax     int           `json:"default_weekly_work_max"`
	DefaultWeekendHolidayMax int           `json:"default_weekend_holiday_max"`
	DefaultDemand            DefaultDemand `json:"default_demand"`
	Holidays                 []roster.Date `json:"holidays,omitempty"`

	// IsHoliday is the externally supplied per-day flag lookup (§1, §4.1).
	// A nil func treats every day as a non-holiday; set automatically from
	// Holidays after JSON decoding (see cmd/rosteroptl), since functions
	// cannot cross the JSON boundary themselves.
	IsHoliday func(roster.Date) bool `json:"-"`
}

func (p Policy) isHoliday(d roster.Date) bool {
	if p.IsHoliday == nil {
		return false
	}
	return p.IsHoliday(d)
}

func cloneDateSet(dates []roster.Date) map[roster.Date]struct{} {
	m := make(map[roster.Date]struct{}, len(dates))
	for _, d := range dates {
		m[d] = struct{}{}
	}
	return m
}

func cloneCellSet(cells []roster.Cell) map[roster.Cell]struct{} {
	m := make(map[roster.Cell]struct{}, len(cells))
	for _, c := range cells {
		m[c] = struct{}{}
	}
	return m
}
