// Package compiler implements the Rule Compiler (§4.1): it normalizes raw
// host input into an immutable roster.ProblemInstance with every default
// resolved, rejecting invalid input with a structured CompileError. It is
// pure and non-blocking (§5).
package compiler

import (
	"fmt"
	"sort"

	"github.com/ty819/nurse-shift/internal/roster"
)

// Compile resolves raw_nurses, raw_demand, (year, month), and policy into
// a ProblemInstance, or returns a *CompileError (§4.1).
func Compile(nurses []RawNurse, demand []RawDemand, year, month int, policy Policy) (*roster.ProblemInstance, error) {
	if month < 1 || month > 12 {
		return nil, newErr(BadDateRange, "month", "month %d out of range 1..12", month)
	}

	dates := roster.MonthDates(year, month)
	dateSet := make(map[roster.Date]struct{}, len(dates))
	for _, d := range dates {
		dateSet[d] = struct{}{}
	}

	demandByDate, err := compileDemand(demand, dates, dateSet, policy)
	if err != nil {
		return nil, err
	}

	compiledNurses, err := compileNurses(nurses, dateSet, policy)
	if err != nil {
		return nil, err
	}

	if err := checkNightBoundsFeasibility(compiledNurses, demandByDate, dates); err != nil {
		return nil, err
	}

	buckets := weeklyBuckets(dates)
	weeklyBucketsByNurse := make(map[string][]roster.WeekBucket, len(compiledNurses))
	for _, n := range compiledNurses {
		weeklyBucketsByNurse[n.ID] = buckets
	}

	return &roster.ProblemInstance{
		Year:          year,
		Month:         month,
		Dates:         dates,
		Nurses:        compiledNurses,
		Demand:        demandByDate,
		WeeklyBuckets: weeklyBucketsByNurse,
	}, nil
}

func compileDemand(raw []RawDemand, dates []roster.Date, dateSet map[roster.Date]struct{}, policy Policy) (map[roster.Date]roster.DayDemand, error) {
	out := make(map[roster.Date]roster.DayDemand, len(dates))
	seen := make(map[roster.Date]bool, len(raw))

	for _, d := range dates {
		out[d] = roster.DayDemand{
			Date:      d,
			DayMin:    policy.DefaultDemand.DayMin,
			DayMax:    policy.DefaultDemand.DayMax,
			Late:      policy.DefaultDemand.Late,
			Night:     policy.DefaultDemand.Night,
			Weekday:   d.Weekday(),
			IsWeekend: d.IsWeekend(),
			IsHoliday: policy.isHoliday(d),
		}
	}

	for i, rd := range raw {
		field := fmt.Sprintf("demand[%d]", i)
		if _, inMonth := dateSet[rd.Date]; !inMonth {
			return nil, newErr(BadDateRange, field+".date", "date %s is outside %04d-%02d", rd.Date, dates[0].Year, dates[0].Month)
		}
		if seen[rd.Date] {
			return nil, newErr(BadDateRange, field+".date", "duplicate demand entry for %s", rd.Date)
		}
		seen[rd.Date] = true
		if rd.DayMin > rd.DayMax {
			return nil, newErr(BadDateRange, field, "day_min (%d) > day_max (%d) on %s", rd.DayMin, rd.DayMax, rd.Date)
		}
		if rd.Late < 0 || rd.Night < 0 || rd.DayMin < 0 {
			return nil, newErr(BadDateRange, field, "negative demand value on %s", rd.Date)
		}
		existing := out[rd.Date]
		out[rd.Date] = roster.DayDemand{
			Date:      rd.Date,
			DayMin:    rd.DayMin,
			DayMax:    rd.DayMax,
			Late:      rd.Late,
			Night:     rd.Night,
			Weekday:   existing.Weekday,
			IsWeekend: existing.IsWeekend,
			IsHoliday: existing.IsHoliday,
		}
	}

	return out, nil
}

func compileNurses(raw []RawNurse, dateSet map[roster.Date]struct{}, policy Policy) ([]roster.Nurse, error) {
	out := make([]roster.Nurse, 0, len(raw))
	ids := make(map[string]bool, len(raw))

	for i, rn := range raw {
		field := fmt.Sprintf("nurses[%d]", i)
		if rn.ID == "" {
			return nil, newErr(DuplicateNurseId, field+".id", "nurse id must not be empty")
		}
		if ids[rn.ID] {
			return nil, newErr(DuplicateNurseId, field+".id", "duplicate nurse id %q", rn.ID)
		}
		ids[rn.ID] = true

		team, err := roster.ParseTeam(rn.Team)
		if err != nil {
			return nil, newErr(BadDateRange, field+".team", "%v", err)
		}

		rules, err := resolveRules(rn.Rules, dateSet, policy, field+".rules")
		if err != nil {
			return nil, err
		}

		out = append(out, roster.Nurse{
			ID:       rn.ID,
			Name:     rn.Name,
			Team:     team,
			LeaderOK: rn.LeaderOK,
			Rules:    rules,
		})
	}

	return out, nil
}

func resolveRules(raw RawRuleOverride, dateSet map[roster.Date]struct{}, policy Policy, field string) (roster.RuleOverride, error) {
	nightMin := policy.DefaultNightMin
	if raw.NightMin != nil {
		nightMin = *raw.NightMin
	}
	nightMax := policy.DefaultNightMax
	if raw.NightMax != nil {
		nightMax = *raw.NightMax
	}
	if nightMin < 0 || nightMax < nightMin {
		return roster.RuleOverride{}, newErr(BadDateRange, field, "night_min (%d) must be >= 0 and <= night_max (%d)", nightMin, nightMax)
	}

	weeklyMax := policy.DefaultWeeklyWorkMax
	if raw.WeeklyWorkMax != nil {
		weeklyMax = *raw.WeeklyWorkMax
	}
	if weeklyMax < 1 || weeklyMax > 7 {
		return roster.RuleOverride{}, newErr(BadDateRange, field+".weekly_work_max", "weekly_work_max %d out of range 1..7", weeklyMax)
	}

	weekendMax := policy.DefaultWeekendHolidayMax
	if raw.WeekendHolidayMax != nil {
		weekendMax = *raw.WeekendHolidayMax
	}
	if weekendMax < 0 {
		return roster.RuleOverride{}, newErr(BadDateRange, field+".weekend_holiday_max", "weekend_holiday_max must be >= 0")
	}

	for _, d := range raw.RequestedOff {
		if _, ok := dateSet[d]; !ok {
			return roster.RuleOverride{}, newErr(BadDateRange, field+".requested_off", "date %s outside the compiled month", d)
		}
	}
	for _, c := range raw.ForbiddenShifts {
		if _, ok := dateSet[c.Date]; !ok {
			return roster.RuleOverride{}, newErr(BadDateRange, field+".forbidden_shifts", "date %s outside the compiled month", c.Date)
		}
	}
	for _, c := range raw.FixedShifts {
		if _, ok := dateSet[c.Date]; !ok {
			return roster.RuleOverride{}, newErr(BadDateRange, field+".fixed_shifts", "date %s outside the compiled month", c.Date)
		}
	}

	forbidden := cloneCellSet(raw.ForbiddenShifts)
	fixed := cloneCellSet(raw.FixedShifts)
	for c := range fixed {
		if _, clash := forbidden[c]; clash {
			return roster.RuleOverride{}, newErr(ConflictingFixed, field, "cell (%s, %s) is both fixed and forbidden", c.Date, c.Shift)
		}
	}

	return roster.RuleOverride{
		NightMin:          nightMin,
		NightMax:          nightMax,
		WeeklyWorkMax:     weeklyMax,
		WeekendHolidayMax: weekendMax,
		RequestedOff:      cloneDateSet(raw.RequestedOff),
		ForbiddenShifts:   forbidden,
		FixedShifts:       fixed,
	}, nil
}

// checkNightBoundsFeasibility enforces §3's instance-level invariant:
// sum(night_min) <= sum(night demand) <= sum(night_max).
func checkNightBoundsFeasibility(nurses []roster.Nurse, demand map[roster.Date]roster.DayDemand, dates []roster.Date) error {
	var sumMin, sumMax, sumDemand int64
	for _, n := range nurses {
		sumMin += int64(n.Rules.NightMin)
		sumMax += int64(n.Rules.NightMax)
	}
	for _, d := range dates {
		sumDemand += int64(demand[d].Night)
	}
	if sumMin > sumDemand {
		return newErr(InfeasibleBounds, "nurses[*].rules.night_min",
			"sum(night_min)=%d exceeds total night demand=%d", sumMin, sumDemand)
	}
	if sumDemand > sumMax {
		return newErr(InfeasibleBounds, "nurses[*].rules.night_max",
			"total night demand=%d exceeds sum(night_max)=%d", sumDemand, sumMax)
	}
	return nil
}

// weeklyBuckets partitions dates into ISO-week (Monday start) buckets,
// clipped at the month boundary (§4.1, Open Question resolved in favor of
// ISO weeks per SPEC_FULL.md).
func weeklyBuckets(dates []roster.Date) []roster.WeekBucket {
	type key struct{ year, week int }
	index := make(map[key]int)
	var buckets []roster.WeekBucket

	for _, d := range dates {
		y, w := d.ISOWeek()
		k := key{y, w}
		idx, ok := index[k]
		if !ok {
			idx = len(buckets)
			index[k] = idx
			buckets = append(buckets, roster.WeekBucket{ISOYear: y, ISOWeek: w})
		}
		buckets[idx].Dates = append(buckets[idx].Dates, d)
	}

	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].ISOYear != buckets[j].ISOYear {
			return buckets[i].ISOYear < buckets[j].ISOYear
		}
		return buckets[i].ISOWeek < buckets[j].ISOWeek
	})
	return buckets
}
