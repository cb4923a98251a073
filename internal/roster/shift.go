// Package roster defines the data model shared by every component of the
// shift optimization core: shifts, nurses, demand, problem instances,
// assignments, solutions, and the violation taxonomy produced by the
// analyzer.
package roster

import "fmt"

// Shift is the duty assigned to a nurse on a given day.
type Shift int

// The four shift kinds. OFF is the zero value, matching the spec's
// requirement that it be both the default and the only value consistent
// with "not working".
const (
	OFF Shift = iota
	DAY
	LATE
	NIGHT
)

// AllShifts lists the shift kinds in the order used for deterministic
// iteration (model variables, solution extraction). Violation ordering
// does not use it; see ViolationKind.Rank.
var AllShifts = [...]Shift{DAY, LATE, NIGHT, OFF}

func (s Shift) String() string {
	switch s {
	case OFF:
		return "OFF"
	case DAY:
		return "DAY"
	case LATE:
		return "LATE"
	case NIGHT:
		return "NIGHT"
	default:
		return fmt.Sprintf("Shift(%d)", int(s))
	}
}

// ParseShift parses the canonical textual form of a Shift.
func ParseShift(s string) (Shift, error) {
	switch s {
	case "OFF", "":
		return OFF, nil
	case "DAY":
		return DAY, nil
	case "LATE":
		return LATE, nil
	case "NIGHT":
		return NIGHT, nil
	default:
		return OFF, fmt.Errorf("roster: unknown shift %q", s)
	}
}

// MarshalJSON implements json.Marshaler.
func (s Shift) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Shift) UnmarshalJSON(b []byte) error {
	if len(b) < 2 {
		return fmt.Errorf("roster: invalid shift literal %q", b)
	}
	v, err := ParseShift(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Team is the tag every nurse belongs to, exactly one each.
type Team int

const (
	TeamA Team = iota
	TeamB
	TeamEMG
)

func (t Team) String() string {
	switch t {
	case TeamA:
		return "A"
	case TeamB:
		return "B"
	case TeamEMG:
		return "EMG"
	default:
		return fmt.Sprintf("Team(%d)", int(t))
	}
}

// ParseTeam parses the canonical textual form of a Team.
func ParseTeam(s string) (Team, error) {
	switch s {
	case "A":
		return TeamA, nil
	case "B":
		return TeamB, nil
	case "EMG":
		return TeamEMG, nil
	default:
		return TeamA, fmt.Errorf("roster: unknown team %q", s)
	}
}

// MarshalJSON implements json.Marshaler.
func (t Team) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Team) UnmarshalJSON(b []byte) error {
	if len(b) < 2 {
		return fmt.Errorf("roster: invalid team literal %q", b)
	}
	v, err := ParseTeam(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
