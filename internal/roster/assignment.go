package roster

import "fmt"

// AssignmentCell is one (nurse, date, shift) triple, the flat external
// representation of an Assignment (§3).
type AssignmentCell struct {
	NurseID string `json:"nurse_id"`
	Date    Date   `json:"date"`
	Shift   Shift  `json:"shift"`
}

// Assignment is the total function (nurse_id, date) -> Shift, stored
// internally as a dense matrix indexed by nurse position and day offset
// within a ProblemInstance (§3).
type Assignment struct {
	instance *ProblemInstance
	grid     [][]Shift // grid[nurseIdx][dayIdx]
}

// NewAssignment builds an all-OFF assignment matrix sized to instance.
func NewAssignment(instance *ProblemInstance) *Assignment {
	grid := make([][]Shift, len(instance.Nurses))
	for i := range grid {
		grid[i] = make([]Shift, len(instance.Dates))
	}
	return &Assignment{instance: instance, grid: grid}
}

// FromCells builds a dense Assignment from the flat triple form, failing
// if any cell refers to an unknown nurse or a date outside the instance,
// or if any (nurse, date) pair is missing or duplicated — enforcing §3's
// "every (nurse,date) appears exactly once" invariant at ingestion time.
func FromCells(instance *ProblemInstance, cells []AssignmentCell) (*Assignment, error) {
	a := NewAssignment(instance)
	seen := make([][]bool, len(instance.Nurses))
	for i := range seen {
		seen[i] = make([]bool, len(instance.Dates))
	}
	for _, c := range cells {
		ni := instance.NurseIndex(c.NurseID)
		if ni < 0 {
			return nil, fmt.Errorf("roster: assignment cell references unknown nurse %q", c.NurseID)
		}
		di := instance.DateIndex(c.Date)
		if di < 0 {
			return nil, fmt.Errorf("roster: assignment cell references out-of-month date %s", c.Date)
		}
		if seen[ni][di] {
			return nil, fmt.Errorf("roster: duplicate assignment cell for nurse %q on %s", c.NurseID, c.Date)
		}
		seen[ni][di] = true
		a.grid[ni][di] = c.Shift
	}
	for ni, row := range seen {
		for di, ok := range row {
			if !ok {
				return nil, fmt.Errorf("roster: missing assignment cell for nurse %q on %s",
					instance.Nurses[ni].ID, instance.Dates[di])
			}
		}
	}
	return a, nil
}

// Instance returns the ProblemInstance this assignment is shaped against.
func (a *Assignment) Instance() *ProblemInstance { return a.instance }

// Get returns the shift assigned to nurse n on date d.
func (a *Assignment) Get(nurseIdx, dayIdx int) Shift {
	return a.grid[nurseIdx][dayIdx]
}

// GetByID returns the shift assigned to nurseID on date d, or OFF with ok
// false if either is not part of the instance.
func (a *Assignment) GetByID(nurseID string, d Date) (Shift, bool) {
	ni := a.instance.NurseIndex(nurseID)
	di := a.instance.DateIndex(d)
	if ni < 0 || di < 0 {
		return OFF, false
	}
	return a.grid[ni][di], true
}

// Set assigns shift s to nurse n on day d (by index).
func (a *Assignment) Set(nurseIdx, dayIdx int, s Shift) {
	a.grid[nurseIdx][dayIdx] = s
}

// Clone returns a deep copy of a, used by the Recommender to simulate a
// single-cell swap without mutating the caller's assignment (§4.5, §9
// "keep simulation pure").
func (a *Assignment) Clone() *Assignment {
	grid := make([][]Shift, len(a.grid))
	for i, row := range a.grid {
		grid[i] = append([]Shift(nil), row...)
	}
	return &Assignment{instance: a.instance, grid: grid}
}

// Cells flattens the dense matrix back into the external triple form.
func (a *Assignment) Cells() []AssignmentCell {
	out := make([]AssignmentCell, 0, len(a.instance.Nurses)*len(a.instance.Dates))
	for ni, n := range a.instance.Nurses {
		for di, d := range a.instance.Dates {
			out = append(out, AssignmentCell{NurseID: n.ID, Date: d, Shift: a.grid[ni][di]})
		}
	}
	return out
}

// Solution pairs an Assignment with the solver's objective value and a
// stable plan id (§3).
type Solution struct {
	PlanID     string
	Label      string
	Assignment *Assignment
	Objective  int64
}
