package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ty819/nurse-shift/internal/compiler"
	"github.com/ty819/nurse-shift/internal/roster"
)

// instanceFile is the on-disk JSON shape this demo CLI reads: raw nurses
// and demand plus the (year, month, policy) the Rule Compiler needs to
// resolve them into a roster.ProblemInstance.
type instanceFile struct {
	Year   int                  `json:"year"`
	Month  int                  `json:"month"`
	Policy compiler.Policy      `json:"policy"`
	Nurses []compiler.RawNurse  `json:"nurses"`
	Demand []compiler.RawDemand `json:"demand"`
}

func loadInstance(path string) (*roster.ProblemInstance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instance file: %w", err)
	}
	var f instanceFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse instance file: %w", err)
	}
	if len(f.Policy.Holidays) > 0 {
		holidays := make(map[roster.Date]struct{}, len(f.Policy.Holidays))
		for _, d := range f.Policy.Holidays {
			holidays[d] = struct{}{}
		}
		f.Policy.IsHoliday = func(d roster.Date) bool {
			_, ok := holidays[d]
			return ok
		}
	}
	inst, err := compiler.Compile(f.Nurses, f.Demand, f.Year, f.Month, f.Policy)
	if err != nil {
		return nil, fmt.Errorf("compile instance: %w", err)
	}
	return inst, nil
}

// assignmentFile is the on-disk JSON shape written by --out: the flat
// triple form of an Assignment (§3).
type assignmentFile struct {
	Cells []roster.AssignmentCell `json:"cells"`
}

func loadAssignment(path string, inst *roster.ProblemInstance) (*roster.Assignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assignment file: %w", err)
	}
	var f assignmentFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse assignment file: %w", err)
	}
	return roster.FromCells(inst, f.Cells)
}

func writeAssignment(path string, a *roster.Assignment) error {
	data, err := json.MarshalIndent(assignmentFile{Cells: a.Cells()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal assignment: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write assignment file: %w", err)
	}
	return nil
}
