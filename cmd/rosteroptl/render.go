package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/ty819/nurse-shift/internal/roster"
)

// renderAssignment prints a nurse x date grid via tablewriter, one row
// per nurse, one column per date.
func renderAssignment(a *roster.Assignment, inst *roster.ProblemInstance) {
	table := tablewriter.NewWriter(os.Stdout)
	header := []string{"nurse"}
	for _, d := range inst.Dates {
		header = append(header, d.String())
	}
	table.SetHeader(header)
	table.SetBorder(false)

	for ni, n := range inst.Nurses {
		row := make([]string, 0, len(inst.Dates)+1)
		row = append(row, n.ID)
		for di := range inst.Dates {
			row = append(row, a.Get(ni, di).String())
		}
		table.Append(row)
	}
	table.Render()
}

// pinsFile is the on-disk JSON shape for reoptimize's pin argument: a map
// from nurse id to the cells that must stay fixed (§4.6).
type pinsFile struct {
	Pins map[string][]roster.Cell `json:"pins"`
}

func loadPins(path string) (map[string][]roster.Cell, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pins file: %w", err)
	}
	var f pinsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse pins file: %w", err)
	}
	return f.Pins, nil
}
