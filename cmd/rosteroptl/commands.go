package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ty819/nurse-shift/internal/config"
	"github.com/ty819/nurse-shift/internal/control"
	"github.com/ty819/nurse-shift/internal/roster"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.FgCyan, color.Bold)
)

var (
	alternatives int
	outPath      string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize <instance.json>",
	Short: "Solve a roster instance and print up to --alternatives diverse plans",
	Args:  cobra.ExactArgs(1),
	RunE:  runOptimize,
}

var reoptimizeCmd = &cobra.Command{
	Use:   "reoptimize <instance.json> <base-assignment.json> <pins.json>",
	Short: "Re-solve around a base assignment with pinned cells",
	Args:  cobra.ExactArgs(3),
	RunE:  runReoptimize,
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <instance.json> <assignment.json>",
	Short: "Analyze an assignment and print violations with suggested fixes",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecommend,
}

func init() {
	optimizeCmd.Flags().IntVar(&alternatives, "alternatives", 1, "number of diverse plans to return")
	optimizeCmd.Flags().StringVar(&outPath, "out", "", "write the best plan's assignment to this file")

	reoptimizeCmd.Flags().IntVar(&alternatives, "alternatives", 1, "number of diverse plans to return")
	reoptimizeCmd.Flags().StringVar(&outPath, "out", "", "write the best plan's assignment to this file")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	if noColor {
		color.NoColor = true
	}
	inst, err := loadInstance(args[0])
	if err != nil {
		return err
	}
	resp, err := control.Optimize(inst, config.Default(), alternatives, nil)
	if err != nil {
		return err
	}
	return renderOptimizeResponse(resp, inst)
}

func runReoptimize(cmd *cobra.Command, args []string) error {
	if noColor {
		color.NoColor = true
	}
	inst, err := loadInstance(args[0])
	if err != nil {
		return err
	}
	base, err := loadAssignment(args[1], inst)
	if err != nil {
		return err
	}
	pins, err := loadPins(args[2])
	if err != nil {
		return err
	}
	resp, err := control.Reoptimize(inst, base, pins, config.Default(), alternatives, nil)
	if err != nil {
		return err
	}
	return renderOptimizeResponse(resp, inst)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	if noColor {
		color.NoColor = true
	}
	inst, err := loadInstance(args[0])
	if err != nil {
		return err
	}
	a, err := loadAssignment(args[1], inst)
	if err != nil {
		return err
	}
	resp := control.Recheck(a, inst, config.Default())
	renderRecheckResponse(resp)
	return nil
}

func renderOptimizeResponse(resp *control.OptimizeResponse, inst *roster.ProblemInstance) error {
	headerColor.Printf("status: %s\n", resp.Status)
	for _, w := range resp.Warnings {
		warnColor.Printf("warning: %s\n", w)
	}
	if resp.Status == roster.StatusInfeasible {
		errorColor.Println("no feasible plan found")
		if resp.Infeasible != nil && resp.Infeasible.Best != nil {
			fmt.Println("best-effort assignment (constraints violated under slack):")
			renderAssignment(resp.Infeasible.Best, inst)
		}
		return nil
	}
	for _, sol := range resp.Solutions {
		successColor.Printf("\n%s (objective %d)\n", sol.Label, sol.Objective)
		renderAssignment(sol.Assignment, inst)
	}
	if outPath != "" && len(resp.Solutions) > 0 {
		if err := writeAssignment(outPath, resp.Solutions[0].Assignment); err != nil {
			return err
		}
	}
	return nil
}

func renderRecheckResponse(resp *control.RecheckResponse) {
	if resp.Report.OK() {
		successColor.Println("no violations")
		return
	}
	for i, v := range resp.Report.Violations {
		errorColor.Printf("[%s] %s\n", v.Kind, v.Message)
		for _, s := range resp.Suggestions[i] {
			lock := ""
			if s.Locked {
				lock = " (locked)"
			}
			fmt.Printf("  suggest: %s %s -> %s%s\n", s.NurseID, s.CurrentShift, s.SuggestedShift, lock)
		}
	}
	for _, w := range resp.Report.Warnings {
		warnColor.Printf("warning: %s\n", w.Message)
	}
}
