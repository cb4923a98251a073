// The rosteroptl command is a thin demo driver over the Re-optimization
// Controller: it loads a JSON roster instance from disk and runs one of
// optimize, reoptimize, or recheck against it.
package main

import (
	"flag"
	"os"

	log "github.com/golang/glog"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "rosteroptl",
	Short: "Nurse roster shift optimization core demo CLI",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			_ = flag.Set("alsologtostderr", "true")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(reoptimizeCmd)
	rootCmd.AddCommand(recommendCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Exitf("rosteroptl: %v", err)
	}
	os.Exit(0)
}
