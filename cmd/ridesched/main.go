// README: Offline CLI; solves or validates a batch described in a YAML or JSON file.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

type solveFlags struct {
	input         string
	output        string
	overlap       string
	enforceBreaks bool
	timezone      string
	timeout       string
	maxNodes      int
}

func newRootCmd() *cobra.Command {
	var flags solveFlags

	root := &cobra.Command{
		Use:          "ridesched",
		Short:        "Assign ride requests to drivers",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.input, "file", "f", "", "batch file (YAML or JSON); '-' reads stdin")
	root.PersistentFlags().StringVar(&flags.overlap, "overlap", "endpoint", "overlap rule: endpoint or interval")
	root.PersistentFlags().BoolVar(&flags.enforceBreaks, "enforce-breaks", false, "reject rides that overlap a driver break")
	root.PersistentFlags().StringVar(&flags.timezone, "timezone", "UTC", "location for timestamps without an offset")
	_ = root.MarkPersistentFlagRequired("file")

	root.AddCommand(newSolveCmd(&flags), newValidateCmd(&flags))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
