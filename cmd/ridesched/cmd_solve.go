package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ridesched/internal/modules/scheduling"
)

func newSolveCmd(flags *solveFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Find one feasible assignment for the batch",
		Long: `Search for an assignment of every ride request to a driver.

Prints the result as JSON (default) or YAML. An infeasible batch is not an
error: the result status is "infeasible" and the command exits 0.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBatch(flags.input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if flags.timeout != "" {
				d, err := time.ParseDuration(flags.timeout)
				if err != nil {
					return fmt.Errorf("timeout: %w", err)
				}
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}

			res, err := scheduling.Solve(ctx, b.Requests, b.Drivers, opts)
			if err != nil {
				return err
			}
			return writeResult(cmd, flags.output, res)
		},
	}
	cmd.Flags().StringVarP(&flags.output, "output", "o", "json", "output format: json or yaml")
	cmd.Flags().StringVar(&flags.timeout, "timeout", "", "abort the search after this duration (e.g. 5s)")
	cmd.Flags().IntVar(&flags.maxNodes, "max-nodes", 0, "abort after examining this many partial schedules (0 = no limit)")
	return cmd
}

func newValidateCmd(flags *solveFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the batch file without searching",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBatch(flags.input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}
			if err := scheduling.Validate(b.Requests, b.Drivers, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d requests, %d drivers\n", len(b.Requests), len(b.Drivers))
			return nil
		},
	}
}

func writeResult(cmd *cobra.Command, format string, res scheduling.Result) error {
	out := cmd.OutOrStdout()
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(res)
	case "json", "":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
