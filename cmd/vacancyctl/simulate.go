package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/vacancy/internal/simulation"
)

func newSimulateCmd() *cobra.Command {
	cfg := simulation.DefaultConfig()
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay random edits concurrently and check they converge.",
		Long: "`simulate` generates a population and an edit script from --seed, " +
			"replays the script in several interleavings through separate " +
			"coordinators and compares each result with a sequential pass.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := simulation.Run(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(report); encErr != nil {
					return encErr
				}
				return err
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ORDER\tACCEPTED\tREJECTED\tRECOMPUTES\tCOALESCED\tVERSION\tPUBLISHED\tDIGEST\tDURATION")
			for _, r := range report.Replays {
				fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
					r.Order, r.Accepted, r.Rejected, r.Recomputes, r.Coalesced,
					r.Version, r.Published, shortDigest(r.Digest), r.Duration)
			}
			if flushErr := w.Flush(); flushErr != nil {
				return flushErr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nconverged on %s: %d assigned, %d unassigned, %d seats, %s\n",
				shortDigest(report.Expected), report.Assigned, report.Unassigned, report.Capacity, report.Duration)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&cfg.Candidates, "candidates", cfg.Candidates, "number of candidates")
	fs.IntVar(&cfg.Slots, "slots", cfg.Slots, "number of slots")
	fs.IntVar(&cfg.MaxCapacity, "max-capacity", cfg.MaxCapacity, "largest slot capacity")
	fs.IntVar(&cfg.Edits, "edits", cfg.Edits, "preference edits in the script")
	fs.IntVar(&cfg.Orders, "orders", cfg.Orders, "concurrent replays")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "submitters per replay")
	fs.Float64Var(&cfg.InvalidRate, "invalid-rate", cfg.InvalidRate, "share of edits that break the quota")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "bound for a single replay")
	fs.BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func shortDigest(d string) string {
	const n = 12
	if len(d) > n {
		return d[:n]
	}
	return d
}
