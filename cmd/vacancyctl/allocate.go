package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/vacancy/internal/domain/allocation"
	"github.com/okian/vacancy/internal/domain/ledger"
	"github.com/okian/vacancy/pkg/logger"
)

const noSlot = "no slot available"

func newAllocateCmd() *cobra.Command {
	f := &inputFlags{}
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Run one allocation pass and print the assignment.",
		Long: "`allocate --population f [--preferences p]` ranks the population, " +
			"applies every valid preference list and prints who gets which slot.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			in, err := f.load(ctx)
			if err != nil {
				return err
			}
			log := logger.Get().Named("allocate")
			for _, rerr := range in.rejected {
				log.Warn(ctx, "preference list ignored", logger.Error(rerr))
			}

			input := in.allocation()
			res := allocation.Allocate(input)
			if err := allocation.Verify(input, res.Assignment); err != nil {
				return err
			}
			return printAllocation(cmd.OutOrStdout(), in, res)
		},
	}
	addInputFlags(cmd, f)
	return cmd
}

func addInputFlags(cmd *cobra.Command, f *inputFlags) {
	cmd.Flags().StringVarP(&f.population, "population", "p", "", "YAML or JSON population file")
	cmd.Flags().StringVar(&f.preferences, "preferences", "", "YAML or JSON map of candidate id to slot ids")
	cmd.Flags().StringVar(&f.sqlite, "sqlite", "", "read stored preference lists from this SQLite cache")
	cmd.Flags().StringVar(&f.policy, "quota-policy", "reject", "over-quota lists: reject or truncate")
	_ = cmd.MarkFlagRequired("population")
}

func printAllocation(out io.Writer, in *inputs, res allocation.Result) error {
	names := make(map[string]string, len(in.pop.Candidates))
	for _, c := range in.pop.Candidates {
		names[c.ID] = c.Name
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tCANDIDATE\tNAME\tSLOT")
	for i, id := range in.ranks.Order() {
		slot, ok := res.Assignment.SlotOf(id)
		if !ok {
			slot = noSlot
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, id, names[id], slot)
	}
	fmt.Fprintln(w)

	book := ledger.New(in.pop.Slots)
	book.Apply(res.Assignment, in.ranks.Order())
	fmt.Fprintln(w, "SLOT\tDEPARTMENT\tCAPACITY\tOCCUPIED\tREMAINING")
	for _, s := range book.Board() {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", s.SlotID, s.Department, s.Capacity, s.Occupied, s.Remaining)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\nassigned %d of %d, digest %s\n",
		len(res.Assignment), len(in.pop.Candidates), res.Assignment.Digest())
	return err
}
