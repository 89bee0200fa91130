package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/vacancy/internal/domain/preference"
)

func newValidateCmd() *cobra.Command {
	f := &inputFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a population and its preference lists.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := f.load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			capacity := 0
			for _, c := range in.pop.Capacities() {
				capacity += c
			}
			fmt.Fprintf(out, "population ok: %d candidates, %d slots, %d seats\n",
				len(in.pop.Candidates), len(in.pop.Slots), capacity)
			fmt.Fprintf(out, "preference lists accepted: %d\n", in.prefs.Len())

			for _, rerr := range in.rejected {
				fmt.Fprintf(out, "rejected: %v\n", rerr)
			}
			if n := len(in.rejected); n > 0 {
				return fmt.Errorf("%d invalid preference lists", n)
			}
			if top := in.ranks.Order(); len(top) > 0 {
				fmt.Fprintf(out, "rank 1 is %s and may list up to %d slots\n",
					top[0], preference.MaxPreferences(1))
			}
			return nil
		},
	}
	addInputFlags(cmd, f)
	return cmd
}
