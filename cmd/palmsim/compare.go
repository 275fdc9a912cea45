package main

import (
	"github.com/spf13/cobra"

	"palmopsim/internal/models"
	"palmopsim/internal/services/comparison"
)

func (a *app) newCompareCmd() *cobra.Command {
	var scenarios []string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run the same estate under several scenarios side by side",
		Example: `  palmsim compare
  palmsim compare --scenarios Conservative,Aggressive --years 20`,
		Args: cobra.NoArgs,
	}
	sf := addSimFlags(cmd, false)

	var all []string
	for _, s := range models.Scenarios() {
		all = append(all, s.Name)
	}
	cmd.Flags().StringSliceVar(&scenarios, "scenarios", all, "Scenarios to compare")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := a.resolve(cmd, sf)
		if err != nil {
			return err
		}

		engine, err := a.engine(sf)
		if err != nil {
			return err
		}
		cmp, err := comparison.NewRunner(engine, a.logger).Compare(cmd.Context(), cfg, scenarios)
		if err != nil {
			return err
		}

		writeComparison(cmd.OutOrStdout(), cmp)
		return nil
	}
	return cmd
}
