package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"palmopsim/internal/config"
)

func (a *app) newPresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List or create simulation presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.LoadPresets(a.presetFile)
			if err != nil {
				return err
			}

			t := newTable("Preset", "Scenario", "Years", "Blocks", "Ages", "Fertilizer %", "Harvest (mo)", "Climate %", "Pest %")
			names := append([]string{"defaults"}, p.Names()...)
			for _, name := range names {
				c, err := p.Get(name)
				if err != nil {
					return err
				}
				t.Row(name, c.Scenario,
					strconv.Itoa(c.SimulationYears), strconv.Itoa(c.NumBlocks),
					fmt.Sprintf("%d-%d", c.InitialAgeMin, c.InitialAgeMax),
					strconv.FormatFloat(c.FertilizerPct, 'f', -1, 64),
					strconv.Itoa(c.HarvestIntervalMonths),
					strconv.FormatFloat(c.ClimateAdjustmentPct, 'f', -1, 64),
					strconv.FormatFloat(c.PestPressurePct, 'f', -1, 64))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in presets to the preset file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.presetFile); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", a.presetFile)
			}
			if err := config.DefaultPresets().Save(a.presetFile); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", a.presetFile)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing preset file")

	cmd.AddCommand(initCmd)
	return cmd
}
