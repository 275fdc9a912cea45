package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"palmopsim/internal/models"
	"palmopsim/internal/services/export"
	"palmopsim/internal/services/metrics"
)

func (a *app) newRunCmd() *cobra.Command {
	var (
		csvPath  string
		xlsxPath string
		rows     int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and print its KPIs",
		Example: `  palmsim run --years 15 --blocks 40 --scenario Aggressive
  palmsim run --preset drought --csv results.csv`,
		Args: cobra.NoArgs,
	}
	sf := addSimFlags(cmd, true)

	f := cmd.Flags()
	f.StringVar(&csvPath, "csv", "", "Also write the per-block records as CSV to this path")
	f.StringVar(&xlsxPath, "xlsx", "", "Also write an Excel workbook to this path")
	f.IntVar(&rows, "rows", 0, "Print the first N per-block records")
	f.BoolVar(&asJSON, "json", false, "Print the full result as JSON instead of tables")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := a.resolve(cmd, sf)
		if err != nil {
			return err
		}

		engine, err := a.engine(sf)
		if err != nil {
			return err
		}
		result := engine.Run(cfg)
		a.logger.Debug("simulation finished",
			zap.String("run_id", result.RunID),
			zap.Int("records", len(result.Records)))

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		writeKPIs(out, metrics.New().CalculateKPIs(result))
		writeAnnual(out, result)
		if rows > 0 {
			writeRecords(out, result, rows)
		}

		if csvPath != "" {
			if err := writeResultFile(csvPath, result, export.WriteCSV); err != nil {
				return err
			}
			fmt.Fprintln(out, "Wrote", csvPath)
		}
		if xlsxPath != "" {
			if err := writeResultFile(xlsxPath, result, export.WriteXLSX); err != nil {
				return err
			}
			fmt.Fprintln(out, "Wrote", xlsxPath)
		}
		return nil
	}
	return cmd
}

func writeResultFile(path string, r *models.SimulationResult, write func(w io.Writer, r *models.SimulationResult) error) error {
	var buf bytes.Buffer
	if err := write(&buf, r); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
