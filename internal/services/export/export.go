// Package export writes simulation results as delimited text and spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"palmopsim/internal/models"
)

// Download file names
const (
	CSVFileName  = "PalmOpsSim_Results.csv"
	XLSXFileName = "PalmOpsSim_FFB_Results.xlsx"
)

// Sheet names of the workbook
const (
	SheetResults = "Results"
	SheetAnnual  = "Annual"
	SheetKPIs    = "KPIs"
)

// Header is the column order of the results table
var Header = []string{"Year", "Block", "Age", "Planted_Year", "FFB_t_ha", "Total_FFB_t"}

// toDecimal treats NaN and the infinities as 0
func toDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func fixed2(v float64) string {
	return toDecimal(v).StringFixed(2)
}

// WriteCSV writes the result records as comma-separated UTF-8 text with a
// header row. Rate and total are formatted with exactly 2 decimals.
func WriteCSV(w io.Writer, r *models.SimulationResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range r.Records {
		row := []string{
			strconv.Itoa(rec.Year),
			rec.BlockID,
			strconv.Itoa(rec.Age),
			strconv.Itoa(rec.PlantedYear),
			fixed2(rec.YieldRate),
			fixed2(rec.TotalYield),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record %d/%s: %w", rec.Year, rec.BlockID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// KPIRows are the label/value pairs of the KPI sheet
func KPIRows(r *models.SimulationResult) [][]interface{} {
	return [][]interface{}{
		{"Total FFB Production (tonnes)", toDecimal(r.TotalYield).Round(1).InexactFloat64()},
		{"Average Yield (t/ha)", toDecimal(r.AverageYieldRate).Round(2).InexactFloat64()},
		{"Blocks Above 25 Years", r.OldBlockCount},
		{"Scenario", r.Config.Scenario},
		{"Random Seed", r.Config.RandomSeed},
	}
}

// WriteXLSX writes a workbook with the results table, the annual series and
// the KPIs on separate sheets.
func WriteXLSX(w io.Writer, r *models.SimulationResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetResults); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetAnnual, SheetKPIs} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	twoDP, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return fmt.Errorf("number style: %w", err)
	}

	// Results
	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := writeRow(f, SheetResults, 1, header); err != nil {
		return err
	}
	for i, rec := range r.Records {
		row := []interface{}{rec.Year, rec.BlockID, rec.Age, rec.PlantedYear, rec.YieldRate, rec.TotalYield}
		if err := writeRow(f, SheetResults, i+2, row); err != nil {
			return err
		}
	}
	if err := styleRange(f, SheetResults, bold, 1, 1, len(Header), 1); err != nil {
		return err
	}
	if len(r.Records) > 0 {
		if err := styleRange(f, SheetResults, twoDP, 5, 2, 6, len(r.Records)+1); err != nil {
			return err
		}
	}

	// Annual
	if err := writeRow(f, SheetAnnual, 1, []interface{}{"Year", "Total_FFB_t"}); err != nil {
		return err
	}
	for i, a := range r.AnnualTotals {
		if err := writeRow(f, SheetAnnual, i+2, []interface{}{a.Year, a.Total}); err != nil {
			return err
		}
	}
	if err := styleRange(f, SheetAnnual, bold, 1, 1, 2, 1); err != nil {
		return err
	}

	// KPIs
	if err := writeRow(f, SheetKPIs, 1, []interface{}{"Metric", "Value"}); err != nil {
		return err
	}
	for i, row := range KPIRows(r) {
		if err := writeRow(f, SheetKPIs, i+2, row); err != nil {
			return err
		}
	}
	if err := styleRange(f, SheetKPIs, bold, 1, 1, 2, 1); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetKPIs, "A", "A", 32); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}

func styleRange(f *excelize.File, sheet string, style, col1, row1, col2, row2 int) error {
	from, err := excelize.CoordinatesToCellName(col1, row1)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(col2, row2)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, from, to, style)
}
