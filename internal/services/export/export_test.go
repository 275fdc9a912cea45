package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"palmopsim/internal/models"
	"palmopsim/internal/services/simulation"
)

func fixedResult() *models.SimulationResult {
	return &models.SimulationResult{
		Config: models.DefaultSimulationConfig(),
		Records: []models.SimulationRecord{
			{Year: 1, BlockID: "B1", Age: 7, YieldRate: 18.5, TotalYield: 462.5},
			{Year: 1, BlockID: "B2", Age: 20, YieldRate: 20, TotalYield: 500},
			{Year: 2, BlockID: "B1", Age: 8, YieldRate: 19.07, TotalYield: 476.75},
			{Year: 2, BlockID: "B2", Age: 0, YieldRate: 0, TotalYield: 0},
		},
		TotalYield:       1439.25,
		AverageYieldRate: 14.3925,
		OldBlockCount:    0,
		AnnualTotals:     []models.AnnualTotal{{Year: 1, Total: 962.5}, {Year: 2, Total: 476.75}},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, fixedResult()))

	want := strings.Join([]string{
		"Year,Block,Age,Planted_Year,FFB_t_ha,Total_FFB_t",
		"1,B1,7,0,18.50,462.50",
		"1,B2,20,0,20.00,500.00",
		"2,B1,8,0,19.07,476.75",
		"2,B2,0,0,0.00,0.00",
	}, "\n") + "\n"

	assert.Equal(t, want, buf.String())
}

func TestWriteCSVFullRun(t *testing.T) {
	r := simulation.Run(models.DefaultSimulationConfig())

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, r))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(r.Records)+1)
	assert.Equal(t, Header, rows[0])

	for i, row := range rows[1:] {
		for _, col := range row[4:] {
			dot := strings.IndexByte(col, '.')
			require.NotEqual(t, -1, dot, "row %d value %q", i, col)
			assert.Len(t, col[dot+1:], 2, "row %d value %q", i, col)
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	r := fixedResult()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, r))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetResults, SheetAnnual, SheetKPIs}, f.GetSheetList())

	rows, err := f.GetRows(SheetResults, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, len(r.Records)+1)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "B1", rows[3][1])

	rate, err := strconv.ParseFloat(rows[3][4], 64)
	require.NoError(t, err)
	assert.InDelta(t, 19.07, rate, 1e-9)

	annual, err := f.GetRows(SheetAnnual, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, annual, 3)
	assert.Equal(t, "2", annual[2][0])

	kpis, err := f.GetRows(SheetKPIs, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(kpis), 4)
	assert.Equal(t, "Total FFB Production (tonnes)", kpis[1][0])
	assert.Equal(t, "Blocks Above 25 Years", kpis[3][0])
}

func TestWriteXLSXEmptyResult(t *testing.T) {
	cfg := models.DefaultSimulationConfig()
	cfg.SimulationYears = 0

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, simulation.Run(cfg)))
	assert.NotZero(t, buf.Len())
}
