package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"palmopsim/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("28"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("28")).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func tonnes(v float64) string {
	return humanize.FormatFloat("#,###.#", v)
}

func rate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// newTable returns a bordered table with right-aligned numeric columns
// after the first.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(labelStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := cellStyle
			if row == table.HeaderRow {
				s = headerStyle
			}
			if col > 0 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})
}

func writeKPIs(w io.Writer, k *models.DashboardKPIs) {
	line := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-32s", label)) + valueStyle.Render(value)
	}

	scenario := k.ScenarioName
	if !k.ScenarioKnown {
		scenario += warnStyle.Render(" (unrecognised, Moderate used)")
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(k.ScenarioCaption),
		"",
		line("Scenario", scenario),
		line("Total FFB Production (tonnes)", tonnes(k.TotalFFB)),
		line("Average Yield (t/ha)", rate(k.AverageYield)),
		line("Blocks Above 25 Years", humanize.Comma(int64(k.OldBlocks))),
		line("Blocks Replanted", humanize.Comma(int64(k.ReplantedBlocks))),
		line("Peak Year", fmt.Sprintf("%d (%s t)", k.PeakYear, tonnes(k.PeakAnnualTotal))),
		line("Estate", fmt.Sprintf("%s blocks, %s ha",
			humanize.Comma(int64(k.NumBlocks)), humanize.FormatFloat("#,###.#", k.TotalAreaHa))),
	)
	fmt.Fprintln(w, boxStyle.Render(body))
}

func writeAnnual(w io.Writer, r *models.SimulationResult) {
	t := newTable("Year", "Total FFB (t)", "Replanted")
	for _, a := range r.AnnualTotals {
		t.Row(strconv.Itoa(a.Year), tonnes(a.Total), strconv.Itoa(r.ReplantingsInYear(a.Year)))
	}
	fmt.Fprintln(w, t.Render())
}

func writeRecords(w io.Writer, r *models.SimulationResult, limit int) {
	t := newTable("Year", "Block", "Age", "Stage", "FFB (t/ha)", "Total FFB (t)")
	for i, rec := range r.Records {
		if limit > 0 && i >= limit {
			break
		}
		t.Row(strconv.Itoa(rec.Year), rec.BlockID, strconv.Itoa(rec.Age), string(rec.Stage),
			rate(rec.YieldRate), rate(rec.TotalYield))
	}
	fmt.Fprintln(w, t.Render())
	if limit > 0 && len(r.Records) > limit {
		fmt.Fprintln(w, labelStyle.Render(fmt.Sprintf("... %s more rows", humanize.Comma(int64(len(r.Records)-limit)))))
	}
}

func writeComparison(w io.Writer, c *models.Comparison) {
	t := newTable("Scenario", "Total FFB (t)", "Average Yield (t/ha)", "Blocks Above 25 Years", "Replanted", "vs Moderate")
	for _, row := range c.Rows {
		delta := "n/a"
		if row.HasBaseline {
			delta = fmt.Sprintf("%+.1f%%", row.TotalYieldChange)
		}
		t.Row(row.Scenario, tonnes(row.TotalYield), rate(row.AverageYieldRate),
			strconv.Itoa(row.OldBlockCount), strconv.Itoa(row.Replantings), delta)
	}
	fmt.Fprintln(w, t.Render())
}
