package dashboard

import (
	"fmt"

	"palmopsim/internal/models"
)

var stageColors = map[models.Stage]string{
	models.StageImmature:  "#a3e635",
	models.StageRamping:   "#22c55e",
	models.StagePeak:      "#15803d",
	models.StageDeclining: "#f59e0b",
	models.StageSenescent: "#b91c1c",
}

func buildAnnualChartData(res *models.SimulationResult) models.ChartResponse {
	years := res.Years()
	totals := make([]float64, len(res.AnnualTotals))
	for i, a := range res.AnnualTotals {
		totals[i] = a.Total
	}

	return models.ChartResponse{
		Data: []models.ChartData{{
			Type:   "scatter",
			Mode:   "lines+markers",
			Name:   "Total FFB",
			X:      years,
			Y:      totals,
			Marker: map[string]string{"color": "#15803d"},
		}},
		Layout: models.ChartLayout{
			Title:      "Annual FFB Production",
			XAxisTitle: "Year",
			YAxisTitle: "Total FFB (tonnes)",
		},
	}
}

func buildDistributionChartData(res *models.SimulationResult) models.ChartResponse {
	dists := stats.YearDistributions(res)
	data := make([]models.ChartData, len(dists))
	for i, d := range dists {
		data[i] = models.ChartData{
			Type:   "box",
			Name:   fmt.Sprintf("Year %d", d.Year),
			Y:      d.Rates,
			Marker: map[string]string{"color": "#16a34a"},
		}
	}

	return models.ChartResponse{
		Data: data,
		Layout: models.ChartLayout{
			Title:      "Block Yield Distribution",
			XAxisTitle: "Year",
			YAxisTitle: "FFB (t/ha)",
		},
	}
}

func buildStageChartData(res *models.SimulationResult) models.ChartResponse {
	mix := stats.StageMix(res)
	labels := make([]string, len(mix))
	counts := make([]int, len(mix))
	colors := make([]string, len(mix))
	for i, sc := range mix {
		labels[i] = string(sc.Stage)
		counts[i] = sc.Count
		colors[i] = stageColors[sc.Stage]
	}

	return models.ChartResponse{
		Data: []models.ChartData{{
			Type:   "bar",
			Name:   "Blocks",
			X:      labels,
			Y:      counts,
			Marker: map[string]interface{}{"color": colors},
		}},
		Layout: models.ChartLayout{
			Title:      fmt.Sprintf("Lifecycle Stages in Year %d", res.Config.SimulationYears),
			XAxisTitle: "Stage",
			YAxisTitle: "Blocks",
		},
	}
}
