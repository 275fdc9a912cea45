package compare

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"palmopsim/internal/config"
	apphttp "palmopsim/internal/http"
	"palmopsim/internal/models"
	"palmopsim/internal/services/comparison"
	"palmopsim/internal/templates"
)

var (
	renderer *templates.Renderer
	runner   *comparison.Runner
	presets  *config.Presets
	logger   = zap.NewNop()
)

var lineColors = map[string]string{
	models.ScenarioConservative: "#0ea5e9",
	models.ScenarioModerate:     "#15803d",
	models.ScenarioAggressive:   "#f97316",
}

// Initialize sets up the compare package with required dependencies
func Initialize(r *templates.Renderer, cr *comparison.Runner, p *config.Presets, l *zap.Logger) {
	renderer = r
	runner = cr
	presets = p
	if l != nil {
		logger = l
	}
}

// RegisterRoutes registers all comparison routes
func RegisterRoutes(r chi.Router) {
	r.Get("/compare", handleCompare)
	r.Get("/compare/chart", handleCompareChart)
}

func selectedScenarios(r *http.Request) []string {
	var out []string
	for _, s := range r.URL.Query()["scenarios"] {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseConfig(r *http.Request) (models.SimulationConfig, error) {
	base := models.DefaultSimulationConfig()
	if presets != nil {
		p, err := presets.Get(r.URL.Query().Get("preset"))
		if err != nil {
			return base, err
		}
		base = p
	}
	return apphttp.ParseSimulationConfig(r, base)
}

func handleCompare(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseConfig(r)
	if err != nil {
		apphttp.RenderError(w, logger, err.Error(), http.StatusBadRequest)
		return
	}

	selected := selectedScenarios(r)
	pageData := map[string]interface{}{
		"Title":     "Scenario Comparison",
		"ActiveTab": "compare",
		"Scenarios": models.Scenarios(),
		"Selected":  selected,
		"Config":    cfg,
		"Query":     template.URL(chartQuery(cfg, selected)),
	}

	if len(selected) > 0 {
		cmp, err := runner.Compare(r.Context(), cfg, selected)
		if err != nil {
			apphttp.RenderError(w, logger, err.Error(), http.StatusInternalServerError)
			return
		}
		pageData["Comparison"] = cmp
	}

	apphttp.RenderTemplate(w, renderer, "base", pageData)
}

// chartQuery rebuilds the query string for the chart request from parsed values
func chartQuery(cfg models.SimulationConfig, selected []string) string {
	v := apphttp.ConfigValues(cfg)
	for _, s := range selected {
		v.Add("scenarios", s)
	}
	return v.Encode()
}

func handleCompareChart(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseConfig(r)
	if err != nil {
		apphttp.JSONError(w, logger, err.Error(), http.StatusBadRequest)
		return
	}

	cmp, err := runner.Compare(r.Context(), cfg, selectedScenarios(r))
	if errors.Is(err, comparison.ErrNoScenarios) {
		apphttp.JSONError(w, logger, "Select at least one scenario", http.StatusBadRequest)
		return
	}
	if err != nil {
		apphttp.JSONError(w, logger, err.Error(), http.StatusInternalServerError)
		return
	}

	apphttp.WriteJSON(w, http.StatusOK, buildComparisonChartData(cmp))
}

func buildComparisonChartData(cmp *models.Comparison) models.ChartResponse {
	var data []models.ChartData
	for _, name := range cmp.Scenarios() {
		res := cmp.Results[name]
		totals := make([]float64, len(res.AnnualTotals))
		for i, a := range res.AnnualTotals {
			totals[i] = a.Total
		}

		trace := models.ChartData{
			Type: "scatter",
			Mode: "lines+markers",
			Name: name,
			X:    res.Years(),
			Y:    totals,
		}
		if c, ok := lineColors[name]; ok {
			trace.Marker = map[string]string{"color": c}
		}
		data = append(data, trace)
	}

	return models.ChartResponse{
		Data: data,
		Layout: models.ChartLayout{
			Title:      "Annual FFB by Scenario",
			XAxisTitle: "Year",
			YAxisTitle: "Total FFB (tonnes)",
			ShowLegend: true,
		},
	}
}
