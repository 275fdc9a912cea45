package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"palmopsim/internal/config"
	apphttp "palmopsim/internal/http"
	"palmopsim/internal/models"
	"palmopsim/internal/services/export"
	"palmopsim/internal/services/metrics"
	"palmopsim/internal/services/results"
	"palmopsim/internal/services/storage"
	"palmopsim/internal/templates"
)

var (
	renderer *templates.Renderer
	cache    *results.Cache
	presets  *config.Presets
	store    *storage.Storage
	logger   = zap.NewNop()
	stats    = metrics.New()
)

// Initialize sets up the dashboard package with required dependencies.
// store may be nil, which disables archiving.
func Initialize(r *templates.Renderer, c *results.Cache, p *config.Presets, s *storage.Storage, l *zap.Logger) {
	renderer = r
	cache = c
	presets = p
	store = s
	if l != nil {
		logger = l
	}
}

// RegisterRoutes registers all dashboard routes
func RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", handleDashboard)
	r.Get("/dashboard/kpis", handleKPIsPartial)
	r.Get("/dashboard/charts/data/{chartType}", handleChartData)
	r.Get("/dashboard/export.csv", handleExportCSV)
	r.Get("/dashboard/export.xlsx", handleExportXLSX)
	r.Post("/dashboard/archive", handleArchive)
}

// baseConfig returns the form defaults, from the named preset when given
func baseConfig(r *http.Request) (models.SimulationConfig, string, error) {
	name := r.URL.Query().Get("preset")
	if presets == nil {
		return models.DefaultSimulationConfig(), "", nil
	}
	cfg, err := presets.Get(name)
	return cfg, name, err
}

// parseConfig combines the preset defaults with the submitted form values
func parseConfig(r *http.Request) (models.SimulationConfig, error) {
	base, _, err := baseConfig(r)
	if err != nil {
		return base, err
	}
	return apphttp.ParseSimulationConfig(r, base)
}

func presetNames() []string {
	if presets == nil {
		return nil
	}
	return presets.Names()
}

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	base, presetName, err := baseConfig(r)
	if err != nil {
		apphttp.RenderError(w, logger, err.Error(), http.StatusBadRequest)
		return
	}

	pageData := map[string]interface{}{
		"Title":     "PalmOpsSim Dashboard",
		"ActiveTab": "dashboard",
		"Scenarios": models.Scenarios(),
		"Presets":   presetNames(),
		"Preset":    presetName,
		"Config":    base,
		"Ran":       false,
		"Archiving": store != nil,
	}

	if r.URL.Query().Get("run") != "1" {
		apphttp.RenderTemplate(w, renderer, "base", pageData)
		return
	}

	cfg, err := apphttp.ParseSimulationConfig(r, base)
	if err != nil {
		apphttp.RenderError(w, logger, err.Error(), http.StatusBadRequest)
		return
	}

	result := cache.Run(cfg)

	pageData["Config"] = cfg
	pageData["Ran"] = true
	pageData["Result"] = result
	pageData["KPIs"] = stats.CalculateKPIs(result)
	pageData["Query"] = template.URL(apphttp.ConfigValues(cfg).Encode())

	apphttp.RenderTemplate(w, renderer, "base", pageData)
}

func handleKPIsPartial(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseConfig(r)
	if err != nil {
		apphttp.RenderError(w, logger, err.Error(), http.StatusBadRequest)
		return
	}

	result := cache.Run(cfg)
	apphttp.RenderPartial(w, renderer, "kpi-cards", map[string]interface{}{
		"KPIs": stats.CalculateKPIs(result),
	})
}

func handleChartData(w http.ResponseWriter, r *http.Request) {
	chartType := chi.URLParam(r, "chartType")

	cfg, err := parseConfig(r)
	if err != nil {
		apphttp.JSONError(w, logger, err.Error(), http.StatusBadRequest)
		return
	}

	var build func(*models.SimulationResult) models.ChartResponse
	switch chartType {
	case "annual":
		build = buildAnnualChartData
	case "distribution":
		build = buildDistributionChartData
	case "stages":
		build = buildStageChartData
	default:
		apphttp.JSONError(w, logger, "Unknown chart type", http.StatusBadRequest)
		return
	}

	apphttp.WriteJSON(w, http.StatusOK, build(cache.Run(cfg)))
}

func handleExportCSV(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseConfig(r)
	if err != nil {
		apphttp.RenderError(w, logger, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, cache.Run(cfg)); err != nil {
		apphttp.RenderError(w, logger, "Failed to build CSV: "+err.Error(), http.StatusInternalServerError)
		return
	}

	apphttp.Attachment(w, "text/csv; charset=utf-8", export.CSVFileName)
	w.Write(buf.Bytes())
}

func handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseConfig(r)
	if err != nil {
		apphttp.RenderError(w, logger, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, cache.Run(cfg)); err != nil {
		apphttp.RenderError(w, logger, "Failed to build workbook: "+err.Error(), http.StatusInternalServerError)
		return
	}

	apphttp.Attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.XLSXFileName)
	w.Write(buf.Bytes())
}

// handleArchive writes the CSV and XLSX exports of a run into the export
// directory, named after the config hash.
func handleArchive(w http.ResponseWriter, r *http.Request) {
	if store == nil {
		apphttp.RenderError(w, logger, "Export archive is not configured", http.StatusServiceUnavailable)
		return
	}

	cfg, err := parseConfig(r)
	if err != nil {
		apphttp.RenderError(w, logger, err.Error(), http.StatusBadRequest)
		return
	}
	result := cache.Run(cfg)
	prefix := results.ConfigHash(cfg)

	var csvBuf, xlsxBuf bytes.Buffer
	if err := export.WriteCSV(&csvBuf, result); err != nil {
		apphttp.RenderError(w, logger, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := export.WriteXLSX(&xlsxBuf, result); err != nil {
		apphttp.RenderError(w, logger, err.Error(), http.StatusInternalServerError)
		return
	}

	files := []struct {
		name string
		data []byte
	}{
		{prefix + "_" + export.CSVFileName, csvBuf.Bytes()},
		{prefix + "_" + export.XLSXFileName, xlsxBuf.Bytes()},
	}

	var saved []string
	for _, f := range files {
		path, err := store.WriteExport(f.name, f.data)
		if err != nil {
			apphttp.RenderError(w, logger, fmt.Sprintf("Failed to save %s: %v", f.name, err), http.StatusInternalServerError)
			return
		}
		saved = append(saved, path)
	}

	logger.Info("exports archived", zap.String("run_id", result.RunID), zap.Strings("paths", saved))
	apphttp.RenderPartial(w, renderer, "archive-result", map[string]interface{}{
		"Saved":     saved,
		"Encrypted": store.IsEncrypting(),
	})
}
