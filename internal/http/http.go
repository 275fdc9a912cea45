// Package http holds request parsing and response helpers shared by the
// dashboard handlers.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"palmopsim/internal/models"
	"palmopsim/internal/templates"
)

// Query parameter names of the simulation form
const (
	ParamScenario   = "scenario"
	ParamYears      = "years"
	ParamBlocks     = "blocks"
	ParamArea       = "area"
	ParamAgeMin     = "age_min"
	ParamAgeMax     = "age_max"
	ParamFertilizer = "fertilizer"
	ParamHarvest    = "harvest"
	ParamClimate    = "climate"
	ParamPest       = "pest"
	ParamSeed       = "seed"
)

// RenderTemplate renders a full page template with data
func RenderTemplate(w http.ResponseWriter, renderer *templates.Renderer, templateName string, data map[string]interface{}) {
	if renderer != nil {
		renderer.Render(w, templateName, data)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<html><body><h1>%s</h1><p>Templates not loaded. Check configuration.</p></body></html>",
		html.EscapeString(fmt.Sprint(data["Title"])))
}

// RenderPartial renders a partial template with data
func RenderPartial(w http.ResponseWriter, renderer *templates.Renderer, partialName string, data map[string]interface{}) {
	if renderer != nil {
		renderer.Render(w, partialName, data)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<div><!-- Partial %s not loaded --></div>", html.EscapeString(partialName))
}

// RenderError writes an HTML error fragment for HTMX requests
func RenderError(w http.ResponseWriter, logger *zap.Logger, message string, statusCode int) {
	if logger != nil {
		logger.Warn("request failed", zap.String("error", message), zap.Int("status", statusCode))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	fmt.Fprintf(w, `<div class="alert alert-error" role="alert"><strong>Error</strong><p>%s</p></div>`,
		html.EscapeString(message))
}

// WriteJSON encodes v as the response body
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// JSONError writes {"error": message}
func JSONError(w http.ResponseWriter, logger *zap.Logger, message string, statusCode int) {
	if logger != nil {
		logger.Warn("request failed", zap.String("error", message), zap.Int("status", statusCode))
	}
	WriteJSON(w, statusCode, map[string]string{"error": message})
}

// Attachment sets the headers of a file download
func Attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

// ParseSimulationConfig reads the simulation form from the request query,
// starting from defaults for every missing field. The result is validated;
// malformed numbers and out-of-range values are all reported together.
func ParseSimulationConfig(r *http.Request, defaults models.SimulationConfig) (models.SimulationConfig, error) {
	q := r.URL.Query()
	cfg := defaults
	var errs []error

	if v := q.Get(ParamScenario); v != "" {
		cfg.Scenario = v
	}
	parseInt(q, ParamYears, &cfg.SimulationYears, &errs)
	parseInt(q, ParamBlocks, &cfg.NumBlocks, &errs)
	parseFloat(q, ParamArea, &cfg.BlockAreaHa, &errs)
	parseInt(q, ParamAgeMin, &cfg.InitialAgeMin, &errs)
	parseInt(q, ParamAgeMax, &cfg.InitialAgeMax, &errs)
	parseFloat(q, ParamFertilizer, &cfg.FertilizerPct, &errs)
	parseInt(q, ParamHarvest, &cfg.HarvestIntervalMonths, &errs)
	parseFloat(q, ParamClimate, &cfg.ClimateAdjustmentPct, &errs)
	parseFloat(q, ParamPest, &cfg.PestPressurePct, &errs)

	if v := q.Get(ParamSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q", ParamSeed, v))
		} else {
			cfg.RandomSeed = seed
		}
	}

	if len(errs) > 0 {
		return cfg, errors.Join(errs...)
	}
	return cfg, cfg.Validate()
}

// ConfigValues encodes cfg as simulation form parameters
func ConfigValues(cfg models.SimulationConfig) url.Values {
	v := url.Values{}
	v.Set(ParamScenario, cfg.Scenario)
	v.Set(ParamYears, strconv.Itoa(cfg.SimulationYears))
	v.Set(ParamBlocks, strconv.Itoa(cfg.NumBlocks))
	v.Set(ParamArea, strconv.FormatFloat(cfg.BlockAreaHa, 'f', -1, 64))
	v.Set(ParamAgeMin, strconv.Itoa(cfg.InitialAgeMin))
	v.Set(ParamAgeMax, strconv.Itoa(cfg.InitialAgeMax))
	v.Set(ParamFertilizer, strconv.FormatFloat(cfg.FertilizerPct, 'f', -1, 64))
	v.Set(ParamHarvest, strconv.Itoa(cfg.HarvestIntervalMonths))
	v.Set(ParamClimate, strconv.FormatFloat(cfg.ClimateAdjustmentPct, 'f', -1, 64))
	v.Set(ParamPest, strconv.FormatFloat(cfg.PestPressurePct, 'f', -1, 64))
	v.Set(ParamSeed, strconv.FormatInt(cfg.RandomSeed, 10))
	return v
}

func parseInt(q url.Values, key string, dst *int, errs *[]error) {
	v := q.Get(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q", key, v))
		return
	}
	*dst = n
}

func parseFloat(q url.Values, key string, dst *float64, errs *[]error) {
	v := q.Get(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q", key, v))
		return
	}
	*dst = f
}
