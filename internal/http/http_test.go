package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palmopsim/internal/models"
)

func TestParseSimulationConfigDefaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	cfg, err := ParseSimulationConfig(req, models.DefaultSimulationConfig())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSimulationConfig(), cfg)
}

func TestParseSimulationConfigValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/dashboard?scenario=Aggressive&years=20&blocks=15&area=12.5&age_min=4&age_max=9&fertilizer=7.5&harvest=18&climate=-3&pest=12&seed=-8", nil)

	cfg, err := ParseSimulationConfig(req, models.DefaultSimulationConfig())
	require.NoError(t, err)

	assert.Equal(t, models.SimulationConfig{
		Scenario:              models.ScenarioAggressive,
		SimulationYears:       20,
		NumBlocks:             15,
		BlockAreaHa:           12.5,
		InitialAgeMin:         4,
		InitialAgeMax:         9,
		FertilizerPct:         7.5,
		HarvestIntervalMonths: 18,
		ClimateAdjustmentPct:  -3,
		PestPressurePct:       12,
		RandomSeed:            -8,
	}, cfg)
}

func TestParseSimulationConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"malformed numbers", "years=ten&area=big&seed=x", []string{`invalid years "ten"`, `invalid area "big"`, `invalid seed "x"`}},
		{"out of range", "years=31&blocks=0&pest=101", []string{"simulation years", "number of blocks", "pest pressure"}},
		{"inverted age range", "age_min=10&age_max=5", []string{"initial age range"}},
		{"nan fertilizer", "fertilizer=NaN", []string{"fertilizer must be a finite number"}},
		{"nan pest", "pest=NaN", []string{"pest pressure must be a finite number"}},
		{"nan climate", "climate=nan", []string{"climate adjustment must be a finite number"}},
		{"nan area", "area=NaN", []string{"block area must be a finite number"}},
		{"infinite area", "area=Inf", []string{"block area must be a finite number"}},
		{"negative infinite climate", "climate=-Inf", []string{"climate adjustment must be a finite number"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/dashboard?"+tt.query, nil)
			_, err := ParseSimulationConfig(req, models.DefaultSimulationConfig())
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestUnknownScenarioAccepted(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard?scenario=Bullish", nil)

	cfg, err := ParseSimulationConfig(req, models.DefaultSimulationConfig())
	require.NoError(t, err)
	assert.Equal(t, "Bullish", cfg.Scenario)
}

func TestConfigValuesRoundTrip(t *testing.T) {
	want := models.DefaultSimulationConfig()
	want.Scenario = models.ScenarioModerate
	want.BlockAreaHa = 31.25
	want.ClimateAdjustmentPct = -12.5
	want.RandomSeed = 123456789

	req := httptest.NewRequest(http.MethodGet, "/dashboard?"+ConfigValues(want).Encode(), nil)
	got, err := ParseSimulationConfig(req, models.SimulationConfig{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRenderError(t *testing.T) {
	w := httptest.NewRecorder()
	RenderError(w, nil, "<bad> input", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "&lt;bad&gt; input")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	JSONError(w, nil, "unknown chart type", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"unknown chart type"}`, w.Body.String())
}

func TestAttachment(t *testing.T) {
	w := httptest.NewRecorder()
	Attachment(w, "text/csv", "PalmOpsSim_Results.csv")

	assert.Equal(t, `attachment; filename="PalmOpsSim_Results.csv"`, w.Header().Get("Content-Disposition"))
}
