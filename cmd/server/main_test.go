package main

import (
	"archive/zip"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"palmopsim/internal/models"
	"palmopsim/internal/services/export"
	"palmopsim/internal/testutil"
)

// setupTestServer wires the real templates against a temp export directory
func setupTestServer(t *testing.T) *testutil.TestServer {
	t.Helper()

	if err := SetupDependencies(testutil.TestConfig(t), nil); err != nil {
		t.Fatalf("Failed to setup dependencies: %v", err)
	}
	return testutil.NewTestServer(t, SetupRouter())
}

func smallRun() url.Values {
	return url.Values{
		"run":    {"1"},
		"years":  {"5"},
		"blocks": {"6"},
		"seed":   {"7"},
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GET("/api/health")
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContentTypeJSON().
		Contains(`"status":"ok"`, `"version":`)
}

func TestRootRedirect(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GET("/")
	testutil.AssertResponse(t, resp).RedirectsTo(http.StatusTemporaryRedirect, "/dashboard")
}

func TestStaticFiles(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GET("/static/js/charts.js")
	testutil.AssertResponse(t, resp).StatusOK()
}

func TestDashboardPrompt(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GET("/dashboard")
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContentTypeHTML().
		HasElement("sim-form").
		HasElement("run-prompt").
		Contains("Run Simulation", "Configure simulation parameters in the sidebar").
		NotContains(`id="kpi-total"`)
}

func TestDashboardRun(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GETWithQuery("/dashboard", smallRun())
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContentTypeHTML().
		HasElement("kpi-total").
		HasElement("kpi-average").
		HasElement("kpi-old").
		HasElement("scenario-caption").
		HasElement("records-table").
		HasElement("chart-annual").
		Contains(
			"Total FFB Production (tonnes)",
			"Average Yield (t/ha)",
			"Blocks Above 25 Years",
			"/dashboard/export.csv?",
		).
		NotContains(`id="run-prompt"`)
}

func TestDashboardPreset(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GETWithQuery("/dashboard", url.Values{"preset": {"drought"}})
	testutil.AssertResponse(t, resp).StatusOK().Contains("drought")

	resp = ts.GETWithQuery("/dashboard", url.Values{"preset": {"no-such-preset"}})
	testutil.AssertResponse(t, resp).StatusBadRequest()
}

func TestDashboardRejectsInvalidInput(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name  string
		query url.Values
	}{
		{"malformed years", url.Values{"run": {"1"}, "years": {"ten"}}},
		{"zero blocks", url.Values{"run": {"1"}, "blocks": {"0"}}},
		{"inverted ages", url.Values{"run": {"1"}, "age_min": {"20"}, "age_max": {"5"}}},
		{"nan fertilizer", url.Values{"run": {"1"}, "fertilizer": {"NaN"}}},
		{"infinite area", url.Values{"run": {"1"}, "area": {"Inf"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.GETWithQuery("/dashboard", tt.query)
			testutil.AssertResponse(t, resp).
				StatusBadRequest().
				Contains("alert-error")
		})
	}
}

func TestKPIsPartial(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GETWithQuery("/dashboard/kpis", smallRun())
	testutil.AssertResponse(t, resp).
		StatusOK().
		HasElement("kpi-total").
		NotContains("<html")
}

func TestChartEndpoints(t *testing.T) {
	ts := setupTestServer(t)

	for _, chart := range []string{"annual", "distribution", "stages"} {
		t.Run(chart, func(t *testing.T) {
			var body models.ChartResponse
			resp := ts.GETWithQuery("/dashboard/charts/data/"+chart, smallRun())
			testutil.AssertResponse(t, resp).
				StatusOK().
				ContentTypeJSON().
				JSON(&body)
			assert.NotEmpty(t, body.Data)
			assert.NotEmpty(t, body.Layout.Title)
		})
	}
}

func TestAnnualChartMatchesHorizon(t *testing.T) {
	ts := setupTestServer(t)

	var body struct {
		Data []struct {
			X []int     `json:"x"`
			Y []float64 `json:"y"`
		} `json:"data"`
	}
	resp := ts.GETWithQuery("/dashboard/charts/data/annual", smallRun())
	testutil.AssertResponse(t, resp).StatusOK().JSON(&body)

	require.Len(t, body.Data, 1)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, body.Data[0].X)
	assert.Len(t, body.Data[0].Y, 5)
}

func TestUnknownChart(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GET("/dashboard/charts/data/pie")
	testutil.AssertResponse(t, resp).
		StatusBadRequest().
		ContentTypeJSON().
		Contains(`"error"`)
}

func TestExportCSV(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GETWithQuery("/dashboard/export.csv", smallRun())
	body := testutil.AssertResponse(t, resp).
		StatusOK().
		ContentType("text/csv").
		Attachment(export.CSVFileName).
		Body()

	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 1+5*6)
	assert.Equal(t, "Year,Block,Age,Planted_Year,FFB_t_ha,Total_FFB_t", strings.TrimSpace(lines[0]))
}

func TestExportXLSX(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GETWithQuery("/dashboard/export.xlsx", smallRun())
	body := testutil.AssertResponse(t, resp).
		StatusOK().
		Attachment(export.XLSXFileName).
		Body()

	f, err := excelize.OpenReader(strings.NewReader(body))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetResults)
	require.NoError(t, err)
	assert.Len(t, rows, 1+5*6)
}

func TestArchive(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Post(ts.BaseURL+"/dashboard/archive?"+smallRun().Encode(), "text/plain", nil)
	require.NoError(t, err)
	testutil.AssertResponse(t, resp).
		StatusOK().
		Contains("Saved 2 file(s)", export.CSVFileName, export.XLSXFileName).
		NotContains("with encryption")

	entries, err := os.ReadDir(cfg.ExportDirectory)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Contains(t, []string{".csv", ".xlsx"}, filepath.Ext(e.Name()))
	}
}

func TestArchiveEncrypted(t *testing.T) {
	c := testutil.TestConfig(t)
	c.ExportPassphrase = "plantation-secret"
	require.NoError(t, SetupDependencies(c, nil))
	ts := testutil.NewTestServer(t, SetupRouter())

	resp, err := http.Post(ts.BaseURL+"/dashboard/archive?"+smallRun().Encode(), "text/plain", nil)
	require.NoError(t, err)
	testutil.AssertResponse(t, resp).StatusOK().Contains("with encryption")

	entries, err := os.ReadDir(c.ExportDirectory)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, strings.HasSuffix(e.Name(), ".age"), e.Name())
	}
}

func TestComparePrompt(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GET("/compare")
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContentTypeHTML().
		HasElement("compare-form").
		HasElement("compare-prompt").
		NotContains(`id="comparison-table"`)
}

func TestCompareScenarios(t *testing.T) {
	ts := setupTestServer(t)

	q := url.Values{
		"scenarios": {models.ScenarioConservative, models.ScenarioModerate},
		"years":     {"5"},
		"blocks":    {"6"},
	}
	resp := ts.GETWithQuery("/compare", q)
	testutil.AssertResponse(t, resp).
		StatusOK().
		HasElement("comparison-table").
		HasElement("chart-compare").
		Contains(models.ScenarioConservative, models.ScenarioModerate)
}

func TestCompareRejectsNonFiniteInput(t *testing.T) {
	ts := setupTestServer(t)

	q := url.Values{
		"run":       {"1"},
		"pest":      {"NaN"},
		"scenarios": {models.ScenarioModerate, models.ScenarioAggressive},
	}
	resp := ts.GETWithQuery("/compare", q)
	testutil.AssertResponse(t, resp).
		StatusBadRequest().
		Contains("pest pressure must be a finite number")

	resp = ts.GETWithQuery("/compare/chart", q)
	testutil.AssertResponse(t, resp).StatusBadRequest().ContentTypeJSON()

	resp = ts.GETWithQuery("/dashboard/kpis", url.Values{"run": {"1"}, "area": {"Inf"}})
	testutil.AssertResponse(t, resp).
		StatusBadRequest().
		Contains("block area must be a finite number")

	// the server is still serving
	resp = ts.GET("/api/health")
	testutil.AssertResponse(t, resp).StatusOK()
}

func TestCompareChart(t *testing.T) {
	ts := setupTestServer(t)

	var body models.ChartResponse
	q := url.Values{
		"scenarios": {models.ScenarioConservative, models.ScenarioModerate, models.ScenarioAggressive},
		"years":     {"5"},
		"blocks":    {"6"},
	}
	resp := ts.GETWithQuery("/compare/chart", q)
	testutil.AssertResponse(t, resp).StatusOK().ContentTypeJSON().JSON(&body)

	require.Len(t, body.Data, 3)
	assert.Equal(t, models.ScenarioConservative, body.Data[0].Name)
	assert.True(t, body.Layout.ShowLegend)

	resp = ts.GET("/compare/chart")
	testutil.AssertResponse(t, resp).
		StatusBadRequest().
		Contains("Select at least one scenario")
}

func archiveRun(t *testing.T, ts *testutil.TestServer) {
	t.Helper()
	resp, err := http.Post(ts.BaseURL+"/dashboard/archive?"+smallRun().Encode(), "text/plain", nil)
	require.NoError(t, err)
	testutil.AssertResponse(t, resp).StatusOK()
}

func TestExportsPageEmpty(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GET("/exports")
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContentTypeHTML().
		HasElement("exports-empty").
		NotContains(`id="exports-table"`)
}

func TestExportsListDownloadDelete(t *testing.T) {
	ts := setupTestServer(t)
	archiveRun(t, ts)

	entries, err := os.ReadDir(cfg.ExportDirectory)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var csvName string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".csv" {
			csvName = e.Name()
		}
	}
	require.NotEmpty(t, csvName)

	resp := ts.GET("/exports")
	testutil.AssertResponse(t, resp).
		StatusOK().
		HasElement("exports-table").
		Contains(csvName, "/exports/backup.zip")

	resp = ts.GET("/exports/files/" + csvName)
	body := testutil.AssertResponse(t, resp).
		StatusOK().
		ContentType("text/csv").
		Attachment(csvName).
		Body()
	assert.True(t, strings.HasPrefix(body, "Year,Block"))

	req, err := http.NewRequest(http.MethodDelete, ts.BaseURL+"/exports/files/"+csvName, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	testutil.AssertResponse(t, resp).StatusOK()
	assert.NoFileExists(t, filepath.Join(cfg.ExportDirectory, csvName))

	resp = ts.GET("/exports/files/" + csvName)
	testutil.AssertResponse(t, resp).Status(http.StatusNotFound)
}

func TestExportsBackupZip(t *testing.T) {
	ts := setupTestServer(t)
	archiveRun(t, ts)

	resp := ts.GET("/exports/backup.zip")
	body := testutil.AssertResponse(t, resp).
		StatusOK().
		ContentType("application/zip").
		Body()

	zr, err := zip.NewReader(strings.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	for _, f := range zr.File {
		assert.Contains(t, []string{".csv", ".xlsx"}, filepath.Ext(f.Name))
	}
}

func TestExportsEncryptedDownload(t *testing.T) {
	c := testutil.TestConfig(t)
	c.ExportPassphrase = "plantation-secret"
	require.NoError(t, SetupDependencies(c, nil))
	ts := testutil.NewTestServer(t, SetupRouter())
	archiveRun(t, ts)

	entries, err := os.ReadDir(c.ExportDirectory)
	require.NoError(t, err)
	var sealed string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".csv.age") {
			sealed = e.Name()
		}
	}
	require.NotEmpty(t, sealed)

	// decrypted on the way out, named without .age
	resp := ts.GET("/exports/files/" + sealed)
	body := testutil.AssertResponse(t, resp).
		StatusOK().
		Attachment(strings.TrimSuffix(sealed, ".age")).
		Body()
	assert.True(t, strings.HasPrefix(body, "Year,Block"))

	// a server without the passphrase cannot open it
	locked := testutil.TestConfig(t)
	locked.ExportDirectory = c.ExportDirectory
	require.NoError(t, SetupDependencies(locked, nil))
	ts2 := testutil.NewTestServer(t, SetupRouter())

	resp = ts2.GET("/exports")
	testutil.AssertResponse(t, resp).StatusOK().HasElement("exports-locked")

	resp = ts2.GET("/exports/files/" + sealed)
	testutil.AssertResponse(t, resp).Status(http.StatusLocked)
}

func TestExportsRejectsPathNames(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GET("/exports/files/..%2Fpresets.yaml")
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
