package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type endpoint struct {
	path        string
	contentType string
	contains    []string
}

const smokeQuery = "run=1&years=3&blocks=4"

var endpoints = []endpoint{
	{path: "/dashboard", contentType: "text/html", contains: []string{"Run Simulation"}},
	{path: "/dashboard?" + smokeQuery, contentType: "text/html", contains: []string{"Total FFB Production (tonnes)", "Average Yield (t/ha)", "Blocks Above 25 Years"}},
	{path: "/dashboard/kpis?" + smokeQuery, contentType: "text/html", contains: []string{"kpi-total"}},
	{path: "/dashboard/charts/data/annual?" + smokeQuery, contentType: "application/json"},
	{path: "/dashboard/charts/data/distribution?" + smokeQuery, contentType: "application/json"},
	{path: "/dashboard/charts/data/stages?" + smokeQuery, contentType: "application/json"},
	{path: "/dashboard/export.csv?" + smokeQuery, contentType: "text/csv", contains: []string{"Year,Block,Age,Planted_Year,FFB_t_ha,Total_FFB_t"}},
	{path: "/dashboard/export.xlsx?" + smokeQuery, contentType: "spreadsheetml"},
	{path: "/compare", contentType: "text/html", contains: []string{"Scenario Comparison"}},
	{path: "/compare/chart?scenarios=Conservative&scenarios=Moderate&years=3&blocks=4", contentType: "application/json"},
	{path: "/api/health", contentType: "application/json", contains: []string{`"status":"ok"`}},
}

type checkResult struct {
	endpoint endpoint
	status   int
	duration time.Duration
	err      error
}

func (r checkResult) ok() bool {
	return r.err == nil && r.status == http.StatusOK
}

func (a *app) newValidateCmd() *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
		list    bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Smoke-check the endpoints of a running dashboard server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			client := &http.Client{Timeout: timeout}

			fmt.Fprintf(out, "Validating server at %s (%d endpoints)\n\n", baseURL, len(endpoints))

			var failed int
			for _, ep := range endpoints {
				r := checkEndpoint(cmd.Context(), client, baseURL, ep)
				a.logger.Debug("endpoint checked",
					zap.String("path", ep.path),
					zap.Int("status", r.status),
					zap.Duration("duration", r.duration))

				switch {
				case r.err != nil:
					failed++
					fmt.Fprintf(out, "FAIL %s\n     %v\n", ep.path, r.err)
				case r.status != http.StatusOK:
					failed++
					fmt.Fprintf(out, "FAIL %s\n     status %d (expected 200)\n", ep.path, r.status)
				case list:
					fmt.Fprintf(out, "PASS %s (%v)\n", ep.path, r.duration.Round(time.Millisecond))
				}
			}

			fmt.Fprintf(out, "\nResults: %d passed, %d failed\n", len(endpoints)-failed, failed)
			if failed > 0 {
				return fmt.Errorf("%d endpoint(s) failed", failed)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the server to validate")
	f.DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	f.BoolVar(&list, "list", false, "Also print passing endpoints")
	return cmd
}

func checkEndpoint(ctx context.Context, client *http.Client, baseURL string, ep endpoint) checkResult {
	start := time.Now()
	res := checkResult{endpoint: ep}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+ep.path, nil)
	if err != nil {
		res.err = fmt.Errorf("failed to create request: %w", err)
		return res
	}

	resp, err := client.Do(req)
	if err != nil {
		res.err = fmt.Errorf("request failed: %w", err)
		return res
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	res.duration = time.Since(start)
	res.status = resp.StatusCode
	if err != nil {
		res.err = fmt.Errorf("failed to read body: %w", err)
		return res
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, ep.contentType) {
		res.err = fmt.Errorf("wrong content type: got %q, expected %q", ct, ep.contentType)
		return res
	}

	if ep.contentType == "application/json" {
		var js interface{}
		if err := json.Unmarshal(body, &js); err != nil {
			res.err = fmt.Errorf("invalid JSON: %w", err)
			return res
		}
	}

	for _, needle := range ep.contains {
		if !strings.Contains(string(body), needle) {
			res.err = fmt.Errorf("missing expected content: %q", needle)
			return res
		}
	}
	return res
}
