package templates

import (
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"palmopsim/internal/models"
)

// FuncMap returns the helpers available to every template
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatTonnes":  formatTonnes,
		"formatRate":    formatRate,
		"formatInt":     formatInt,
		"formatPercent": formatPercent,
		"formatArea":    formatArea,
		"formatBytes":   func(n int64) string { return humanize.Bytes(uint64(n)) },
		"timeAgo":       humanize.Time,
		"ordinal":       humanize.Ordinal,
		"add":           func(a, b int) int { return a + b },
		"seq":           seq,
		"dict":          dict,
		"json":          toJSON,
		"lower":         strings.ToLower,
		"contains":      contains,
		"stageClass":    stageClass,
		"deltaClass":    deltaClass,
	}
}

// formatTonnes formats a production figure with thousands separators and 1 decimal
func formatTonnes(v float64) string {
	return humanize.FormatFloat("#,###.#", roundHalfAway(v, 1))
}

// formatRate formats a per-hectare rate with 2 decimals
func formatRate(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatInt(v int) string {
	return humanize.Comma(int64(v))
}

func formatArea(v float64) string {
	return humanize.FormatFloat("#,###.#", v) + " ha"
}

func formatPercent(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.1f%%", v)
	}
	return fmt.Sprintf("%.1f%%", v)
}

func roundHalfAway(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func seq(start, end int) []int {
	if end < start {
		return nil
	}
	out := make([]int, end-start+1)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// dict creates a map from key-value pairs
func dict(values ...interface{}) map[string]interface{} {
	if len(values)%2 != 0 {
		return nil
	}
	out := make(map[string]interface{}, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		out[key] = values[i+1]
	}
	return out
}

func toJSON(v interface{}) template.JS {
	data, err := json.Marshal(v)
	if err != nil {
		return template.JS("null")
	}
	return template.JS(data)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func stageClass(s models.Stage) string {
	switch s {
	case models.StageImmature:
		return "stage-immature"
	case models.StageRamping:
		return "stage-ramping"
	case models.StagePeak:
		return "stage-peak"
	case models.StageDeclining:
		return "stage-declining"
	default:
		return "stage-senescent"
	}
}

func deltaClass(v float64) string {
	switch {
	case v > 0:
		return "delta-up"
	case v < 0:
		return "delta-down"
	}
	return "delta-flat"
}
