package models

// DashboardKPIs contains the scalar KPIs shown on the dashboard
type DashboardKPIs struct {
	TotalFFB        float64 `json:"total_ffb"`     // tonnes, rounded to 1 decimal
	AverageYield    float64 `json:"average_yield"` // t/ha, rounded to 2 decimals
	OldBlocks       int     `json:"old_blocks"`
	ReplantedBlocks int     `json:"replanted_blocks"`
	PeakAnnualTotal float64 `json:"peak_annual_total"`
	PeakYear        int     `json:"peak_year"`
	SimulationYears int     `json:"simulation_years"`
	NumBlocks       int     `json:"num_blocks"`
	TotalAreaHa     float64 `json:"total_area_ha"`

	ScenarioName    string `json:"scenario"`
	ScenarioKnown   bool   `json:"scenario_known"`
	ScenarioCaption string `json:"scenario_caption"`

	// Sparkline values
	AnnualTrend      []float64 `json:"annual_trend"`
	AnnualTrendYears []int     `json:"annual_trend_years"`
}

// YearDistribution summarises the per-block yield rates of one year
type YearDistribution struct {
	Year   int       `json:"year"`
	Min    float64   `json:"min"`
	Q1     float64   `json:"q1"`
	Median float64   `json:"median"`
	Q3     float64   `json:"q3"`
	Max    float64   `json:"max"`
	Mean   float64   `json:"mean"`
	Rates  []float64 `json:"rates"`
}

// StageCount is the number of blocks in a lifecycle stage
type StageCount struct {
	Stage Stage `json:"stage"`
	Count int   `json:"count"`
}

// ChartData represents data for a Plotly chart
type ChartData struct {
	Type   string      `json:"type"`           // bar, box, scatter
	X      interface{} `json:"x,omitempty"`    // x-axis values
	Y      interface{} `json:"y,omitempty"`    // y-axis values
	Name   string      `json:"name,omitempty"` // series name
	Mode   string      `json:"mode,omitempty"` // for scatter: lines, markers, lines+markers
	Marker interface{} `json:"marker,omitempty"`
}

// ChartResponse wraps chart data with layout options
type ChartResponse struct {
	Data   []ChartData `json:"data"`
	Layout ChartLayout `json:"layout"`
}

// ChartLayout defines Plotly layout options
type ChartLayout struct {
	Title      string `json:"title,omitempty"`
	XAxisTitle string `json:"xaxis_title,omitempty"`
	YAxisTitle string `json:"yaxis_title,omitempty"`
	BarMode    string `json:"barmode,omitempty"` // group, stack
	ShowLegend bool   `json:"showlegend,omitempty"`
}
