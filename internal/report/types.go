package report

// ChartPoint is one plotted value. Hover carries extra tooltip text
// (the account name on the concentration curve) and stays empty
// elsewhere.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Hover string  `json:"hover,omitempty"`
}

// ChartSeries is a named sequence of points.
type ChartSeries struct {
	Name string       `json:"name"`
	Data []ChartPoint `json:"data"`
}

// ChartConfig is a render-ready chart description. The API emits it as
// JSON; drawing is the client's concern.
type ChartConfig struct {
	ChartType string        `json:"chart_type"` // "bar", "grouped_bar", "line", "multi_line"
	Title     string        `json:"title"`
	XAxis     string        `json:"x_axis,omitempty"`
	YAxis     string        `json:"y_axis,omitempty"`
	Series    []ChartSeries `json:"series"`
}

// Metric is a formatted scalar display. When NoData is set, Value holds
// the explicit no-data indicator, never a zero.
type Metric struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	NoData bool   `json:"no_data"`
}

// Table is the full, untruncated tabular result of one query: an
// ordered sequence of named columns and the row cells in column order.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Widget is one dashboard cell: a chart and/or metric plus the raw
// table. Widgets fail independently; Error is set in place of content
// and never aborts sibling widgets.
type Widget struct {
	Name   string       `json:"name"`
	Title  string       `json:"title"`
	Chart  *ChartConfig `json:"chart,omitempty"`
	Metric *Metric      `json:"metric,omitempty"`
	Table  *Table       `json:"table,omitempty"`
	NoData bool         `json:"no_data,omitempty"`
	Error  string       `json:"error,omitempty"`
}
