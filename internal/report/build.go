// Package report is the derived-metric and presentation adapter: it
// turns raw query-set output into chart-ready widgets without re-deriving
// any business logic. Truncation, curve anchoring and scalar formatting
// happen here; everything else is the query layer's result, verbatim.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/om2468/stats-insights/internal/analytics"
	"github.com/om2468/stats-insights/internal/config"
)

// Runner is the slice of the query set the adapter consumes. It is
// satisfied by *analytics.Service and mocked in tests.
type Runner interface {
	ConsultingFunnel(ctx context.Context) ([]analytics.FunnelRow, error)
	TrainingFunnel(ctx context.Context) ([]analytics.FunnelRow, error)
	EsriFunnel(ctx context.Context) ([]analytics.FunnelRow, error)
	RevenueConcentration(ctx context.Context) ([]analytics.ConcentrationRow, error)
	TrainingAttachRate(ctx context.Context) (float64, error)
	ServiceBasket(ctx context.Context) ([]analytics.BasketRow, error)
	AvgDaysToTraining(ctx context.Context) (float64, error)
	MonthlyTrend(ctx context.Context) ([]analytics.TrendRow, error)
}

// Params are the user-tunable presentation knobs. Build clamps them into
// bounds, so callers may pass raw user input.
type Params struct {
	TopNAccounts int
	TopNPairs    int
}

func (p Params) normalized() Params {
	if p.TopNAccounts == 0 {
		p.TopNAccounts = config.DefaultTopNAccounts
	}
	if p.TopNPairs == 0 {
		p.TopNPairs = config.DefaultTopNPairs
	}
	p.TopNAccounts = config.ClampAccounts(p.TopNAccounts)
	p.TopNPairs = config.ClampPairs(p.TopNPairs)
	return p
}

// Build evaluates all eight widgets. Each is computed independently: a
// failing query fills that widget's Error and the remaining seven still
// render.
func Build(ctx context.Context, r Runner, p Params) []Widget {
	widgets := make([]Widget, 0, len(analytics.ReportNames))
	for _, name := range analytics.ReportNames {
		w, err := BuildOne(ctx, r, name, p)
		if err != nil {
			// Unknown names cannot happen when iterating ReportNames.
			w = Widget{Name: name, Error: err.Error()}
		}
		widgets = append(widgets, w)
	}
	return widgets
}

// BuildOne evaluates a single named widget. The returned error only
// reports an unknown report name; query failures land in Widget.Error.
func BuildOne(ctx context.Context, r Runner, name string, p Params) (Widget, error) {
	p = p.normalized()

	switch name {
	case analytics.ReportConsultingFunnel:
		rows, err := r.ConsultingFunnel(ctx)
		return funnelWidget(name, "Licenses/Subscriptions → FME Consulting",
			"total_fme_consulting_spend", "FME Consulting Spend", rows, p.TopNAccounts, err), nil
	case analytics.ReportTrainingFunnel:
		rows, err := r.TrainingFunnel(ctx)
		return funnelWidget(name, "Licenses/Subscriptions → FME Training",
			"total_fme_training_spend", "FME Training Spend", rows, p.TopNAccounts, err), nil
	case analytics.ReportEsriFunnel:
		rows, err := r.EsriFunnel(ctx)
		return funnelWidget(name, "Licenses/Subscriptions → Esri Consulting",
			"total_esri_consulting_spend", "Esri Consulting Spend", rows, p.TopNAccounts, err), nil
	case analytics.ReportConcentration:
		rows, err := r.RevenueConcentration(ctx)
		return concentrationWidget(rows, err), nil
	case analytics.ReportAttachRate:
		rate, err := r.TrainingAttachRate(ctx)
		return scalarWidget(name, "Training Attach Rate (%)", "Attach rate",
			rate, FormatPercent, err), nil
	case analytics.ReportServiceBasket:
		rows, err := r.ServiceBasket(ctx)
		return basketWidget(rows, p.TopNPairs, err), nil
	case analytics.ReportTimeToTraining:
		days, err := r.AvgDaysToTraining(ctx)
		return scalarWidget(name, "Avg Days to Training After First Purchase", "Avg days",
			days, FormatDays, err), nil
	case analytics.ReportMonthlyTrend:
		rows, err := r.MonthlyTrend(ctx)
		return trendWidget(rows, err), nil
	default:
		return Widget{}, fmt.Errorf("BuildOne: unknown report %q", name)
	}
}

func funnelWidget(name, title, followColumn, followSeries string, rows []analytics.FunnelRow, n int, err error) Widget {
	w := Widget{Name: name, Title: title}
	if err != nil {
		w.Error = err.Error()
		return w
	}

	table := &Table{Columns: []string{"account", "total_license_subscription_spend", followColumn}}
	for _, r := range rows {
		table.Rows = append(table.Rows, []any{r.Account, r.InitialSpend, r.FollowUpSpend})
	}
	w.Table = table

	if len(rows) == 0 {
		return w
	}

	// Chart keeps only the top accounts by follow-up spend; the table
	// above stays complete.
	top := topN(rows, n, func(r analytics.FunnelRow) float64 { return r.FollowUpSpend })
	initial := ChartSeries{Name: "License+Sub Spend"}
	followUp := ChartSeries{Name: followSeries}
	for _, r := range top {
		initial.Data = append(initial.Data, ChartPoint{Label: r.Account, Value: r.InitialSpend})
		followUp.Data = append(followUp.Data, ChartPoint{Label: r.Account, Value: r.FollowUpSpend})
	}
	w.Chart = &ChartConfig{
		ChartType: "grouped_bar",
		Title:     title,
		XAxis:     "Account",
		YAxis:     "Spend",
		Series:    []ChartSeries{initial, followUp},
	}
	return w
}

func concentrationWidget(rows []analytics.ConcentrationRow, err error) Widget {
	w := Widget{Name: analytics.ReportConcentration, Title: "Revenue Concentration"}
	if err != nil {
		w.Error = err.Error()
		return w
	}

	table := &Table{Columns: []string{"account", "total_revenue", "cumulative_revenue", "cumulative_percentage"}}
	defined := len(rows) > 0
	for _, r := range rows {
		var pct any
		if r.CumulativePercentage != nil {
			pct = *r.CumulativePercentage
		} else {
			defined = false
		}
		table.Rows = append(table.Rows, []any{r.Account, r.TotalRevenue, r.CumulativeRevenue, pct})
	}
	w.Table = table

	if !defined {
		// Zero grand total or empty table: the percentage column has no
		// value, so there is no curve to draw.
		w.NoData = len(rows) == 0 || rows[0].CumulativePercentage == nil
		return w
	}

	// The synthetic rank-0 origin point exists only in the chart series,
	// never in the table.
	series := ChartSeries{Name: "Cumulative % of Revenue"}
	series.Data = append(series.Data, ChartPoint{Label: "0", Value: 0, Hover: "Start"})
	for i, r := range rows {
		series.Data = append(series.Data, ChartPoint{
			Label: strconv.Itoa(i + 1),
			Value: *r.CumulativePercentage,
			Hover: r.Account,
		})
	}
	w.Chart = &ChartConfig{
		ChartType: "line",
		Title:     w.Title,
		XAxis:     "Customers (sorted by revenue)",
		YAxis:     "Cumulative % of Revenue",
		Series:    []ChartSeries{series},
	}
	return w
}

func scalarWidget(name, title, label string, value float64, format func(float64) string, err error) Widget {
	w := Widget{Name: name, Title: title}
	switch {
	case err == nil:
		w.Metric = &Metric{Label: label, Value: format(value)}
	case errors.Is(err, analytics.ErrUndefinedMetric):
		w.NoData = true
		w.Metric = &Metric{Label: label, Value: NoDataIndicator, NoData: true}
	default:
		w.Error = err.Error()
	}
	return w
}

func basketWidget(rows []analytics.BasketRow, n int, err error) Widget {
	w := Widget{Name: analytics.ReportServiceBasket, Title: "Service Combinations (Top N)"}
	if err != nil {
		w.Error = err.Error()
		return w
	}

	table := &Table{Columns: []string{"service_1", "service_2", "number_of_customers"}}
	for _, r := range rows {
		table.Rows = append(table.Rows, []any{r.Service1, r.Service2, r.Customers})
	}
	w.Table = table

	if len(rows) == 0 {
		return w
	}

	top := topN(rows, n, func(r analytics.BasketRow) float64 { return float64(r.Customers) })
	series := ChartSeries{Name: "Customers"}
	for _, r := range top {
		series.Data = append(series.Data, ChartPoint{
			Label: r.Service1 + " + " + r.Service2,
			Value: float64(r.Customers),
		})
	}
	w.Chart = &ChartConfig{
		ChartType: "bar",
		Title:     w.Title,
		XAxis:     "Service pair",
		YAxis:     "Customers",
		Series:    []ChartSeries{series},
	}
	return w
}

func trendWidget(rows []analytics.TrendRow, err error) Widget {
	w := Widget{Name: analytics.ReportMonthlyTrend, Title: "Monthly Revenue by Service Type"}
	if err != nil {
		w.Error = err.Error()
		return w
	}

	table := &Table{Columns: []string{"sales_month", "type", "monthly_revenue"}}
	for _, r := range rows {
		table.Rows = append(table.Rows, []any{r.Month, r.Type, r.Revenue})
	}
	w.Table = table

	if len(rows) == 0 {
		return w
	}

	// One series per type, months in query order (already ascending).
	byType := make(map[string][]ChartPoint)
	for _, r := range rows {
		byType[r.Type] = append(byType[r.Type], ChartPoint{Label: r.Month, Value: r.Revenue})
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	series := make([]ChartSeries, 0, len(types))
	for _, t := range types {
		series = append(series, ChartSeries{Name: t, Data: byType[t]})
	}
	w.Chart = &ChartConfig{
		ChartType: "multi_line",
		Title:     w.Title,
		XAxis:     "Month",
		YAxis:     "Revenue",
		Series:    series,
	}
	return w
}
