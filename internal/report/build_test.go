package report

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/om2468/stats-insights/internal/analytics"
)

// mockRunner returns canned results per query, with optional errors.
type mockRunner struct {
	funnel        []analytics.FunnelRow
	funnelErr     error
	concentration []analytics.ConcentrationRow
	attachRate    float64
	attachErr     error
	basket        []analytics.BasketRow
	basketErr     error
	days          float64
	daysErr       error
	trend         []analytics.TrendRow
}

func (m *mockRunner) ConsultingFunnel(context.Context) ([]analytics.FunnelRow, error) {
	return m.funnel, m.funnelErr
}
func (m *mockRunner) TrainingFunnel(context.Context) ([]analytics.FunnelRow, error) {
	return m.funnel, m.funnelErr
}
func (m *mockRunner) EsriFunnel(context.Context) ([]analytics.FunnelRow, error) {
	return m.funnel, m.funnelErr
}
func (m *mockRunner) RevenueConcentration(context.Context) ([]analytics.ConcentrationRow, error) {
	return m.concentration, nil
}
func (m *mockRunner) TrainingAttachRate(context.Context) (float64, error) {
	return m.attachRate, m.attachErr
}
func (m *mockRunner) ServiceBasket(context.Context) ([]analytics.BasketRow, error) {
	return m.basket, m.basketErr
}
func (m *mockRunner) AvgDaysToTraining(context.Context) (float64, error) {
	return m.days, m.daysErr
}
func (m *mockRunner) MonthlyTrend(context.Context) ([]analytics.TrendRow, error) {
	return m.trend, nil
}

func pctPtr(v float64) *float64 { return &v }

func TestBuild_AllEightInOrder(t *testing.T) {
	widgets := Build(context.Background(), &mockRunner{attachRate: 50}, Params{})

	if len(widgets) != len(analytics.ReportNames) {
		t.Fatalf("got %d widgets, want %d", len(widgets), len(analytics.ReportNames))
	}
	for i, name := range analytics.ReportNames {
		if widgets[i].Name != name {
			t.Errorf("widget %d = %q, want %q", i, widgets[i].Name, name)
		}
	}
}

func TestBuild_FailureIsIsolated(t *testing.T) {
	m := &mockRunner{
		funnelErr:  errors.New("Catalog Error: table gone"),
		attachRate: 42,
		trend:      []analytics.TrendRow{{Month: "2023-01", Type: "FME Licenses", Revenue: 100}},
	}
	widgets := Build(context.Background(), m, Params{})

	byName := make(map[string]Widget)
	for _, w := range widgets {
		byName[w.Name] = w
	}

	if byName[analytics.ReportConsultingFunnel].Error == "" {
		t.Error("expected error on failing funnel widget")
	}
	if byName[analytics.ReportAttachRate].Error != "" {
		t.Error("attach widget must not inherit the funnel failure")
	}
	if byName[analytics.ReportMonthlyTrend].Chart == nil {
		t.Error("trend widget must still render")
	}
}

func TestFunnelWidget_TruncationAffectsChartOnly(t *testing.T) {
	var rows []analytics.FunnelRow
	for i := 0; i < 40; i++ {
		rows = append(rows, analytics.FunnelRow{
			Account:       fmt.Sprintf("acct-%02d", i),
			InitialSpend:  1000,
			FollowUpSpend: float64(i),
		})
	}
	m := &mockRunner{funnel: rows}

	w, err := BuildOne(context.Background(), m, analytics.ReportConsultingFunnel, Params{TopNAccounts: 10})
	if err != nil {
		t.Fatal(err)
	}

	if got := len(w.Table.Rows); got != 40 {
		t.Errorf("table rows = %d, want full 40", got)
	}
	if got := len(w.Chart.Series[0].Data); got != 10 {
		t.Errorf("chart points = %d, want 10", got)
	}
	// Highest follow-up spend first.
	if w.Chart.Series[1].Data[0].Value != 39 {
		t.Errorf("top follow-up value = %v, want 39", w.Chart.Series[1].Data[0].Value)
	}
	// Both series stay account-aligned.
	if w.Chart.Series[0].Data[0].Label != w.Chart.Series[1].Data[0].Label {
		t.Error("grouped bar series misaligned")
	}
}

func TestConcentrationWidget_OriginPointChartOnly(t *testing.T) {
	m := &mockRunner{concentration: []analytics.ConcentrationRow{
		{Account: "A", TotalRevenue: 300, CumulativeRevenue: 300, CumulativePercentage: pctPtr(60)},
		{Account: "B", TotalRevenue: 200, CumulativeRevenue: 500, CumulativePercentage: pctPtr(100)},
	}}

	w, err := BuildOne(context.Background(), m, analytics.ReportConcentration, Params{})
	if err != nil {
		t.Fatal(err)
	}

	if got := len(w.Table.Rows); got != 2 {
		t.Errorf("table rows = %d, synthetic origin must not leak into the table", got)
	}
	data := w.Chart.Series[0].Data
	if len(data) != 3 {
		t.Fatalf("chart points = %d, want 2 rows + origin", len(data))
	}
	if data[0].Label != "0" || data[0].Value != 0 {
		t.Errorf("first chart point = %+v, want origin (0, 0)", data[0])
	}
	if data[2].Value != 100 {
		t.Errorf("last cumulative percentage = %v, want 100", data[2].Value)
	}
	// Non-decreasing curve.
	for i := 1; i < len(data); i++ {
		if data[i].Value < data[i-1].Value {
			t.Errorf("cumulative percentage decreases at %d: %v -> %v", i, data[i-1].Value, data[i].Value)
		}
	}
	if data[1].Hover != "A" {
		t.Errorf("hover = %q, want account name", data[1].Hover)
	}
}

func TestConcentrationWidget_ZeroGrandTotal(t *testing.T) {
	m := &mockRunner{concentration: []analytics.ConcentrationRow{
		{Account: "A", TotalRevenue: 0, CumulativeRevenue: 0, CumulativePercentage: nil},
	}}

	w, err := BuildOne(context.Background(), m, analytics.ReportConcentration, Params{})
	if err != nil {
		t.Fatal(err)
	}
	if !w.NoData {
		t.Error("zero grand total must surface as no data")
	}
	if w.Chart != nil {
		t.Error("no curve without defined percentages")
	}
	if len(w.Table.Rows) != 1 {
		t.Error("table must still show the raw rows")
	}
}

func TestScalarWidget_AttachRate(t *testing.T) {
	t.Run("defined", func(t *testing.T) {
		m := &mockRunner{attachRate: 33.3333}
		w, _ := BuildOne(context.Background(), m, analytics.ReportAttachRate, Params{})
		if w.Metric == nil || w.Metric.Value != "33.33%" {
			t.Errorf("metric = %+v, want 33.33%%", w.Metric)
		}
	})

	t.Run("undefined is no data, never zero", func(t *testing.T) {
		m := &mockRunner{attachErr: analytics.ErrUndefinedMetric}
		w, _ := BuildOne(context.Background(), m, analytics.ReportAttachRate, Params{})
		if !w.NoData {
			t.Error("expected NoData widget")
		}
		if w.Metric == nil || w.Metric.Value != NoDataIndicator {
			t.Errorf("metric = %+v, want explicit no-data indicator", w.Metric)
		}
		if w.Error != "" {
			t.Error("undefined metric is recoverable, not an error")
		}
	})

	t.Run("engine failure is an error", func(t *testing.T) {
		m := &mockRunner{attachErr: errors.New("IO Error")}
		w, _ := BuildOne(context.Background(), m, analytics.ReportAttachRate, Params{})
		if w.Error == "" || w.NoData {
			t.Errorf("widget = %+v, want error without no-data", w)
		}
	})
}

func TestScalarWidget_AvgDays(t *testing.T) {
	m := &mockRunner{days: 41.5}
	w, _ := BuildOne(context.Background(), m, analytics.ReportTimeToTraining, Params{})
	if w.Metric == nil || w.Metric.Value != "41.50" {
		t.Errorf("metric = %+v, want 41.50", w.Metric)
	}
}

func TestBasketWidget_TopNPairs(t *testing.T) {
	var rows []analytics.BasketRow
	for i := 0; i < 20; i++ {
		rows = append(rows, analytics.BasketRow{
			Service1:  "FME Licenses",
			Service2:  fmt.Sprintf("Service %02d", i),
			Customers: int64(100 - i),
		})
	}
	m := &mockRunner{basket: rows}

	w, err := BuildOne(context.Background(), m, analytics.ReportServiceBasket, Params{TopNPairs: 5})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(w.Chart.Series[0].Data); got != 5 {
		t.Errorf("chart pairs = %d, want 5", got)
	}
	if got := len(w.Table.Rows); got != 20 {
		t.Errorf("table rows = %d, want all 20", got)
	}
	if w.Chart.Series[0].Data[0].Label != "FME Licenses + Service 00" {
		t.Errorf("pair label = %q", w.Chart.Series[0].Data[0].Label)
	}
}

func TestTrendWidget_SeriesPerType(t *testing.T) {
	m := &mockRunner{trend: []analytics.TrendRow{
		{Month: "2023-01", Type: "FME Licenses", Revenue: 100},
		{Month: "2023-01", Type: "FME Subscription", Revenue: 200},
		{Month: "2023-02", Type: "FME Consulting", Revenue: 50},
	}}

	w, err := BuildOne(context.Background(), m, analytics.ReportMonthlyTrend, Params{})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(w.Chart.Series); got != 3 {
		t.Fatalf("series = %d, want one per type", got)
	}
	// Series sorted by type name for stable output.
	if w.Chart.Series[0].Name != "FME Consulting" {
		t.Errorf("first series = %q", w.Chart.Series[0].Name)
	}
	if len(w.Table.Rows) != 3 {
		t.Errorf("table rows = %d", len(w.Table.Rows))
	}
}

func TestParams_Clamped(t *testing.T) {
	var rows []analytics.FunnelRow
	for i := 0; i < 30; i++ {
		rows = append(rows, analytics.FunnelRow{Account: fmt.Sprintf("a%d", i), FollowUpSpend: float64(i)})
	}
	m := &mockRunner{funnel: rows}

	// 2 is below the account-cutoff floor of 10.
	w, _ := BuildOne(context.Background(), m, analytics.ReportTrainingFunnel, Params{TopNAccounts: 2})
	if got := len(w.Chart.Series[0].Data); got != 10 {
		t.Errorf("chart points = %d, want clamped floor 10", got)
	}
}

func TestBuildOne_UnknownReport(t *testing.T) {
	if _, err := BuildOne(context.Background(), &mockRunner{}, "nope", Params{}); err == nil {
		t.Error("expected error for unknown report name")
	}
}

func TestTopN_StableOnTies(t *testing.T) {
	rows := []analytics.BasketRow{
		{Service1: "A", Service2: "B", Customers: 5},
		{Service1: "A", Service2: "C", Customers: 5},
		{Service1: "B", Service2: "C", Customers: 9},
	}
	top := topN(rows, 2, func(r analytics.BasketRow) float64 { return float64(r.Customers) })

	if top[0].Customers != 9 {
		t.Errorf("top[0] = %+v", top[0])
	}
	// Tied rows keep their input order.
	if top[1].Service2 != "B" {
		t.Errorf("tie-break not stable: %+v", top[1])
	}
	// Input untouched.
	if rows[0].Customers != 5 {
		t.Error("topN must not reorder its input")
	}
}
