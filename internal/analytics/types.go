package analytics

import (
	"errors"

	"cloud.google.com/go/civil"
)

// ErrUndefinedMetric marks a recoverable empty-set or zero-division
// condition: the metric has no value, which is different from zero.
// Callers render it as "no data" and keep the other widgets alive.
var ErrUndefinedMetric = errors.New("metric undefined for this data")

// Transaction is one row of the analytical source table.
type Transaction struct {
	Account string     `json:"account"`
	Type    string     `json:"type"`
	Date    civil.Date `json:"date"`
	Credit  float64    `json:"credit"`
}

// Core product types. A customer's relationship starts with one of these;
// every funnel and attach metric is anchored on them.
const (
	TypeLicenses     = "FME Licenses"
	TypeSubscription = "FME Subscription"
	TypeConsulting   = "FME Consulting"
	TypeTraining     = "FME Training"
	TypeEsri         = "Esri Consulting"
)

// FunnelRow pairs an account's core-product spend with its follow-up
// service spend after the first core purchase. Accounts with no
// qualifying follow-up spend never appear.
type FunnelRow struct {
	Account       string  `json:"account"`
	InitialSpend  float64 `json:"total_license_subscription_spend"`
	FollowUpSpend float64 `json:"follow_up_spend"`
}

// ConcentrationRow is one account in the Pareto ranking of revenue.
// CumulativePercentage is nil when the grand total is zero.
type ConcentrationRow struct {
	Account              string   `json:"account"`
	TotalRevenue         float64  `json:"total_revenue"`
	CumulativeRevenue    float64  `json:"cumulative_revenue"`
	CumulativePercentage *float64 `json:"cumulative_percentage"`
}

// BasketRow counts accounts holding at least one transaction of each of
// two distinct service types. Service1 < Service2 always; each unordered
// pair appears exactly once.
type BasketRow struct {
	Service1  string `json:"service_1"`
	Service2  string `json:"service_2"`
	Customers int64  `json:"number_of_customers"`
}

// TrendRow is summed credit for one (calendar month, type) group.
type TrendRow struct {
	Month   string  `json:"sales_month"`
	Type    string  `json:"type"`
	Revenue float64 `json:"monthly_revenue"`
}

// SourceSummary describes the table behind a session, for inspection.
type SourceSummary struct {
	Table        string     `json:"table"`
	Rows         int64      `json:"rows"`
	Accounts     int64      `json:"accounts"`
	Types        []string   `json:"types"`
	EarliestDate civil.Date `json:"earliest_date"`
	LatestDate   civil.Date `json:"latest_date"`
}
