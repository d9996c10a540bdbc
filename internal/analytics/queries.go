package analytics

import "fmt"

// Report names, stable across the API, the CLI and the cache.
const (
	ReportConsultingFunnel = "consulting-funnel"
	ReportTrainingFunnel   = "training-funnel"
	ReportEsriFunnel       = "esri-funnel"
	ReportConcentration    = "revenue-concentration"
	ReportAttachRate       = "training-attach-rate"
	ReportServiceBasket    = "service-basket"
	ReportTimeToTraining   = "time-to-training"
	ReportMonthlyTrend     = "monthly-trend"
)

// ReportNames lists the eight reports in dashboard order.
var ReportNames = []string{
	ReportConsultingFunnel,
	ReportTrainingFunnel,
	ReportEsriFunnel,
	ReportConcentration,
	ReportAttachRate,
	ReportServiceBasket,
	ReportTimeToTraining,
	ReportMonthlyTrend,
}

// funnelTemplate computes core-product spend per account alongside the
// spend on one follow-up service, counting only follow-up transactions
// dated strictly after the account's first core purchase. The final join
// is inner on purpose: an account with no qualifying follow-up spend is
// excluded, not zero-filled.
//
// %[1]s = validated table identifier, %[2]s = follow-up type literal,
// %[3]s = output column name for the follow-up spend.
const funnelTemplate = `
WITH FirstInitialPurchase AS (
  SELECT account, MIN(date) AS first_initial_date
  FROM %[1]s
  WHERE type IN ('FME Licenses', 'FME Subscription')
  GROUP BY account
), InitialSpend AS (
  SELECT account, SUM(credit)::DOUBLE AS total_license_subscription_spend
  FROM %[1]s
  WHERE type IN ('FME Licenses', 'FME Subscription')
  GROUP BY account
), FollowUpSpend AS (
  SELECT fip.account, SUM(ad.credit)::DOUBLE AS %[3]s
  FROM %[1]s AS ad
  JOIN FirstInitialPurchase AS fip ON ad.account = fip.account
  WHERE ad.type = '%[2]s' AND ad.date > fip.first_initial_date
  GROUP BY fip.account
)
SELECT i.account, i.total_license_subscription_spend, f.%[3]s
FROM InitialSpend AS i
JOIN FollowUpSpend AS f ON i.account = f.account
ORDER BY i.account;`

// concentrationTemplate ranks accounts by total revenue and computes the
// running cumulative share of the grand total. Equal revenues tie-break
// on account ascending, in the window frame and the output order both,
// so re-runs are bit-identical. NULLIF keeps a zero grand total from
// dividing; the percentage column is then NULL on every row.
const concentrationTemplate = `
WITH CustomerTotalRevenue AS (
  SELECT account, SUM(credit)::DOUBLE AS total_revenue
  FROM %[1]s
  GROUP BY account
), RunningTotal AS (
  SELECT account, total_revenue,
         SUM(total_revenue) OVER (ORDER BY total_revenue DESC, account ASC) AS cumulative_revenue
  FROM CustomerTotalRevenue
)
SELECT account, total_revenue, cumulative_revenue,
       cumulative_revenue / NULLIF((SELECT SUM(total_revenue) FROM CustomerTotalRevenue), 0) * 100 AS cumulative_percentage
FROM RunningTotal
ORDER BY total_revenue DESC, account ASC;`

// attachTemplate computes the share of core-product accounts that also
// bought training, as a percentage. A zero denominator yields NULL, not
// an error and not 0%.
const attachTemplate = `
WITH CoreProductCustomers AS (
  SELECT DISTINCT account FROM %[1]s
  WHERE type IN ('FME Licenses', 'FME Subscription')
), AttachServiceCustomers AS (
  SELECT DISTINCT account FROM %[1]s
  WHERE type = 'FME Training'
)
SELECT (SELECT COUNT(*) FROM AttachServiceCustomers WHERE account IN (SELECT account FROM CoreProductCustomers)) * 100.0 /
       NULLIF((SELECT COUNT(*) FROM CoreProductCustomers), 0) AS training_attach_rate_percentage;`

// basketTemplate counts distinct accounts per unordered pair of distinct
// service types. The a1.type < a2.type join condition is only there to
// emit each unordered pair once.
const basketTemplate = `
SELECT a1.type AS service_1, a2.type AS service_2, COUNT(DISTINCT a1.account) AS number_of_customers
FROM %[1]s a1
JOIN %[1]s a2 ON a1.account = a2.account AND a1.type < a2.type
GROUP BY service_1, service_2
ORDER BY number_of_customers DESC, service_1, service_2;`

// timeToTrainingTemplate averages, over qualifying accounts only, the gap
// between the first core purchase and the first training purchase that
// came after it.
const timeToTrainingTemplate = `
WITH FirstPurchase AS (
  SELECT account, MIN(date) AS first_date
  FROM %[1]s
  WHERE type IN ('FME Licenses', 'FME Subscription')
  GROUP BY account
), FirstFollowUp AS (
  SELECT t.account, MIN(t.date) AS first_training_date
  FROM %[1]s t
  JOIN FirstPurchase fp ON t.account = fp.account
  WHERE t.type = 'FME Training' AND t.date > fp.first_date
  GROUP BY t.account
)
SELECT AVG(first_training_date - first_date) AS avg_days_to_training
FROM FirstPurchase fp
JOIN FirstFollowUp ff ON fp.account = ff.account;`

// trendTemplate groups credit by calendar month and type.
const trendTemplate = `
SELECT strftime(date, '%%Y-%%m') AS sales_month, type, SUM(credit)::DOUBLE AS monthly_revenue
FROM %[1]s
GROUP BY sales_month, type
ORDER BY sales_month, type;`

func funnelSQL(table, followUpType, column string) string {
	return fmt.Sprintf(funnelTemplate, table, followUpType, column)
}

func concentrationSQL(table string) string {
	return fmt.Sprintf(concentrationTemplate, table)
}

func attachSQL(table string) string {
	return fmt.Sprintf(attachTemplate, table)
}

func basketSQL(table string) string {
	return fmt.Sprintf(basketTemplate, table)
}

func timeToTrainingSQL(table string) string {
	return fmt.Sprintf(timeToTrainingTemplate, table)
}

func trendSQL(table string) string {
	return fmt.Sprintf(trendTemplate, table)
}
