// Package analytics is the analytical query set: eight parameterized
// queries over one denormalized transactions table, each a pure function
// of the table's contents. All business logic lives in the SQL here;
// downstream packages only reshape the tabular output for display.
package analytics

import (
	"context"
	"database/sql"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/om2468/stats-insights/internal/duckdb"
)

// ResultCache memoizes query results keyed by (source identity, exact
// query text). Purely an optimization: a nil cache changes nothing but
// speed.
type ResultCache interface {
	Get(key string) (any, bool)
	Put(key string, value any)
}

// Service runs the query set against one open session and one validated
// table. It holds no mutable state of its own; a source change means a
// new session and a new Service.
type Service struct {
	sess  *duckdb.Session
	table string
	cache ResultCache
	log   zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache memoizes results in c.
func WithCache(c ResultCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger routes query timings to log.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService validates the table identifier and schema, then returns a
// Service bound to the session. Identifier and schema problems surface
// as *duckdb.SchemaError before any analytical query runs.
func NewService(ctx context.Context, sess *duckdb.Session, table string, opts ...Option) (*Service, error) {
	if err := sess.ValidateTable(ctx, table); err != nil {
		return nil, err
	}
	s := &Service{sess: sess, table: table, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Table returns the validated table identifier the service queries.
func (s *Service) Table() string { return s.table }

// cached wraps a query run with memoization on (source identity, SQL).
func cached[T any](ctx context.Context, s *Service, sqlText string, run func(context.Context, string) (T, error)) (T, error) {
	key := s.sess.Identity() + "\x00" + sqlText
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
	}

	start := time.Now()
	out, err := run(ctx, sqlText)
	if err != nil {
		var zero T
		return zero, err
	}
	s.log.Debug().Dur("elapsed", time.Since(start)).Msg("query executed")

	if s.cache != nil {
		s.cache.Put(key, out)
	}
	return out, nil
}

// ConsultingFunnel reports license/subscription spend next to FME
// Consulting spend that followed the first core purchase.
func (s *Service) ConsultingFunnel(ctx context.Context) ([]FunnelRow, error) {
	return cached(ctx, s, funnelSQL(s.table, TypeConsulting, "total_fme_consulting_spend"), s.runFunnel)
}

// TrainingFunnel reports license/subscription spend next to FME Training
// spend that followed the first core purchase.
func (s *Service) TrainingFunnel(ctx context.Context) ([]FunnelRow, error) {
	return cached(ctx, s, funnelSQL(s.table, TypeTraining, "total_fme_training_spend"), s.runFunnel)
}

// EsriFunnel reports license/subscription spend next to Esri Consulting
// spend that followed the first core purchase.
func (s *Service) EsriFunnel(ctx context.Context) ([]FunnelRow, error) {
	return cached(ctx, s, funnelSQL(s.table, TypeEsri, "total_esri_consulting_spend"), s.runFunnel)
}

func (s *Service) runFunnel(ctx context.Context, sqlText string) ([]FunnelRow, error) {
	rows, err := s.sess.DB().QueryContext(ctx, sqlText)
	if err != nil {
		return nil, s.sess.WrapQueryError(err, s.table)
	}
	defer rows.Close()

	var out []FunnelRow
	for rows.Next() {
		var r FunnelRow
		if err := rows.Scan(&r.Account, &r.InitialSpend, &r.FollowUpSpend); err != nil {
			return nil, s.sess.WrapQueryError(err, s.table)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.sess.WrapQueryError(err, s.table)
	}
	return out, nil
}

// RevenueConcentration ranks accounts by total revenue with a running
// cumulative share of the grand total. Ties break on account ascending.
// With a zero grand total every CumulativePercentage is nil.
func (s *Service) RevenueConcentration(ctx context.Context) ([]ConcentrationRow, error) {
	return cached(ctx, s, concentrationSQL(s.table), func(ctx context.Context, sqlText string) ([]ConcentrationRow, error) {
		rows, err := s.sess.DB().QueryContext(ctx, sqlText)
		if err != nil {
			return nil, s.sess.WrapQueryError(err, s.table)
		}
		defer rows.Close()

		var out []ConcentrationRow
		for rows.Next() {
			var r ConcentrationRow
			var pct sql.NullFloat64
			if err := rows.Scan(&r.Account, &r.TotalRevenue, &r.CumulativeRevenue, &pct); err != nil {
				return nil, s.sess.WrapQueryError(err, s.table)
			}
			if pct.Valid {
				v := pct.Float64
				r.CumulativePercentage = &v
			}
			out = append(out, r)
		}
		if err := rows.Err(); err != nil {
			return nil, s.sess.WrapQueryError(err, s.table)
		}
		return out, nil
	})
}

// TrainingAttachRate returns the percentage of core-product accounts
// that also bought training. When no core-product account exists the
// rate is undefined and the error is ErrUndefinedMetric.
func (s *Service) TrainingAttachRate(ctx context.Context) (float64, error) {
	return cached(ctx, s, attachSQL(s.table), func(ctx context.Context, sqlText string) (float64, error) {
		var rate sql.NullFloat64
		if err := s.sess.DB().QueryRowContext(ctx, sqlText).Scan(&rate); err != nil {
			return 0, s.sess.WrapQueryError(err, s.table)
		}
		if !rate.Valid {
			return 0, ErrUndefinedMetric
		}
		return rate.Float64, nil
	})
}

// ServiceBasket counts, per unordered pair of distinct service types,
// the accounts holding at least one transaction of each.
func (s *Service) ServiceBasket(ctx context.Context) ([]BasketRow, error) {
	return cached(ctx, s, basketSQL(s.table), func(ctx context.Context, sqlText string) ([]BasketRow, error) {
		rows, err := s.sess.DB().QueryContext(ctx, sqlText)
		if err != nil {
			return nil, s.sess.WrapQueryError(err, s.table)
		}
		defer rows.Close()

		var out []BasketRow
		for rows.Next() {
			var r BasketRow
			if err := rows.Scan(&r.Service1, &r.Service2, &r.Customers); err != nil {
				return nil, s.sess.WrapQueryError(err, s.table)
			}
			out = append(out, r)
		}
		if err := rows.Err(); err != nil {
			return nil, s.sess.WrapQueryError(err, s.table)
		}
		return out, nil
	})
}

// AvgDaysToTraining averages, over qualifying accounts, the days between
// the first core purchase and the first later training purchase. An
// empty qualifying set is ErrUndefinedMetric.
func (s *Service) AvgDaysToTraining(ctx context.Context) (float64, error) {
	return cached(ctx, s, timeToTrainingSQL(s.table), func(ctx context.Context, sqlText string) (float64, error) {
		var raw any
		if err := s.sess.DB().QueryRowContext(ctx, sqlText).Scan(&raw); err != nil {
			return 0, s.sess.WrapQueryError(err, s.table)
		}
		return DaysFromValue(raw)
	})
}

// MonthlyTrend sums credit per (calendar month, type) group.
func (s *Service) MonthlyTrend(ctx context.Context) ([]TrendRow, error) {
	return cached(ctx, s, trendSQL(s.table), func(ctx context.Context, sqlText string) ([]TrendRow, error) {
		rows, err := s.sess.DB().QueryContext(ctx, sqlText)
		if err != nil {
			return nil, s.sess.WrapQueryError(err, s.table)
		}
		defer rows.Close()

		var out []TrendRow
		for rows.Next() {
			var r TrendRow
			if err := rows.Scan(&r.Month, &r.Type, &r.Revenue); err != nil {
				return nil, s.sess.WrapQueryError(err, s.table)
			}
			out = append(out, r)
		}
		if err := rows.Err(); err != nil {
			return nil, s.sess.WrapQueryError(err, s.table)
		}
		return out, nil
	})
}

// Summarize describes the source table for the inspect surfaces.
func (s *Service) Summarize(ctx context.Context) (*SourceSummary, error) {
	var (
		rows, accounts int64
		minDate        sql.NullTime
		maxDate        sql.NullTime
	)
	err := s.sess.DB().QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT account), MIN(date), MAX(date) FROM "+s.table).
		Scan(&rows, &accounts, &minDate, &maxDate)
	if err != nil {
		return nil, s.sess.WrapQueryError(err, s.table)
	}

	sum := &SourceSummary{Table: s.table, Rows: rows, Accounts: accounts}
	if minDate.Valid {
		sum.EarliestDate = civil.DateOf(minDate.Time)
	}
	if maxDate.Valid {
		sum.LatestDate = civil.DateOf(maxDate.Time)
	}

	typeRows, err := s.sess.DB().QueryContext(ctx,
		"SELECT DISTINCT type FROM "+s.table+" ORDER BY type")
	if err != nil {
		return nil, s.sess.WrapQueryError(err, s.table)
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var t string
		if err := typeRows.Scan(&t); err != nil {
			return nil, s.sess.WrapQueryError(err, s.table)
		}
		sum.Types = append(sum.Types, t)
	}
	if err := typeRows.Err(); err != nil {
		return nil, s.sess.WrapQueryError(err, s.table)
	}
	return sum, nil
}

// Sample returns the n earliest transactions, for source inspection.
func (s *Service) Sample(ctx context.Context, n int) ([]Transaction, error) {
	rows, err := s.sess.DB().QueryContext(ctx,
		"SELECT account, type, date, credit::DOUBLE FROM "+s.table+" ORDER BY date, account LIMIT ?", n)
	if err != nil {
		return nil, s.sess.WrapQueryError(err, s.table)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			tx Transaction
			d  time.Time
		)
		if err := rows.Scan(&tx.Account, &tx.Type, &d, &tx.Credit); err != nil {
			return nil, s.sess.WrapQueryError(err, s.table)
		}
		tx.Date = civil.DateOf(d)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, s.sess.WrapQueryError(err, s.table)
	}
	return out, nil
}
