package analytics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	duckdb "github.com/marcboeker/go-duckdb/v2"
)

const (
	hoursPerDay   = 24.0
	microsPerDay  = 24.0 * 60 * 60 * 1e6
	daysPerMonth  = 30.0 // DuckDB's own interval arithmetic convention
)

// DaysFromValue extracts a whole-and-fractional day count from whatever
// the engine hands back for a date difference: plain numbers when DATE
// subtraction yields integer days, a native interval, a time.Duration,
// or a formatted string such as "123 days". A nil or unparseable value
// is ErrUndefinedMetric, never a panic.
func DaysFromValue(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, ErrUndefinedMetric
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case time.Duration:
		return t.Hours() / hoursPerDay, nil
	case duckdb.Interval:
		months := float64(t.Months)
		days := float64(t.Days) + months*daysPerMonth
		return days + float64(t.Micros)/microsPerDay, nil
	case string:
		return daysFromString(t)
	case []byte:
		return daysFromString(string(t))
	default:
		return 0, fmt.Errorf("%w: unsupported duration representation %T", ErrUndefinedMetric, v)
	}
}

// daysFromString parses "123 days", "41.5 days" or a bare number.
func daysFromString(s string) (float64, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return 0, ErrUndefinedMetric
	}
	n, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: cannot parse duration %q", ErrUndefinedMetric, s)
	}
	return n, nil
}
