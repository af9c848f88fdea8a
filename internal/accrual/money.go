package accrual

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
)

var (
	one     = decimal.NewFromInt(1)
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
	three   = decimal.NewFromInt(3)

	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

// toMinor rounds d half away from zero to whole minor units. A result outside
// the int64 range is ErrAmountOverflow.
func toMinor(d decimal.Decimal) (int64, error) {
	r := d.Round(0)
	if r.Abs().GreaterThan(maxMinor) {
		return 0, fmt.Errorf("toMinor %s: %w", r, domain.ErrAmountOverflow)
	}
	return r.IntPart(), nil
}

func fromMinor(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// formatMinor renders minor units as a major-unit amount with two decimals.
func formatMinor(v int64) string {
	return decimal.New(v, -2).StringFixed(2)
}

// monthsClamped is months limited to [0, total].
func monthsClamped(months, total int) int {
	return max(0, min(months, total))
}
