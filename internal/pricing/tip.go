package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidTip is returned for a custom tip that is not a positive amount.
var ErrInvalidTip = errors.New("tip must be a positive amount")

// TipOptions returns the preset tip amounts offered at checkout.
func TipOptions() []decimal.Decimal {
	return []decimal.Decimal{
		decimal.NewFromInt(5000),
		decimal.NewFromInt(10000),
		decimal.NewFromInt(15000),
	}
}

// CustomTip validates a free-form tip and rounds it to whole units.
func CustomTip(amount decimal.Decimal) (decimal.Decimal, error) {
	rounded := amount.Round(0)
	if !rounded.IsPositive() {
		return decimal.Zero, ErrInvalidTip
	}
	return rounded, nil
}

// ParseTip parses a tip entered as text. An empty string means no tip.
func ParseTip(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidTip
	}
	return CustomTip(amount)
}
