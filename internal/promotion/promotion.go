package promotion

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ReasonInvalidCode is the rejection reason for a code absent from the rule table.
const ReasonInvalidCode = "invalid code"

var hundred = decimal.NewFromInt(100)

// Kind discriminates how a promotion's value is applied.
type Kind int

const (
	KindFixed Kind = iota + 1
	KindPercentage
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindPercentage:
		return "percentage"
	}
	return "unknown"
}

// ParseKind parses the textual kind used in rule files.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return KindFixed, nil
	case "percentage", "percent":
		return KindPercentage, nil
	}
	return 0, fmt.Errorf("unknown promotion kind %q", s)
}

// Descriptor is a resolved promotion. It is passed by value and never mutated.
type Descriptor struct {
	Code  string
	Kind  Kind
	Value decimal.Decimal
	// Cap bounds a percentage discount. Ignored for fixed promotions.
	Cap decimal.NullDecimal
}

// Fixed builds a fixed-amount promotion rule.
func Fixed(code string, value int64) Descriptor {
	return Descriptor{Code: strings.ToUpper(code), Kind: KindFixed, Value: decimal.NewFromInt(value)}
}

// Percentage builds a percentage promotion rule capped at maxDiscount when maxDiscount > 0.
func Percentage(code string, percent int64, maxDiscount int64) Descriptor {
	d := Descriptor{Code: strings.ToUpper(code), Kind: KindPercentage, Value: decimal.NewFromInt(percent)}
	if maxDiscount > 0 {
		d.Cap = decimal.NewNullDecimal(decimal.NewFromInt(maxDiscount))
	}
	return d
}

// Discount returns the amount this promotion takes off subtotal.
// Fixed amounts are not clamped to the subtotal.
func (d Descriptor) Discount(subtotal decimal.Decimal) decimal.Decimal {
	switch d.Kind {
	case KindFixed:
		return d.Value.Round(0)
	case KindPercentage:
		amount := subtotal.Mul(d.Value).Div(hundred).Round(0)
		if d.Cap.Valid && amount.GreaterThan(d.Cap.Decimal) {
			return d.Cap.Decimal.Round(0)
		}
		return amount
	}
	return decimal.Zero
}

func (d Descriptor) validate() error {
	if d.Code == "" {
		return fmt.Errorf("promotion code is required")
	}
	if d.Value.IsNegative() {
		return fmt.Errorf("promotion %s: value must not be negative", d.Code)
	}
	switch d.Kind {
	case KindFixed:
		if d.Cap.Valid {
			return fmt.Errorf("promotion %s: cap only applies to percentage promotions", d.Code)
		}
	case KindPercentage:
		if d.Value.GreaterThan(hundred) {
			return fmt.Errorf("promotion %s: percentage must not exceed 100", d.Code)
		}
		if d.Cap.Valid && d.Cap.Decimal.IsNegative() {
			return fmt.Errorf("promotion %s: cap must not be negative", d.Code)
		}
	default:
		return fmt.Errorf("promotion %s: unknown kind", d.Code)
	}
	return nil
}

// Rejection explains why a code did not resolve.
type Rejection struct {
	Code   string
	Reason string
}

// Resolution is the outcome of resolving a code: either a promotion with its
// discount amount, or a rejection.
type Resolution struct {
	Promotion *Descriptor
	Discount  decimal.Decimal
	Rejection *Rejection
}

// OK reports whether the code resolved to a promotion.
func (r Resolution) OK() bool {
	return r.Promotion != nil
}

// Loader defines the interface for loading provisioned rule tables.
type Loader interface {
	// Load reads a gzipped rule file and returns its table.
	Load(ctx context.Context, path string) (*Table, error)
}
