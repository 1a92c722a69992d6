package promotion

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Table is a case-insensitive promotion rule table. It is read-only once built.
type Table struct {
	rules map[string]Descriptor
}

// NewTable builds a table from rules. Later rules replace earlier ones with the same code.
func NewTable(rules ...Descriptor) *Table {
	t := &Table{rules: make(map[string]Descriptor, len(rules))}
	for _, r := range rules {
		t.add(r)
	}
	return t
}

// DefaultTable returns the built-in rule table.
func DefaultTable() *Table {
	return NewTable(
		Fixed("HEMAT50", 50000),
		Percentage("DISKON10", 10, 20000),
	)
}

// Lookup finds the rule for code, ignoring case and surrounding space.
func (t *Table) Lookup(code string) (Descriptor, bool) {
	d, ok := t.rules[normalise(code)]
	return d, ok
}

// Size returns the number of rules in the table.
func (t *Table) Size() int {
	return len(t.rules)
}

// Codes returns the codes in the table in no particular order.
func (t *Table) Codes() []string {
	codes := make([]string, 0, len(t.rules))
	for code := range t.rules {
		codes = append(codes, code)
	}
	return codes
}

func (t *Table) add(d Descriptor) {
	d.Code = normalise(d.Code)
	t.rules[d.Code] = d
}

// overlay copies every rule of other into t.
func (t *Table) overlay(other *Table) {
	for _, d := range other.rules {
		t.add(d)
	}
}

func normalise(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ParseRule parses one rule line of the form CODE,kind,value[,cap].
func ParseRule(line string) (Descriptor, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 3 || len(fields) > 4 {
		return Descriptor{}, fmt.Errorf("expected CODE,kind,value[,cap], got %q", line)
	}

	kind, err := ParseKind(fields[1])
	if err != nil {
		return Descriptor{}, err
	}

	value, err := decimal.NewFromString(strings.TrimSpace(fields[2]))
	if err != nil {
		return Descriptor{}, fmt.Errorf("invalid value %q: %w", fields[2], err)
	}

	d := Descriptor{
		Code:  normalise(fields[0]),
		Kind:  kind,
		Value: value,
	}

	if len(fields) == 4 && strings.TrimSpace(fields[3]) != "" {
		maxDiscount, err := decimal.NewFromString(strings.TrimSpace(fields[3]))
		if err != nil {
			return Descriptor{}, fmt.Errorf("invalid cap %q: %w", fields[3], err)
		}
		d.Cap = decimal.NewNullDecimal(maxDiscount)
	}

	if err := d.validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}
