package validation

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Errors maps a field name to its messages. A non-empty Errors is returned as an error
// by model and service validation and rendered as a 400 JSON error list.
type Errors map[string][]string

func (v Errors) Empty() bool { return len(v) == 0 }

// Add appends a message for field.
func (v Errors) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

// Merge copies all messages of o into v.
func (v Errors) Merge(o Errors) {
	for f, msgs := range o {
		v[f] = append(v[f], msgs...)
	}
}

// Fields returns the field names in a stable order.
func (v Errors) Fields() []string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (v Errors) Error() string {
	parts := make([]string, 0, len(v))
	for _, f := range v.Fields() {
		parts = append(parts, f+": "+strings.Join(v[f], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns v as an error, or nil when there are no messages.
func (v Errors) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

// Basic validators
func Required(field, value string, v Errors) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func NonNegative(field string, val decimal.Decimal, v Errors) {
	if val.IsNegative() {
		v.Add(field, "must_be_positive")
	}
}

func Range(field string, val, minVal, maxVal decimal.Decimal, v Errors) {
	if val.LessThan(minVal) || val.GreaterThan(maxVal) {
		v.Add(field, "out_of_range")
	}
}

func OneOf(field, value string, allowed []string, v Errors) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Add(field, "invalid_choice")
}
