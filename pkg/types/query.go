package types

import (
	"fmt"
	"strings"
)

// Operator is a filter comparison.
type Operator string

// Filter operators.
const (
	OpEquals   Operator = "equals"
	OpContains Operator = "contains"
	OpBefore   Operator = "before"
	OpAfter    Operator = "after"
	OpIn       Operator = "in"
)

var validOperators = map[Operator]bool{
	OpEquals:   true,
	OpContains: true,
	OpBefore:   true,
	OpAfter:    true,
	OpIn:       true,
}

// FilterRule restricts a list view to items whose Field satisfies Operator
// against Value. Active rules combine with logical AND.
type FilterRule struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Validate checks the field name and operator. For OpIn the value must be a
// list.
func (r FilterRule) Validate() error {
	if r.Field == "" {
		return fmt.Errorf("%w: empty field", ErrInvalidFilter)
	}
	if !validOperators[r.Operator] {
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, r.Operator)
	}
	if r.Operator == OpIn {
		switch r.Value.(type) {
		case []string, []any:
		default:
			return fmt.Errorf("%w: operator in needs a list value", ErrInvalidFilter)
		}
	}
	return nil
}

// ParseFilter parses "field:operator:value". A bare "field=value" is shorthand
// for equals. For the in operator the value is a comma-separated list.
func ParseFilter(s string) (FilterRule, error) {
	if field, value, ok := strings.Cut(s, "="); ok && !strings.Contains(field, ":") {
		r := FilterRule{Field: field, Operator: OpEquals, Value: value}
		return r, r.Validate()
	}
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return FilterRule{}, fmt.Errorf("%w: %q (expected field:operator:value)", ErrInvalidFilter, s)
	}
	r := FilterRule{Field: parts[0], Operator: Operator(parts[1]), Value: parts[2]}
	if r.Operator == OpIn {
		r.Value = strings.Split(parts[2], ",")
	}
	return r, r.Validate()
}

// Direction orders a sort key.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortRule orders a list view by one field. Rules apply in sequence; later
// rules break ties left by earlier ones.
type SortRule struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// Validate checks the field name and direction.
func (r SortRule) Validate() error {
	if r.Field == "" {
		return fmt.Errorf("%w: empty field", ErrInvalidSort)
	}
	if r.Direction != Asc && r.Direction != Desc {
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidSort, r.Direction)
	}
	return nil
}

// ParseSort parses "field" or "field:asc|desc". The direction defaults to asc.
func ParseSort(s string) (SortRule, error) {
	field, dir, ok := strings.Cut(s, ":")
	r := SortRule{Field: field, Direction: Asc}
	if ok {
		r.Direction = Direction(strings.ToLower(dir))
	}
	return r, r.Validate()
}
