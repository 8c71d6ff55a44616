package store

import (
	"fmt"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// dateLayouts are accepted when a string is compared against a time field.
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, true
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// asNumber converts numeric types, but not strings.
func asNumber(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case *decimal.Decimal:
		if x == nil {
			return decimal.Decimal{}, false
		}
		return *x, true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int8:
		return decimal.NewFromInt(int64(x)), true
	case int16:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt32(x), true
	case int64:
		return decimal.NewFromInt(x), true
	case uint:
		return fromUint(uint64(x)), true
	case uint8:
		return fromUint(uint64(x)), true
	case uint16:
		return fromUint(uint64(x)), true
	case uint32:
		return fromUint(uint64(x)), true
	case uint64:
		return fromUint(x), true
	case float32:
		return decimal.NewFromFloat32(x), true
	case float64:
		return decimal.NewFromFloat(x), true
	}
	return decimal.Decimal{}, false
}

func fromUint(u uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0)
}

// asNumberLoose also parses numeric strings.
func asNumberLoose(v any) (decimal.Decimal, bool) {
	if d, ok := asNumber(v); ok {
		return d, true
	}
	if s, ok := v.(string); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

// compareValues orders a against b. The kind of whichever side is typed
// (time, number) decides how the other side is coerced. The second result is
// false when the values are not comparable.
func compareValues(a, b any) (int, bool) {
	if ta, ok := a.(time.Time); ok {
		tb, ok := asTime(b)
		return ta.Compare(tb), ok
	}
	if tb, ok := b.(time.Time); ok {
		ta, ok := asTime(a)
		return ta.Compare(tb), ok
	}
	if da, ok := asNumber(a); ok {
		db, ok := asNumberLoose(b)
		return da.Cmp(db), ok
	}
	if db, ok := asNumber(b); ok {
		da, ok := asNumberLoose(a)
		return da.Cmp(db), ok
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, true
			case !x:
				return -1, true
			default:
				return 1, true
			}
		}
	}
	return 0, false
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return stringify(a) == stringify(b)
}

// missing reports whether a resolved value counts as absent: unresolved,
// nil, or the zero time.
func missing(v any, ok bool) bool {
	if !ok || v == nil {
		return true
	}
	if t, isTime := v.(time.Time); isTime {
		return t.IsZero()
	}
	return false
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func listOf(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	}
	return nil
}

// matchRule applies one filter rule to a resolved field value. A field the
// item does not have never matches.
func matchRule(v any, ok bool, rule types.FilterRule) bool {
	if !ok {
		return false
	}
	switch rule.Operator {
	case types.OpEquals:
		return equalValues(v, rule.Value)
	case types.OpContains:
		if elems := listOf(v); elems != nil {
			return slices.ContainsFunc(elems, func(e any) bool { return equalValues(e, rule.Value) })
		}
		if v == nil {
			return false
		}
		return strings.Contains(strings.ToLower(stringify(v)), strings.ToLower(stringify(rule.Value)))
	case types.OpBefore, types.OpAfter:
		if missing(v, ok) {
			return false
		}
		c, comparable := compareValues(v, rule.Value)
		if !comparable {
			return false
		}
		if rule.Operator == types.OpBefore {
			return c < 0
		}
		return c > 0
	case types.OpIn:
		return slices.ContainsFunc(listOf(rule.Value), func(e any) bool { return equalValues(v, e) })
	}
	return false
}

// Sort kinds, in display order.
const (
	kindBool = iota
	kindNumber
	kindTime
	kindString
	kindOther
)

func sortKind(v any) int {
	switch v.(type) {
	case bool:
		return kindBool
	case time.Time, *time.Time:
		return kindTime
	case string:
		return kindString
	}
	if _, ok := asNumber(v); ok {
		return kindNumber
	}
	return kindOther
}

// compareForSort orders two resolved values for display: missing values
// first, then by kind (bool, number, time, string, other), then within the
// kind. Values are never coerced across kinds, so the order is total.
func compareForSort(a any, aok bool, b any, bok bool) int {
	am, bm := missing(a, aok), missing(b, bok)
	switch {
	case am && bm:
		return 0
	case am:
		return -1
	case bm:
		return 1
	}
	ka, kb := sortKind(a), sortKind(b)
	if ka != kb {
		return ka - kb
	}
	switch ka {
	case kindBool, kindString:
		c, _ := compareValues(a, b)
		return c
	case kindNumber:
		da, _ := asNumber(a)
		db, _ := asNumber(b)
		return da.Cmp(db)
	case kindTime:
		ta, _ := asTime(a)
		tb, _ := asTime(b)
		return ta.Compare(tb)
	}
	return strings.Compare(stringify(a), stringify(b))
}
