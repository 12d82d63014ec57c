package graphmodel

import (
	"regexp"
	"strconv"
	"strings"
)

// Lookup resolves a dotted propertyPath (e.g. "address.city") against a
// Properties bag. Returns (nil, false) if any segment is missing or the
// traversal hits a non-map value before exhausting the path.
func (p Properties) Lookup(path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	var cur interface{} = map[string]interface{}(p)
	for _, seg := range segments {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, exists := m[seg]
		if !exists {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func valuesEqual(a, b interface{}) bool {
	if af, aok := toFloat64(a); aok {
		if bf, bok := toFloat64(b); bok {
			return af == bf
		}
	}
	as, aok := toString(a)
	bs, bok := toString(b)
	if aok && bok {
		return as == bs
	}
	return a == b
}

func toSlice(v interface{}) ([]interface{}, bool) {
	s, ok := v.([]interface{})
	return s, ok
}

// Evaluate applies a single Constraint against this properties bag, which
// must belong to the node at the constraint's pinned step. Coercion
// failures and invalid regexes evaluate to false rather than raising,
// matching the read-path's tolerant-failure design.
func (c Constraint) Evaluate(props Properties) bool {
	actual, found := props.Lookup(c.PropertyPath)

	switch c.Type {
	case ConstraintPropertyEquals:
		return found && valuesEqual(actual, c.Value)

	case ConstraintPropertyIn:
		if !found {
			return false
		}
		list, ok := toSlice(c.Value)
		if !ok {
			return false
		}
		for _, item := range list {
			if valuesEqual(actual, item) {
				return true
			}
		}
		return false

	case ConstraintNotIn:
		if !found {
			return true
		}
		list, ok := toSlice(c.Value)
		if !ok {
			return false
		}
		for _, item := range list {
			if valuesEqual(actual, item) {
				return false
			}
		}
		return true

	case ConstraintGreaterThan, ConstraintLessThan, ConstraintGTE, ConstraintLTE:
		if !found {
			return false
		}
		af, aok := toFloat64(actual)
		bf, bok := toFloat64(c.Value)
		if !aok || !bok {
			return false
		}
		switch c.Type {
		case ConstraintGreaterThan:
			return af > bf
		case ConstraintLessThan:
			return af < bf
		case ConstraintGTE:
			return af >= bf
		default:
			return af <= bf
		}

	case ConstraintContains:
		as, aok := toString(actual)
		bs, bok := toString(c.Value)
		return found && aok && bok && strings.Contains(as, bs)

	case ConstraintStartsWith:
		as, aok := toString(actual)
		bs, bok := toString(c.Value)
		return found && aok && bok && strings.HasPrefix(as, bs)

	case ConstraintEndsWith:
		as, aok := toString(actual)
		bs, bok := toString(c.Value)
		return found && aok && bok && strings.HasSuffix(as, bs)

	case ConstraintRegexMatch:
		as, aok := toString(actual)
		pattern, pok := toString(c.Value)
		if !found || !aok || !pok {
			return false
		}
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return false
		}
		return re.MatchString(as)

	default:
		return false
	}
}
