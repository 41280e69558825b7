package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
)

// MaxGroupDepth caps filter group nesting.
const MaxGroupDepth = 8

// Operator is a leaf condition operator.
type Operator string

// Supported condition operators.
const (
	OpEquals      Operator = "eq"
	OpNotEquals   Operator = "ne"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpGreater     Operator = "gt"
	OpLess        Operator = "lt"
	OpGreaterEq   Operator = "gte"
	OpLessEq      Operator = "lte"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
	OpBetween     Operator = "between"
	OpExists      Operator = "exists"
	OpNotExists   Operator = "not_exists"
)

// Logic combines conditions within a group.
type Logic string

// Group combinators.
const (
	LogicAnd Logic = "and"
	LogicOr  Logic = "or"
)

// Condition is a single field predicate.
type Condition struct {
	field  string
	op     Operator
	value  any
	values []string
	min    float64
	max    float64
}

// NewCondition creates a scalar condition (eq, ne, contains, comparisons, ...).
func NewCondition(field string, op Operator, value any) (Condition, error) {
	if field == "" {
		return Condition{}, fmt.Errorf("filter field is required")
	}
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpNotContains, OpStartsWith, OpEndsWith,
		OpGreater, OpLess, OpGreaterEq, OpLessEq:
		if value == nil {
			return Condition{}, fmt.Errorf("value is required for operator %q on field %q", op, field)
		}
	case OpExists, OpNotExists:
		// no value
	default:
		return Condition{}, fmt.Errorf("operator %q requires a dedicated constructor", op)
	}
	return Condition{field: field, op: op, value: value}, nil
}

// NewSetCondition creates an in / not_in membership condition.
func NewSetCondition(field string, op Operator, values []string) (Condition, error) {
	if field == "" {
		return Condition{}, fmt.Errorf("filter field is required")
	}
	if op != OpIn && op != OpNotIn {
		return Condition{}, fmt.Errorf("operator %q is not a set operator", op)
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("at least one value is required for %q on field %q", op, field)
	}
	return Condition{field: field, op: op, values: values}, nil
}

// NewRangeCondition creates an inclusive between condition.
func NewRangeCondition(field string, min, max float64) (Condition, error) {
	if field == "" {
		return Condition{}, fmt.Errorf("filter field is required")
	}
	if min > max {
		return Condition{}, fmt.Errorf("range lower bound %v exceeds upper bound %v on field %q", min, max, field)
	}
	return Condition{field: field, op: OpBetween, min: min, max: max}, nil
}

// Field returns the condition's field name.
func (c Condition) Field() string { return c.field }

// Op returns the condition's operator.
func (c Condition) Op() Operator { return c.op }

// Value returns the scalar comparison value (nil for set and range conditions).
func (c Condition) Value() any { return c.value }

// Group is a boolean combination of conditions and nested groups.
type Group struct {
	logic      Logic
	conditions []Condition
	groups     []Group
}

// NewGroup validates and creates a filter group.
func NewGroup(logic Logic, conditions []Condition, groups []Group) (Group, error) {
	if logic != LogicAnd && logic != LogicOr {
		return Group{}, fmt.Errorf("unknown group logic %q", logic)
	}
	g := Group{logic: logic, conditions: conditions, groups: groups}
	if depth(g) > MaxGroupDepth {
		return Group{}, fmt.Errorf("filter groups nested deeper than %d", MaxGroupDepth)
	}
	return g, nil
}

// And creates an AND group over conditions.
func And(conditions ...Condition) Group {
	return Group{logic: LogicAnd, conditions: conditions}
}

// Or creates an OR group over conditions.
func Or(conditions ...Condition) Group {
	return Group{logic: LogicOr, conditions: conditions}
}

// WithGroups returns a copy of g with nested groups appended.
func (g Group) WithGroups(groups ...Group) Group {
	g.groups = append(append([]Group{}, g.groups...), groups...)
	return g
}

// IsEmpty reports whether the group has no conditions at any level.
// An empty filter matches every document.
func (g Group) IsEmpty() bool {
	if len(g.conditions) > 0 {
		return false
	}
	for _, sub := range g.groups {
		if !sub.IsEmpty() {
			return false
		}
	}
	return true
}

// Conditions returns the group's direct conditions.
func (g Group) Conditions() []Condition { return g.conditions }

// Groups returns the nested groups.
func (g Group) Groups() []Group { return g.groups }

// Logic returns the group combinator.
func (g Group) Logic() Logic { return g.logic }

// Matches evaluates the group against a single document.
// Pure predicate: no side effects, no document mutation.
func (g Group) Matches(doc *document.Document) bool {
	if g.IsEmpty() {
		return true
	}

	if g.logic == LogicOr {
		for _, c := range g.conditions {
			if c.matches(doc) {
				return true
			}
		}
		for _, sub := range g.groups {
			if !sub.IsEmpty() && sub.Matches(doc) {
				return true
			}
		}
		return false
	}

	for _, c := range g.conditions {
		if !c.matches(doc) {
			return false
		}
	}
	for _, sub := range g.groups {
		if !sub.Matches(doc) {
			return false
		}
	}
	return true
}

// Apply returns the documents matching the group, preserving input order.
func (g Group) Apply(docs []*document.Document) []*document.Document {
	if g.IsEmpty() {
		return docs
	}
	out := make([]*document.Document, 0, len(docs))
	for _, d := range docs {
		if g.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}

func (c Condition) matches(doc *document.Document) bool {
	val, present := doc.Field(c.field)

	switch c.op {
	case OpExists:
		return present
	case OpNotExists:
		return !present
	}

	// Comparisons against a missing field never match.
	if !present {
		return false
	}

	switch c.op {
	case OpEquals:
		return equalsValue(val, c.value)
	case OpNotEquals:
		return !equalsValue(val, c.value)
	case OpContains:
		return containsValue(val, c.value)
	case OpNotContains:
		return !containsValue(val, c.value)
	case OpStartsWith:
		s, q, ok := stringPair(val, c.value)
		return ok && strings.HasPrefix(s, q)
	case OpEndsWith:
		s, q, ok := stringPair(val, c.value)
		return ok && strings.HasSuffix(s, q)
	case OpGreater:
		a, b, ok := numericPair(val, c.value)
		return ok && a > b
	case OpLess:
		a, b, ok := numericPair(val, c.value)
		return ok && a < b
	case OpGreaterEq:
		a, b, ok := numericPair(val, c.value)
		return ok && a >= b
	case OpLessEq:
		a, b, ok := numericPair(val, c.value)
		return ok && a <= b
	case OpBetween:
		a, ok := toNumber(val)
		return ok && a >= c.min && a <= c.max
	case OpIn:
		return membershipMatches(val, c.values)
	case OpNotIn:
		return !membershipMatches(val, c.values)
	}
	return false
}

// equalsValue compares case-insensitively for strings and exactly for numbers.
// List-valued fields match when any element equals the target.
func equalsValue(fieldVal, condVal any) bool {
	if list, ok := fieldVal.([]string); ok {
		q, isStr := condVal.(string)
		if !isStr {
			return false
		}
		for _, item := range list {
			if strings.EqualFold(item, q) {
				return true
			}
		}
		return false
	}
	if s, q, ok := stringPair(fieldVal, condVal); ok {
		return s == q
	}
	if a, b, ok := numericPair(fieldVal, condVal); ok {
		return a == b
	}
	return false
}

func containsValue(fieldVal, condVal any) bool {
	if list, ok := fieldVal.([]string); ok {
		q, isStr := condVal.(string)
		if !isStr {
			return false
		}
		for _, item := range list {
			if strings.Contains(strings.ToLower(item), strings.ToLower(q)) {
				return true
			}
		}
		return false
	}
	s, q, ok := stringPair(fieldVal, condVal)
	return ok && strings.Contains(s, q)
}

// membershipMatches reports whether a scalar field equals any set value, or a
// list-valued field intersects the set.
func membershipMatches(fieldVal any, values []string) bool {
	switch v := fieldVal.(type) {
	case []string:
		for _, item := range v {
			for _, want := range values {
				if strings.EqualFold(item, want) {
					return true
				}
			}
		}
	case string:
		for _, want := range values {
			if strings.EqualFold(v, want) {
				return true
			}
		}
	}
	return false
}

// stringPair lowercases both sides for case-insensitive comparison.
func stringPair(fieldVal, condVal any) (string, string, bool) {
	s, ok1 := fieldVal.(string)
	q, ok2 := condVal.(string)
	if !ok1 || !ok2 {
		return "", "", false
	}
	return strings.ToLower(s), strings.ToLower(q), true
}

func numericPair(fieldVal, condVal any) (float64, float64, bool) {
	a, ok1 := toNumber(fieldVal)
	b, ok2 := toNumber(condVal)
	return a, b, ok1 && ok2
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case time.Time:
		return float64(n.Unix()), true
	case string:
		// Extension attributes are stored as strings.
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func depth(g Group) int {
	max := 1
	for _, sub := range g.groups {
		if d := depth(sub) + 1; d > max {
			max = d
		}
	}
	return max
}
