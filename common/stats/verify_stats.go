package stats

import (
	"bytes"
	"fmt"
	"testing"
)

// RuleChecker compares a rendered stat ('got') with an expected value.
type RuleChecker struct {
	name    string
	checker func(got, expected interface{}) bool
}

func int64EqTest(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.(int64) == int64(b.(int))
}

var Int64EqTest = RuleChecker{name: "int64EqTest", checker: int64EqTest}

func int64GTTest(a, b interface{}) bool {
	if a == nil || b == nil {
		return false
	}
	return a.(int64) > int64(b.(int))
}

var Int64GTTest = RuleChecker{name: "int64GTTest", checker: int64GTTest}

func floatEqTest(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.(float64) == b.(float64)
}

var FloatEqTest = RuleChecker{name: "floatEqTest", checker: floatEqTest}

var DoesNotExistTest = RuleChecker{name: "doesNotExistTest", checker: func(a, b interface{}) bool { return a == nil }}

// Rule pairs a checker with the expected value.
type Rule struct {
	Checker RuleChecker
	Value   interface{}
}

// VerifyStats fails t when a stat in the flat registry doesn't satisfy its rule.
func VerifyStats(tag string, statsRegistry StatsRegistry, t *testing.T, contains map[string]Rule) {
	t.Helper()
	flat, ok := statsRegistry.(*flatStatsRegistry)
	if !ok {
		t.Errorf("%s: VerifyStats needs a registry from NewFlatStatsRegistry, got %T", tag, statsRegistry)
		return
	}
	rendered := flat.MarshalAll()

	var msg bytes.Buffer
	for key, rule := range contains {
		got := rendered[key]
		if !rule.Checker.checker(got, rule.Value) {
			fmt.Fprintf(&msg, "%s: got %v, expected to pass %s with %v\n", key, got, rule.Checker.name, rule.Value)
		}
	}
	if msg.Len() > 0 {
		pretty, _ := flat.MarshalJSONPretty()
		t.Errorf("%s: stats registry error:\n%s\nregistry:\n%s", tag, msg.String(), pretty)
	}
}
