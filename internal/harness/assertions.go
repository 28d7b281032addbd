package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/retreat/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes the signal log to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Signals  []engine.Signal
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Signals) > 0 {
		fmt.Fprintf(&buf, "\nSignals:\n")
		for _, sig := range e.Signals {
			fmt.Fprintf(&buf, "  [%d] %s", sig.Seq, sig.Kind)
			if sig.Window != "" {
				fmt.Fprintf(&buf, " window=%s", sig.Window)
			}
			if sig.Activity != "" {
				fmt.Fprintf(&buf, " activity=%s", sig.Activity)
			}
			if sig.Notice != "" {
				fmt.Fprintf(&buf, " notice=%q", sig.Notice)
			}
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// assertSignalContains checks that some signal of the given kind carries
// all the expected fields.
func assertSignalContains(signals []engine.Signal, assertion Assertion) error {
	for _, sig := range signals {
		if string(sig.Kind) != assertion.Kind {
			continue
		}
		if matchSubset(plain(sig), assertion.Fields) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertSignalContains,
		Expected: fmt.Sprintf("signal %s with fields %v", assertion.Kind, assertion.Fields),
		Actual:   "not found",
		Signals:  signals,
	}
}

// assertSignalOrder checks that the kinds appear in order. Other signals
// may appear in between.
func assertSignalOrder(signals []engine.Signal, assertion Assertion) error {
	next := 0
	for _, sig := range signals {
		if next < len(assertion.Kinds) && string(sig.Kind) == assertion.Kinds[next] {
			next++
		}
	}
	if next == len(assertion.Kinds) {
		return nil
	}

	return &AssertionError{
		Type:     AssertSignalOrder,
		Expected: fmt.Sprintf("signals in order: %v", assertion.Kinds),
		Actual:   fmt.Sprintf("matched %v, then no %s", assertion.Kinds[:next], assertion.Kinds[next]),
		Signals:  signals,
	}
}

// assertSignalCount checks the exact number of signals of one kind.
func assertSignalCount(signals []engine.Signal, assertion Assertion) error {
	count := 0
	for _, sig := range signals {
		if string(sig.Kind) == assertion.Kind {
			count++
		}
	}
	if count == assertion.Count {
		return nil
	}

	return &AssertionError{
		Type:     AssertSignalCount,
		Expected: fmt.Sprintf("%d %s signals", assertion.Count, assertion.Kind),
		Actual:   fmt.Sprintf("%d signals", count),
		Signals:  signals,
	}
}

// assertFinalState matches the expected keys against the state snapshot.
func assertFinalState(state map[string]any, assertion Assertion) error {
	actual := plain(state)

	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		want := assertion.Expect[key]
		got, ok := actual[key]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("state key %q", key),
				Actual:   fmt.Sprintf("not present; keys are %v", sortedKeys(actual)),
			}
		}
		if !valuesMatch(got, want) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s = %v", key, want),
				Actual:   fmt.Sprintf("%s = %v", key, got),
			}
		}
	}
	return nil
}

// plain re-decodes v through YAML so it compares like values read from a
// scenario file: ints stay int, slices become []any, structs become maps.
func plain(v any) map[string]any {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// matchSubset reports whether actual has every key of expected with a
// matching value. Extra keys in actual are ignored.
func matchSubset(actual, expected map[string]any) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok || !valuesMatch(got, want) {
			return false
		}
	}
	return true
}

// valuesMatch compares nested maps with subset semantics and everything
// else exactly.
func valuesMatch(actual, expected any) bool {
	if em, ok := expected.(map[string]any); ok {
		am, ok := actual.(map[string]any)
		return ok && matchSubset(am, em)
	}
	if expected == nil {
		return actual == nil
	}
	// An empty expected list matches a missing or empty actual list.
	if el, ok := expected.([]any); ok && len(el) == 0 {
		al, ok := actual.([]any)
		return actual == nil || (ok && len(al) == 0)
	}
	return reflect.DeepEqual(actual, expected)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	signals := result.Signals()

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSignalContains:
			err = assertSignalContains(signals, assertion)
		case AssertSignalOrder:
			err = assertSignalOrder(signals, assertion)
		case AssertSignalCount:
			err = assertSignalCount(signals, assertion)
		case AssertFinalState:
			err = assertFinalState(result.State, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}
