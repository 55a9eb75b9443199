package harness

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Steps    []StepOutcome // Step outcomes for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nSteps:\n")
	for i, s := range e.Steps {
		status := "ok"
		if !s.OK {
			status = s.Kind + ": " + s.Message
		}
		fmt.Fprintf(&buf, "  [%d] %s -> %s (applied=%t, version=%d)\n", i+1, s.Op, status, s.Applied, s.Version)
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against the result and returns
// one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	var snapshot any
	if result.Snapshot != nil {
		var err error
		snapshot, err = normalize(result.Snapshot.CanonicalMap())
		if err != nil {
			return []string{fmt.Sprintf("normalize snapshot: %v", err)}
		}
	}

	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertSnapshot:
			err = assertSnapshot(snapshot, a)
		case AssertRequestCount:
			err = assertRequestCount(result, a)
		case AssertJournalCount:
			err = assertJournalCount(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}

		if err != nil {
			var ae *AssertionError
			if errors.As(err, &ae) {
				ae.Steps = result.Steps
			}
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return errs
}

// assertSnapshot compares the value at a dotted path of the canonical
// snapshot. Numbers compare by value regardless of YAML or Go integer type.
func assertSnapshot(snapshot any, a Assertion) error {
	got, found := lookupPath(snapshot, a.Path)

	if a.Absent {
		if found {
			return &AssertionError{
				Type:     AssertSnapshot,
				Expected: fmt.Sprintf("%s to be absent", a.Path),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
		return nil
	}

	if !found {
		return &AssertionError{
			Type:     AssertSnapshot,
			Expected: fmt.Sprintf("%s = %v", a.Path, a.Equals),
			Actual:   "path not found",
		}
	}

	want, err := normalize(a.Equals)
	if err != nil {
		return fmt.Errorf("normalize expected value: %w", err)
	}
	if !reflect.DeepEqual(want, got) {
		return &AssertionError{
			Type:     AssertSnapshot,
			Expected: fmt.Sprintf("%s = %s", a.Path, render(want)),
			Actual:   render(got),
		}
	}
	return nil
}

func assertRequestCount(result *Result, a Assertion) error {
	n := 0
	for _, r := range result.Requests {
		if a.Method != "" && r.Method != a.Method {
			continue
		}
		if a.Route != "" && r.Path != a.Route {
			continue
		}
		n++
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertRequestCount,
			Expected: fmt.Sprintf("%d requests matching %q %q", a.Count, a.Method, a.Route),
			Actual:   fmt.Sprintf("%d", n),
		}
	}
	return nil
}

func assertJournalCount(result *Result, a Assertion) error {
	n := 0
	for _, e := range result.Journal {
		if a.Key != "" && e.Key != a.Key {
			continue
		}
		n++
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertJournalCount,
			Expected: fmt.Sprintf("%d journal entries for key %q", a.Count, a.Key),
			Actual:   fmt.Sprintf("%d", n),
		}
	}
	return nil
}

// lookupPath walks a dotted path through decoded JSON. Numeric segments
// index arrays.
func lookupPath(v any, path string) (any, bool) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// normalize round-trips v through JSON so values decoded from YAML and
// values built in Go compare equal.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func render(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
