package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/feedsync/internal/domain"
)

// GoldenSnapshot captures what a scenario produced: the outcome of every
// step and the final engine state. Serialized with canonical JSON so the
// golden file is byte-stable.
type GoldenSnapshot struct {
	ScenarioName string
	Steps        []StepOutcome
	Snapshot     *domain.Snapshot
}

// toCanonicalMap converts a GoldenSnapshot to the generic form accepted by
// domain.MarshalCanonical.
func (g *GoldenSnapshot) toCanonicalMap() map[string]any {
	steps := make([]any, len(g.Steps))
	for i, s := range g.Steps {
		steps[i] = map[string]any{
			"op":      s.Op,
			"ok":      s.OK,
			"kind":    s.Kind,
			"message": s.Message,
			"applied": s.Applied,
			"version": s.Version,
		}
	}

	snapshot := domain.EmptySnapshot()
	if g.Snapshot != nil {
		snapshot = g.Snapshot
	}

	return map[string]any{
		"scenario_name": g.ScenarioName,
		"steps":         steps,
		"snapshot":      snapshot.CanonicalMap(),
	}
}

// Marshal renders the snapshot as canonical JSON.
func (g *GoldenSnapshot) Marshal() ([]byte, error) {
	return domain.MarshalCanonical(g.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its outcome against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the output doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snap := GoldenSnapshot{
		ScenarioName: scenarioName,
		Steps:        result.Steps,
		Snapshot:     result.Snapshot,
	}
	data, err := snap.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
