// Package harness runs conformance scenarios against the feedsync engine.
//
// A scenario is a YAML file describing scripted API responses, a sequence
// of engine operations with their expected outcomes, and assertions on the
// final snapshot, the requests the API saw and the request journal.
//
// Each scenario runs against a real engine, a real api.Client and an
// in-memory store. Only the server is fake (testutil.FakeAPI), so a passing
// scenario exercises the same code paths as the CLI. Request ids and seqs
// are deterministic so the final state can be compared with golden files.
//
// Example usage:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/login_and_feed.yaml")
//	if err != nil {
//	    return err
//	}
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    return err
//	}
//
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        fmt.Println(msg)
//	    }
//	}
package harness
