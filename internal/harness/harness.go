package harness

import (
	"context"
	"fmt"
	"net/http"

	"github.com/roach88/feedsync/internal/api"
	"github.com/roach88/feedsync/internal/domain"
	"github.com/roach88/feedsync/internal/engine"
	"github.com/roach88/feedsync/internal/store"
	"github.com/roach88/feedsync/internal/testutil"
)

// Harness holds the collaborators of one scenario run.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	api    *testutil.FakeAPI
	clock  *testutil.DeterministicClock
	ids    *testutil.SequentialIDGenerator
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database against a fresh fake
// API. Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database, seed the stored token
// 2. Start the fake API with the scenario's routes
// 3. Start the engine
// 4. Execute steps in order, checking expect clauses
// 5. Evaluate assertions and return the result
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if scenario.StoredToken != "" {
		if err := st.SaveToken(ctx, scenario.StoredToken); err != nil {
			return nil, fmt.Errorf("failed to seed token: %w", err)
		}
	}

	fake := testutil.StartFakeAPI()
	defer fake.Close()
	scriptRoutes(fake, scenario.Routes)

	h := &Harness{
		store: st,
		api:   fake,
		clock: testutil.NewDeterministicClock(),
		ids:   testutil.NewSequentialIDGenerator("req"),
	}
	h.engine = engine.New(api.NewClient(fake.URL), st,
		engine.WithJournal(st),
		engine.WithSequencer(h.clock),
		engine.WithRequestIDs(h.ids),
	)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- h.engine.Run(runCtx) }()
	defer func() {
		cancel()
		<-done
	}()

	result := NewResult()
	for i, step := range scenario.Steps {
		drawn := len(h.clock.Issued())
		outcome := h.executeStep(ctx, step)
		outcome.Version = h.engine.Snapshot().Version
		outcome.Tickets = len(h.clock.Issued()) - drawn
		result.AddStep(outcome)

		for _, msg := range checkExpect(i, step, outcome) {
			result.AddError(msg)
		}
	}

	result.Snapshot = h.engine.Snapshot()
	result.Requests = fake.Requests()
	result.Journal, err = st.ReadJournal(ctx, "", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func scriptRoutes(fake *testutil.FakeAPI, routes []Route) {
	for _, r := range routes {
		status := r.Status
		if status == 0 {
			status = http.StatusOK
		}
		if r.Sticky {
			fake.Handle(r.Method, r.Path, status, r.Body)
			continue
		}
		fake.Enqueue(r.Method, r.Path, testutil.Response{Status: status, Body: r.Body})
	}
}

// executeStep runs one operation. Ops are validated when the scenario is
// loaded; an unknown op here is reported as a failed step.
func (h *Harness) executeStep(ctx context.Context, step Step) StepOutcome {
	e := h.engine
	args := step.Args

	switch step.Op {
	case OpRestoreSession:
		return outcome(step.Op, e.RestoreSession(ctx))

	case OpLogin:
		return outcome(step.Op, e.Login(ctx, args["email"], args["password"]))

	case OpLogout:
		return outcome(step.Op, e.Logout(ctx))

	case OpFetchFeed:
		return outcome(step.Op, e.FetchFeed(ctx))

	case OpCreatePost:
		return outcome(step.Op, e.CreatePost(ctx, args["text"]))

	case OpCreatePostAndRefresh:
		created, refreshed := e.CreatePostAndRefresh(ctx, args["text"])
		if !created.OK() {
			return outcome(step.Op, created)
		}
		return outcome(step.Op, refreshed)

	case OpFetchReplies:
		return outcome(step.Op, e.FetchReplies(ctx, args["post_id"]))

	case OpSubmitReply:
		return outcome(step.Op, e.SubmitReply(ctx, args["post_id"], args["text"]))

	case OpSubmitReplyAndRefresh:
		submitted, refreshed := e.SubmitReplyAndRefresh(ctx, args["post_id"], args["text"])
		if !submitted.OK() || (refreshed.Err == nil && !refreshed.Applied) {
			return outcome(step.Op, submitted)
		}
		return outcome(step.Op, refreshed)

	case OpClearReplies:
		if err := e.ClearReplyCache(args["post_id"]); err != nil {
			return StepOutcome{Op: step.Op, Kind: string(engine.KindStopped), Message: err.Error()}
		}
		return StepOutcome{Op: step.Op, OK: true, Applied: true}

	case OpToggleReaction:
		return outcome(step.Op, e.ToggleReaction(ctx, args["post_id"], domain.ReactionType(args["type"])))

	default:
		return StepOutcome{Op: step.Op, Kind: "UnknownOp", Message: "unknown op " + step.Op}
	}
}

func outcome[T any](op string, r engine.Result[T]) StepOutcome {
	o := StepOutcome{Op: op, OK: r.OK(), Applied: r.Applied}
	if r.Err != nil {
		o.Kind = string(r.Err.Kind)
		o.Message = r.Err.Message
	}
	return o
}

// checkExpect compares a step outcome against its expect clause.
func checkExpect(index int, step Step, got StepOutcome) []string {
	want := step.Expect
	if want == nil {
		return nil
	}

	var errs []string
	prefix := fmt.Sprintf("steps[%d] %s", index, step.Op)

	if want.OK != nil && *want.OK != got.OK {
		errs = append(errs, fmt.Sprintf("%s: expected ok=%t, got ok=%t (%s: %s)",
			prefix, *want.OK, got.OK, got.Kind, got.Message))
	}
	if want.Kind != "" && want.Kind != got.Kind {
		errs = append(errs, fmt.Sprintf("%s: expected kind %q, got %q", prefix, want.Kind, got.Kind))
	}
	if want.Message != "" && want.Message != got.Message {
		errs = append(errs, fmt.Sprintf("%s: expected message %q, got %q", prefix, want.Message, got.Message))
	}
	if want.Applied != nil && *want.Applied != got.Applied {
		errs = append(errs, fmt.Sprintf("%s: expected applied=%t, got applied=%t", prefix, *want.Applied, got.Applied))
	}
	return errs
}
