package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// StoredToken is persisted before the first step, as if left behind by
	// an earlier run.
	StoredToken string `yaml:"stored_token,omitempty"`

	// Routes script the fake API. Entries for the same method and path are
	// answered in order, one request each; a sticky entry answers every
	// request once the one-shot entries are used up.
	Routes []Route `yaml:"routes,omitempty"`

	// Steps are engine operations, run one after another.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Route is one scripted API response.
type Route struct {
	Method string `yaml:"method"`
	Path   string `yaml:"path"`
	// Status defaults to 200.
	Status int `yaml:"status,omitempty"`
	// Body is sent as JSON; a string is sent verbatim.
	Body   any  `yaml:"body,omitempty"`
	Sticky bool `yaml:"sticky,omitempty"`
}

// Step invokes one engine operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Args holds the operation's string arguments (email, password, text,
	// post_id, type).
	Args map[string]string `yaml:"args,omitempty"`

	// Expect checks the operation's result. If nil, any outcome is accepted.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the expected result of a step. Unset fields are not checked.
type Expect struct {
	OK      *bool  `yaml:"ok,omitempty"`
	Kind    string `yaml:"kind,omitempty"`
	Message string `yaml:"message,omitempty"`
	Applied *bool  `yaml:"applied,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "snapshot": value at Path in the canonical snapshot equals Equals,
	//   or is missing when Absent is set
	// - "request_count": the API saw Count requests, optionally only those
	//   matching Method and Route
	// - "journal_count": the journal holds Count dispatches, optionally only
	//   those for Key
	Type string `yaml:"type"`

	// Path is a dotted path into the canonical snapshot, e.g.
	// "session.status" or "feed.0.id" (used by snapshot).
	Path string `yaml:"path,omitempty"`

	// Equals is the expected value (used by snapshot).
	Equals any `yaml:"equals,omitempty"`

	// Absent requires Path not to exist (used by snapshot).
	Absent bool `yaml:"absent,omitempty"`

	// Method and Route filter requests (used by request_count).
	Method string `yaml:"method,omitempty"`
	Route  string `yaml:"route,omitempty"`

	// Key filters journal entries (used by journal_count).
	Key string `yaml:"key,omitempty"`

	// Count is the expected number of requests or journal entries.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertSnapshot     = "snapshot"
	AssertRequestCount = "request_count"
	AssertJournalCount = "journal_count"
)

// Step operations.
const (
	OpRestoreSession        = "restore_session"
	OpLogin                 = "login"
	OpLogout                = "logout"
	OpFetchFeed             = "fetch_feed"
	OpCreatePost            = "create_post"
	OpCreatePostAndRefresh  = "create_post_and_refresh"
	OpFetchReplies          = "fetch_replies"
	OpSubmitReply           = "submit_reply"
	OpSubmitReplyAndRefresh = "submit_reply_and_refresh"
	OpClearReplies          = "clear_replies"
	OpToggleReaction        = "toggle_reaction"
)

// requiredArgs lists the arguments each operation needs.
var requiredArgs = map[string][]string{
	OpRestoreSession:        nil,
	OpLogin:                 {"email", "password"},
	OpLogout:                nil,
	OpFetchFeed:             nil,
	OpCreatePost:            {"text"},
	OpCreatePostAndRefresh:  {"text"},
	OpFetchReplies:          {"post_id"},
	OpSubmitReply:           {"post_id", "text"},
	OpSubmitReplyAndRefresh: {"post_id", "text"},
	OpClearReplies:          {"post_id"},
	OpToggleReaction:        {"post_id", "type"},
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, r := range s.Routes {
		if r.Method == "" {
			return fmt.Errorf("routes[%d]: method is required", i)
		}
		if !strings.HasPrefix(r.Path, "/") {
			return fmt.Errorf("routes[%d]: path must start with /", i)
		}
	}

	for i, step := range s.Steps {
		required, known := requiredArgs[step.Op]
		if !known {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		for _, name := range required {
			if _, ok := step.Args[name]; !ok {
				return fmt.Errorf("steps[%d]: %s requires arg %q", i, step.Op, name)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSnapshot:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for snapshot", index)
		}
		if a.Equals == nil && !a.Absent {
			return fmt.Errorf("assertions[%d]: equals or absent is required for snapshot", index)
		}
	case AssertRequestCount, AssertJournalCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
