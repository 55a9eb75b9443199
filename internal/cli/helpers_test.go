package cli

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/feedsync/internal/config"
	"github.com/roach88/feedsync/internal/domain"
	"github.com/roach88/feedsync/internal/testutil"
)

const (
	pathLogin   = "/api/auth/login"
	pathPosts   = "/api/community/post"
	pathSend    = "/api/community/sendpost"
	pathReply   = "/api/community/replypost"
	pathReplies = "/api/community/replies/"
)

// cliEnv is an isolated environment for running commands: a fake backend,
// a temp database, and no config file, .env or FEEDSYNC_* variables.
type cliEnv struct {
	api *testutil.FakeAPI
	db  string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, key := range []string{config.EnvEnvironment, config.EnvDatabase, config.EnvAPIURL} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	chdir(t, t.TempDir())

	return &cliEnv{
		api: testutil.NewFakeAPI(t),
		db:  filepath.Join(t.TempDir(), "feedsync.db"),
	}
}

// run executes the root command against the env's backend and database.
func (e *cliEnv) run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--db", e.db, "--api-url", e.api.URL}, args...))

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// login stores a session for u1 with token tok-1.
func (e *cliEnv) login(t *testing.T) {
	t.Helper()
	e.api.Handle(http.MethodPost, pathLogin, http.StatusOK, testutil.WireLogin("tok-1", "u1", "member"))
	_, _, err := e.run(t, "login", "--email", "ada@example.com", "--password", "secret")
	require.NoError(t, err)
}

// requestsTo returns the recorded requests for method and path.
func (e *cliEnv) requestsTo(method, path string) []testutil.RecordedRequest {
	var out []testutil.RecordedRequest
	for _, r := range e.api.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func testSnapshot() *domain.Snapshot {
	snap := domain.EmptySnapshot()
	snap.Feed = []domain.Post{{ID: "p1", Author: domain.Author{ID: "u2", Name: "Grace"}, Text: "hello"}}
	return snap
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir on Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
