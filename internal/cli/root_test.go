package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/feedsync/internal/config"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "feedsync", cmd.Use)
	assert.Contains(t, cmd.Long, "synchronization engine")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"login", "logout", "status", "feed", "post", "replies", "reply", "react", "trace", "watch"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "env", "db", "api-url"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, "flag %s", name)
		assert.Equal(t, "", flag.DefValue)
	}
}

func TestLoginCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	loginCmd, _, err := cmd.Find([]string{"login"})
	require.NoError(t, err)

	for _, name := range []string{"email", "password"} {
		flag := loginCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "flag %s", name)
		assert.Equal(t, "", flag.DefValue)
	}
}

func TestWatchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	watchCmd, _, err := cmd.Find([]string{"watch"})
	require.NoError(t, err)

	every := watchCmd.Flags().Lookup("every")
	require.NotNil(t, every)
	assert.Equal(t, "30s", every.DefValue)

	times := watchCmd.Flags().Lookup("times")
	require.NotNil(t, times)
	assert.Equal(t, "0", times.DefValue)
}

func TestTraceCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	traceCmd, _, err := cmd.Find([]string{"trace"})
	require.NoError(t, err)

	limit := traceCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "50", limit.DefValue)
	assert.NotNil(t, traceCmd.Flags().Lookup("key"))
}

func TestInvalidFormat(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run(t, "--format", "yaml", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}

func TestLoadConfig_EnvFlagKeepsEnvURL(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv(config.EnvAPIURL, "https://feed.example.com")

	cfg, err := loadConfig(&RootOptions{Env: config.Production, DB: env.db})
	require.NoError(t, err)
	assert.Equal(t, config.Production, cfg.Environment)
	assert.Equal(t, "https://feed.example.com", cfg.BaseURL())
}

func TestLoadConfig_APIURLFlagWinsOverEnv(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv(config.EnvAPIURL, "https://feed.example.com")

	cfg, err := loadConfig(&RootOptions{Env: config.Production, DB: env.db, APIURL: "https://flag.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example.com", cfg.BaseURL())
}
