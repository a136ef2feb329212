package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-asyncevent/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 20 * time.Millisecond

func newEventComponent(t *testing.T) *event.Component {
	t.Helper()
	ec := event.NewComponent()
	require.NoError(t, ec.Init(context.Background(), nil))
	t.Cleanup(func() { _ = ec.Stop(context.Background()) })
	return ec
}

func runOne(t *testing.T, name string) []string {
	t.Helper()
	list, err := selectScenarios([]string{name})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runScenarios(context.Background(), newEventComponent(t), &out, list, testDelay))
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

func TestSelectScenarios(t *testing.T) {
	all, err := selectScenarios(nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	picked, err := selectScenarios([]string{"fail-fast", "parallel"})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "fail-fast", picked[0].name)

	_, err = selectScenarios([]string{"nope"})
	assert.ErrorContains(t, err, "unknown scenario")
}

func TestScenario_Parallel(t *testing.T) {
	lines := runOne(t, "parallel")

	require.Len(t, lines, 6)
	assert.Equal(t, "Invoking async event handlers in parallel", lines[0])
	// 两个 handler 都在任何一个结束之前开始
	assert.ElementsMatch(t, []string{
		"First handler (hello) before delay",
		"Second handler (hello) before delay",
	}, lines[1:3])
	assert.Equal(t, "First handler after delay", lines[3])
	assert.Equal(t, "Second handler after delay", lines[4])
	assert.Equal(t, "Done invoking async event handlers", lines[5])
}

func TestScenario_InOrder(t *testing.T) {
	assert.Equal(t, []string{
		"Invoking async event handlers in order",
		"First handler (hello) before delay",
		"First handler after delay",
		"Second handler (hello) before delay",
		"Second handler after delay",
		"Done invoking async event handlers",
	}, runOne(t, "in-order"))
}

func TestScenario_Exceptions(t *testing.T) {
	lines := runOne(t, "exceptions")

	require.Len(t, lines, 8)
	assert.Equal(t, "Exception *event.AggregateError with message '2 handlers failed while invoking async event: First exception; Second exception'", lines[5])
	assert.Equal(t, "  Inner exception *errcode.LayeredError with message 'First exception' (code 900001)", lines[6])
	assert.Equal(t, "  Inner exception *errcode.LayeredError with message 'Second exception' (code 900001)", lines[7])
}

func TestScenario_FailFast(t *testing.T) {
	assert.Equal(t, []string{
		"Invoking async event handlers in order, failing on first exception",
		"First handler (hello) before delay",
		"First handler after delay",
		"Exception *errcode.LayeredError with message 'First exception' (code 900001)",
	}, runOne(t, "fail-fast"))
}

func TestRootCmd_Run(t *testing.T) {
	t.Setenv("APP_ENV", "unit")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("event:\n  pool_size: 4\n"), 0o644))

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"run", "in-order", "fail-fast", "--config", dir, "--delay", "1ms"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Invoking async event handlers in order\n")
	assert.Contains(t, out.String(), "Exception *errcode.LayeredError with message 'First exception'")
	assert.NotContains(t, out.String(), "Invoking async event handlers in parallel")
}

func TestRootCmd_UnknownScenario(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "bogus"})
	assert.ErrorContains(t, cmd.Execute(), "unknown scenario")
}

func TestRootCmd_List(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"list"})

	require.NoError(t, cmd.Execute())
	for _, name := range scenarioNames() {
		assert.Contains(t, out.String(), name)
	}
}

func TestRootCmd_Health(t *testing.T) {
	t.Setenv("APP_ENV", "unit")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("event:\n  pool_size: 2\n"), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"health", "--config", dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"status": "healthy"`)
	assert.Contains(t, out.String(), `"service": "asyncevent-demo"`)
	assert.Contains(t, out.String(), `"event"`)
}

func TestCheckConfig(t *testing.T) {
	t.Setenv("APP_ENV", "unit")

	t.Run("valid", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("event:\n  default_options: in_order\n"), 0o644))

		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"check-config", "--config", dir, "--pool-size", "7"})

		require.NoError(t, cmd.Execute())
		assert.Contains(t, out.String(), `"pool_size": 7`)
		assert.Contains(t, out.String(), `"default_options": "in_order"`)
		assert.Contains(t, out.String(), `"level": "info"`)
	})

	t.Run("log level precedence", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("logger:\n  level: debug\n"), 0o644))

		check := func(args ...string) string {
			var out bytes.Buffer
			cmd := newRootCmd()
			cmd.SetOut(&out)
			cmd.SetArgs(append([]string{"check-config", "--config", dir}, args...))
			require.NoError(t, cmd.Execute())
			return out.String()
		}

		assert.Contains(t, check(), `"level": "debug"`, "file value kept when the flag is not given")

		t.Setenv("ASYNCEVENT_LOGGER__LEVEL", "error")
		assert.Contains(t, check(), `"level": "error"`, "env overrides file")
		assert.Contains(t, check("--log-level", "warn"), `"level": "warn"`, "flag overrides env")
	})

	t.Run("invalid", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("event:\n  default_options: sideways\n"), 0o644))

		var out, errOut bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		cmd.SetArgs([]string{"check-config", "--config", dir})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "event")
		assert.Contains(t, errOut.String(), "default_options")
	})
}
