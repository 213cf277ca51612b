package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/taxflow/internal/testutil"
)

// testEnv is an isolated config file and database for one test.
type testEnv struct {
	dir    string
	config string
	db     string
	ids    *testutil.SequenceGenerator
}

// newTestEnv writes a config file; extra is appended as raw YAML.
func newTestEnv(t *testing.T, extra string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:    dir,
		config: filepath.Join(dir, "taxflow.yaml"),
		db:     filepath.Join(dir, "taxflow.db"),
		ids:    testutil.NewSequenceGenerator("run"),
	}
	cfg := "store:\n  path: " + env.db + "\nlog:\n  level: error\n"
	if !strings.Contains(extra, "output:") {
		cfg += "output:\n  color: false\n"
	}
	cfg += extra
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0644))
	return env
}

// execute runs the root command with the env's config and returns stdout.
// Run IDs continue across calls.
func (e *testEnv) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	opts := &RootOptions{RunIDs: e.ids}
	cmd := newRootCommand(opts)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", e.config}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func pipelinePath(name string) string {
	return filepath.Join("testdata", "pipelines", name)
}
