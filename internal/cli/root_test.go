package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/loom-sh/loom/internal/app"
)

func newTestContainer(t *testing.T) *app.Container {
	t.Helper()
	c, err := app.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// execute runs the CLI against a fresh container and returns stdout.
func execute(t *testing.T, c *app.Container, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(c, "test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommand_HelpListsCommandGroups(t *testing.T) {
	out, err := execute(t, nil, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "Repository commands:")
	assert.Contains(t, out, "Session commands:")
	for _, name := range []string{"repo", "worktree", "session", "task", "import", "board"} {
		assert.Contains(t, out, name)
	}
}

func TestCheckRef(t *testing.T) {
	assert.Error(t, checkRef("ab"))
	assert.NoError(t, checkRef("abcd"))
	assert.NoError(t, checkRef("0195c3a8-0000-7000-8000-000000000001"))
}

func TestSessionLifecycleThroughCLI(t *testing.T) {
	c := newTestContainer(t)

	out, err := execute(t, c, "session", "new", "--description", "fix the login flow")
	require.NoError(t, err)

	var created struct {
		ID     string `yaml:"id"`
		Status string `yaml:"status"`
		Agent  string `yaml:"agent"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "idle", created.Status)
	assert.Equal(t, "claude-code", created.Agent)

	out, err = execute(t, c, "session", "spawn", created.ID, "--prompt", "write the tests")
	require.NoError(t, err)
	var child struct {
		ID string `yaml:"id"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &child))
	assert.NotEqual(t, created.ID, child.ID)

	out, err = execute(t, c, "session", "tree", created.ID)
	require.NoError(t, err)
	assert.Contains(t, out, child.ID[:8])

	out, err = execute(t, c, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "fix the login flow")
	assert.Contains(t, out, "write the tests")
}

func TestBoardCommandsThroughCLI(t *testing.T) {
	c := newTestContainer(t)

	out, err := execute(t, c, "session", "new")
	require.NoError(t, err)
	var sess struct {
		ID string `yaml:"id"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &sess))

	_, err = execute(t, c, "board", "create", "Auth work")
	require.NoError(t, err)

	out, err = execute(t, c, "board", "add", "auth-work", sess.ID)
	require.NoError(t, err)
	assert.Contains(t, out, sess.ID)

	out, err = execute(t, c, "session", "list", "--board", "auth-work")
	require.NoError(t, err)
	assert.Contains(t, out, sess.ID[:8])
}

func TestShortRefRejectedAtBoundary(t *testing.T) {
	c := newTestContainer(t)

	_, err := execute(t, c, "session", "show", "ab")
	assert.ErrorContains(t, err, "too short")
}
