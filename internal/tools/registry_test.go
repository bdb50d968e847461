package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) *Tool {
	return &Tool{
		Name:        name,
		Description: "echoes its input",
		Category:    CategoryFile,
		Execute: func(_ context.Context, args map[string]any) (string, error) {
			return StringArg(args, "text"), nil
		},
		Schema: Schema{
			Required: []string{"text"},
			Properties: map[string]Property{
				"text": {Type: "string", Description: "text to echo"},
			},
		},
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	tool, err := r.Get("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", tool.Name)
	assert.True(t, r.Has("echo"))
	assert.Equal(t, 1, r.Count())
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	err := r.Register(echoTool("echo"))
	assert.ErrorIs(t, err, ErrToolAlreadyRegistered)
}

func TestRegisterInvalidTool(t *testing.T) {
	r := NewRegistry()

	err := r.Register(&Tool{Name: "", Execute: func(context.Context, map[string]any) (string, error) { return "", nil }})
	assert.ErrorIs(t, err, ErrToolNameEmpty)

	err = r.Register(&Tool{Name: "broken"})
	assert.ErrorIs(t, err, ErrToolExecuteNil)
}

func TestGetUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestExecuteSuccess(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	res := r.Execute(context.Background(), "echo", map[string]any{"text": "hello"})
	require.True(t, res.IsSuccess())
	assert.Equal(t, "hello", res.Output)
	assert.Equal(t, "echo", res.ToolName)
	assert.GreaterOrEqual(t, res.DurationMs, int64(0))
}

func TestExecuteMissingRequiredArg(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	res := r.Execute(context.Background(), "echo", map[string]any{})
	assert.ErrorIs(t, res.Error, ErrMissingArgument)
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	res := r.Execute(context.Background(), "missing", nil)
	assert.ErrorIs(t, res.Error, ErrToolNotFound)
}

func TestExecutePropagatesToolError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	require.NoError(t, r.Register(&Tool{
		Name:     "fail",
		Category: CategoryShell,
		Execute: func(context.Context, map[string]any) (string, error) {
			return "", boom
		},
	}))

	res := r.Execute(context.Background(), "fail", nil)
	assert.False(t, res.IsSuccess())
	assert.ErrorIs(t, res.Error, boom)
}

func TestListSortedAndByCategory(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("zeta")))
	require.NoError(t, r.Register(echoTool("alpha")))
	require.NoError(t, r.Register(&Tool{
		Name:     "run_command",
		Category: CategoryShell,
		Gated:    true,
		Execute:  func(context.Context, map[string]any) (string, error) { return "", nil },
	}))

	all := r.List()
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "run_command", all[1].Name)
	assert.Equal(t, "zeta", all[2].Name)

	shell := r.ListByCategory(CategoryShell)
	require.Len(t, shell, 1)
	assert.Equal(t, "run_command", shell[0].Name)
	assert.True(t, shell[0].Gated)
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))
	r.Unregister("echo")
	assert.False(t, r.Has("echo"))
	r.Unregister("echo") // no-op
}

func TestArgHelpers(t *testing.T) {
	args := map[string]any{
		"s": "str",
		"b": true,
		"f": float64(42),
		"i": 7,
	}
	assert.Equal(t, "str", StringArg(args, "s"))
	assert.Equal(t, "", StringArg(args, "missing"))
	assert.True(t, BoolArg(args, "b", false))
	assert.False(t, BoolArg(args, "missing", false))
	assert.Equal(t, 42, IntArg(args, "f", 0))
	assert.Equal(t, 7, IntArg(args, "i", 0))
	assert.Equal(t, 9, IntArg(args, "missing", 9))
}
