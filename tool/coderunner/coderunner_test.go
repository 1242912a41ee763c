package coderunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	got string
	out Output
	err error
}

func (f *fakeRunner) Run(_ context.Context, code string) (Output, error) {
	f.got = code
	return f.out, f.err
}

func invoke(t *testing.T, r Runner, args string) core.ToolResult {
	t.Helper()

	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(NewTool(r)))

	inv := reg.Invoke(context.Background(), core.ToolContextConfig{AgentName: "Luke"},
		core.FunctionCall{ID: "c1", Name: ToolName, Arguments: args})

	return inv.Result
}

func TestTool(t *testing.T) {
	r := &fakeRunner{out: Output{Stdout: "4\n"}}

	res := invoke(t, r, `{"code":"print(2+2)"}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "print(2+2)", r.got)

	payload, ok := res.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "4\n", payload["stdout"])
	assert.Equal(t, 0, payload["exit_code"])
	assert.Equal(t, true, payload["success"])
}

func TestTool_NonZeroExitIsReported(t *testing.T) {
	r := &fakeRunner{out: Output{Stderr: "NameError: name 'x' is not defined\n", ExitCode: 1}}

	res := invoke(t, r, `{"code":"print(x)"}`)
	require.True(t, res.Success, res.Error)

	payload := res.Payload.(map[string]any)
	assert.Equal(t, false, payload["success"])
	assert.Contains(t, payload["stderr"], "NameError")
}

func TestTool_Failures(t *testing.T) {
	res := invoke(t, &fakeRunner{}, `{"code":"   "}`)
	assert.False(t, res.Success)
	assert.Equal(t, core.CodeValidation, res.Code)

	res = invoke(t, &fakeRunner{err: fmt.Errorf("wait: %w", context.DeadlineExceeded)}, `{"code":"while True: pass"}`)
	assert.False(t, res.Success)
	assert.Equal(t, core.CodeTimeout, res.Code)

	res = invoke(t, &fakeRunner{err: errors.New("daemon unreachable")}, `{"code":"print(1)"}`)
	assert.False(t, res.Success)
	assert.Equal(t, core.CodeExecution, res.Code)
	assert.Contains(t, res.Error, "daemon unreachable")
}

func frame(stream byte, payload string) []byte {
	n := len(payload)
	header := []byte{stream, 0, 0, 0, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	return append(header, payload...)
}

func TestSplitLogs(t *testing.T) {
	var raw []byte
	raw = append(raw, frame(1, "hello\n")...)
	raw = append(raw, frame(2, "warning\n")...)
	raw = append(raw, frame(1, "world\n")...)

	stdout, stderr, err := splitLogs(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", stdout)
	assert.Equal(t, "warning\n", stderr)

	_, _, err = splitLogs(bytes.NewReader(append(frame(1, "ok\n"), frame(1, "partial")[:10]...)))
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	short := "short"
	assert.Equal(t, short, truncate(short))

	long := strings.Repeat("ä", maxOutput)
	got := truncate(long)
	assert.True(t, strings.HasSuffix(got, "[output truncated]"))
	assert.LessOrEqual(t, len(got), maxOutput+len("\n... [output truncated]"))
}
