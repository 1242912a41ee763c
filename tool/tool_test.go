package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/messagelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testToolContext(appender core.Appender) *core.ToolContext {
	return core.NewToolContext(context.Background(), core.ToolContextConfig{
		AgentName: "Roger",
		CallID:    "fc1",
		Appender:  appender,
	})
}

func testConfig(appender core.Appender) core.ToolContextConfig {
	return core.ToolContextConfig{AgentName: "Roger", RoundID: "r1", Appender: appender}
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sumTool := NewFunctionTool("sum", "Add numbers", params, func(_ *core.ToolContext, args map[string]any) (any, error) {
		return args["a"].(float64) + args["b"].(float64), nil
	})

	result, err := sumTool.Call(testToolContext(nil), map[string]any{"a": 2.0, "b": 3.0})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []string{"a"},
	}
	tTool := NewFunctionTool("test", "Test", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return 0, nil
	})

	_, err := tTool.Call(testToolContext(nil), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, core.CodeValidation, toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	execTool := NewFunctionTool("fail", "Fails", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})

	_, err := execTool.Call(testToolContext(nil), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, core.CodeExecution, toolErr.Code)
	assert.Equal(t, "boom", toolErr.Message)
}

func TestFunctionToolFromStruct(t *testing.T) {
	type args struct {
		Query string `json:"query" description:"Search query"`
	}
	ft := NewFunctionToolFromStruct("lookup", "Lookup", args{}, func(_ *core.ToolContext, a map[string]any) (any, error) {
		return a["query"], nil
	})
	props := ft.Parameters()["properties"].(map[string]any)
	assert.Contains(t, props, "query")
}

// -------------------- Registry Tests --------------------

func echoTool() Tool {
	return NewFunctionTool("echo", "Echo text", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
		"required": []string{"text"},
	}, func(_ *core.ToolContext, args map[string]any) (any, error) {
		return args["text"], nil
	})
}

func TestRegistry_RegisterOrderAndUniqueness(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool(), NewAskOfficeTool(), NewNoResponseTool()))
	assert.Equal(t, []string{"echo", "ask_office", "no_response"}, r.Names())

	err := r.Register(echoTool())
	assert.ErrorIs(t, err, ErrDuplicateTool)
	assert.Equal(t, 3, r.Len())

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "echo", defs[0].Function.Name)
	assert.Equal(t, "Echo text", defs[0].Function.Description)
}

func TestRegistry_InvokeSuccess(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool()))

	inv := r.Invoke(context.Background(), testConfig(nil), core.FunctionCall{ID: "c1", Name: "echo", Arguments: `{"text":"hi"}`})
	assert.True(t, inv.Result.Success)
	assert.Equal(t, "hi", inv.Result.Payload)
	assert.Equal(t, "c1", inv.Result.CallID)
	assert.False(t, inv.Actions.Terminal())
}

func TestRegistry_InvokeMalformed(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool()))

	cases := map[string]core.FunctionCall{
		"unknown tool":     {Name: "fly"},
		"invalid json":     {Name: "echo", Arguments: `{"text":`},
		"non object json":  {Name: "echo", Arguments: `["hi"]`},
		"missing required": {Name: "echo", Arguments: `{}`},
		"wrong type":       {Name: "echo", Arguments: `{"text":42}`},
	}
	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			inv := r.Invoke(context.Background(), testConfig(nil), call)
			assert.False(t, inv.Result.Success)
			assert.Equal(t, core.CodeMalformedToolCall, inv.Result.Code)
			assert.ErrorIs(t, inv.Result.Err(), core.ErrMalformedToolCall)
		})
	}
}

func TestRegistry_InvokeRecoversPanic(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewFunctionTool("explode", "Panics", map[string]any{"type": "object"},
		func(_ *core.ToolContext, _ map[string]any) (any, error) {
			panic("kaboom")
		})))

	inv := r.Invoke(context.Background(), testConfig(nil), core.FunctionCall{Name: "explode"})
	assert.False(t, inv.Result.Success)
	assert.Equal(t, core.CodeExecution, inv.Result.Code)
	assert.Contains(t, inv.Result.Error, "kaboom")
}

func TestRegistry_InvokeTimeout(t *testing.T) {
	r := NewRegistry(func(o *RegistryOptions) { o.Timeout = 20 * time.Millisecond })
	require.NoError(t, r.Register(NewFunctionTool("slow", "Slow", map[string]any{"type": "object"},
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			<-tc.Context().Done()
			return nil, tc.Context().Err()
		})))

	inv := r.Invoke(context.Background(), testConfig(nil), core.FunctionCall{Name: "slow"})
	assert.False(t, inv.Result.Success)
	assert.Equal(t, core.CodeTimeout, inv.Result.Code)
}

func TestRegistry_InvokeCancelledKeepsPosts(t *testing.T) {
	log := messagelog.NewInMemoryLog()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	defer close(release)

	r := NewRegistry()
	require.NoError(t, r.Register(NewFunctionTool("post_then_hang", "Posts and keeps running", map[string]any{"type": "object"},
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			if _, err := tc.Post("", "first"); err != nil {
				return nil, err
			}
			cancel()
			<-release
			_, err := tc.Post("", "second")
			return nil, err
		})))

	inv := r.Invoke(ctx, testConfig(log), core.FunctionCall{ID: "c1", Name: "post_then_hang"})
	assert.False(t, inv.Result.Success)
	assert.Equal(t, core.CodeExecution, inv.Result.Code)
	require.Len(t, inv.Actions.Posted, 1)
	assert.Equal(t, "first", inv.Actions.Posted[0].Content)
	assert.Equal(t, 1, log.Len())
}

func TestRegistry_InvokeExecutionErrorPreservesCode(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewFunctionTool("quota", "Quota", map[string]any{"type": "object"},
		func(_ *core.ToolContext, _ map[string]any) (any, error) {
			return nil, NewToolError("quota", "rate limited", "RATE_LIMITED")
		})))

	inv := r.Invoke(context.Background(), testConfig(nil), core.FunctionCall{Name: "quota"})
	assert.Equal(t, "RATE_LIMITED", inv.Result.Code)
	assert.Equal(t, "rate limited", inv.Result.Error)
	assert.ErrorIs(t, inv.Result.Err(), core.ErrToolExecution)
}

// -------------------- Common Tools --------------------

func TestAskOffice_PostsBroadcast(t *testing.T) {
	log := messagelog.NewInMemoryLog()
	r := NewRegistry()
	require.NoError(t, r.Register(CommonTools()...))

	inv := r.Invoke(context.Background(), testConfig(log), core.FunctionCall{ID: "c1", Name: AskOfficeToolName, Arguments: `{"message":"hello"}`})
	require.True(t, inv.Result.Success, inv.Result.Error)
	require.Len(t, inv.Actions.Posted, 1)
	assert.True(t, inv.Actions.Terminal())

	all := log.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Roger", all[0].Sender)
	assert.Equal(t, "hello", all[0].Content)
	assert.True(t, all[0].IsBroadcast())
}

func TestAskOffice_DirectAndSelfAddress(t *testing.T) {
	log := messagelog.NewInMemoryLog()
	r := NewRegistry()
	require.NoError(t, r.Register(CommonTools()...))

	inv := r.Invoke(context.Background(), testConfig(log), core.FunctionCall{Name: AskOfficeToolName, Arguments: `{"message":"price?","recipient":"Peter"}`})
	require.True(t, inv.Result.Success)
	assert.Equal(t, "Peter", log.All()[0].Recipient)

	inv = r.Invoke(context.Background(), testConfig(log), core.FunctionCall{Name: AskOfficeToolName, Arguments: `{"message":"me","recipient":"roger"}`})
	assert.False(t, inv.Result.Success)
	assert.Equal(t, 1, log.Len())

	inv = r.Invoke(context.Background(), testConfig(log), core.FunctionCall{Name: AskOfficeToolName, Arguments: `{"message":"   "}`})
	assert.False(t, inv.Result.Success)
	assert.Equal(t, 1, log.Len())
}

func TestNoResponse_AppendsNothing(t *testing.T) {
	log := messagelog.NewInMemoryLog()
	r := NewRegistry()
	require.NoError(t, r.Register(CommonTools()...))

	inv := r.Invoke(context.Background(), testConfig(log), core.FunctionCall{Name: NoResponseToolName, Arguments: `{"reason":"not my area"}`})
	require.True(t, inv.Result.Success)
	assert.True(t, inv.Actions.NoResponse)
	assert.Equal(t, "not my area", inv.Actions.Reason)
	assert.Equal(t, 0, log.Len())

	inv = r.Invoke(context.Background(), testConfig(log), core.FunctionCall{Name: NoResponseToolName})
	assert.True(t, inv.Actions.NoResponse)
}

// -------------------- ToolError Formatting --------------------

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("demo", "something failed", "E123")
	assert.Contains(t, err.Error(), "E123")
	assert.Contains(t, err.Error(), "demo")
	assert.Equal(t, "tool error in demo: x", (&ToolError{Tool: "demo", Message: "x"}).Error())
}

func TestArgHelpers(t *testing.T) {
	args := map[string]any{"n": 3.0, "s": "x"}
	assert.Equal(t, 3, IntArg(args, "n", 5))
	assert.Equal(t, 5, IntArg(args, "missing", 5))
	s, ok := StringArg(args, "s")
	assert.True(t, ok)
	assert.Equal(t, "x", s)
}
