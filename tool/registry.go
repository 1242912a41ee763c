package tool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/internal/util"
	"github.com/hupe1980/agentoffice/logging"
	"github.com/hupe1980/agentoffice/model"
)

// ErrDuplicateTool is returned when two tools share a name on one registry.
var ErrDuplicateTool = errors.New("duplicate tool name")

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Timeout bounds each tool call. Zero disables the bound.
	Timeout time.Duration
	Logger  logging.Logger
}

// Registry is an ordered, name-unique set of tools owned by one agent.
// Registration happens at construction; afterwards the registry is read-only
// and safe for concurrent Invoke calls.
type Registry struct {
	tools  []Tool
	index  map[string]Tool
	opts   RegistryOptions
	logger logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{
		Timeout: 30 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return &Registry{index: map[string]Tool{}, opts: opts, logger: logger}
}

// Register appends tools in order. Names must be unique.
func (r *Registry) Register(tools ...Tool) error {
	for _, t := range tools {
		name := t.Name()
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("tool with empty name")
		}
		if _, exists := r.index[name]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}
		r.index[name] = t
		r.tools = append(r.tools, t)
	}
	return nil
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.index[name]
	return t, ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name()
	}
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// Definitions returns the model facing tool declarations in registration order.
func (r *Registry) Definitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, len(r.tools))
	for i, t := range r.tools {
		defs[i] = model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		}
	}
	return defs
}

// Invocation is the outcome of Registry.Invoke: the normalized result plus
// the terminal actions the tool raised.
type Invocation struct {
	Result  core.ToolResult
	Actions core.ToolActions
}

// Invoke executes call. It never returns a Go error: unknown tools and
// undecodable or schema violating arguments yield MALFORMED_TOOL_CALL,
// failures and recovered panics yield EXECUTION_ERROR and calls exceeding the
// timeout yield TIMEOUT.
func (r *Registry) Invoke(ctx context.Context, cfg core.ToolContextConfig, call core.FunctionCall) Invocation {
	result := core.ToolResult{CallID: call.ID, Name: call.Name}

	impl, ok := r.index[call.Name]
	if !ok {
		result.Code = core.CodeMalformedToolCall
		result.Error = fmt.Sprintf("tool %s not found; available tools: %s", call.Name, strings.Join(r.Names(), ", "))
		r.logger.Warn("agent.tool.unknown", "agent", cfg.AgentName, "tool", call.Name)
		return Invocation{Result: result}
	}

	args, err := util.DecodeArguments(call.Arguments)
	if err == nil {
		err = util.ValidateParameters(args, impl.Parameters())
	}
	if err != nil {
		result.Code = core.CodeMalformedToolCall
		result.Error = err.Error()
		r.logger.Warn("agent.tool.malformed", "agent", cfg.AgentName, "tool", call.Name, "error", err.Error())
		return Invocation{Result: result}
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	if cfg.CallID == "" {
		cfg.CallID = call.ID
	}
	if cfg.Logger == nil {
		cfg.Logger = r.logger
	}

	toolCtx := core.NewToolContext(ctx, cfg)

	type outcome struct {
		payload any
		err     error
	}

	done := make(chan outcome, 1)
	start := time.Now()

	go func() {
		var o outcome
		defer func() { done <- o }()
		defer func() { // panic safety
			if rec := recover(); rec != nil {
				o.err = &panicErr{val: rec, stack: debug.Stack()}
				r.logger.Error("agent.tool.panic", "agent", cfg.AgentName, "tool", call.Name, "recover", rec)
			}
		}()
		o.payload, o.err = impl.Call(toolCtx, args)
	}()

	var (
		o        outcome
		finished bool
	)

	select {
	case o = <-done:
		finished = true
	case <-ctx.Done():
		// A tool that finished as the context ended keeps its outcome.
		select {
		case o = <-done:
			finished = true
		default:
		}
	}

	if !finished {
		// The tool may still be running. Posts it already made are durable
		// and reported; later ones fail on the cancelled context.
		result.Code = core.CodeTimeout
		if errors.Is(ctx.Err(), context.Canceled) {
			result.Code = core.CodeExecution
		}
		result.Error = ctx.Err().Error()
		r.logger.Warn("agent.tool.aborted", "agent", cfg.AgentName, "tool", call.Name, "error", ctx.Err().Error())

		return Invocation{Result: result, Actions: toolCtx.Actions()}
	}

	r.logger.Info("agent.tool.executed",
		"agent", cfg.AgentName,
		"tool", call.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", o.err != nil,
	)

	if o.err != nil {
		result.Code = core.CodeExecution
		result.Error = o.err.Error()

		var toolErr *ToolError
		if errors.As(o.err, &toolErr) {
			result.Error = toolErr.Message
			if toolErr.Code != "" {
				result.Code = toolErr.Code
			}
		}
		if errors.Is(o.err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.Code = core.CodeTimeout
		}

		return Invocation{Result: result, Actions: toolCtx.Actions()}
	}

	result.Success = true
	result.Payload = o.payload

	return Invocation{Result: result, Actions: toolCtx.Actions()}
}

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }
