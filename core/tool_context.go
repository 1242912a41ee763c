package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agentoffice/logging"
)

// ToolActions accumulates the terminal signals a tool raised during a step.
type ToolActions struct {
	Posted     []Message // Messages appended by the tool, in order
	NoResponse bool      // Tool explicitly declined to respond
	Reason     string    // Optional reason for declining
}

// Terminal reports whether any accumulated action ends the turn.
func (a ToolActions) Terminal() bool { return a.NoResponse || len(a.Posted) > 0 }

// ToolContextConfig carries the scope a ToolContext is bound to.
type ToolContextConfig struct {
	AgentName string
	RoundID   string
	CallID    string
	// Appender receives messages posted by tools. Nil disables posting.
	Appender Appender
	Logger   logging.Logger
}

// ToolContext provides a constrained, auditable surface for tool
// implementations invoked by an agent. Tools post to the office and signal
// terminal outcomes through it rather than reaching into the orchestrator.
type ToolContext struct {
	ctx       context.Context
	agentName string
	roundID   string
	callID    string
	appender  Appender

	mu      sync.Mutex
	actions ToolActions

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to ctx and the given scope.
func NewToolContext(ctx context.Context, cfg ToolContextConfig) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}

	return &ToolContext{
		ctx:           ctx,
		agentName:     cfg.AgentName,
		roundID:       cfg.RoundID,
		callID:        cfg.CallID,
		appender:      cfg.Appender,
		loggerAdapter: newLoggerAdapter(cfg.Logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// AgentName returns the name of the invoking agent.
func (tc *ToolContext) AgentName() string { return tc.agentName }

// RoundID returns the office round the invocation belongs to.
func (tc *ToolContext) RoundID() string { return tc.roundID }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.callID }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// Actions returns a copy of the actions accumulated so far. It may be
// called while the tool is still running; a post in flight is waited for.
func (tc *ToolContext) Actions() ToolActions {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	a := tc.actions
	a.Posted = append([]Message(nil), tc.actions.Posted...)

	return a
}

// Post appends a message authored by the invoking agent. An empty recipient
// broadcasts.
func (tc *ToolContext) Post(recipient, content string) (Message, error) {
	if tc.appender == nil {
		return Message{}, fmt.Errorf("message log not configured")
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()

	if err := tc.ctx.Err(); err != nil {
		return Message{}, err
	}

	msg, err := tc.appender.Append(Message{
		Sender:    tc.agentName,
		Recipient: strings.TrimSpace(recipient),
		Content:   content,
	})
	if err != nil {
		return Message{}, err
	}

	tc.actions.Posted = append(tc.actions.Posted, msg)
	tc.LogInfo("tool.post", "agent", tc.agentName, "message_id", msg.ID, "recipient", msg.Recipient, "function_call_id", tc.callID)

	return msg, nil
}

// DeclineResponse signals that the agent ends its turn without posting.
func (tc *ToolContext) DeclineResponse(reason string) {
	tc.mu.Lock()
	tc.actions.NoResponse = true
	tc.actions.Reason = reason
	tc.mu.Unlock()

	tc.LogDebug("tool.no_response", "agent", tc.agentName, "reason", reason, "function_call_id", tc.callID)
}
