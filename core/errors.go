package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInferenceUnavailable signals that the model binding could not produce a response.
	ErrInferenceUnavailable = errors.New("inference unavailable")
	// ErrLoopBoundExceeded signals that a decision loop hit its step cap.
	ErrLoopBoundExceeded = errors.New("decision loop bound exceeded")
	// ErrMalformedToolCall signals an unknown tool or undecodable arguments.
	ErrMalformedToolCall = errors.New("malformed tool call")
	// ErrToolExecution signals that a tool ran and failed.
	ErrToolExecution = errors.New("tool execution failed")
	// ErrInvalidMessage signals a message that cannot be appended.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrUnknownAgent signals a recipient or agent name that is not registered.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrAgentBusy signals a second concurrent turn on the same agent.
	ErrAgentBusy = errors.New("agent busy")
)

// Tool result codes.
const (
	CodeMalformedToolCall = "MALFORMED_TOOL_CALL"
	CodeValidation        = "VALIDATION_ERROR"
	CodeExecution         = "EXECUTION_ERROR"
	CodeTimeout           = "TIMEOUT"
)

// ToolResult is the normalized outcome of a tool invocation. Registries never
// return Go errors for tool failures; they are reported here and fed back to
// the model so it can adjust.
type ToolResult struct {
	CallID  string `json:"call_id,omitempty"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Err converts a failed result into an error wrapping the matching sentinel.
func (r ToolResult) Err() error {
	if r.Success {
		return nil
	}
	switch r.Code {
	case CodeMalformedToolCall, CodeValidation:
		return fmt.Errorf("%w: %s: %s", ErrMalformedToolCall, r.Name, r.Error)
	default:
		return fmt.Errorf("%w: %s: %s", ErrToolExecution, r.Name, r.Error)
	}
}

// Response returns the value fed back to the model for this result.
func (r ToolResult) Response() any {
	if r.Success {
		return r.Payload
	}
	return map[string]any{"success": false, "error": r.Error, "code": r.Code}
}
