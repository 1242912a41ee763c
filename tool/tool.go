// Package tool implements the tool calling subsystem that lets office agents
// invoke structured capabilities (search, notes, code execution, posting to
// the office) with schema validated arguments, consistent error handling and
// metadata for model guidance.
package tool

import (
	"fmt"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/internal/util"
)

// Tool defines the interface for extending agent capabilities with external functions.
//
// Tools are registered on an agent's Registry. Every tool receives a
// core.ToolContext giving it the invoking agent, the round, a logger and the
// ability to post to the office or decline a response.
//
// Tool implementations should:
//   - Provide clear, descriptive snake_case names and descriptions
//   - Define a JSON schema for parameters
//   - Honor ToolContext.Context() cancellation
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	// It is provided to the model to help it decide when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool with decoded, schema checked arguments.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// StringArg extracts an optional string argument, trimming nothing.
func StringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok
}

// IntArg extracts an optional integer argument decoded from JSON.
func IntArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return def
	}
}
