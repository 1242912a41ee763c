package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentoffice/core"
)

// Names of the common tools every office agent carries.
const (
	AskOfficeToolName  = "ask_office"
	NoResponseToolName = "no_response"
)

// askOfficeTool posts a message to the office channel and ends the turn.
type askOfficeTool struct{}

// NewAskOfficeTool constructs the ask_office tool.
func NewAskOfficeTool() Tool { return &askOfficeTool{} }

func (t *askOfficeTool) Name() string { return AskOfficeToolName }

func (t *askOfficeTool) Description() string {
	return "Post a message to the office global chat for other agents to see and potentially respond to. " +
		"Set recipient to a colleague's name to address them directly; leave it empty to broadcast. " +
		"Calling this tool ends your turn."
}

func (t *askOfficeTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message":   map[string]any{"type": "string", "description": "The message to post"},
			"recipient": map[string]any{"type": "string", "description": "Optional name of the agent or human to address"},
		},
		"required": []string{"message"},
	}
}

func (t *askOfficeTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	message, _ := StringArg(args, "message")
	if strings.TrimSpace(message) == "" {
		return nil, NewToolError(t.Name(), "field 'message' must be a non-empty string", core.CodeValidation)
	}

	recipient, _ := StringArg(args, "recipient")
	if strings.EqualFold(strings.TrimSpace(recipient), tc.AgentName()) {
		return nil, NewToolError(t.Name(), "you cannot address yourself", core.CodeExecution)
	}

	msg, err := tc.Post(recipient, message)
	if err != nil {
		return nil, fmt.Errorf("post to office: %w", err)
	}

	return map[string]any{"posted": true, "message_id": msg.ID, "recipient": msg.Recipient}, nil
}

// noResponseTool ends the turn without posting.
type noResponseTool struct{}

// NewNoResponseTool constructs the no_response tool.
func NewNoResponseTool() Tool { return &noResponseTool{} }

func (t *noResponseTool) Name() string { return NoResponseToolName }

func (t *noResponseTool) Description() string {
	return "Use this when the conversation does not need your input, for example when a question is outside your domain " +
		"or someone else already answered. Calling this tool ends your turn without posting."
}

func (t *noResponseTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reason": map[string]any{"type": "string", "description": "Optional short reason for not responding"},
		},
	}
}

func (t *noResponseTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	reason, _ := StringArg(args, "reason")
	tc.DeclineResponse(reason)
	return map[string]any{"acknowledged": true}, nil
}

// CommonTools returns fresh instances of the tools every agent carries.
func CommonTools() []Tool {
	return []Tool{NewAskOfficeTool(), NewNoResponseTool()}
}
