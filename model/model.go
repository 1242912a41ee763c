package model

import (
	"context"

	"github.com/hupe1980/agentoffice/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by an agent turn.
type Request struct {
	Instructions string           `json:"instructions"` // System prompt
	Contents     []core.Content   `json:"contents"`     // Conversation converted to provider messages
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. Exactly one
// non-partial Response terminates a successful generation.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"` // Indicates if this is a partial response
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "gemini", "ollama", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
// Implementations close both channels when generation ends; at most one
// error is sent.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Checker is implemented by models that can verify availability before use.
type Checker interface {
	Check(ctx context.Context) error
}

// Lister is implemented by models whose provider can enumerate model ids.
type Lister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Collect drains a Generate call and returns the final response. Partial
// text is passed to onPartial when non-nil.
func Collect(ctx context.Context, m Model, req Request, onPartial func(text string)) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final    Response
		gotFinal bool
	)

	for respCh != nil || errCh != nil {
		select {
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				if onPartial != nil {
					if text := resp.Content.Text(); text != "" {
						onPartial(text)
					}
				}
				continue
			}
			final = resp
			gotFinal = true
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				go drain(respCh)
				return Response{}, err
			}
		case <-ctx.Done():
			go drain(respCh)
			return Response{}, ctx.Err()
		}
	}

	if !gotFinal {
		return Response{}, ErrNoFinalResponse
	}

	return final, nil
}

func drain(ch <-chan Response) {
	if ch == nil {
		return
	}
	for range ch {
	}
}
