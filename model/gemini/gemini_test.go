package gemini

import (
	"testing"

	"github.com/hupe1980/agentoffice/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestBuildContents_Roles(t *testing.T) {
	contents := buildContents([]core.Content{
		core.NewTextContent(core.RoleSystem, "skip"),
		core.NewTextContent(core.RoleUser, "human: hi"),
		{Role: core.RoleAssistant, Parts: []core.Part{
			core.TextPart{Text: "checking"},
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c1", Name: "web_search", Arguments: `{"query":"q"}`}},
		}},
		{Role: core.RoleTool, Parts: []core.Part{
			core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "c1", Name: "web_search", Response: []any{"r"}}},
		}},
	})

	require.Len(t, contents, 3)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	assert.Equal(t, "q", contents[1].Parts[1].FunctionCall.Args["query"])
	assert.Equal(t, genai.RoleUser, contents[2].Role)
	assert.Equal(t, []any{"r"}, contents[2].Parts[0].FunctionResponse.Response["output"])
}

func TestToResponse(t *testing.T) {
	resp := toResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonStop,
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "hello"},
				{FunctionCall: &genai.FunctionCall{Name: "no_response", Args: map[string]any{"reason": "x"}}},
			}},
		}},
	})

	assert.Equal(t, "hello", resp.Content.Text())
	calls := resp.Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.NotEmpty(t, calls[0].ID)
	assert.JSONEq(t, `{"reason":"x"}`, calls[0].Arguments)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestResponseMap(t *testing.T) {
	assert.Equal(t, map[string]any{"error": "boom"}, responseMap(core.FunctionResponse{Error: "boom"}))
	assert.Equal(t, map[string]any{"output": "x"}, responseMap(core.FunctionResponse{Response: "x"}))
}
