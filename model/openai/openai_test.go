package openai

import (
	"testing"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages_ToolResponsesFollowCalls(t *testing.T) {
	req := model.Request{
		Instructions: "You are Roger",
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, "human: price?"),
			{Role: core.RoleAssistant, Parts: []core.Part{
				core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c1", Name: "web_search", Arguments: `{"query":"x"}`}},
			}},
			{Role: core.RoleTool, Parts: []core.Part{
				core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "c1", Name: "web_search", Response: map[string]any{"n": 1}}},
			}},
		},
	}

	responses, order := collectToolResponses(req)
	assert.Equal(t, []string{"c1"}, order)
	assert.JSONEq(t, `{"n":1}`, responses["c1"])

	msgs := buildMessages(req, responses, order)
	require.Len(t, msgs, 4)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	require.NotNil(t, msgs[2].OfAssistant)
	assert.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	assert.NotNil(t, msgs[3].OfTool)
}

func TestResponseText_Error(t *testing.T) {
	assert.Equal(t, `{"error":"boom"}`, responseText(core.FunctionResponse{Error: "boom"}))
	assert.Equal(t, "plain", responseText(core.FunctionResponse{Response: "plain"}))
}

func TestFunctionCallPart_SynthesizesID(t *testing.T) {
	p := functionCallPart("", "no_response", "{}")
	assert.NotEmpty(t, p.FunctionCall.ID)
	assert.Equal(t, "no_response", p.FunctionCall.Name)

	p = functionCallPart("abc", "x", "")
	assert.Equal(t, "abc", p.FunctionCall.ID)
}

func TestOllamaModel_Info(t *testing.T) {
	m := NewOllamaModel("http://localhost:11434", func(o *Options) { o.Model = "llama3.1" })
	info := m.Info()
	assert.Equal(t, "ollama", info.Provider)
	assert.Equal(t, "llama3.1", info.Name)
}
