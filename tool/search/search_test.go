package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(func(o *Options) {
		o.APIKey = "test-key"
		o.Endpoint = srv.URL
		o.HTTPClient = srv.Client()
	})
	require.NoError(t, err)

	return c
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient()
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSearch(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "office pro pricing", q.Get("q"))
		assert.Equal(t, "2", q.Get("num"))
		assert.Equal(t, "test-key", q.Get("api_key"))
		assert.Equal(t, "google", q.Get("engine"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic_results":[
			{"title":"A","link":"https://a.example","snippet":"first","position":1},
			{"title":"B","link":"https://b.example","snippet":"second"},
			{"title":"C","link":"https://c.example","snippet":"third"}
		]}`))
	})

	results, err := c.Search(context.Background(), "office pro pricing", 2)
	require.NoError(t, err)
	assert.Equal(t, []Result{
		{Title: "A", Link: "https://a.example", Snippet: "first"},
		{Title: "B", Link: "https://b.example", Snippet: "second"},
	}, results)
}

func TestSearch_Errors(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "quota" {
			_, _ = w.Write([]byte(`{"error":"Your account has run out of searches."}`))
			return
		}
		http.Error(w, "invalid key", http.StatusUnauthorized)
	})

	_, err := c.Search(context.Background(), "anything", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")

	_, err = c.Search(context.Background(), "quota", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run out of searches")
}

func TestTool(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("num"))
		_, _ = w.Write([]byte(`{"organic_results":[{"title":"Go","link":"https://go.dev","snippet":"The Go language"}]}`))
	})

	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(NewTool(c)))

	inv := reg.Invoke(context.Background(), core.ToolContextConfig{AgentName: "Peter"},
		core.FunctionCall{ID: "c1", Name: ToolName, Arguments: `{"query":"golang"}`})
	require.True(t, inv.Result.Success, inv.Result.Error)
	assert.Equal(t, []Result{{Title: "Go", Link: "https://go.dev", Snippet: "The Go language"}}, inv.Result.Payload)

	inv = reg.Invoke(context.Background(), core.ToolContextConfig{AgentName: "Peter"},
		core.FunctionCall{ID: "c2", Name: ToolName, Arguments: `{"query":"  "}`})
	assert.False(t, inv.Result.Success)
	assert.Equal(t, core.CodeValidation, inv.Result.Code)
}
