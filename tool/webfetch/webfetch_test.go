package webfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!doctype html>
<html><head><title>Office Pro
  pricing</title><style>body{color:red}</style></head>
<body><h1>Plans</h1><script>alert("x")</script>
<p>Seats cost &euro;90   per month.</p></body></html>`

func TestHTMLToText(t *testing.T) {
	text := HTMLToText([]byte(page))
	assert.Equal(t, "Office Pro pricing Plans Seats cost €90 per month.", text)
	assert.Equal(t, "Office Pro pricing", Title([]byte(page)))
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(page))
		default:
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(strings.Repeat("a", 50)))
		}
	}))
	defer srv.Close()

	f := NewFetcher(func(o *Options) { o.HTTPClient = srv.Client() })

	p, err := f.Fetch(context.Background(), srv.URL+"/html", 0)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, p.Status)
	assert.Equal(t, "Office Pro pricing", p.Title)
	assert.Contains(t, p.Content, "Seats cost €90 per month.")
	assert.False(t, p.Truncated)

	p, err = f.Fetch(context.Background(), srv.URL+"/plain", 10)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 10), p.Content)
	assert.True(t, p.Truncated)
}

func TestFetch_RejectsInvalidURLs(t *testing.T) {
	f := NewFetcher()

	for _, u := range []string{"", "file:///etc/passwd", "ftp://example.com", "/relative"} {
		_, err := f.Fetch(context.Background(), u, 0)
		assert.Error(t, err, u)
	}
}

func TestTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(NewTool(NewFetcher(func(o *Options) { o.HTTPClient = srv.Client() }))))

	inv := reg.Invoke(context.Background(), core.ToolContextConfig{AgentName: "Luke"},
		core.FunctionCall{ID: "c1", Name: ToolName, Arguments: `{"url":"` + srv.URL + `"}`})
	require.True(t, inv.Result.Success, inv.Result.Error)
	assert.Equal(t, "hello", inv.Result.Payload.(Page).Content)

	inv = reg.Invoke(context.Background(), core.ToolContextConfig{AgentName: "Luke"},
		core.FunctionCall{ID: "c2", Name: ToolName, Arguments: `{"url":"gopher://x"}`})
	assert.False(t, inv.Result.Success)
	assert.Equal(t, core.CodeExecution, inv.Result.Code)
}
