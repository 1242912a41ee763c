package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentoffice/agent"
	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/messagelog"
	"github.com/hupe1980/agentoffice/model"
	"github.com/hupe1980/agentoffice/office"
	"github.com/hupe1980/agentoffice/tool"
)

func newTestServer(t *testing.T) (*httptest.Server, *office.Chat) {
	t.Helper()

	llm := model.NewMockModel("mock").SetResponder(func(req model.Request) (core.Content, error) {
		last := req.Contents[len(req.Contents)-1].Text()
		if strings.Contains(last, "directly to you") {
			return core.NewTextContent(core.RoleAssistant, "On it."), nil
		}
		return model.ToolCallContent(tool.NoResponseToolName, `{}`), nil
	})

	chat := office.New(messagelog.NewInMemoryLog())
	for _, spec := range []struct{ name, role string }{{"Roger", "Sales"}, {"Peter", "Marketing"}} {
		a, err := agent.New(spec.name, llm, func(o *agent.Options) {
			o.Role = spec.role
			o.Streaming = false
		})
		require.NoError(t, err)
		require.NoError(t, chat.Register(a))
	}

	srv := httptest.NewServer(New(chat).Handler())
	t.Cleanup(srv.Close)

	return srv, chat
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf strings.Builder
	_, err = bufio.NewReader(resp.Body).WriteTo(&buf)
	require.NoError(t, err)

	return resp, []byte(buf.String())
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get("Request-Id"))
}

func TestAgents(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/agents", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var agents []agentView
	require.NoError(t, json.Unmarshal(body, &agents))
	require.Len(t, agents, 2)
	assert.Equal(t, "Roger", agents[0].Name)
	assert.Equal(t, "Sales", agents[0].Role)
	assert.Contains(t, agents[0].Tools, tool.AskOfficeToolName)
	assert.False(t, agents[0].Busy)
}

func TestPostAndListMessages(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/messages", `{"content":"Quote for ACME?","recipient":"roger"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var res office.RoundResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "Roger", res.Trigger.Recipient)
	require.Len(t, res.Posted, 1)
	assert.Equal(t, "Roger", res.Posted[0].Sender)
	assert.Equal(t, core.HumanSender, res.Posted[0].Recipient)

	resp, body = do(t, http.MethodGet, srv.URL+"/messages", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var all messagesView
	require.NoError(t, json.Unmarshal(body, &all))
	assert.Len(t, all.Messages, 2)
	assert.Equal(t, uint64(2), all.LastID)

	_, body = do(t, http.MethodGet, srv.URL+"/messages?since=1", "")
	var tail messagesView
	require.NoError(t, json.Unmarshal(body, &tail))
	require.Len(t, tail.Messages, 1)
	assert.Equal(t, "On it.", tail.Messages[0].Content)
}

func TestPostMessage_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := do(t, http.MethodPost, srv.URL+"/messages", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/messages", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := do(t, http.MethodPost, srv.URL+"/messages", `{"content":"hi","recipient":"Nobody"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "Nobody")

	resp, _ = do(t, http.MethodGet, srv.URL+"/messages?since=abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPutPersona(t *testing.T) {
	srv, chat := newTestServer(t)

	resp, _ := do(t, http.MethodPut, srv.URL+"/agents/peter/persona", `{"persona":"You are {{.name}}, brand lead."}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	peter, _ := chat.Agent("Peter")
	assert.Equal(t, "You are {{.name}}, brand lead.", peter.Persona().Text())

	resp, _ = do(t, http.MethodPut, srv.URL+"/agents/nobody/persona", `{"persona":"x"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, srv.URL+"/agents/peter/persona", `{"persona":"{{.name"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAbortWithoutRound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/rounds/abort", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"aborted":false}`, string(body))
}

func TestEvents(t *testing.T) {
	srv, chat := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	_, err = chat.Ask(ctx, "Peter", "ping")
	require.NoError(t, err)

	scanner := bufio.NewScanner(resp.Body)

	var kinds []string
	for scanner.Scan() {
		line := scanner.Text()
		if kind, ok := strings.CutPrefix(line, "event: "); ok {
			kinds = append(kinds, kind)
			if kind == string(office.EventRoundFinished) {
				break
			}
		}
	}

	require.NotEmpty(t, kinds)
	assert.Equal(t, string(office.EventRoundStarted), kinds[0])
	assert.Contains(t, kinds, string(office.EventMessagePosted))
	assert.Contains(t, kinds, string(office.EventTurnFinished))
	assert.Equal(t, string(office.EventRoundFinished), kinds[len(kinds)-1])
}
