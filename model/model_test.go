package model

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/agentoffice/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect_StreamsPartialsThenFinal(t *testing.T) {
	m := NewMockModel("mock").AddText("hello office world")

	var chunks []string
	resp, err := Collect(context.Background(), m, Request{Stream: true}, func(s string) { chunks = append(chunks, s) })
	require.NoError(t, err)

	assert.Equal(t, "hello office world", resp.Content.Text())
	assert.Equal(t, "hello office world", strings.Join(chunks, ""))
	assert.Len(t, chunks, 3)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestCollect_NonStreamingHasNoPartials(t *testing.T) {
	m := NewMockModel("mock").AddToolCall("no_response", `{}`)

	called := false
	resp, err := Collect(context.Background(), m, Request{}, func(string) { called = true })
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	require.Len(t, resp.Content.FunctionCalls(), 1)
	assert.Equal(t, "no_response", resp.Content.FunctionCalls()[0].Name)
}

func TestCollect_PropagatesErrors(t *testing.T) {
	boom := errors.New("connection refused")
	m := NewMockModel("mock").AddError(boom)

	_, err := Collect(context.Background(), m, Request{}, nil)
	assert.ErrorIs(t, err, boom)

	_, err = Collect(context.Background(), m, Request{}, nil)
	assert.ErrorIs(t, err, ErrScriptExhausted)
}

func TestCollect_Cancellation(t *testing.T) {
	m := NewMockModel("mock").AddTurn(MockTurn{Content: core.NewTextContent(core.RoleAssistant, "late"), Delay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Collect(ctx, m, Request{}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMockModel_ResponderAndRequests(t *testing.T) {
	m := NewMockModel("mock").SetResponder(func(req Request) (core.Content, error) {
		return core.NewTextContent(core.RoleAssistant, "echo: "+req.Instructions), nil
	})

	resp, err := Collect(context.Background(), m, Request{Instructions: "persona"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "echo: persona", resp.Content.Text())
	assert.Equal(t, 1, m.Calls())
	assert.Equal(t, "persona", m.Requests()[0].Instructions)
	assert.Equal(t, "mock", m.Info().Provider)
}
