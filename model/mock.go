package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentoffice/core"
)

// ErrScriptExhausted is returned by MockModel when no scripted turn remains
// and no responder is configured.
var ErrScriptExhausted = errors.New("mock model script exhausted")

// MockTurn is one scripted model reply.
type MockTurn struct {
	Content core.Content
	Err     error
	Delay   time.Duration // wait before replying; honors ctx cancellation
}

// Responder computes a reply from the request when the script is empty.
type Responder func(req Request) (core.Content, error)

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Replies are served from a FIFO script first, then from an optional
// Responder. Every request is recorded.
type MockModel struct {
	info Info

	mu        sync.Mutex
	script    []MockTurn
	responder Responder
	requests  []Request
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      "mock",
			SupportsTools: true,
		},
	}
}

// AddTurn appends scripted replies.
func (m *MockModel) AddTurn(turns ...MockTurn) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, turns...)
	return m
}

// AddText scripts a plain text reply.
func (m *MockModel) AddText(text string) *MockModel {
	return m.AddTurn(MockTurn{Content: core.NewTextContent(core.RoleAssistant, text)})
}

// AddToolCall scripts a reply consisting of a single tool call.
func (m *MockModel) AddToolCall(name, arguments string) *MockModel {
	return m.AddTurn(MockTurn{Content: ToolCallContent(name, arguments)})
}

// AddError scripts a failing generation.
func (m *MockModel) AddError(err error) *MockModel {
	return m.AddTurn(MockTurn{Err: err})
}

// SetResponder installs the fallback used once the script is exhausted.
func (m *MockModel) SetResponder(fn Responder) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = fn
	return m
}

// Requests returns the requests received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Calls returns the number of Generate calls.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockModel) next(req Request) MockTurn {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.script) > 0 {
		turn := m.script[0]
		m.script = m.script[1:]
		return turn
	}

	if m.responder != nil {
		content, err := m.responder(req)
		return MockTurn{Content: content, Err: err}
	}

	return MockTurn{Err: ErrScriptExhausted}
}

// Generate implements Model; streams text word by word when req.Stream is set.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	turn := m.next(req)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if turn.Delay > 0 {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case <-time.After(turn.Delay):
			}
		}

		if turn.Err != nil {
			errCh <- turn.Err
			return
		}

		if turn.Content.Role == "" {
			turn.Content.Role = core.RoleAssistant
		}

		if req.Stream {
			for _, chunk := range splitKeep(turn.Content.Text()) {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.NewTextContent(core.RoleAssistant, chunk),
				}:
				}
			}
		}

		finish := "stop"
		if len(turn.Content.FunctionCalls()) > 0 {
			finish = "tool_calls"
		}

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{Content: turn.Content, FinishReason: finish}:
		}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// Check implements Checker.
func (m *MockModel) Check(context.Context) error { return nil }

// ListModels implements Lister.
func (m *MockModel) ListModels(context.Context) ([]string, error) {
	return []string{m.info.Name}, nil
}

// ToolCallContent builds assistant content carrying one tool call.
func ToolCallContent(name, arguments string) core.Content {
	return core.Content{Role: core.RoleAssistant, Parts: []core.Part{
		core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        fmt.Sprintf("call_%s", name),
			Name:      name,
			Arguments: arguments,
		}},
	}}
}

// splitKeep splits text into words keeping the trailing separators so the
// chunks concatenate back to the input.
func splitKeep(text string) []string {
	if text == "" {
		return nil
	}
	return strings.SplitAfter(text, " ")
}
