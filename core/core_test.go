package core

import (
	"errors"
	"sync"
	"testing"
)

type testLogger struct {
	mu    sync.Mutex
	infos []string
}

func (l *testLogger) Debug(string, ...any) {}
func (l *testLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}
func (l *testLogger) Warn(string, ...any)  {}
func (l *testLogger) Error(string, ...any) {}

// sliceAppender is a minimal Appender assigning sequential ids.
type sliceAppender struct {
	msgs []Message
	err  error
}

func (a *sliceAppender) Append(msg Message) (Message, error) {
	if a.err != nil {
		return Message{}, a.err
	}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	msg.ID = uint64(len(a.msgs) + 1)
	a.msgs = append(a.msgs, msg)
	return msg, nil
}

func TestMessage_Addressing(t *testing.T) {
	broadcast := Message{Sender: "Roger", Content: "hi"}
	if !broadcast.IsBroadcast() {
		t.Fatal("expected broadcast")
	}
	if broadcast.AddressedTo("Peter") {
		t.Error("broadcast must not be addressed to anyone")
	}

	direct := Message{Sender: "human", Recipient: "Roger", Content: "quote?"}
	if direct.IsBroadcast() {
		t.Fatal("expected direct message")
	}
	if !direct.AddressedTo("roger") {
		t.Error("recipient match should be case-insensitive")
	}
	if !direct.From("HUMAN") {
		t.Error("sender match should be case-insensitive")
	}
	if got := direct.String(); got != "human → Roger: quote?" {
		t.Errorf("unexpected rendering %q", got)
	}
	if got := broadcast.String(); got != "Roger: hi" {
		t.Errorf("unexpected rendering %q", got)
	}
}

func TestMessage_Validate(t *testing.T) {
	if err := (Message{Sender: "a", Content: "b"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Message{Content: "b"}).Validate(); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage for empty sender, got %v", err)
	}
	if err := (Message{Sender: "a", Content: "  "}).Validate(); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage for blank content, got %v", err)
	}
}

func TestContent_Helpers(t *testing.T) {
	c := Content{Role: RoleAssistant, Parts: []Part{
		TextPart{Text: "Hello "},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "1", Name: "web_search", Arguments: `{"query":"x"}`}},
		TextPart{Text: "world"},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "2", Name: "no_response"}},
	}}
	if c.Text() != "Hello world" {
		t.Errorf("unexpected text %q", c.Text())
	}
	calls := c.FunctionCalls()
	if len(calls) != 2 || calls[0].Name != "web_search" || calls[1].Name != "no_response" {
		t.Errorf("unexpected calls %+v", calls)
	}
}

func TestDecision_Terminal(t *testing.T) {
	cases := map[DecisionKind]bool{
		DecisionPost:       true,
		DecisionNoResponse: true,
		DecisionToolInvoke: false,
	}
	for kind, want := range cases {
		if got := (Decision{Kind: kind}).Terminal(); got != want {
			t.Errorf("%s: terminal=%v want %v", kind, got, want)
		}
	}
	if DecisionKind(42).String() != "unknown" {
		t.Error("expected unknown kind string")
	}
}

func TestToolResult_Err(t *testing.T) {
	if (ToolResult{Success: true}).Err() != nil {
		t.Fatal("successful result must not produce an error")
	}
	malformed := ToolResult{Name: "x", Code: CodeMalformedToolCall, Error: "unknown tool"}
	if !errors.Is(malformed.Err(), ErrMalformedToolCall) {
		t.Errorf("expected ErrMalformedToolCall, got %v", malformed.Err())
	}
	failed := ToolResult{Name: "x", Code: CodeExecution, Error: "boom"}
	if !errors.Is(failed.Err(), ErrToolExecution) {
		t.Errorf("expected ErrToolExecution, got %v", failed.Err())
	}
	resp, ok := failed.Response().(map[string]any)
	if !ok || resp["error"] != "boom" || resp["success"] != false {
		t.Errorf("unexpected failure response %+v", failed.Response())
	}
}

func TestStepLimiter(t *testing.T) {
	l := NewStepLimiter(2)
	if err := l.Increment(); err != nil {
		t.Fatal(err)
	}
	if err := l.Increment(); err != nil {
		t.Fatal(err)
	}
	if err := l.Increment(); !errors.Is(err, ErrLoopBoundExceeded) {
		t.Errorf("expected ErrLoopBoundExceeded, got %v", err)
	}
	if l.Count() != 3 {
		t.Errorf("count=%d", l.Count())
	}
	unlimited := NewStepLimiter(0)
	for i := 0; i < 100; i++ {
		if err := unlimited.Increment(); err != nil {
			t.Fatalf("zero max should be unlimited: %v", err)
		}
	}
}
