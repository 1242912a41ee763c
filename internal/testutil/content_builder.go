package testutil

import (
	"fmt"

	"github.com/hupe1980/agentoffice/core"
)

// ContentBuilder provides a fluent helper for constructing model replies in
// tests.
// Example:
//
//	c := NewContentBuilder().Text("checking").Call("web_search", `{"query":"go"}`).Build()
//
// Chain only the parts you need; the role defaults to assistant.
type ContentBuilder struct {
	role  string
	parts []core.Part
	calls int
}

// NewContentBuilder creates a builder for an assistant content.
func NewContentBuilder() *ContentBuilder { return &ContentBuilder{role: core.RoleAssistant} }

// Role overrides the content role (chainable).
func (b *ContentBuilder) Role(r string) *ContentBuilder { b.role = r; return b }

// Text appends a text part (chainable).
func (b *ContentBuilder) Text(t string) *ContentBuilder {
	b.parts = append(b.parts, core.TextPart{Text: t})
	return b
}

// Call appends a function call part with a generated id (chainable).
func (b *ContentBuilder) Call(name, args string) *ContentBuilder {
	b.calls++
	b.parts = append(b.parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
		ID:        fmt.Sprintf("call_%d", b.calls),
		Name:      name,
		Arguments: args,
	}})
	return b
}

// AskOffice appends an ask_office call (chainable).
func (b *ContentBuilder) AskOffice(message, recipient string) *ContentBuilder {
	return b.Call("ask_office", fmt.Sprintf(`{"message":%q,"recipient":%q}`, message, recipient))
}

// NoResponse appends a no_response call (chainable).
func (b *ContentBuilder) NoResponse(reason string) *ContentBuilder {
	return b.Call("no_response", fmt.Sprintf(`{"reason":%q}`, reason))
}

// Build returns the content.
func (b *ContentBuilder) Build() core.Content {
	return core.Content{Role: b.role, Parts: append([]core.Part(nil), b.parts...)}
}
