package testutil

import (
	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/messagelog"
)

// LogBuilder helps construct seeded message logs with fluent chaining.
// Example:
//
//	log := NewLogBuilder().Broadcast("human", "hi").Direct("Roger", "Peter", "ping").Build()
type LogBuilder struct {
	messages []core.Message
}

// NewLogBuilder creates an empty builder.
func NewLogBuilder() *LogBuilder { return &LogBuilder{} }

// Broadcast appends a broadcast message (chainable).
func (b *LogBuilder) Broadcast(sender, content string) *LogBuilder {
	b.messages = append(b.messages, core.Message{Sender: sender, Content: content})
	return b
}

// Direct appends a directly addressed message (chainable).
func (b *LogBuilder) Direct(sender, recipient, content string) *LogBuilder {
	b.messages = append(b.messages, core.Message{Sender: sender, Recipient: recipient, Content: content})
	return b
}

// Build returns an in-memory log holding the messages in order. Invalid
// messages panic, since they indicate a broken test.
func (b *LogBuilder) Build() *messagelog.InMemoryLog {
	log := messagelog.NewInMemoryLog()
	for _, m := range b.messages {
		if _, err := log.Append(m); err != nil {
			panic(err)
		}
	}
	return log
}
