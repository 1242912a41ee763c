package core

import (
	"fmt"
	"strings"
	"time"
)

// Reserved sender identities. Agents may not register under these names.
const (
	HumanSender  = "human"
	SystemSender = "system"
)

// Message is one immutable entry of the office channel. ID and Timestamp are
// assigned by the MessageLog on append; an empty Recipient means broadcast.
type Message struct {
	ID        uint64    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// IsBroadcast reports whether the message is addressed to everyone.
func (m Message) IsBroadcast() bool { return m.Recipient == "" }

// AddressedTo reports whether name is the direct recipient (case-insensitive).
func (m Message) AddressedTo(name string) bool {
	return m.Recipient != "" && strings.EqualFold(m.Recipient, name)
}

// From reports whether name authored the message (case-insensitive).
func (m Message) From(name string) bool { return strings.EqualFold(m.Sender, name) }

// String renders the message the way it is shown to agents and humans.
func (m Message) String() string {
	if m.IsBroadcast() {
		return fmt.Sprintf("%s: %s", m.Sender, m.Content)
	}
	return fmt.Sprintf("%s → %s: %s", m.Sender, m.Recipient, m.Content)
}

// Validate checks the fields a producer must supply.
func (m Message) Validate() error {
	if strings.TrimSpace(m.Sender) == "" {
		return fmt.Errorf("%w: empty sender", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Content) == "" {
		return fmt.Errorf("%w: empty content", ErrInvalidMessage)
	}
	return nil
}

// Appender is the write half of a MessageLog. Tools post through it.
type Appender interface {
	Append(msg Message) (Message, error)
}

// MessageLog defines the append-only, totally ordered office channel.
// Implementations must assign strictly increasing ids starting at 1, make
// Append atomic with respect to id assignment and let readers proceed
// without blocking on writers.
type MessageLog interface {
	Appender
	// Since returns all messages with id > cursor in id order.
	Since(cursor uint64) []Message
	// All returns the complete ordered history.
	All() []Message
	// LastID returns the id of the newest message or 0 when empty.
	LastID() uint64
	// Len returns the number of stored messages.
	Len() int
}
