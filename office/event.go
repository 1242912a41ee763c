package office

import (
	"time"

	"github.com/hupe1980/agentoffice/agent"
	"github.com/hupe1980/agentoffice/core"
)

// EventKind classifies office events.
type EventKind string

const (
	EventRoundStarted  EventKind = "round_started"
	EventTurnStarted   EventKind = "turn_started"
	EventToken         EventKind = "token"
	EventMessagePosted EventKind = "message_posted"
	EventTurnFinished  EventKind = "turn_finished"
	EventTurnFailed    EventKind = "turn_failed"
	EventRoundFinished EventKind = "round_finished"
)

// Event reports round progress to frontends.
type Event struct {
	Kind    EventKind         `json:"kind"`
	RoundID string            `json:"round_id"`
	Agent   string            `json:"agent,omitempty"`
	Token   string            `json:"token,omitempty"`
	Message *core.Message     `json:"message,omitempty"`
	Turn    *agent.TurnResult `json:"turn,omitempty"`
	Error   string            `json:"error,omitempty"`
	Time    time.Time         `json:"time"`
}

// Handler receives events synchronously. Handlers must not block for long
// and must not call back into Subscribe.
type Handler func(Event)

// RoundResult summarizes one dispatched round, including follow-up passes.
type RoundResult struct {
	ID      string             `json:"id"`
	Trigger core.Message       `json:"trigger"`
	Turns   []agent.TurnResult `json:"turns"`
	Posted  []core.Message     `json:"posted"`
	// Passes is the number of dispatch passes, 1 plus follow-ups.
	Passes int    `json:"passes"`
	Err    error  `json:"-"`
	Error  string `json:"error,omitempty"`
}

// Failed returns the turns that ended with an error other than a loop bound
// diagnostic.
func (r RoundResult) Failed() []agent.TurnResult {
	var out []agent.TurnResult
	for _, t := range r.Turns {
		if t.Err != nil && !t.Completed() {
			out = append(out, t)
		}
	}
	return out
}
