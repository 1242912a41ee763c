package core

// DecisionKind enumerates the outcomes of a single decision loop step.
type DecisionKind int

const (
	// DecisionPost appends a Message to the office channel (terminal).
	DecisionPost DecisionKind = iota + 1
	// DecisionToolInvoke runs a non-terminal tool and loops back to inference.
	DecisionToolInvoke
	// DecisionNoResponse ends the turn without posting (terminal).
	DecisionNoResponse
)

// String returns the string representation of the decision kind.
func (k DecisionKind) String() string {
	switch k {
	case DecisionPost:
		return "post"
	case DecisionToolInvoke:
		return "tool_invoke"
	case DecisionNoResponse:
		return "no_response"
	default:
		return "unknown"
	}
}

// Decision records what an agent chose to do in one step.
type Decision struct {
	Kind      DecisionKind  `json:"kind"`
	Content   string        `json:"content,omitempty"`
	Recipient string        `json:"recipient,omitempty"`
	Call      *FunctionCall `json:"call,omitempty"`
	Reason    string        `json:"reason,omitempty"`
}

// Terminal reports whether the decision ends the turn.
func (d Decision) Terminal() bool {
	return d.Kind == DecisionPost || d.Kind == DecisionNoResponse
}
