package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/tool"
)

// Member describes an office participant as shown to an agent.
type Member struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// buildInstructions appends the office roster and tool guidance to the
// rendered persona.
func (a *Agent) buildInstructions(persona string, members []Member) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(persona))
	b.WriteString("\n\n")

	others := make([]Member, 0, len(members))
	for _, m := range members {
		if !strings.EqualFold(m.Name, a.name) {
			others = append(others, m)
		}
	}

	if len(others) > 0 {
		b.WriteString("Your colleagues in the office:\n")
		for _, m := range others {
			if m.Role != "" {
				fmt.Fprintf(&b, "- %s (%s)\n", m.Name, m.Role)
			} else {
				fmt.Fprintf(&b, "- %s\n", m.Name)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Office messages are shown as \"Sender: text\" when broadcast and \"Sender → Recipient: text\" when addressed directly. The human user appears as %q.\n", core.HumanSender)
	fmt.Fprintf(&b, "- Call %s to post to the office; set recipient to address a colleague or the human directly.\n", tool.AskOfficeToolName)
	fmt.Fprintf(&b, "- Call %s when the latest messages do not need your input or fall outside your role.\n", tool.NoResponseToolName)
	b.WriteString("- Use your other tools to gather facts before you answer. Never answer for a colleague.\n")

	return b.String()
}

// windowStart returns the index of the first message to include: at least
// every message after cursor and at least the window most recent ones.
func windowStart(snapshot []core.Message, cursor uint64, window int) int {
	start := max(len(snapshot)-window, 0)

	firstUnseen := sort.Search(len(snapshot), func(i int) bool { return snapshot[i].ID > cursor })

	return min(start, firstUnseen)
}

// buildContents renders the windowed history as role tagged contents plus a
// closing prompt naming the trigger.
func (a *Agent) buildContents(snapshot []core.Message, cursor uint64, trigger core.Message) []core.Content {
	history := snapshot[windowStart(snapshot, cursor, a.opts.HistoryWindow):]

	contents := make([]core.Content, 0, len(history)+1)
	for _, m := range history {
		contents = append(contents, a.renderMessage(m))
	}

	return append(contents, core.NewTextContent(core.RoleUser, a.closingPrompt(trigger)))
}

func (a *Agent) renderMessage(m core.Message) core.Content {
	if m.From(a.name) {
		text := m.Content
		if !m.IsBroadcast() {
			text = fmt.Sprintf("→ %s: %s", m.Recipient, m.Content)
		}
		return core.NewTextContent(core.RoleAssistant, text)
	}

	return core.NewTextContent(core.RoleUser, m.String())
}

func (a *Agent) closingPrompt(trigger core.Message) string {
	if trigger.ID == 0 {
		return fmt.Sprintf("You are %s. Review the new office messages and decide whether to respond.", a.name)
	}

	addressed := "to everyone"
	if trigger.AddressedTo(a.name) {
		addressed = "directly to you"
	} else if !trigger.IsBroadcast() {
		addressed = "to " + trigger.Recipient
	}

	return fmt.Sprintf(
		"You are %s. The latest message (#%d) is from %s, addressed %s. Respond only if it concerns you; otherwise call %s.",
		a.name, trigger.ID, trigger.Sender, addressed, tool.NoResponseToolName,
	)
}
