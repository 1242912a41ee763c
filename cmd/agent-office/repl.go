package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/office"
)

const helpText = `Available commands:
- help: Show this help message
- history: Show the chat history
- agents: List the office members
- ask <agent_name> <question>: Ask a specific agent directly
- exit, quit: Leave the office
Anything else is posted to everyone. Press Ctrl-C to abort a running round.`

// repl is the interactive office console. Office events are rendered as
// they arrive; the loop itself blocks while a round runs.
type repl struct {
	chat      *office.Chat
	in        io.Reader
	out       io.Writer
	theme     theme
	streaming bool

	mu       sync.Mutex
	streamed map[string]*strings.Builder
	open     string // agent whose token line is open
}

func newREPL(chat *office.Chat, in io.Reader, out io.Writer, streaming bool) *repl {
	return &repl{
		chat:      chat,
		in:        in,
		out:       out,
		theme:     newTheme(),
		streaming: streaming,
		streamed:  make(map[string]*strings.Builder),
	}
}

func (r *repl) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closeLine()
	fmt.Fprintf(r.out, format, args...)
}

// closeLine ends an open token line. Callers hold mu.
func (r *repl) closeLine() {
	if r.open != "" {
		fmt.Fprintln(r.out)
		r.open = ""
	}
}

func (r *repl) agentIndex(name string) int {
	for i, a := range r.chat.Agents() {
		if strings.EqualFold(a.Name(), name) {
			return i
		}
	}
	return -1
}

func (r *repl) label(m core.Message) string {
	label := r.theme.sender(m.Sender, r.agentIndex(m.Sender))
	if !m.IsBroadcast() {
		label += r.theme.muted.Render(" → " + m.Recipient)
	}
	return label
}

// onEvent renders office events.
func (r *repl) onEvent(ev office.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case office.EventToken:
		if !r.streaming {
			return
		}

		buf, ok := r.streamed[ev.Agent]
		if !ok {
			buf = &strings.Builder{}
			r.streamed[ev.Agent] = buf
		}

		if r.open != ev.Agent {
			r.closeLine()
			fmt.Fprintf(r.out, "\n%s: ", r.theme.sender(ev.Agent, r.agentIndex(ev.Agent)))
			r.open = ev.Agent
		}

		buf.WriteString(ev.Token)
		fmt.Fprint(r.out, ev.Token)
	case office.EventMessagePosted:
		m := ev.Message
		if m == nil || m.Sender == core.HumanSender {
			return
		}

		if buf, ok := r.streamed[m.Sender]; ok && strings.TrimSpace(buf.String()) == strings.TrimSpace(m.Content) {
			delete(r.streamed, m.Sender)
			r.closeLine()
			return
		}

		r.closeLine()
		fmt.Fprintf(r.out, "\n%s: %s\n", r.label(*m), m.Content)
	case office.EventTurnFinished:
		delete(r.streamed, ev.Agent)
		if r.open == ev.Agent {
			r.closeLine()
		}
	case office.EventTurnFailed:
		delete(r.streamed, ev.Agent)
		r.closeLine()
		fmt.Fprintf(r.out, "%s\n", r.theme.errText.Render(fmt.Sprintf("%s could not respond: %s", ev.Agent, ev.Error)))
	case office.EventRoundFinished:
		r.closeLine()
		if ev.Error != "" {
			fmt.Fprintf(r.out, "%s\n", r.theme.system.Render("(round aborted)"))
		}
	}
}

func (r *repl) banner() {
	var b strings.Builder

	b.WriteString(r.theme.banner.Render("===== Welcome to the Agent Office ====="))
	b.WriteString("\n\nAgents available:\n")

	for i, a := range r.chat.Agents() {
		fmt.Fprintf(&b, "- %s (%s)\n", r.theme.sender(a.Name(), i), a.Role())
	}

	b.WriteString("\nEnter your messages to the office chat below.\n")
	b.WriteString("Type 'exit' to quit or 'help' for more commands.\n")

	r.printf("%s", b.String())
}

// run reads commands until exit, end of input or ctx is done.
func (r *repl) run(ctx context.Context) error {
	unsubscribe := r.chat.Subscribe(r.onEvent)
	defer unsubscribe()

	lines := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(lines)

		sc := bufio.NewScanner(r.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}

		errs <- sc.Err()
	}()

	for {
		r.printf("\n%s ", r.theme.prompt.Render("You:"))

		select {
		case <-ctx.Done():
			r.printf("\nExiting the office chat. Goodbye!\n")
			return nil
		case line, ok := <-lines:
			if !ok {
				r.printf("\n")
				select {
				case err := <-errs:
					return err
				default:
					return nil
				}
			}

			if quit := r.handle(ctx, line); quit {
				r.printf("Exiting the office chat. Goodbye!\n")
				return nil
			}
		}
	}
}

// handle executes one input line and reports whether the user asked to quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	cmd, rest, _ := strings.Cut(line, " ")

	switch strings.ToLower(cmd) {
	case "exit", "quit":
		return true
	case "help":
		r.printf("\n%s\n", helpText)
	case "history":
		r.history()
	case "agents":
		r.agents()
	case "ask":
		name, question, _ := strings.Cut(strings.TrimSpace(rest), " ")
		if name == "" || strings.TrimSpace(question) == "" {
			r.printf("Usage: ask <agent_name> <question>\n")
			return false
		}

		if _, ok := r.chat.Agent(name); !ok {
			r.printf("Agent '%s' not found. Available agents: %s\n", name, strings.Join(r.names(), ", "))
			return false
		}

		r.send(ctx, core.Message{Sender: core.HumanSender, Recipient: name, Content: strings.TrimSpace(question)})
	default:
		r.send(ctx, core.Message{Sender: core.HumanSender, Content: line})
	}

	return false
}

func (r *repl) send(ctx context.Context, msg core.Message) {
	res, err := r.chat.Send(ctx, msg)
	if err != nil {
		r.printf("%s\n", r.theme.errText.Render("Error posting message: "+err.Error()))
		return
	}

	if len(res.Posted) == 0 && res.Err == nil {
		r.printf("%s\n", r.theme.system.Render("(no one responded)"))
	}
}

func (r *repl) history() {
	var b strings.Builder

	b.WriteString("\n----- Chat History -----\n")
	for _, m := range r.chat.History() {
		fmt.Fprintf(&b, "%s: %s\n", r.label(m), m.Content)
	}
	b.WriteString("------------------------\n")

	r.printf("%s", b.String())
}

func (r *repl) agents() {
	var b strings.Builder

	b.WriteString("\n")
	for i, a := range r.chat.Agents() {
		fmt.Fprintf(&b, "- %s (%s) tools: %s\n", r.theme.sender(a.Name(), i), a.Role(), strings.Join(a.Tools(), ", "))
	}

	r.printf("%s", b.String())
}

func (r *repl) names() []string {
	agents := r.chat.Agents()

	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = a.Name()
	}

	return names
}
