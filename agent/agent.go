package agent

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/logging"
	"github.com/hupe1980/agentoffice/model"
	"github.com/hupe1980/agentoffice/tool"
)

// ErrInvalidName is returned for empty or reserved agent names.
var ErrInvalidName = errors.New("invalid agent name")

// Options configures an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// Role is the agent's specialty ("Sales", "Marketing", ...).
	Role string
	// Persona is the persona template; see Persona.
	Persona string
	// Tools are the domain tools. The common office tools are appended.
	Tools []tool.Tool
	// Observer agents infer on every unseen message, not only on broadcasts
	// and messages addressed to them.
	Observer bool
	// MaxSteps bounds the decision loop of a single turn.
	MaxSteps int
	// HistoryWindow is the minimum number of recent messages in context.
	HistoryWindow int
	// ToolTimeout bounds each tool call.
	ToolTimeout time.Duration
	// Streaming forwards partial model output to the turn sink.
	Streaming bool
	Logger    logging.Logger
}

// Agent is one office participant.
//
// Agents hold no conversational state: the office log is the only source of
// context and the read cursor is passed into every turn by the caller. The
// persona may be replaced at runtime.
type Agent struct {
	name     string
	role     string
	llm      model.Model
	registry *tool.Registry
	opts     Options
	logger   logging.Logger

	mu      sync.RWMutex
	persona Persona

	busy atomic.Bool
}

// New creates an agent with sensible defaults.
//
// The agent is initialized with:
//   - the default persona unless Options.Persona is set
//   - streaming enabled
//   - 8 decision steps per turn
//   - a 20 message history window
//   - a 30 second tool timeout
//
// Tool names must be unique across domain and common tools.
func New(name string, llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		Persona:       DefaultPersona,
		MaxSteps:      8,
		HistoryWindow: 20,
		ToolTimeout:   30 * time.Second,
		Streaming:     true,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, core.HumanSender) || strings.EqualFold(name, core.SystemSender) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if llm == nil {
		return nil, fmt.Errorf("agent %s: model is required", name)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 8
	}

	registry := tool.NewRegistry(func(o *tool.RegistryOptions) {
		o.Timeout = opts.ToolTimeout
		o.Logger = opts.Logger
	})

	if err := registry.Register(opts.Tools...); err != nil {
		return nil, fmt.Errorf("agent %s: %w", name, err)
	}

	if err := registry.Register(tool.CommonTools()...); err != nil {
		return nil, fmt.Errorf("agent %s: %w", name, err)
	}

	a := &Agent{
		name:     name,
		role:     opts.Role,
		llm:      llm,
		registry: registry,
		opts:     opts,
		logger:   opts.Logger,
		persona:  NewPersona(opts.Persona),
	}

	if _, err := a.Instructions(); err != nil {
		return nil, fmt.Errorf("agent %s: %w", name, err)
	}

	return a, nil
}

// Name returns the agent's unique name.
func (a *Agent) Name() string { return a.name }

// Role returns the agent's specialty.
func (a *Agent) Role() string { return a.role }

// Observer reports whether the agent infers on every unseen message.
func (a *Agent) Observer() bool { return a.opts.Observer }

// Busy reports whether a turn is in flight.
func (a *Agent) Busy() bool { return a.busy.Load() }

// Model returns the model binding.
func (a *Agent) Model() model.Model { return a.llm }

// Tools returns the tool names in registration order.
func (a *Agent) Tools() []string { return a.registry.Names() }

// MaxSteps returns the decision loop bound.
func (a *Agent) MaxSteps() int { return a.opts.MaxSteps }

// Persona returns the current persona template.
func (a *Agent) Persona() Persona {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.persona
}

// UpdatePersona replaces the persona template. The new template must render;
// otherwise the current one is kept. Turns already in flight keep the
// persona they started with.
func (a *Agent) UpdatePersona(text string) error {
	p := NewPersona(text)
	if _, err := p.Render(a.name, a.role, a.registry.Names()); err != nil {
		return fmt.Errorf("agent %s: %w", a.name, err)
	}

	a.mu.Lock()
	a.persona = p
	a.mu.Unlock()

	a.logger.Info("agent.persona.updated", "agent", a.name)

	return nil
}

// Instructions renders the current persona.
func (a *Agent) Instructions() (string, error) {
	return a.Persona().Render(a.name, a.role, a.registry.Names())
}
