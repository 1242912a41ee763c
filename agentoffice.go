// Package agentoffice provides a high-level façade that assembles an office
// from a roster: one model binding, per-agent tool sets, the shared message
// log and the round dispatcher. Most applications interact with this package
// by:
//  1. Loading a config.Config and building an Office via FromConfig (or New
//     with explicit collaborators)
//  2. Posting human messages with Post or Ask, which run a round
//  3. Following progress through Chat().Subscribe or Chat().Events
//
// All defaults are safe for local development: an in-memory log and the
// built-in roster.
package agentoffice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hupe1980/agentoffice/agent"
	"github.com/hupe1980/agentoffice/config"
	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/logging"
	"github.com/hupe1980/agentoffice/messagelog"
	"github.com/hupe1980/agentoffice/model"
	"github.com/hupe1980/agentoffice/office"
)

// Options configures the Office.
type Options struct {
	// Log is the shared message log (defaults to an in-memory log).
	Log core.MessageLog

	// Streaming forwards model tokens as office events while agents think.
	Streaming bool

	// MaxSteps bounds each agent's decision loop.
	MaxSteps int

	// ToolTimeout bounds a single tool call.
	ToolTimeout time.Duration

	// FollowUpRounds bounds the extra passes given to agents addressed
	// directly during a round.
	FollowUpRounds int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Office is the façade aggregating the chat, its agents and their backends.
type Office struct {
	opts   Options
	chat   *office.Chat
	llm    model.Model
	roster *config.Roster
	deps   config.ToolDeps
}

// New builds an office with one agent per enabled roster entry, all sharing
// llm. Tools are instantiated from deps.
func New(llm model.Model, roster *config.Roster, deps config.ToolDeps, optFns ...func(o *Options)) (*Office, error) {
	opts := Options{
		Streaming:   true,
		MaxSteps:    8,
		ToolTimeout: 30 * time.Second,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.Log == nil {
		opts.Log = messagelog.NewInMemoryLog()
	}

	if roster == nil {
		roster = config.DefaultRoster()
	}

	chat := office.New(opts.Log, func(o *office.Options) {
		o.FollowUpRounds = opts.FollowUpRounds
		o.Logger = opts.Logger
	})

	for _, spec := range roster.Enabled() {
		tools, err := config.BuildTools(spec, deps)
		if err != nil {
			return nil, err
		}

		a, err := agent.New(spec.Name, llm, func(o *agent.Options) {
			o.Role = spec.Role
			if strings.TrimSpace(spec.Persona) != "" {
				o.Persona = spec.Persona
			}
			o.Tools = tools
			o.Observer = spec.Observer
			o.MaxSteps = opts.MaxSteps
			o.ToolTimeout = opts.ToolTimeout
			o.Streaming = opts.Streaming
			o.Logger = opts.Logger
		})
		if err != nil {
			return nil, err
		}

		if err := chat.Register(a); err != nil {
			return nil, err
		}
	}

	return &Office{opts: opts, chat: chat, llm: llm, roster: roster, deps: deps}, nil
}

// FromConfig resolves the model binding, roster and tool backends described
// by cfg and builds the office.
func FromConfig(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Office, error) {
	roster, err := config.LoadRoster(cfg.RosterPath)
	if err != nil {
		return nil, err
	}

	llm, err := config.NewModel(ctx, cfg)
	if err != nil {
		return nil, err
	}

	deps, err := config.NewToolDeps(cfg, roster, logger)
	if err != nil {
		return nil, err
	}

	o, err := New(llm, roster, deps, func(o *Options) {
		o.Streaming = cfg.Streaming
		o.MaxSteps = cfg.MaxSteps
		o.ToolTimeout = cfg.ToolTimeout
		o.FollowUpRounds = cfg.FollowUpRounds
		o.Logger = logger
	})
	if err != nil {
		_ = closeDeps(deps)
		return nil, err
	}

	return o, nil
}

// Chat returns the underlying office chat.
func (o *Office) Chat() *office.Chat { return o.chat }

// Model returns the shared model binding.
func (o *Office) Model() model.Model { return o.llm }

// Roster returns the roster the office was built from.
func (o *Office) Roster() *config.Roster { return o.roster }

// Post broadcasts a human message and runs a round.
func (o *Office) Post(ctx context.Context, content string) (office.RoundResult, error) {
	return o.chat.Post(ctx, core.HumanSender, content)
}

// Ask addresses a human message to one agent and runs a round.
func (o *Office) Ask(ctx context.Context, agentName, content string) (office.RoundResult, error) {
	return o.chat.Ask(ctx, agentName, content)
}

// Welcome posts the roster's welcome message as the system sender. It
// reports false when the roster has none.
func (o *Office) Welcome(ctx context.Context) (office.RoundResult, bool, error) {
	if strings.TrimSpace(o.roster.Welcome) == "" {
		return office.RoundResult{}, false, nil
	}

	res, err := o.chat.Post(ctx, core.SystemSender, o.roster.Welcome)

	return res, true, err
}

// Check verifies the model binding when it supports availability checks.
func (o *Office) Check(ctx context.Context) error {
	c, ok := o.llm.(model.Checker)
	if !ok {
		return nil
	}

	if err := c.Check(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInferenceUnavailable, err)
	}

	return nil
}

// ListModels enumerates the provider's model ids.
func (o *Office) ListModels(ctx context.Context) ([]string, error) {
	return ListModels(ctx, o.llm)
}

// ListModels enumerates the model ids of m's provider when supported.
func ListModels(ctx context.Context, m model.Model) ([]string, error) {
	l, ok := m.(model.Lister)
	if !ok {
		return nil, fmt.Errorf("provider %s cannot list models", m.Info().Provider)
	}

	return l.ListModels(ctx)
}

// Watch reloads personas whenever the roster file at path changes. Agents
// added to the file after startup are ignored; membership is fixed.
func (o *Office) Watch(ctx context.Context, path string) error {
	return config.WatchRoster(ctx, path, func(r *config.Roster) {
		n, err := config.ApplyPersonas(o.chat, r, func(name string) bool {
			_, ok := o.chat.Agent(name)
			return ok
		})
		if err != nil {
			o.opts.Logger.Warn("office.persona.reload_failed", "error", err)
		}

		o.opts.Logger.Info("office.persona.reloaded", "agents", n)
	}, func(wo *config.WatchOptions) {
		wo.Logger = o.opts.Logger
	})
}

// Close releases tool backends such as the Docker client.
func (o *Office) Close() error { return closeDeps(o.deps) }

func closeDeps(deps config.ToolDeps) error {
	var errs []error

	if c, ok := deps.Runner.(io.Closer); ok {
		errs = append(errs, c.Close())
	}

	return errors.Join(errs...)
}
