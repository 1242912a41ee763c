package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/agentoffice/logging"
	"github.com/hupe1980/agentoffice/tool"
	"github.com/hupe1980/agentoffice/tool/coderunner"
	"github.com/hupe1980/agentoffice/tool/notepad"
	"github.com/hupe1980/agentoffice/tool/search"
	"github.com/hupe1980/agentoffice/tool/webfetch"
)

var (
	// ErrUnknownTool is returned for tool names outside the known set.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrMissingCredential is returned when a configured tool or provider
	// lacks its credential.
	ErrMissingCredential = errors.New("missing credential")
)

// KnownTools lists the tool names a roster may reference.
var KnownTools = []string{
	search.ToolName,
	webfetch.ToolName,
	notepad.WriteToolName,
	notepad.ReadToolName,
	notepad.ListToolName,
	coderunner.ToolName,
}

// ToolDeps holds the shared backends tools are built from. Nil backends are
// only an error when a roster entry needs them.
type ToolDeps struct {
	Notes   notepad.Store
	Search  *search.Client
	Runner  coderunner.Runner
	Fetcher *webfetch.Fetcher
}

// NewToolDeps creates the backends the enabled agents of roster need.
// The Docker runner is only created when some agent uses code_runner.
func NewToolDeps(cfg *Config, roster *Roster, logger logging.Logger) (ToolDeps, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	needs := make(map[string]bool)
	for _, spec := range roster.Enabled() {
		for _, name := range spec.Tools {
			needs[name] = true
		}
	}

	deps := ToolDeps{
		Notes: notepad.NewFileStore(cfg.NotesDir),
	}

	if needs[search.ToolName] {
		if cfg.SerpAPIKey == "" {
			return ToolDeps{}, fmt.Errorf("%w: SERPAPI_API_KEY is required by %s", ErrMissingCredential, search.ToolName)
		}

		c, err := search.NewClient(func(o *search.Options) {
			o.APIKey = cfg.SerpAPIKey
		})
		if err != nil {
			return ToolDeps{}, err
		}
		deps.Search = c
	}

	if needs[webfetch.ToolName] {
		deps.Fetcher = webfetch.NewFetcher()
	}

	if needs[coderunner.ToolName] {
		r, err := coderunner.NewDockerRunner(func(o *coderunner.DockerOptions) {
			o.Image = cfg.RunnerImage
			o.Timeout = cfg.ToolTimeout
			o.Logger = logger
		})
		if err != nil {
			return ToolDeps{}, err
		}
		deps.Runner = r
	}

	return deps, nil
}

// BuildTools instantiates the tools named by spec in order. Unknown names
// and missing backends are errors.
func BuildTools(spec AgentSpec, deps ToolDeps) ([]tool.Tool, error) {
	tools := make([]tool.Tool, 0, len(spec.Tools))
	seen := make(map[string]bool, len(spec.Tools))

	for _, raw := range spec.Tools {
		name := strings.TrimSpace(raw)
		if seen[name] {
			continue
		}
		seen[name] = true

		t, err := buildTool(name, spec, deps)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", spec.Name, err)
		}

		tools = append(tools, t)
	}

	return tools, nil
}

func buildTool(name string, spec AgentSpec, deps ToolDeps) (tool.Tool, error) {
	if !slices.Contains(KnownTools, name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	switch name {
	case search.ToolName:
		if deps.Search == nil {
			return nil, fmt.Errorf("%w: %s has no search client", ErrMissingCredential, name)
		}
		return search.NewTool(deps.Search), nil
	case webfetch.ToolName:
		if deps.Fetcher == nil {
			return nil, fmt.Errorf("%s: no fetcher configured", name)
		}
		return webfetch.NewTool(deps.Fetcher), nil
	case coderunner.ToolName:
		if deps.Runner == nil {
			return nil, fmt.Errorf("%s: no runner configured", name)
		}
		return coderunner.NewTool(deps.Runner), nil
	}

	if deps.Notes == nil {
		return nil, fmt.Errorf("%s: no notes store configured", name)
	}

	ns := notepad.Namespace(spec.NotesNamespace())

	switch name {
	case notepad.WriteToolName:
		return notepad.NewWriteTool(deps.Notes, ns), nil
	case notepad.ReadToolName:
		return notepad.NewReadTool(deps.Notes, ns), nil
	default:
		return notepad.NewListTool(deps.Notes, ns), nil
	}
}
