package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentoffice/agent"
	"github.com/hupe1980/agentoffice/core"
)

//go:embed roster.yaml
var defaultRoster []byte

// ErrInvalidRoster is returned for rosters that cannot be used.
var ErrInvalidRoster = errors.New("invalid roster")

// AgentSpec describes one office member.
type AgentSpec struct {
	Name    string   `yaml:"name"`
	Role    string   `yaml:"role"`
	Persona string   `yaml:"persona"`
	Tools   []string `yaml:"tools"`
	// Notes overrides the notepad namespace; the role is used when empty.
	Notes string `yaml:"notes,omitempty"`
	// Observer agents run inference on every message, direct ones included.
	Observer bool `yaml:"observer,omitempty"`
	Disabled bool `yaml:"disabled,omitempty"`
}

// NotesNamespace returns the notepad namespace of the agent.
func (s AgentSpec) NotesNamespace() string {
	if s.Notes != "" {
		return s.Notes
	}
	return s.Role
}

// Roster is the office membership plus the optional startup message.
type Roster struct {
	Welcome string      `yaml:"welcome,omitempty"`
	Agents  []AgentSpec `yaml:"agents"`
}

// Enabled returns the agents not marked disabled, in file order.
func (r *Roster) Enabled() []AgentSpec {
	out := make([]AgentSpec, 0, len(r.Agents))
	for _, a := range r.Agents {
		if !a.Disabled {
			out = append(out, a)
		}
	}
	return out
}

// Find returns the spec with the given name (case-insensitive).
func (r *Roster) Find(name string) (AgentSpec, bool) {
	for _, a := range r.Agents {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return AgentSpec{}, false
}

// DefaultRoster returns the built-in roster.
func DefaultRoster() *Roster {
	r, err := ParseRoster(defaultRoster)
	if err != nil {
		panic(fmt.Sprintf("config: built-in roster: %v", err))
	}
	return r
}

// LoadRoster reads a roster file. An empty path yields the built-in roster.
func LoadRoster(path string) (*Roster, error) {
	if path == "" {
		return DefaultRoster(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	return ParseRoster(data)
}

// ParseRoster decodes and validates roster YAML. Unknown fields are
// rejected so typos surface at startup.
func ParseRoster(data []byte) (*Roster, error) {
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)

	var r Roster
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return &r, nil
}

// Validate checks names, roles and personas.
func (r *Roster) Validate() error {
	if len(r.Enabled()) == 0 {
		return fmt.Errorf("%w: no enabled agents", ErrInvalidRoster)
	}

	seen := make(map[string]bool, len(r.Agents))

	for i, a := range r.Agents {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return fmt.Errorf("%w: agent %d has no name", ErrInvalidRoster, i)
		}

		k := strings.ToLower(name)
		if k == core.HumanSender || k == core.SystemSender {
			return fmt.Errorf("%w: %q is reserved", ErrInvalidRoster, name)
		}

		if seen[k] {
			return fmt.Errorf("%w: duplicate agent %q", ErrInvalidRoster, name)
		}
		seen[k] = true

		if strings.TrimSpace(a.Role) == "" {
			return fmt.Errorf("%w: agent %q has no role", ErrInvalidRoster, name)
		}

		persona := a.Persona
		if strings.TrimSpace(persona) == "" {
			persona = agent.DefaultPersona
		}

		if _, err := agent.NewPersona(persona).Render(name, a.Role, a.Tools); err != nil {
			return fmt.Errorf("%w: agent %q: %v", ErrInvalidRoster, name, err)
		}
	}

	return nil
}
