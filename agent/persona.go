package agent

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

// DefaultPersona is used when an agent is created without a persona.
const DefaultPersona = "You are {{.name}}, the {{.role}} specialist of the office."

// personaVars lists the variables a persona template may reference.
var personaVars = []string{"name", "role", "tools"}

// Persona is a persona template. Templates use Go template syntax and may
// reference {{.name}}, {{.role}} and {{.tools}}; plain text is returned as is.
type Persona struct {
	text string
}

// NewPersona creates a Persona from template text.
func NewPersona(text string) Persona { return Persona{text: text} }

// Text returns the raw template text.
func (p Persona) Text() string { return p.text }

// IsStatic reports whether the persona contains no template actions.
func (p Persona) IsStatic() bool { return !strings.Contains(p.text, "{{") }

// Render resolves the template for the given identity.
func (p Persona) Render(name, role string, tools []string) (string, error) {
	if strings.TrimSpace(p.text) == "" {
		return "", fmt.Errorf("empty persona")
	}

	if p.IsStatic() {
		return p.text, nil
	}

	tpl := prompts.NewPromptTemplate(p.text, personaVars)

	out, err := tpl.Format(map[string]any{
		"name":  name,
		"role":  role,
		"tools": strings.Join(tools, ", "),
	})
	if err != nil {
		return "", fmt.Errorf("render persona: %w", err)
	}

	return out, nil
}
