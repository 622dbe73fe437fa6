package domain

import "strings"

// Persona is a named response style loaded from a YAML file at startup.
type Persona struct {
	ID           string
	Name         string
	Icon         string
	Color        int
	Description  string
	SystemPrompt string
	Examples     []PersonaExample
}

type PersonaExample struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// PersonaInfo is the public part of a persona returned to API clients.
type PersonaInfo struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Color       int    `json:"color"`
	Description string `json:"description"`
}

func (p Persona) DisplayName() string {
	return p.Icon + " " + p.Name
}

// SystemMessage is the system prompt sent to the LLM, followed by the
// persona's example exchanges when it has any.
func (p Persona) SystemMessage() string {
	if len(p.Examples) == 0 {
		return p.SystemPrompt
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(p.SystemPrompt))
	b.WriteString("\n\nExample exchanges:")
	for _, ex := range p.Examples {
		b.WriteString("\nUser: ")
		b.WriteString(strings.TrimSpace(ex.Input))
		b.WriteString("\nYou: ")
		b.WriteString(strings.TrimSpace(ex.Output))
	}
	return b.String()
}

func (p Persona) Info() PersonaInfo {
	return PersonaInfo{
		Name:        p.Name,
		Icon:        p.Icon,
		Color:       p.Color,
		Description: p.Description,
	}
}

// PersonaCatalog gives read-only access to the loaded personas.
type PersonaCatalog interface {
	// Get returns ErrPersonaNotFound for unknown ids.
	Get(id string) (Persona, error)
	// All returns every persona ordered by id.
	All() []Persona
	IDs() []string
	Default() (Persona, error)
}
