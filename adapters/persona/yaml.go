package persona

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

type personaFile struct {
	Name         string                  `yaml:"name"`
	Icon         string                  `yaml:"icon"`
	Color        int                     `yaml:"color"`
	Description  string                  `yaml:"description"`
	SystemPrompt string                  `yaml:"system_prompt"`
	Examples     []domain.PersonaExample `yaml:"examples"`
}

// Catalog holds the personas read from a directory of YAML files. The id of
// each persona is its file name without extension.
type Catalog struct {
	personas  map[string]domain.Persona
	ids       []string
	defaultID string
}

var _ domain.PersonaCatalog = (*Catalog)(nil)

// Load reads every *.yaml and *.yml file in dir. defaultID, when not empty,
// must name one of the loaded personas.
func Load(dir, defaultID string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("personas directory not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("personas path is not a directory: %s", dir)
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("listing persona files: %w", err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no persona YAML files found in %s", dir)
	}

	personas := make(map[string]domain.Persona, len(files))
	for _, file := range files {
		p, err := loadFile(file)
		if err != nil {
			return nil, err
		}
		personas[p.ID] = p
	}

	return New(personas, defaultID)
}

// New builds a catalog from already loaded personas.
func New(personas map[string]domain.Persona, defaultID string) (*Catalog, error) {
	ids := make([]string, 0, len(personas))
	for id := range personas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if defaultID != "" {
		if _, ok := personas[defaultID]; !ok {
			return nil, fmt.Errorf("default persona %q: %w", defaultID, domain.ErrPersonaNotFound)
		}
	}

	log.With(zap.Strings("persona_ids", ids)).Info("Personas loaded")

	return &Catalog{personas: personas, ids: ids, defaultID: defaultID}, nil
}

func loadFile(path string) (domain.Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Persona{}, fmt.Errorf("reading persona %s: %w", path, err)
	}

	var f personaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.Persona{}, fmt.Errorf("decoding persona %s: %w", path, err)
	}
	if f.Name == "" || f.SystemPrompt == "" {
		return domain.Persona{}, fmt.Errorf("persona %s: name and system_prompt are required", path)
	}

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return domain.Persona{
		ID:           id,
		Name:         f.Name,
		Icon:         f.Icon,
		Color:        f.Color,
		Description:  f.Description,
		SystemPrompt: f.SystemPrompt,
		Examples:     f.Examples,
	}, nil
}

func (c *Catalog) Get(id string) (domain.Persona, error) {
	p, ok := c.personas[id]
	if !ok {
		return domain.Persona{}, fmt.Errorf("persona %q: %w", id, domain.ErrPersonaNotFound)
	}
	return p, nil
}

func (c *Catalog) All() []domain.Persona {
	out := make([]domain.Persona, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.personas[id])
	}
	return out
}

func (c *Catalog) IDs() []string {
	return append([]string(nil), c.ids...)
}

// Default returns the configured default persona, or the first one by id.
func (c *Catalog) Default() (domain.Persona, error) {
	if c.defaultID != "" {
		return c.Get(c.defaultID)
	}
	if len(c.ids) == 0 {
		return domain.Persona{}, fmt.Errorf("no personas available: %w", domain.ErrPersonaNotFound)
	}
	return c.personas[c.ids[0]], nil
}
