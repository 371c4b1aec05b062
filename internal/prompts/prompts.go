package prompts

import (
	"embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Template names shared by every domain set.
const (
	QueryInit           = "query_prompt_init"
	RethinkBacktracking = "gen_prompt_rethink_Backtracking"
	RethinkExploring    = "gen_prompt_rethink_Exploring_New_Path"
	RethinkVerification = "gen_prompt_rethink_Verification"
	RethinkCorrection   = "gen_prompt_rethink_Correction"
	NaturalReasoning    = "natural_reasoning_prompt"
	FinalResponse       = "final_response_prompt"
	Verify              = "verify_prompt"
)

//go:embed defaults/*.yaml
var defaultFS embed.FS

// Set is a named collection of prompt templates for one domain.
type Set struct {
	templates map[string]string
}

// Default returns the embedded template set for a domain.
func Default(domain string) (*Set, error) {
	data, err := defaultFS.ReadFile("defaults/" + domain + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("no default prompts for domain %q: %w", domain, err)
	}
	return parse(data)
}

// LoadFile reads a template set from a YAML file on disk. An empty path falls
// back to the embedded defaults for the domain.
func LoadFile(path, domain string) (*Set, error) {
	if path == "" {
		return Default(domain)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	set, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("prompts file %s: %w", path, err)
	}
	return set, nil
}

func parse(data []byte) (*Set, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse prompts yaml: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("parse prompts yaml: no templates")
	}
	return &Set{templates: raw}, nil
}

// Get returns the raw template body for a name.
func (s *Set) Get(name string) (string, bool) {
	tmpl, ok := s.templates[name]
	return tmpl, ok
}

// Names lists the templates in the set, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Positional renders a template with in-order {} substitution.
func (s *Set) Positional(name string, args ...string) (string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("prompt %q not found", name)
	}
	return renderPositional(tmpl, args...)
}

// Named renders a template with {key} substitution. Templates that carry none
// of the given keys fall back to positional substitution in map-sorted key
// order, matching how the upstream templates were written.
func (s *Set) Named(name string, values map[string]string) (string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("prompt %q not found", name)
	}
	return renderNamed(tmpl, values)
}
