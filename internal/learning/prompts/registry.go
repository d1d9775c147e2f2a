package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// Spec declares a prompt. System and User are text/template sources over Input.
type Spec struct {
	Name       PromptName
	Version    int
	SchemaName string
	Schema     func() map[string]any
	System     string
	User       string
	Validators []Validator
}

type compiled struct {
	spec   Spec
	system *template.Template
	user   *template.Template
}

var (
	registryMu sync.RWMutex
	registry   = map[PromptName]*compiled{}
)

func compile(s Spec) (*compiled, error) {
	switch {
	case strings.TrimSpace(string(s.Name)) == "":
		return nil, fmt.Errorf("prompt: missing name")
	case s.Version <= 0:
		return nil, fmt.Errorf("prompt %s: version must be positive", s.Name)
	case strings.TrimSpace(s.SchemaName) == "" || s.Schema == nil:
		return nil, fmt.Errorf("prompt %s: schema name and func are required", s.Name)
	}
	sys, err := template.New(string(s.Name) + ".system").Option("missingkey=zero").Parse(s.System)
	if err != nil {
		return nil, fmt.Errorf("prompt %s system: %w", s.Name, err)
	}
	usr, err := template.New(string(s.Name) + ".user").Option("missingkey=zero").Parse(s.User)
	if err != nil {
		return nil, fmt.Errorf("prompt %s user: %w", s.Name, err)
	}
	return &compiled{spec: s, system: sys, user: usr}, nil
}

// RegisterSpec panics on an invalid spec; specs register from init.
func RegisterSpec(s Spec) {
	c, err := compile(s)
	if err != nil {
		panic(err)
	}
	registryMu.Lock()
	registry[s.Name] = c
	registryMu.Unlock()
}

func render(t *template.Template, in Input) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, in); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}

// Build validates in and renders the named prompt for openai.GenerateJSON.
func Build(name PromptName, in Input) (Prompt, error) {
	registryMu.RLock()
	c, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return Prompt{}, fmt.Errorf("unknown prompt: %s", name)
	}
	for _, v := range c.spec.Validators {
		if v == nil {
			continue
		}
		if err := v(in); err != nil {
			return Prompt{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	system, err := render(c.system, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s system: %w", name, err)
	}
	user, err := render(c.user, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s user: %w", name, err)
	}
	return Prompt{
		Name:       string(name),
		Version:    c.spec.Version,
		SchemaName: strings.TrimSpace(c.spec.SchemaName),
		Schema:     c.spec.Schema(),
		System:     system,
		User:       user,
	}, nil
}
