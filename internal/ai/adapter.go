package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ModelDescriptor maps a client-visible model tag to the provider that serves it
// and the provider-side model id.
type ModelDescriptor struct {
	Tag      string `yaml:"tag"`
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// Adapter turns a (model tag, prompt) pair into exactly one provider call.
type Adapter struct {
	registry *Registry
	tags     []string
	models   map[string]ModelDescriptor
}

func NewAdapter(registry *Registry, models []ModelDescriptor) (*Adapter, error) {
	if registry == nil {
		return nil, errors.New("ai: registry is nil")
	}
	a := &Adapter{
		registry: registry,
		models:   make(map[string]ModelDescriptor, len(models)),
	}
	for _, m := range models {
		tag := strings.TrimSpace(m.Tag)
		if tag == "" {
			return nil, errors.New("ai: model descriptor without tag")
		}
		if _, dup := a.models[tag]; dup {
			return nil, fmt.Errorf("ai: duplicate model tag %q", tag)
		}
		if strings.TrimSpace(m.Provider) == "" {
			return nil, fmt.Errorf("ai: model %q has no provider", tag)
		}
		m.Tag = tag
		a.models[tag] = m
		a.tags = append(a.tags, tag)
	}
	return a, nil
}

func (a *Adapter) Supports(tag string) bool {
	_, ok := a.models[tag]
	return ok
}

// Tags returns the allow-listed model tags in configuration order.
func (a *Adapter) Tags() []string {
	return append([]string(nil), a.tags...)
}

// Generate sends prompt as a single user message to the provider registered for
// tag. Unknown tags fail with ErrUnsupportedModel without contacting anything;
// every other failure is a *ProviderError. There is no retry.
func (a *Adapter) Generate(ctx context.Context, tag, prompt string) (string, error) {
	desc, ok := a.models[tag]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedModel, tag)
	}

	provider, err := a.registry.Get(ctx, desc.Provider, desc.Model)
	if err != nil {
		return "", &ProviderError{Tag: tag, Err: err}
	}

	text, err := provider.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}})
	if err != nil {
		return "", &ProviderError{Tag: tag, Err: err}
	}
	return text, nil
}
