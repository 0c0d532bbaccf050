package ai

import (
	"context"
	"errors"
	"fmt"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is a single generative-language backend.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

var ErrUnsupportedModel = errors.New("unsupported model")

// ProviderError wraps any failure of a provider call. The cause is meant for
// logs only.
type ProviderError struct {
	Tag string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider call for model %q failed: %v", e.Tag, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
