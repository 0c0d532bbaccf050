package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	reply string
	err   error
	calls int
	last  []Message
}

func (p *stubProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	p.calls++
	p.last = append([]Message(nil), messages...)
	return p.reply, p.err
}

func newTestAdapter(t *testing.T, prov *stubProvider, gotModel *string) *Adapter {
	t.Helper()
	reg := NewRegistry()
	reg.Register("stub", func(ctx context.Context, model string) (Provider, error) {
		if gotModel != nil {
			*gotModel = model
		}
		return prov, nil
	})
	a, err := NewAdapter(reg, []ModelDescriptor{{Tag: "gemini-1.5-flash", Provider: "stub", Model: "upstream-flash"}})
	require.NoError(t, err)
	return a
}

func TestAdapter_Generate(t *testing.T) {
	t.Run("sends prompt as single user message", func(t *testing.T) {
		prov := &stubProvider{reply: "Hi there!"}
		var model string
		a := newTestAdapter(t, prov, &model)

		text, err := a.Generate(context.Background(), "gemini-1.5-flash", "Hello")
		require.NoError(t, err)
		assert.Equal(t, "Hi there!", text)
		assert.Equal(t, "upstream-flash", model)
		assert.Equal(t, []Message{{Role: RoleUser, Content: "Hello"}}, prov.last)
	})

	t.Run("unknown tag never reaches the provider", func(t *testing.T) {
		prov := &stubProvider{reply: "x"}
		a := newTestAdapter(t, prov, nil)

		_, err := a.Generate(context.Background(), "gpt-4o", "Hello")
		assert.ErrorIs(t, err, ErrUnsupportedModel)
		assert.Zero(t, prov.calls)
	})

	t.Run("provider failure is classified", func(t *testing.T) {
		cause := errors.New("dial tcp: i/o timeout")
		prov := &stubProvider{err: cause}
		a := newTestAdapter(t, prov, nil)

		_, err := a.Generate(context.Background(), "gemini-1.5-flash", "Hello")
		var perr *ProviderError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "gemini-1.5-flash", perr.Tag)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, 1, prov.calls)
	})

	t.Run("factory failure is classified", func(t *testing.T) {
		reg := NewRegistry()
		reg.Register("broken", func(ctx context.Context, model string) (Provider, error) {
			return nil, errors.New("missing api key")
		})
		a, err := NewAdapter(reg, []ModelDescriptor{{Tag: "m", Provider: "broken", Model: "m"}})
		require.NoError(t, err)

		_, err = a.Generate(context.Background(), "m", "Hello")
		var perr *ProviderError
		assert.ErrorAs(t, err, &perr)
	})

	t.Run("unregistered provider is classified", func(t *testing.T) {
		a, err := NewAdapter(NewRegistry(), []ModelDescriptor{{Tag: "m", Provider: "nowhere", Model: "m"}})
		require.NoError(t, err)

		_, err = a.Generate(context.Background(), "m", "Hello")
		var perr *ProviderError
		require.ErrorAs(t, err, &perr)
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})
}

func TestNewAdapter_Validation(t *testing.T) {
	reg := NewRegistry()

	_, err := NewAdapter(reg, []ModelDescriptor{{Tag: " ", Provider: "gemini"}})
	assert.Error(t, err)

	_, err = NewAdapter(reg, []ModelDescriptor{{Tag: "a", Provider: "gemini"}, {Tag: "a", Provider: "ollama"}})
	assert.Error(t, err)

	_, err = NewAdapter(reg, []ModelDescriptor{{Tag: "a"}})
	assert.Error(t, err)

	a, err := NewAdapter(reg, []ModelDescriptor{{Tag: "b", Provider: "gemini"}, {Tag: "a", Provider: "ollama"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, a.Tags())
	assert.True(t, a.Supports("a"))
	assert.False(t, a.Supports("c"))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(" Gemini ", func(ctx context.Context, model string) (Provider, error) {
		return &stubProvider{}, nil
	})
	reg.Register("ollama", func(ctx context.Context, model string) (Provider, error) {
		return &stubProvider{}, nil
	})

	assert.True(t, reg.Has("GEMINI"))
	assert.Equal(t, []string{"gemini", "ollama"}, reg.Names())

	_, err := reg.Get(context.Background(), "openrouter", "x")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
