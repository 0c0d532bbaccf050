package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestAllow(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	// a long window keeps all hits in one bucket
	for i := 0; i < 3; i++ {
		ok, err := s.Allow(ctx, "send:u1", 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "hit %d", i)
	}
	ok, err := s.Allow(ctx, "send:u1", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Allow(ctx, "send:u2", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "limits are per key")
}

func TestAllow_ServerDown(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.Allow(context.Background(), "send:u1", 3, time.Minute)
	assert.Error(t, err)
}

func TestUsage(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.IncrUsage(ctx, "u1", "gemini-1.5-flash", "assistant"))
	require.NoError(t, s.IncrUsage(ctx, "u1", "gemini-1.5-flash", "assistant"))
	require.NoError(t, s.IncrUsage(ctx, "u1", "gemini-1.5-flash", "GENERATION_ERROR"))

	usage, err := s.Usage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		"gemini-1.5-flash:assistant":        2,
		"gemini-1.5-flash:GENERATION_ERROR": 1,
	}, usage)

	none, err := s.Usage(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, none)
}
