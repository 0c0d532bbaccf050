package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/chat-exchange/internal/store/redisstore"
)

func TestHandleEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	rds := redisstore.New(mr.Addr(), "", 0)
	defer rds.Close()
	ctx := context.Background()

	body := []byte(`{"user_id":"user-1","model_tag":"gemini-1.5-flash","outcome":"assistant","at":"2026-01-02T03:04:05Z"}`)
	require.NoError(t, handleEvent(ctx, rds, body))
	require.NoError(t, handleEvent(ctx, rds, body))

	usage, err := rds.Usage(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"gemini-1.5-flash:assistant": 2}, usage)

	t.Run("bad messages are not retried", func(t *testing.T) {
		for _, b := range []string{`not json`, `{"model_tag":"x","outcome":"assistant"}`, `{"user_id":"u"}`} {
			err := handleEvent(ctx, rds, []byte(b))
			assert.True(t, isBadMessage(err), b)
		}
	})

	t.Run("redis failure is retryable", func(t *testing.T) {
		mr.Close()
		err := handleEvent(ctx, rds, body)
		require.Error(t, err)
		assert.False(t, isBadMessage(err))
	})
}
