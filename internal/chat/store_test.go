package chat

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStamper_NonDecreasingWithStrictIDs(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := []time.Time{base, base, base.Add(-time.Second), base.Add(time.Millisecond)}
	s := newStamper()
	i := 0
	s.now = func() time.Time { t := clock[i]; i++; return t }

	var prevID string
	var prevTS time.Time
	for range clock {
		id, ts, err := s.next()
		require.NoError(t, err)
		assert.False(t, ts.Before(prevTS), "created_at went backwards")
		assert.Greater(t, id, prevID)
		prevID, prevTS = id, ts
	}
}

func TestRepo_TiesOrderedByInsertion(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	frozen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.stamp.now = func() time.Time { return frozen }
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, repo.InsertTurn(ctx, &Turn{UserID: "u", ModelTag: testTag, Role: RoleUser, Content: fmt.Sprint(i)}))
	}

	turns, err := repo.ListTurnsByUser(ctx, "u")
	require.NoError(t, err)
	require.Len(t, turns, 20)
	for i, tr := range turns {
		assert.Equal(t, fmt.Sprint(i), tr.Content)
		assert.True(t, tr.CreatedAt.Equal(frozen))
	}
}

func TestRepo_RejectsInvalidTurn(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	assert.Error(t, repo.InsertTurn(ctx, &Turn{UserID: "u", Role: "system", Content: "x"}))
	assert.Error(t, repo.InsertTurn(ctx, &Turn{Role: RoleUser, Content: "x"}))

	turns, err := repo.ListTurnsByUser(ctx, "u")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conv", "messages.bolt")
	ctx := context.Background()

	store, err := OpenBoltStore(path)
	require.NoError(t, err)

	empty, err := store.ListTurnsByUser(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	in := []Turn{
		{UserID: "u1", ModelTag: testTag, Role: RoleUser, Content: "Hello"},
		{UserID: "u2", ModelTag: testTag, Role: RoleUser, Content: "other"},
		{UserID: "u1", ModelTag: testTag, Role: RoleAssistant, Content: "Hi there!"},
	}
	for i := range in {
		require.NoError(t, store.InsertTurn(ctx, &in[i]))
		assert.NotEmpty(t, in[i].ID)
		assert.False(t, in[i].CreatedAt.IsZero())
	}
	require.NoError(t, store.Close())

	// reopen: the log must survive
	store, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer store.Close()

	turns, err := store.ListTurnsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, in[0].ID, turns[0].ID)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "Hello", turns[0].Content)
	assert.Equal(t, "u1", turns[0].UserID)
	assert.Equal(t, RoleAssistant, turns[1].Role)
	assert.Equal(t, "Hi there!", turns[1].Content)
	assert.True(t, in[2].CreatedAt.Equal(turns[1].CreatedAt))
}

func TestBoltStore_ServesExchanges(t *testing.T) {
	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "messages.bolt"))
	require.NoError(t, err)
	defer store.Close()

	svc := NewService(store, newTestAdapter(t, &recordingProvider{reply: "Hi there!"}))
	_, err = svc.Send(context.Background(), "user-1", testTag, "Hello")
	require.NoError(t, err)

	turns, err := svc.History(context.Background(), "user-1")
	require.NoError(t, err)
	assertTurns(t, turns,
		Turn{Role: RoleUser, Content: "Hello"},
		Turn{Role: RoleAssistant, Content: "Hi there!"},
	)
}
