package chat

import (
	"context"
	"sync"
	"time"

	"github.com/suPer8Hu/chat-exchange/internal/common"
)

// Store is the append-only, per-user conversation log.
type Store interface {
	// InsertTurn writes t as one atomic row and fills in t.ID and t.CreatedAt.
	InsertTurn(ctx context.Context, t *Turn) error
	// ListTurnsByUser returns every Turn of userID, oldest first.
	ListTurnsByUser(ctx context.Context, userID string) ([]Turn, error)
}

// stamper hands out (id, created_at) pairs. created_at never goes backwards and
// ids strictly increase, so id order is insertion order and breaks timestamp ties.
type stamper struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newStamper() *stamper {
	return &stamper{now: time.Now}
}

func (s *stamper) next() (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// millisecond precision: the ULID clock and MySQL's datetime(3)
	ts := s.now().UTC().Truncate(time.Millisecond)
	if ts.Before(s.last) {
		ts = s.last
	}
	id, err := common.NewULIDAt(ts)
	if err != nil {
		return "", time.Time{}, err
	}
	s.last = ts
	return id, ts, nil
}
