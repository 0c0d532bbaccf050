package chat

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var turnsBucket = []byte("turns")

// BoltStore keeps the conversation log in a single bbolt file. Each user gets a
// nested bucket under "turns"; keys are Turn ids, so cursor order is insertion
// order.
type BoltStore struct {
	db    *bolt.DB
	stamp *stamper
}

func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(turnsBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db, stamp: newStamper()}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) InsertTurn(ctx context.Context, t *Turn) error {
	if t == nil || !t.Role.Valid() || t.UserID == "" {
		return errors.New("chat: invalid turn")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	id, ts, err := s.stamp.next()
	if err != nil {
		return err
	}
	row := *t
	row.ID = id
	row.CreatedAt = ts

	v, err := json.Marshal(boltTurn(row))
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(turnsBucket).CreateBucketIfNotExists([]byte(row.UserID))
		if err != nil {
			return err
		}
		return b.Put([]byte(row.ID), v)
	})
	if err != nil {
		return err
	}
	*t = row
	return nil
}

func (s *BoltStore) ListTurnsByUser(ctx context.Context, userID string) ([]Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	turns := []Turn{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(turnsBucket).Bucket([]byte(userID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var bt boltTurn
			if err := json.Unmarshal(v, &bt); err != nil {
				return err
			}
			turns = append(turns, Turn(bt))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return turns, nil
}

// boltTurn is the on-disk encoding; Turn hides user_id from clients.
type boltTurn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ModelTag  string    `json:"model_tag"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
