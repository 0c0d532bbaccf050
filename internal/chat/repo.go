package chat

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repo is the SQL-backed Store.
type Repo struct {
	db    *gorm.DB
	stamp *stamper
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db, stamp: newStamper()}
}

// Migrate creates or updates the messages table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Turn{})
}

func (r *Repo) InsertTurn(ctx context.Context, t *Turn) error {
	if t == nil || !t.Role.Valid() || t.UserID == "" {
		return errors.New("chat: invalid turn")
	}
	id, ts, err := r.stamp.next()
	if err != nil {
		return err
	}
	row := *t
	row.ID = id
	row.CreatedAt = ts
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	*t = row
	return nil
}

// ListTurnsByUser returns messages in ASC (created_at, id) order (oldest -> newest).
func (r *Repo) ListTurnsByUser(ctx context.Context, userID string) ([]Turn, error) {
	turns := []Turn{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&turns).Error; err != nil {
		return nil, err
	}
	return turns, nil
}
