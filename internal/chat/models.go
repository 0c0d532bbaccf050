package chat

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleError:
		return true
	}
	return false
}

// GenerationFailedMessage is stored as the content of every error Turn. Provider
// error text never reaches storage.
const GenerationFailedMessage = "Failed to generate response. Please try again."

// Turn is one immutable row of a user's conversation log.
type Turn struct {
	ID        string    `gorm:"type:varchar(26);primaryKey;index:idx_messages_user_created,priority:3" json:"id"`
	UserID    string    `gorm:"type:varchar(64);not null;index:idx_messages_user_created,priority:1" json:"-"`
	ModelTag  string    `gorm:"type:varchar(64);not null" json:"model_tag"`
	Role      Role      `gorm:"type:varchar(16);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null;index:idx_messages_user_created,priority:2" json:"created_at"`
}

func (Turn) TableName() string { return "messages" }

// Reply is what a successful send returns to the caller.
type Reply struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
