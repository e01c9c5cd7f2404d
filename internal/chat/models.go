package chat

import "time"

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

func (r MessageRole) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

type AuthRole string

const (
	AuthRoleClient AuthRole = "client"
	AuthRoleUser   AuthRole = "user"
)

func (r AuthRole) Valid() bool {
	return r == AuthRoleClient || r == AuthRoleUser
}

// User ids come from the auth provider; rows are only ever inserted.
type User struct {
	UserID    string    `gorm:"primaryKey;type:varchar(255)" json:"user_id"`
	Username  *string   `gorm:"type:varchar(255)" json:"username,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (User) TableName() string { return "users" }

type AuthRecord struct {
	UserID       string    `gorm:"primaryKey;type:varchar(255)" json:"user_id"`
	Username     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email        *string   `gorm:"type:varchar(255);uniqueIndex" json:"email,omitempty"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         AuthRole  `gorm:"type:varchar(16);not null;default:user" json:"role"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (AuthRecord) TableName() string { return "user_auth" }

type Session struct {
	SessionID   string    `gorm:"primaryKey;type:varchar(255)" json:"session_id"`
	UserID      string    `gorm:"type:varchar(255);index;not null" json:"-"`
	SessionName *string   `gorm:"type:varchar(255)" json:"session_name"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	LastUpdated time.Time `gorm:"not null" json:"last_updated"`
}

func (Session) TableName() string { return "chat_sessions" }

type Message struct {
	ID        uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string      `gorm:"type:varchar(255);index;not null" json:"session_id"`
	Role      MessageRole `gorm:"type:varchar(16);not null" json:"role"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time   `gorm:"not null" json:"timestamp"`
}

func (Message) TableName() string { return "chat_messages" }

// ChatMessage is the caller-facing shape of a stored message.
type ChatMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// History is the result of LoadChatHistory. LastUpdated uses TimeLayout.
type History struct {
	Messages    []ChatMessage `json:"messages"`
	SessionName string        `json:"session_name"`
	LastUpdated string        `json:"last_updated"`
}

// SessionSummary is one row of ListUserSessions. LastUpdated uses TimeLayout.
type SessionSummary struct {
	SessionID   string `json:"session_id"`
	SessionName string `json:"session_name"`
	LastUpdated string `json:"last_updated"`
}

// NewAuthRecord carries the plaintext password; it is hashed before storage.
type NewAuthRecord struct {
	UserID   string
	Username string
	Email    string
	Password string
	Role     AuthRole
}
