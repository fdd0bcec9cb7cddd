package models

import (
	"time"
)

// MaxMessageLength bounds the text of a single warble.
const MaxMessageLength = 140

// Message is a short text post owned by a user.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:varchar(140);not null" json:"text"`
	Timestamp time.Time `gorm:"not null;autoCreateTime;index" json:"timestamp"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`

	// Liked is computed for the requesting user and never persisted.
	Liked bool `gorm:"-" json:"liked"`
}

// IsOwnedBy reports whether userID authored the message.
func (m *Message) IsOwnedBy(userID uint) bool {
	return m.UserID == userID
}
