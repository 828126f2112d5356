package entity

import "time"

// ChatMessage is immutable once persisted. Rows are created only by the
// durable flush and bulk-deleted when their room is destroyed.
type ChatMessage struct {
	ID         int64     `gorm:"primaryKey"`
	ChatroomID int64     `gorm:"index;not null"`
	Message    string    `gorm:"size:2000;not null"`
	IsHost     bool      `gorm:"not null"`
	Datetime   time.Time `gorm:"not null"`
	CreatedAt  time.Time
}

func (ChatMessage) TableName() string {
	return "chat_message"
}
