package entity

import (
	"time"

	"github.com/google/uuid"
)

// Chatroom pairs one host with one anonymous guest. The name doubles as
// the broadcast routing key and is never reused after closure.
type Chatroom struct {
	ID            int64     `gorm:"primaryKey"`
	Name          string    `gorm:"size:22;uniqueIndex;not null"`
	HostID        uuid.UUID `gorm:"index;not null"`
	Host          Host      `gorm:"foreignKey:HostID"`
	Guest         string    `gorm:"size:20;not null"`
	LatestMsg     string    `gorm:"size:2000"`
	LatestMsgAt   *time.Time
	LastCheckedAt *time.Time
	IsClosed      bool `gorm:"not null;default:false"`
	ClosedAt      *time.Time
	IsFixed       bool `gorm:"not null;default:false"`
	FixedAt       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Chatroom) TableName() string {
	return "chatroom"
}
