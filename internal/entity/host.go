package entity

import (
	"time"

	"github.com/google/uuid"
)

// Host is the read-side projection of a registered widget operator. Rows
// are owned by the external account service; this service only reads them
// to resolve identities and origins.
type Host struct {
	ID            uuid.UUID `gorm:"primaryKey"`
	Email         string    `gorm:"size:254;not null"`
	ProfileName   string    `gorm:"size:50;not null"`
	ServiceName   string    `gorm:"size:100;not null"`
	ServiceDomain string    `gorm:"size:200"`
	AccessKey     string    `gorm:"size:22;uniqueIndex;not null"`
	SecretKey     string    `gorm:"size:64;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Host) TableName() string {
	return "hosts"
}
