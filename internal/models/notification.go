package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationStatusChanged is emitted whenever a complaint's status advances.
const NotificationStatusChanged = "status_changed"

// Notification is an in-app message addressed to a single user.
type Notification struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"not null;index" json:"user_id"`
	Type      string            `gorm:"size:64;not null" json:"type"`
	Title     string            `gorm:"size:255" json:"title"`
	Message   string            `gorm:"type:text" json:"message"`
	Payload   datatypes.JSONMap `gorm:"type:json" json:"payload"`
	ReadAt    *time.Time        `json:"read_at"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
}
