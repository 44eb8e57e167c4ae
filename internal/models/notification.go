package models

import "time"

// Notification types.
const (
	NotificationTypeSystem      = "SYSTEM"
	NotificationTypeDemand      = "DEMAND"
	NotificationTypeProject     = "PROJECT"
	NotificationTypeReplication = "REPLICATION"
	NotificationTypeTool        = "TOOL"
)

// Notification is a message addressed to one user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Type      string    `gorm:"index;not null" json:"type"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Link      string    `json:"link"`
	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
