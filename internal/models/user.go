// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User account statuses.
const (
	UserStatusActive   = "ACTIVE"
	UserStatusInactive = "INACTIVE"
)

// QR code types for the contact card.
const (
	QrCodeTypeFeishu = "feishu"
	QrCodeTypeWechat = "wechat"
)

// User represents an employee account on the platform.
type User struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Email        string      `gorm:"uniqueIndex;not null" json:"email"`
	Password     string      `gorm:"not null" json:"-"`
	Name         string      `gorm:"not null" json:"name"`
	Avatar       string      `json:"avatar"`
	Department   string      `json:"department"`
	DepartmentID *uint       `gorm:"index" json:"department_id,omitempty"`
	Dept         *Department `gorm:"foreignKey:DepartmentID" json:"department_relation,omitempty"`
	Position     string      `json:"position"`
	Role         string      `gorm:"default:USER" json:"role"`
	Status       string      `gorm:"default:ACTIVE" json:"status"`
	Level        int         `gorm:"default:1" json:"level"`
	LevelName    string      `gorm:"default:新手" json:"level_name"`
	Points       int         `gorm:"default:0" json:"points"`

	// Contact card fields; Show* flags control public visibility.
	Phone        string `json:"phone"`
	QrCode       string `json:"qr_code"`
	QrCodeType   string `json:"qr_code_type"`
	ShowPhone    bool   `gorm:"default:true" json:"show_phone"`
	ShowQrCode   bool   `gorm:"default:true" json:"show_qr_code"`
	FeishuID     string `json:"feishu_id"`
	FeishuUserID string `json:"feishu_user_id"`
	ShowFeishu   bool   `gorm:"default:true" json:"show_feishu"`

	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// PublicUser is the projection of a User that is safe to embed in auth
// responses and related records.
type PublicUser struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	Department string `json:"department"`
	Role       string `json:"role"`
	Position   string `json:"position"`
}

// Public returns the public projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Avatar:     u.Avatar,
		Department: u.Department,
		Role:       u.Role,
		Position:   u.Position,
	}
}

// Department groups users, demands and projects.
type Department struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
