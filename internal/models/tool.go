package models

import (
	"time"

	"gorm.io/gorm"
)

// Tool kinds.
const (
	ToolTypeInternal = "INTERNAL"
	ToolTypeExternal = "EXTERNAL"
	ToolTypeAPI      = "API"
)

// Tool approval statuses; only APPROVED tools appear in public listings.
const (
	ToolStatusPending  = "PENDING"
	ToolStatusApproved = "APPROVED"
	ToolStatusRejected = "REJECTED"
)

// Tool is a registered AI tool in the marketplace.
type Tool struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Name        string      `gorm:"not null" json:"name"`
	Description string      `gorm:"type:text;not null" json:"description"`
	Category    string      `gorm:"index" json:"category"`
	Type        string      `gorm:"index" json:"type"`
	Price       float64     `gorm:"default:0" json:"price"`
	Icon        string      `json:"icon"`
	CoverImage  string      `json:"cover_image"`
	URL         string      `json:"url"`
	APIEndpoint string      `json:"api_endpoint"`
	Status      string      `gorm:"default:PENDING;index" json:"status"`
	IsFeatured  bool        `gorm:"default:false;index" json:"is_featured"`
	AuthorID    uint        `gorm:"index;not null" json:"author_id"`
	Author      *User       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	DepartmentID uint       `json:"department_id"`
	Department  *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`

	Tags    []Tag        `gorm:"many2many:tool_tags" json:"tags,omitempty"`
	Reviews []ToolReview `gorm:"foreignKey:ToolID" json:"reviews,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ToolReview is a user rating of a tool.
type ToolReview struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ToolID    uint      `gorm:"index;not null" json:"tool_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
