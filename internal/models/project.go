package models

import (
	"time"

	"gorm.io/gorm"
)

// Project progress statuses (lifecycle stages).
const (
	ProjectStatusRequirementConfirmed = "REQUIREMENT_CONFIRMED"
	ProjectStatusScheduled            = "SCHEDULED"
	ProjectStatusInProduction         = "IN_PRODUCTION"
	ProjectStatusDeliveredNotLive     = "DELIVERED_NOT_LIVE"
	ProjectStatusDeliveredLive        = "DELIVERED_LIVE"
)

// Project review (moderation) statuses, distinct from progress status.
const (
	ReviewStatusPending  = "PENDING"
	ReviewStatusApproved = "APPROVED"
	ReviewStatusRejected = "REJECTED"
)

// Developer role labels on a project.
const (
	DeveloperRoleLead     = "负责人"
	DeveloperRoleEngineer = "工程师"
)

// Project is a published AI project case study.
type Project struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	Title            string `gorm:"not null" json:"title"`
	ShortDescription string `json:"short_description"`
	Background       string `gorm:"type:text" json:"background"`
	Solution         string `gorm:"type:text" json:"solution"`
	Features         string `gorm:"type:text" json:"features"`
	EstimatedImpact  string `gorm:"type:text" json:"estimated_impact"`
	ActualImpact     string `gorm:"type:text" json:"actual_impact"`
	Category         string `gorm:"index" json:"category"`

	Status       string `gorm:"default:REQUIREMENT_CONFIRMED;index" json:"status"`
	ReviewStatus string `gorm:"default:PENDING;index" json:"review_status"`
	IsFeatured   bool   `gorm:"default:false;index" json:"is_featured"`

	DepartmentID          uint        `gorm:"index" json:"department_id"`
	Department            *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	RequesterID           uint        `gorm:"index" json:"requester_id"`
	Requester             *User       `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	RequesterDepartmentID uint        `json:"requester_department_id"`
	RequesterName         string      `json:"requester_name"`
	ProjectLeadID         uint        `gorm:"index" json:"project_lead_id"`
	ProjectLead           *User       `gorm:"foreignKey:ProjectLeadID" json:"project_lead,omitempty"`
	ProjectLeadDeptID     uint        `gorm:"column:project_lead_department_id" json:"project_lead_department_id"`

	EmpoweredDepartments string     `json:"empowered_departments"`
	LaunchDate           *time.Time `json:"launch_date,omitempty"`

	Image           string `json:"image"`
	BackgroundImage string `json:"background_image"`
	// Images and Videos hold JSON-encoded string lists, kept alongside the
	// legacy single-image columns for older clients.
	Images string `gorm:"type:text" json:"images"`
	Videos string `gorm:"type:text" json:"videos"`

	Likes int `gorm:"default:0" json:"likes"`
	Views int `gorm:"default:0" json:"views"`

	Tags       []Tag              `gorm:"many2many:project_tags" json:"tags,omitempty"`
	Developers []ProjectDeveloper `gorm:"foreignKey:ProjectID" json:"developers,omitempty"`
	Impact     *ProjectImpact     `gorm:"foreignKey:ProjectID" json:"impact,omitempty"`

	// Computed at query time, not persisted.
	LikesCount        int  `gorm:"->" json:"likes_count"`
	ReplicationsCount int  `gorm:"->" json:"replications_count"`
	Liked             bool `gorm:"->" json:"liked"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ProjectImpact holds the headline outcome metrics of a project.
type ProjectImpact struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProjectID    uint      `gorm:"uniqueIndex;not null" json:"project_id"`
	Efficiency   string    `json:"efficiency"`
	CostSaving   string    `json:"cost_saving"`
	Satisfaction string    `json:"satisfaction"`
	Replication  string    `json:"replication"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProjectDeveloper links a user to a project with a role label.
type ProjectDeveloper struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"uniqueIndex:idx_project_developer;not null" json:"project_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_project_developer;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      string    `gorm:"not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectLike records one user liking one project; the pair is unique.
type ProjectLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"uniqueIndex:idx_project_like;not null" json:"project_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_project_like;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Tag is a shared label attached to projects and tools.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
