package models

import (
	"time"

	"gorm.io/gorm"
)

// Demand statuses.
const (
	DemandStatusActive    = "ACTIVE"
	DemandStatusMatched   = "MATCHED"
	DemandStatusCompleted = "COMPLETED"
	DemandStatusClosed    = "CLOSED"
)

// Demand is a posted request for an AI capability.
type Demand struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Title        string      `gorm:"not null" json:"title"`
	Description  string      `gorm:"type:text;not null" json:"description"`
	Category     string      `gorm:"index" json:"category"`
	ExpectedTime string      `json:"expected_time"`
	Reward       float64     `gorm:"default:0" json:"reward"`
	Status       string      `gorm:"default:ACTIVE;index" json:"status"`
	PublisherID  uint        `gorm:"index;not null" json:"publisher_id"`
	Publisher    *User       `gorm:"foreignKey:PublisherID" json:"publisher,omitempty"`
	DepartmentID *uint       `gorm:"index" json:"department_id,omitempty"`
	Department   *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`

	Followers []DemandFollower `gorm:"foreignKey:DemandID" json:"followers,omitempty"`
	Proposals []DemandProposal `gorm:"foreignKey:DemandID" json:"proposals,omitempty"`

	// Computed at query time, not persisted.
	FollowersCount int `gorm:"->" json:"followers_count"`
	ProposalsCount int `gorm:"->" json:"proposals_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// DemandFollower records one user following one demand; the pair is unique.
type DemandFollower struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DemandID  uint      `gorm:"uniqueIndex:idx_demand_follower;not null" json:"demand_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_demand_follower;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DemandProposal is an offer by a user to fulfil a demand.
type DemandProposal struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DemandID   uint      `gorm:"index;not null" json:"demand_id"`
	ProposerID uint      `gorm:"index;not null" json:"proposer_id"`
	Proposer   *User     `gorm:"foreignKey:ProposerID" json:"proposer,omitempty"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
