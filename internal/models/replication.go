package models

import "time"

// Replication urgency tiers as submitted by the applicant.
const (
	UrgencyNormal    = "normal"
	UrgencyUrgent    = "urgent"
	UrgencyEmergency = "emergency"
)

// Replication request statuses.
const (
	ReplicationStatusApplied   = "APPLIED"
	ReplicationStatusReviewing = "REVIEWING"
	ReplicationStatusApproved  = "APPROVED"
	ReplicationStatusDeploying = "DEPLOYING"
	ReplicationStatusDeployed  = "DEPLOYED"
	ReplicationStatusRejected  = "REJECTED"
)

// ProjectReplication is a department's request to deploy or reuse an
// existing project, carrying the submitted form fields.
type ProjectReplication struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	ProjectID    uint        `gorm:"index;not null" json:"project_id"`
	Project      *Project    `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	ReplicatorID uint        `gorm:"index;not null" json:"replicator_id"`
	Replicator   *User       `gorm:"foreignKey:ReplicatorID" json:"replicator,omitempty"`
	DepartmentID uint        `json:"department_id"`
	Dept         *Department `gorm:"foreignKey:DepartmentID" json:"department_relation,omitempty"`

	ApplicantName    string `gorm:"not null" json:"applicant_name"`
	Department       string `json:"department"`
	ContactPhone     string `json:"contact_phone"`
	Email            string `json:"email"`
	TeamSize         string `json:"team_size"`
	Urgency          string `gorm:"default:normal" json:"urgency"`
	TargetLaunchDate string `json:"target_launch_date"`
	BusinessScenario string `gorm:"type:text;not null" json:"business_scenario"`
	ExpectedGoals    string `gorm:"type:text" json:"expected_goals"`
	BudgetRange      string `json:"budget_range"`
	AdditionalNeeds  string `gorm:"type:text" json:"additional_needs"`

	Status       string     `gorm:"default:APPLIED;index" json:"status"`
	AiAnalysis   string     `gorm:"type:text" json:"ai_analysis"`
	AiAnalysisAt *time.Time `json:"ai_analysis_at,omitempty"`
	AppliedAt    time.Time  `gorm:"autoCreateTime" json:"applied_at"`
	DeployedAt   *time.Time `json:"deployed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
