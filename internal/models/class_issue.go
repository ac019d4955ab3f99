package models

import "time"

// ClassIssueType categorises problems reported for a classroom.
type ClassIssueType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ClassIssue is a problem reported by a class leader for their classroom.
type ClassIssue struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	IssueTypeID uint           `gorm:"not null;index" json:"issue_type_id"`
	ClassroomID uint           `gorm:"not null;index" json:"classroom_id"`
	LeaderID    uint           `gorm:"not null;index" json:"leader_id"`
	Description string         `gorm:"type:text;not null" json:"description"`
	IssueType   ClassIssueType `gorm:"foreignKey:IssueTypeID" json:"issue_type"`
	Classroom   Classroom      `gorm:"foreignKey:ClassroomID" json:"classroom"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

// ClassIssueSummary is a listing row joined with its latest status.
type ClassIssueSummary struct {
	ID            uint      `json:"id"`
	IssueTypeID   uint      `json:"issue_type_id"`
	IssueTypeName string    `json:"issue_type_name"`
	ClassroomID   uint      `json:"classroom_id"`
	ClassName     string    `json:"class_name"`
	LeaderID      uint      `json:"leader_id"`
	LeaderName    string    `json:"leader_name"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
