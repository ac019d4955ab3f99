package models

import (
	"strings"
	"time"
)

// ComplaintType discriminates the complaint tables sharing the status ledger.
type ComplaintType string

const (
	ComplaintClassIssue ComplaintType = "class_issue"
	ComplaintCampusEnv  ComplaintType = "campus_env"
	ComplaintExamAppeal ComplaintType = "exam_appeal"
)

// Well-known statuses. Any other string is accepted by the ledger.
const (
	StatusPending  = "Pending"
	StatusResolved = "Resolved"
)

// StatusMaxLength bounds a status in characters; it matches the column size.
const StatusMaxLength = 64

// IsResolvedStatus reports whether a status closes a complaint.
func IsResolvedStatus(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), StatusResolved)
}

// StatusEntry is one append-only row of a complaint's status history.
type StatusEntry struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	ComplaintType ComplaintType `gorm:"size:32;not null;index:idx_status_entries_complaint,priority:1" json:"complaint_type"`
	ComplaintID   uint          `gorm:"not null;index:idx_status_entries_complaint,priority:2" json:"complaint_id"`
	OldStatus     *string       `gorm:"size:64" json:"old_status"`
	NewStatus     string        `gorm:"size:64;not null" json:"new_status"`
	Note          string        `gorm:"type:text" json:"note"`
	ChangedBy     uint          `gorm:"not null" json:"changed_by"`
	CreatedAt     time.Time     `gorm:"index:idx_status_entries_complaint,priority:3" json:"created_at"`
}

// ComplaintAssignment routes a complaint to a reviewer. Its status mirrors the ledger.
type ComplaintAssignment struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	ComplaintType ComplaintType `gorm:"size:32;not null;uniqueIndex:idx_assignment_complaint" json:"complaint_type"`
	ComplaintID   uint          `gorm:"not null;uniqueIndex:idx_assignment_complaint" json:"complaint_id"`
	AssigneeID    uint          `gorm:"not null;index" json:"assignee_id"`
	Status        string        `gorm:"size:64;not null" json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
