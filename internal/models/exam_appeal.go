package models

import (
	"strings"
	"time"
)

// Appeal window states.
const (
	WindowOpen   = "Open"
	WindowClosed = "Closed"
)

// DefaultAppealType is used when a submission does not name one.
const DefaultAppealType = "exam_score"

// AppealWindow is an administratively defined period accepting appeals of one type.
type AppealWindow struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	AppealType string     `gorm:"size:64;uniqueIndex;not null" json:"appeal_type"`
	Status     string     `gorm:"size:16;not null;default:Closed" json:"status"`
	OpensAt    *time.Time `json:"opens_at"`
	ClosesAt   *time.Time `json:"closes_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsOpenAt reports whether the window accepts appeals at the given instant.
func (w AppealWindow) IsOpenAt(now time.Time) bool {
	if !strings.EqualFold(w.Status, WindowOpen) {
		return false
	}
	if w.OpensAt != nil && now.Before(*w.OpensAt) {
		return false
	}
	if w.ClosesAt != nil && now.After(*w.ClosesAt) {
		return false
	}
	return true
}

// ExamAppeal is one subject line of an appeal submission. Lines of one
// submission share a reference number.
type ExamAppeal struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	ReferenceNo    string       `gorm:"size:32;not null;index" json:"reference_no"`
	AppealType     string       `gorm:"size:64;not null" json:"appeal_type"`
	WindowID       uint         `gorm:"not null;index" json:"window_id"`
	StudentID      uint         `gorm:"not null;index" json:"student_id"`
	SubjectClassID uint         `gorm:"not null;index" json:"subject_class_id"`
	Reason         string       `gorm:"type:text;not null" json:"reason"`
	RequestedMark  *float64     `json:"requested_mark"`
	SubjectClass   SubjectClass `gorm:"foreignKey:SubjectClassID" json:"subject_class"`
	CreatedAt      time.Time    `gorm:"index" json:"created_at"`
}

// ExamAppealSummary is a listing row joined with subject and latest status.
type ExamAppealSummary struct {
	ID             uint      `json:"id"`
	ReferenceNo    string    `json:"reference_no"`
	AppealType     string    `json:"appeal_type"`
	StudentID      uint      `json:"student_id"`
	StudentName    string    `json:"student_name"`
	SubjectClassID uint      `json:"subject_class_id"`
	SubjectCode    string    `json:"subject_code"`
	SubjectName    string    `json:"subject_name"`
	ClassName      string    `json:"class_name"`
	Reason         string    `json:"reason"`
	RequestedMark  *float64  `json:"requested_mark"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}
