package dto

import (
	"time"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// ClassroomResponse is a classroom reference.
type ClassroomResponse struct {
	ID           uint   `json:"id"`
	ClsNo        string `json:"cls_no"`
	Name         string `json:"name"`
	AcademicYear string `json:"academic_year,omitempty"`
}

// NewClassroomResponse converts a classroom model into a DTO.
func NewClassroomResponse(classroom models.Classroom) ClassroomResponse {
	return ClassroomResponse{
		ID:           classroom.ID,
		ClsNo:        classroom.ClsNo,
		Name:         classroom.Name,
		AcademicYear: classroom.AcademicYear,
	}
}

// NewClassroomResponseSlice converts classroom models into DTOs.
func NewClassroomResponseSlice(classrooms []models.Classroom) []ClassroomResponse {
	out := make([]ClassroomResponse, 0, len(classrooms))
	for _, classroom := range classrooms {
		out = append(out, NewClassroomResponse(classroom))
	}
	return out
}

// IssueTypeResponse is a complaint category.
type IssueTypeResponse struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	IsOther bool   `json:"is_other,omitempty"`
}

// ClassIssueSubmitRequest is the payload for POST /class-issues/submit.
type ClassIssueSubmitRequest struct {
	IssueTypeID uint   `json:"issue_type_id" validate:"required"`
	Description string `json:"description" validate:"required,max=5000"`
	ClassID     *uint  `json:"class_id"`
}

// ClassIssueResponse is a classroom issue with its current status.
type ClassIssueResponse struct {
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

// NewClassIssueResponse converts a listing row into a DTO.
func NewClassIssueResponse(row models.ClassIssueSummary) ClassIssueResponse {
	return ClassIssueResponse{
		ID:            row.ID,
		IssueTypeID:   row.IssueTypeID,
		IssueTypeName: row.IssueTypeName,
		ClassroomID:   row.ClassroomID,
		ClassName:     row.ClassName,
		LeaderID:      row.LeaderID,
		LeaderName:    row.LeaderName,
		Description:   row.Description,
		Status:        row.Status,
		CreatedAt:     row.CreatedAt,
	}
}

// NewClassIssueResponseSlice converts listing rows into DTOs.
func NewClassIssueResponseSlice(rows []models.ClassIssueSummary) []ClassIssueResponse {
	out := make([]ClassIssueResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewClassIssueResponse(row))
	}
	return out
}

// ClassIssueTrackingResponse pairs an issue with its full history.
type ClassIssueTrackingResponse struct {
	Issue   ClassIssueResponse    `json:"issue"`
	History []StatusEntryResponse `json:"history"`
}
