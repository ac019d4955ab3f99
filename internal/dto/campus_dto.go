package dto

import (
	"time"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// CampusSubmitRequest holds the text fields of a campus complaint form.
type CampusSubmitRequest struct {
	IssueTypeID uint   `json:"issue_type_id" form:"issue_type_id" validate:"required"`
	Title       string `json:"title" form:"title" validate:"omitempty,max=255"`
	Description string `json:"description" form:"description" validate:"required,max=5000"`
}

// CampusIssueResponse is a campus complaint with status and support state.
type CampusIssueResponse struct {
	ID            uint      `json:"id"`
	IssueTypeID   uint      `json:"issue_type_id"`
	IssueTypeName string    `json:"issue_type_name"`
	StudentID     uint      `json:"student_id"`
	StudentName   string    `json:"student_name"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Images        []string  `json:"images"`
	Status        string    `json:"status"`
	SupportCount  int64     `json:"support_count"`
	HasSupported  bool      `json:"has_supported"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewCampusIssueResponse converts a listing row into a DTO.
func NewCampusIssueResponse(row models.CampusIssueSummary) CampusIssueResponse {
	return CampusIssueResponse{
		ID:            row.ID,
		IssueTypeID:   row.IssueTypeID,
		IssueTypeName: row.IssueTypeName,
		StudentID:     row.StudentID,
		StudentName:   row.StudentName,
		Title:         row.Title,
		Description:   row.Description,
		Images:        models.DecodeImages(row.ImagesRaw),
		Status:        row.Status,
		SupportCount:  row.SupportCount,
		HasSupported:  row.HasSupported,
		CreatedAt:     row.CreatedAt,
	}
}

// NewCampusIssueResponseSlice converts listing rows into DTOs.
func NewCampusIssueResponseSlice(rows []models.CampusIssueSummary) []CampusIssueResponse {
	out := make([]CampusIssueResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewCampusIssueResponse(row))
	}
	return out
}

// CampusTrackingResponse pairs a campus complaint with its full history.
type CampusTrackingResponse struct {
	Complaint CampusIssueResponse   `json:"complaint"`
	History   []StatusEntryResponse `json:"history"`
}

// SupportRequest is the payload for POST /campus-env/support.
type SupportRequest struct {
	ComplaintID uint `json:"complaint_id" validate:"required"`
}

// SupportResponse reports the caller's support state after a toggle.
type SupportResponse struct {
	ComplaintID uint `json:"complaint_id"`
	Supported   bool `json:"supported"`
}
