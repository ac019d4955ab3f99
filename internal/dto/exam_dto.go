package dto

import (
	"time"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// ExamSubjectResponse is a subject class a student may appeal.
type ExamSubjectResponse struct {
	SubjectClassID uint   `json:"subject_class_id"`
	SubjectCode    string `json:"subject_code"`
	SubjectName    string `json:"subject_name"`
	ClassName      string `json:"class_name"`
}

// NewExamSubjectResponseSlice converts subject classes into DTOs.
func NewExamSubjectResponseSlice(subjectClasses []models.SubjectClass) []ExamSubjectResponse {
	out := make([]ExamSubjectResponse, 0, len(subjectClasses))
	for _, sc := range subjectClasses {
		out = append(out, ExamSubjectResponse{
			SubjectClassID: sc.ID,
			SubjectCode:    sc.Subject.Code,
			SubjectName:    sc.Subject.Name,
			ClassName:      sc.Classroom.Name,
		})
	}
	return out
}

// ExamAppealLine is one subject within an appeal submission.
type ExamAppealLine struct {
	SubjectClassID uint     `json:"subject_class_id" validate:"required"`
	Reason         string   `json:"reason" validate:"required,max=2000"`
	RequestedMark  *float64 `json:"requested_mark" validate:"omitempty,gte=0,lte=100"`
}

// ExamSubmitRequest is the payload for POST /exam/submit.
type ExamSubmitRequest struct {
	AppealType string           `json:"appeal_type" validate:"omitempty,max=64"`
	Subjects   []ExamAppealLine `json:"subjects" validate:"required,min=1,dive"`
}

// ExamAppealResponse is an appeal line with its current status.
type ExamAppealResponse struct {
	ID             uint      `json:"id"`
	ReferenceNo    string    `json:"reference_no"`
	AppealType     string    `json:"appeal_type"`
	StudentID      uint      `json:"student_id"`
	StudentName    string    `json:"student_name,omitempty"`
	SubjectClassID uint      `json:"subject_class_id"`
	SubjectCode    string    `json:"subject_code"`
	SubjectName    string    `json:"subject_name"`
	ClassName      string    `json:"class_name"`
	Reason         string    `json:"reason"`
	RequestedMark  *float64  `json:"requested_mark"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewExamAppealResponse converts a listing row into a DTO.
func NewExamAppealResponse(row models.ExamAppealSummary) ExamAppealResponse {
	return ExamAppealResponse{
		ID:             row.ID,
		ReferenceNo:    row.ReferenceNo,
		AppealType:     row.AppealType,
		StudentID:      row.StudentID,
		StudentName:    row.StudentName,
		SubjectClassID: row.SubjectClassID,
		SubjectCode:    row.SubjectCode,
		SubjectName:    row.SubjectName,
		ClassName:      row.ClassName,
		Reason:         row.Reason,
		RequestedMark:  row.RequestedMark,
		Status:         row.Status,
		CreatedAt:      row.CreatedAt,
	}
}

// NewExamAppealResponseSlice converts listing rows into DTOs.
func NewExamAppealResponseSlice(rows []models.ExamAppealSummary) []ExamAppealResponse {
	out := make([]ExamAppealResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewExamAppealResponse(row))
	}
	return out
}

// ExamSubmitResponse returns the shared reference code of a submission.
type ExamSubmitResponse struct {
	ReferenceNo string               `json:"reference_no"`
	Appeals     []ExamAppealResponse `json:"appeals"`
}

// ExamTrackingResponse pairs an appeal line with its history.
type ExamTrackingResponse struct {
	Appeal  ExamAppealResponse    `json:"appeal"`
	History []StatusEntryResponse `json:"history"`
}

// ExamReferenceResponse is returned by the public tracking endpoint.
type ExamReferenceResponse struct {
	ReferenceNo string                 `json:"reference_no"`
	Appeals     []ExamTrackingResponse `json:"appeals"`
}
