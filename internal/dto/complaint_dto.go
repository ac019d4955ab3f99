package dto

import (
	"time"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// StatusEntryResponse is one row of a complaint's tracking history.
type StatusEntryResponse struct {
	ID        uint      `json:"id"`
	OldStatus *string   `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Note      string    `json:"note"`
	ChangedBy uint      `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewStatusEntryResponse converts a ledger entry into a DTO.
func NewStatusEntryResponse(entry models.StatusEntry) StatusEntryResponse {
	return StatusEntryResponse{
		ID:        entry.ID,
		OldStatus: entry.OldStatus,
		NewStatus: entry.NewStatus,
		Note:      entry.Note,
		ChangedBy: entry.ChangedBy,
		ChangedAt: entry.CreatedAt,
	}
}

// NewStatusEntryResponseSlice converts ledger entries into DTOs.
func NewStatusEntryResponseSlice(entries []models.StatusEntry) []StatusEntryResponse {
	out := make([]StatusEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, NewStatusEntryResponse(entry))
	}
	return out
}

// StatusUpdateRequest asks the ledger to advance a complaint.
type StatusUpdateRequest struct {
	ID     uint   `json:"id" validate:"required"`
	Status string `json:"status" validate:"required,max=64"`
	Note   string `json:"note" validate:"omitempty,max=2000"`
}

// ListQuery carries listing bounds and filters from the query string.
type ListQuery struct {
	Limit  int  `query:"limit"`
	Offset int  `query:"offset"`
	Mine   bool `query:"mine"`
}
