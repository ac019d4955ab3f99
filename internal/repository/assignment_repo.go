package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// ComplaintAssignmentRepository stores reviewer routing for complaints.
type ComplaintAssignmentRepository interface {
	Create(ctx context.Context, assignment *models.ComplaintAssignment) error
	Find(ctx context.Context, complaintType models.ComplaintType, complaintID uint) (models.ComplaintAssignment, error)
	MirrorStatus(ctx context.Context, complaintType models.ComplaintType, complaintID uint, status string) error
}

type complaintAssignmentRepository struct {
	db *gorm.DB
}

// NewComplaintAssignmentRepository constructs the assignment repository.
func NewComplaintAssignmentRepository(db *gorm.DB) ComplaintAssignmentRepository {
	return &complaintAssignmentRepository{db: db}
}

func (r *complaintAssignmentRepository) Create(ctx context.Context, assignment *models.ComplaintAssignment) error {
	return conn(ctx, r.db).Create(assignment).Error
}

func (r *complaintAssignmentRepository) Find(ctx context.Context, complaintType models.ComplaintType, complaintID uint) (models.ComplaintAssignment, error) {
	var assignment models.ComplaintAssignment
	err := conn(ctx, r.db).
		Where("complaint_type = ? AND complaint_id = ?", complaintType, complaintID).
		First(&assignment).Error
	return assignment, err
}

// MirrorStatus copies the latest ledger status onto the assignment, if one exists.
func (r *complaintAssignmentRepository) MirrorStatus(ctx context.Context, complaintType models.ComplaintType, complaintID uint, status string) error {
	return conn(ctx, r.db).
		Model(&models.ComplaintAssignment{}).
		Where("complaint_type = ? AND complaint_id = ?", complaintType, complaintID).
		Update("status", status).Error
}
