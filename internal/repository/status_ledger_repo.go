package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// StatusLedgerRepository appends to and reads the per-complaint status history.
// Entries are never updated or deleted.
type StatusLedgerRepository interface {
	Append(ctx context.Context, entry *models.StatusEntry) error
	Latest(ctx context.Context, complaintType models.ComplaintType, complaintID uint) (models.StatusEntry, error)
	History(ctx context.Context, complaintType models.ComplaintType, complaintID uint) ([]models.StatusEntry, error)
}

type statusLedgerRepository struct {
	db *gorm.DB
}

// NewStatusLedgerRepository constructs a GORM-backed ledger repository.
func NewStatusLedgerRepository(db *gorm.DB) StatusLedgerRepository {
	return &statusLedgerRepository{db: db}
}

func (r *statusLedgerRepository) Append(ctx context.Context, entry *models.StatusEntry) error {
	if entry.ID != 0 {
		return fmt.Errorf("status entries are append-only")
	}
	return conn(ctx, r.db).Create(entry).Error
}

func (r *statusLedgerRepository) Latest(ctx context.Context, complaintType models.ComplaintType, complaintID uint) (models.StatusEntry, error) {
	var entry models.StatusEntry
	err := conn(ctx, r.db).
		Where("complaint_type = ? AND complaint_id = ?", complaintType, complaintID).
		Order("created_at DESC").
		Order("id DESC").
		First(&entry).Error
	return entry, err
}

func (r *statusLedgerRepository) History(ctx context.Context, complaintType models.ComplaintType, complaintID uint) ([]models.StatusEntry, error) {
	var entries []models.StatusEntry
	if err := conn(ctx, r.db).
		Where("complaint_type = ? AND complaint_id = ?", complaintType, complaintID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// latestStatusColumn renders a select expression yielding the newest status of
// the complaint row aliased by table, or Pending when it has no history.
// The complaint type is bound as the expression's single argument.
func latestStatusColumn(table string) string {
	return fmt.Sprintf(`COALESCE((SELECT se.new_status FROM status_entries se
		WHERE se.complaint_type = ? AND se.complaint_id = %s.id
		ORDER BY se.created_at DESC, se.id DESC LIMIT 1), '%s') AS status`, table, models.StatusPending)
}

// Page bounds a listing query.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(query *gorm.DB) *gorm.DB {
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return query.Offset(offset).Limit(limit)
}
