package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// ExamAppealFilter narrows exam appeal listings. A nil StudentID lists every appeal.
type ExamAppealFilter struct {
	StudentID *uint
	Page      Page
}

// ExamAppealRepository persists appeal windows and appeal lines.
type ExamAppealRepository interface {
	FindWindow(ctx context.Context, appealType string) (models.AppealWindow, error)
	SaveWindow(ctx context.Context, window *models.AppealWindow) error
	CreateBatch(ctx context.Context, appeals []models.ExamAppeal) error
	ReferenceExists(ctx context.Context, referenceNo string) (bool, error)
	FindByID(ctx context.Context, id uint) (models.ExamAppeal, error)
	Summary(ctx context.Context, id uint) (models.ExamAppealSummary, error)
	List(ctx context.Context, filter ExamAppealFilter) ([]models.ExamAppealSummary, error)
	ListByReference(ctx context.Context, referenceNo string) ([]models.ExamAppealSummary, error)
	OwnerOf(ctx context.Context, id uint) (uint, error)
}

type examAppealRepository struct {
	db *gorm.DB
}

// NewExamAppealRepository constructs a GORM-backed exam appeal repository.
func NewExamAppealRepository(db *gorm.DB) ExamAppealRepository {
	return &examAppealRepository{db: db}
}

func (r *examAppealRepository) FindWindow(ctx context.Context, appealType string) (models.AppealWindow, error) {
	var window models.AppealWindow
	err := conn(ctx, r.db).Where("appeal_type = ?", appealType).First(&window).Error
	return window, err
}

// SaveWindow inserts the window or overwrites the one with the same appeal type.
func (r *examAppealRepository) SaveWindow(ctx context.Context, window *models.AppealWindow) error {
	return conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "appeal_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "opens_at", "closes_at", "updated_at"}),
		}).
		Create(window).Error
}

func (r *examAppealRepository) CreateBatch(ctx context.Context, appeals []models.ExamAppeal) error {
	if len(appeals) == 0 {
		return nil
	}
	return conn(ctx, r.db).Omit("SubjectClass").Create(&appeals).Error
}

func (r *examAppealRepository) ReferenceExists(ctx context.Context, referenceNo string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&models.ExamAppeal{}).
		Where("reference_no = ?", referenceNo).
		Count(&count).Error
	return count > 0, err
}

func (r *examAppealRepository) FindByID(ctx context.Context, id uint) (models.ExamAppeal, error) {
	var appeal models.ExamAppeal
	err := conn(ctx, r.db).Preload("SubjectClass.Subject").First(&appeal, id).Error
	return appeal, err
}

func (r *examAppealRepository) Summary(ctx context.Context, id uint) (models.ExamAppealSummary, error) {
	var rows []models.ExamAppealSummary
	if err := r.summaries(ctx).Where("ea.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return models.ExamAppealSummary{}, err
	}
	if len(rows) == 0 {
		return models.ExamAppealSummary{}, gorm.ErrRecordNotFound
	}
	return rows[0], nil
}

func (r *examAppealRepository) List(ctx context.Context, filter ExamAppealFilter) ([]models.ExamAppealSummary, error) {
	query := r.summaries(ctx)
	if filter.StudentID != nil {
		query = query.Where("ea.student_id = ?", *filter.StudentID)
	}

	rows := make([]models.ExamAppealSummary, 0)
	if err := filter.Page.apply(query.
		Order("ea.created_at DESC").
		Order("ea.id DESC")).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *examAppealRepository) ListByReference(ctx context.Context, referenceNo string) ([]models.ExamAppealSummary, error) {
	rows := make([]models.ExamAppealSummary, 0)
	if err := r.summaries(ctx).
		Where("ea.reference_no = ?", referenceNo).
		Order("ea.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *examAppealRepository) OwnerOf(ctx context.Context, id uint) (uint, error) {
	var appeal models.ExamAppeal
	if err := conn(ctx, r.db).Select("id", "student_id").First(&appeal, id).Error; err != nil {
		return 0, err
	}
	return appeal.StudentID, nil
}

func (r *examAppealRepository) summaries(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).
		Table("exam_appeals ea").
		Select(`ea.id, ea.reference_no, ea.appeal_type, ea.student_id, u.full_name AS student_name,
			ea.subject_class_id, s.code AS subject_code, s.name AS subject_name, c.name AS class_name,
			ea.reason, ea.requested_mark, ea.created_at, `+latestStatusColumn("ea"),
			string(models.ComplaintExamAppeal)).
		Joins("LEFT JOIN users u ON u.id = ea.student_id").
		Joins("LEFT JOIN subject_classes sc ON sc.id = ea.subject_class_id").
		Joins("LEFT JOIN subjects s ON s.id = sc.subject_id").
		Joins("LEFT JOIN classrooms c ON c.id = sc.classroom_id")
}
