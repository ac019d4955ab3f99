package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// CampusIssueFilter narrows campus complaint listings.
type CampusIssueFilter struct {
	ViewerID  uint
	StudentID *uint
	Page      Page
}

// CampusIssueRepository persists campus-environment complaints, categories and support votes.
type CampusIssueRepository interface {
	ListTypes(ctx context.Context) ([]models.CampusIssueType, error)
	FindType(ctx context.Context, id uint) (models.CampusIssueType, error)
	ResolveType(ctx context.Context, name string) (models.CampusIssueType, error)
	HasUnresolvedInType(ctx context.Context, typeID uint) (bool, error)
	Create(ctx context.Context, issue *models.CampusIssue) error
	FindByID(ctx context.Context, id uint) (models.CampusIssue, error)
	Summary(ctx context.Context, id, viewerID uint) (models.CampusIssueSummary, error)
	List(ctx context.Context, filter CampusIssueFilter) ([]models.CampusIssueSummary, error)
	ToggleSupport(ctx context.Context, issueID, studentID uint) (bool, error)
	OwnerOf(ctx context.Context, id uint) (uint, error)
}

type campusIssueRepository struct {
	db *gorm.DB
}

// NewCampusIssueRepository constructs a GORM-backed campus complaint repository.
func NewCampusIssueRepository(db *gorm.DB) CampusIssueRepository {
	return &campusIssueRepository{db: db}
}

func (r *campusIssueRepository) ListTypes(ctx context.Context) ([]models.CampusIssueType, error) {
	var types []models.CampusIssueType
	if err := conn(ctx, r.db).Order("name ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *campusIssueRepository) FindType(ctx context.Context, id uint) (models.CampusIssueType, error) {
	var issueType models.CampusIssueType
	err := conn(ctx, r.db).First(&issueType, id).Error
	return issueType, err
}

// ResolveType finds the category whose normalised name matches, creating it if
// absent. Concurrent creators converge on the row that won the unique index.
func (r *campusIssueRepository) ResolveType(ctx context.Context, name string) (models.CampusIssueType, error) {
	key := models.CategoryKey(name)
	if key == "" {
		return models.CampusIssueType{}, fmt.Errorf("category name must not be empty")
	}

	candidate := models.CampusIssueType{Name: name}
	if err := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name_key"}},
			DoNothing: true,
		}).
		Create(&candidate).Error; err != nil {
		return models.CampusIssueType{}, err
	}

	var resolved models.CampusIssueType
	err := conn(ctx, r.db).Where("name_key = ?", key).First(&resolved).Error
	return resolved, err
}

func (r *campusIssueRepository) HasUnresolvedInType(ctx context.Context, typeID uint) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Table("campus_issues ci").
		Where("ci.issue_type_id = ?", typeID).
		Where(`LOWER(COALESCE((SELECT se.new_status FROM status_entries se
			WHERE se.complaint_type = ? AND se.complaint_id = ci.id
			ORDER BY se.created_at DESC, se.id DESC LIMIT 1), ?)) <> ?`,
			string(models.ComplaintCampusEnv), models.StatusPending, "resolved").
		Count(&count).Error
	return count > 0, err
}

func (r *campusIssueRepository) Create(ctx context.Context, issue *models.CampusIssue) error {
	return conn(ctx, r.db).Omit("IssueType").Create(issue).Error
}

func (r *campusIssueRepository) FindByID(ctx context.Context, id uint) (models.CampusIssue, error) {
	var issue models.CampusIssue
	err := conn(ctx, r.db).Preload("IssueType").First(&issue, id).Error
	return issue, err
}

func (r *campusIssueRepository) Summary(ctx context.Context, id, viewerID uint) (models.CampusIssueSummary, error) {
	var rows []models.CampusIssueSummary
	if err := r.summaries(ctx, viewerID).Where("ci.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return models.CampusIssueSummary{}, err
	}
	if len(rows) == 0 {
		return models.CampusIssueSummary{}, gorm.ErrRecordNotFound
	}
	return rows[0], nil
}

func (r *campusIssueRepository) List(ctx context.Context, filter CampusIssueFilter) ([]models.CampusIssueSummary, error) {
	query := r.summaries(ctx, filter.ViewerID)
	if filter.StudentID != nil {
		query = query.Where("ci.student_id = ?", *filter.StudentID)
	}

	rows := make([]models.CampusIssueSummary, 0)
	if err := filter.Page.apply(query.
		Order("ci.created_at DESC").
		Order("ci.id DESC")).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ToggleSupport removes an existing vote (false) or records a new one (true).
// A concurrent duplicate insert is absorbed by the primary key and reported as supported.
func (r *campusIssueRepository) ToggleSupport(ctx context.Context, issueID, studentID uint) (bool, error) {
	var supported bool
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		removed := tx.
			Where("campus_issue_id = ? AND student_id = ?", issueID, studentID).
			Delete(&models.SupportVote{})
		if removed.Error != nil {
			return removed.Error
		}
		if removed.RowsAffected > 0 {
			supported = false
			return nil
		}

		vote := models.SupportVote{CampusIssueID: issueID, StudentID: studentID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote).Error; err != nil {
			return err
		}
		supported = true
		return nil
	})
	return supported, err
}

func (r *campusIssueRepository) OwnerOf(ctx context.Context, id uint) (uint, error) {
	var issue models.CampusIssue
	if err := conn(ctx, r.db).Select("id", "student_id").First(&issue, id).Error; err != nil {
		return 0, err
	}
	return issue.StudentID, nil
}

func (r *campusIssueRepository) summaries(ctx context.Context, viewerID uint) *gorm.DB {
	return conn(ctx, r.db).
		Table("campus_issues ci").
		Select(`ci.id, ci.issue_type_id, cit.name AS issue_type_name, ci.student_id,
			u.full_name AS student_name, ci.title, ci.description, ci.images, ci.created_at,
			`+latestStatusColumn("ci")+`,
			(SELECT COUNT(*) FROM support_votes sv WHERE sv.campus_issue_id = ci.id) AS support_count,
			EXISTS (SELECT 1 FROM support_votes mine WHERE mine.campus_issue_id = ci.id AND mine.student_id = ?) AS has_supported`,
			string(models.ComplaintCampusEnv), viewerID).
		Joins("LEFT JOIN campus_issue_types cit ON cit.id = ci.issue_type_id").
		Joins("LEFT JOIN users u ON u.id = ci.student_id")
}
