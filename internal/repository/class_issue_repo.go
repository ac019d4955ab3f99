package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// ClassIssueFilter scopes classroom issue listings. Unscoped ignores ClassroomIDs.
type ClassIssueFilter struct {
	ClassroomIDs []uint
	Unscoped     bool
	Page         Page
}

// ClassIssueRepository persists classroom issues and their types.
type ClassIssueRepository interface {
	ListTypes(ctx context.Context) ([]models.ClassIssueType, error)
	FindType(ctx context.Context, id uint) (models.ClassIssueType, error)
	Create(ctx context.Context, issue *models.ClassIssue) error
	FindByID(ctx context.Context, id uint) (models.ClassIssue, error)
	Summary(ctx context.Context, id uint) (models.ClassIssueSummary, error)
	List(ctx context.Context, filter ClassIssueFilter) ([]models.ClassIssueSummary, error)
	OwnerOf(ctx context.Context, id uint) (uint, error)
}

type classIssueRepository struct {
	db *gorm.DB
}

// NewClassIssueRepository constructs a GORM-backed classroom issue repository.
func NewClassIssueRepository(db *gorm.DB) ClassIssueRepository {
	return &classIssueRepository{db: db}
}

func (r *classIssueRepository) ListTypes(ctx context.Context) ([]models.ClassIssueType, error) {
	var types []models.ClassIssueType
	if err := conn(ctx, r.db).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *classIssueRepository) FindType(ctx context.Context, id uint) (models.ClassIssueType, error) {
	var issueType models.ClassIssueType
	err := conn(ctx, r.db).Where("is_active = ?", true).First(&issueType, id).Error
	return issueType, err
}

func (r *classIssueRepository) Create(ctx context.Context, issue *models.ClassIssue) error {
	return conn(ctx, r.db).Omit("IssueType", "Classroom").Create(issue).Error
}

func (r *classIssueRepository) FindByID(ctx context.Context, id uint) (models.ClassIssue, error) {
	var issue models.ClassIssue
	err := conn(ctx, r.db).
		Preload("IssueType").
		Preload("Classroom").
		First(&issue, id).Error
	return issue, err
}

func (r *classIssueRepository) Summary(ctx context.Context, id uint) (models.ClassIssueSummary, error) {
	var rows []models.ClassIssueSummary
	if err := r.summaries(ctx).Where("ci.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return models.ClassIssueSummary{}, err
	}
	if len(rows) == 0 {
		return models.ClassIssueSummary{}, gorm.ErrRecordNotFound
	}
	return rows[0], nil
}

func (r *classIssueRepository) List(ctx context.Context, filter ClassIssueFilter) ([]models.ClassIssueSummary, error) {
	if !filter.Unscoped && len(filter.ClassroomIDs) == 0 {
		return []models.ClassIssueSummary{}, nil
	}

	query := r.summaries(ctx)
	if !filter.Unscoped {
		query = query.Where("ci.classroom_id IN ?", filter.ClassroomIDs)
	}

	rows := make([]models.ClassIssueSummary, 0)
	if err := filter.Page.apply(query.
		Order("ci.created_at DESC").
		Order("ci.id DESC")).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *classIssueRepository) OwnerOf(ctx context.Context, id uint) (uint, error) {
	var issue models.ClassIssue
	if err := conn(ctx, r.db).Select("id", "leader_id").First(&issue, id).Error; err != nil {
		return 0, err
	}
	return issue.LeaderID, nil
}

func (r *classIssueRepository) summaries(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).
		Table("class_issues ci").
		Select(`ci.id, ci.issue_type_id, cit.name AS issue_type_name, ci.classroom_id,
			c.name AS class_name, ci.leader_id, u.full_name AS leader_name,
			ci.description, ci.created_at, `+latestStatusColumn("ci"), string(models.ComplaintClassIssue)).
		Joins("LEFT JOIN class_issue_types cit ON cit.id = ci.issue_type_id").
		Joins("LEFT JOIN classrooms c ON c.id = ci.classroom_id").
		Joins("LEFT JOIN users u ON u.id = ci.leader_id")
}
