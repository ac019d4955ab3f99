package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// SessionRepository persists bearer-token sessions.
type SessionRepository interface {
	Replace(ctx context.Context, session *models.AccessSession) error
	Find(ctx context.Context, id string) (models.AccessSession, error)
	Delete(ctx context.Context, id string) error
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository constructs a GORM-backed session repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Replace stores session as the only one for its user and channel. The
// previous session's row is overwritten in place, revoking its token.
func (r *sessionRepository) Replace(ctx context.Context, session *models.AccessSession) error {
	return conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "channel"}},
			DoUpdates: clause.AssignmentColumns([]string{"id", "expires_at", "created_at"}),
		}).
		Create(session).Error
}

func (r *sessionRepository) Find(ctx context.Context, id string) (models.AccessSession, error) {
	var session models.AccessSession
	err := conn(ctx, r.db).Where("id = ?", id).First(&session).Error
	return session, err
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	result := conn(ctx, r.db).Where("id = ?", id).Delete(&models.AccessSession{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
