package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// UserRepository reads user accounts and their roles.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByID(ctx context.Context, id uint) (models.User, error)
	FirstActiveByRole(ctx context.Context, role string) (models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a GORM-backed user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := conn(ctx, r.db).
		Preload("Role").
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&user).Error
	return user, err
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := conn(ctx, r.db).Preload("Role").First(&user, id).Error
	return user, err
}

// FirstActiveByRole returns the lowest-id active user whose role normalises to role.
func (r *userRepository) FirstActiveByRole(ctx context.Context, role string) (models.User, error) {
	var roles []models.Role
	if err := conn(ctx, r.db).Find(&roles).Error; err != nil {
		return models.User{}, err
	}

	roleIDs := make([]uint, 0, 1)
	for _, candidate := range roles {
		if models.NormalizeRole(candidate.Name) == role {
			roleIDs = append(roleIDs, candidate.ID)
		}
	}
	if len(roleIDs) == 0 {
		return models.User{}, gorm.ErrRecordNotFound
	}

	var user models.User
	err := conn(ctx, r.db).
		Where("role_id IN ?", roleIDs).
		Where("LOWER(status) = ?", models.UserStatusActive).
		Order("id ASC").
		First(&user).Error
	return user, err
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return conn(ctx, r.db).Create(user).Error
}
