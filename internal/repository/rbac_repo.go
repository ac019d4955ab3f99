package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// RBACRepository reads role descriptors, module grants and permission keys.
type RBACRepository interface {
	FindRole(ctx context.Context, id uint) (models.Role, error)
	ModulesForRole(ctx context.Context, roleID uint, limit int) ([]models.Module, error)
	PermissionsForRole(ctx context.Context, roleID uint) ([]string, error)
}

type rbacRepository struct {
	db *gorm.DB
}

// NewRBACRepository constructs a GORM-backed RBAC repository.
func NewRBACRepository(db *gorm.DB) RBACRepository {
	return &rbacRepository{db: db}
}

func (r *rbacRepository) FindRole(ctx context.Context, id uint) (models.Role, error) {
	var role models.Role
	err := conn(ctx, r.db).First(&role, id).Error
	return role, err
}

func (r *rbacRepository) ModulesForRole(ctx context.Context, roleID uint, limit int) ([]models.Module, error) {
	query := conn(ctx, r.db).
		Model(&models.Module{}).
		Joins("JOIN role_modules rm ON rm.module_id = modules.id").
		Where("rm.role_id = ?", roleID).
		Where("modules.is_active = ?", true).
		Order("rm.sort_order ASC").
		Order("modules.id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var modules []models.Module
	if err := query.Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *rbacRepository) PermissionsForRole(ctx context.Context, roleID uint) ([]string, error) {
	var keys []string
	if err := conn(ctx, r.db).
		Model(&models.RolePermission{}).
		Where("role_id = ?", roleID).
		Order("permission_key ASC").
		Pluck("permission_key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}
