package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-appeals-api/internal/dto"
	"github.com/noah-isme/campus-appeals-api/internal/models"
	"github.com/noah-isme/campus-appeals-api/internal/repository"
)

var fallbackDashboard = dto.DashboardDescriptor{Key: "dashboard", Title: "Dashboard", Route: "/dashboard"}

// RoleProvider resolves the dashboard, modules and permissions of a role.
type RoleProvider interface {
	Payload(ctx context.Context, role models.Role) (dto.RBACPayload, error)
}

type cachedRoleProvider struct {
	repo      repository.RBACRepository
	cache     *redis.Client
	ttl       time.Duration
	moduleCap int
	logger    zerolog.Logger
}

// NewRoleProvider reads RBAC data from the database, caching it in Redis when a client is given.
func NewRoleProvider(repo repository.RBACRepository, cache *redis.Client, ttl time.Duration, moduleCap int, logger zerolog.Logger) RoleProvider {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if moduleCap <= 0 {
		moduleCap = 3
	}
	return &cachedRoleProvider{
		repo:      repo,
		cache:     cache,
		ttl:       ttl,
		moduleCap: moduleCap,
		logger:    logger.With().Str("component", "rbac_provider").Logger(),
	}
}

func (p *cachedRoleProvider) Payload(ctx context.Context, role models.Role) (dto.RBACPayload, error) {
	cacheKey := fmt.Sprintf("rbac:role:%d", role.ID)

	if p.cache != nil {
		if cached, err := p.cache.Get(ctx, cacheKey).Result(); err == nil {
			var payload dto.RBACPayload
			if unmarshalErr := json.Unmarshal([]byte(cached), &payload); unmarshalErr == nil {
				p.logger.Debug().Uint("role_id", role.ID).Msg("rbac cache hit")
				return payload, nil
			}
		} else if err != redis.Nil {
			p.logger.Warn().Err(err).Msg("failed to read rbac cache")
		}
	}

	modules, err := p.repo.ModulesForRole(ctx, role.ID, p.moduleCap)
	if err != nil {
		return dto.RBACPayload{}, err
	}
	permissions, err := p.repo.PermissionsForRole(ctx, role.ID)
	if err != nil {
		return dto.RBACPayload{}, err
	}
	if permissions == nil {
		permissions = []string{}
	}

	dashboard := fallbackDashboard
	if role.DashboardKey != "" {
		dashboard = dto.DashboardDescriptor{
			Key:   role.DashboardKey,
			Title: role.DashboardTitle,
			Route: role.DashboardRoute,
		}
	}

	payload := dto.RBACPayload{
		Dashboard:   dashboard,
		Modules:     dto.NewModuleResponseSlice(modules),
		Permissions: permissions,
	}

	if p.cache != nil {
		if encoded, err := json.Marshal(payload); err == nil {
			if err := p.cache.Set(ctx, cacheKey, encoded, p.ttl).Err(); err != nil {
				p.logger.Warn().Err(err).Msg("failed to store rbac cache")
			}
		}
	}

	return payload, nil
}
