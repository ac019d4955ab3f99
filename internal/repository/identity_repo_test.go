package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

func TestSessionReplaceRevokesSameChannelOnly(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	require.NoError(t, repo.Replace(ctx, &models.AccessSession{ID: "app-1", UserID: 1, Channel: models.ChannelApp, ExpiresAt: expires}))
	require.NoError(t, repo.Replace(ctx, &models.AccessSession{ID: "web-1", UserID: 1, Channel: models.ChannelWeb, ExpiresAt: expires}))
	require.NoError(t, repo.Replace(ctx, &models.AccessSession{ID: "app-2", UserID: 1, Channel: models.ChannelApp, ExpiresAt: expires}))

	_, err := repo.Find(ctx, "app-1")
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	_, err = repo.Find(ctx, "web-1")
	require.NoError(t, err)
	_, err = repo.Find(ctx, "app-2")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "app-2"))
	require.ErrorIs(t, repo.Delete(ctx, "app-2"), gorm.ErrRecordNotFound)
}

func TestSessionReplaceConcurrentLoginsKeepOneRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	ids := []string{"web-a", "web-b", "web-c", "web-d"}
	errs := make(chan error, len(ids))
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			errs <- repo.Replace(ctx, &models.AccessSession{ID: id, UserID: 5, Channel: models.ChannelWeb, ExpiresAt: expires})
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var sessions []models.AccessSession
	require.NoError(t, db.Where("user_id = ? AND channel = ?", 5, models.ChannelWeb).Find(&sessions).Error)
	require.Len(t, sessions, 1)
	require.Contains(t, ids, sessions[0].ID)
}

func TestRBACModulesAreOrderedAndCapped(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRBACRepository(db)
	ctx := context.Background()

	role := createRole(t, db, "Student")
	keys := []string{"appeals", "classes", "campus", "profile"}
	for i, key := range keys {
		module := models.Module{Key: key, Title: key, IsActive: true}
		require.NoError(t, db.Create(&module).Error)
		require.NoError(t, db.Create(&models.RoleModule{RoleID: role.ID, ModuleID: module.ID, SortOrder: len(keys) - i}).Error)
	}
	require.NoError(t, db.Create(&models.RolePermission{RoleID: role.ID, PermissionKey: "exam.submit"}).Error)
	require.NoError(t, db.Create(&models.RolePermission{RoleID: role.ID, PermissionKey: "campus.submit"}).Error)

	modules, err := repo.ModulesForRole(ctx, role.ID, 3)
	require.NoError(t, err)
	require.Len(t, modules, 3)
	require.Equal(t, "profile", modules[0].Key)
	require.Equal(t, "classes", modules[2].Key)

	permissions, err := repo.PermissionsForRole(ctx, role.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"campus.submit", "exam.submit"}, permissions)
}

func TestUserFirstActiveByRole(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	faculty := createRole(t, db, "Faculty")
	student := createRole(t, db, "Student")
	suspended := createUser(t, db, faculty, "suspended")
	require.NoError(t, db.Model(&suspended).Update("status", "Suspended").Error)
	reviewer := createUser(t, db, faculty, "reviewer")
	createUser(t, db, student, "learner")

	found, err := repo.FirstActiveByRole(ctx, models.RoleFaculty)
	require.NoError(t, err)
	require.Equal(t, reviewer.ID, found.ID)

	_, err = repo.FirstActiveByRole(ctx, models.RoleExamOfficer)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	byName, err := repo.FindByUsername(ctx, "LEARNER")
	require.NoError(t, err)
	require.Equal(t, "Student", byName.Role.Name)
}
