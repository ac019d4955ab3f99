package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

func TestNotificationMarkReadRequiresOwner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	notification := models.Notification{UserID: 3, Type: models.NotificationStatusChanged, Message: "Resolved"}
	require.NoError(t, repo.Create(ctx, &notification))

	_, err := repo.MarkRead(ctx, notification.ID, 4, time.Now())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	first := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	read, err := repo.MarkRead(ctx, notification.ID, 3, first)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)

	again, err := repo.MarkRead(ctx, notification.ID, 3, first.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, again.ReadAt.Equal(first))

	list, err := repo.ListByUser(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
