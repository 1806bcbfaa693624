package task

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plannerhub/marketplace/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Task{}))
	return NewService(db, zap.NewNop().Sugar())
}

func TestToggle_FlipsStatusAndDoneAt(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "planner-1", "req-1", "Book the venue")
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusOpen, task.Status)

	done, err := svc.Toggle(ctx, "planner-1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDone, done.Status)
	assert.NotNil(t, done.DoneAt)

	reopened, err := svc.Toggle(ctx, "planner-1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusOpen, reopened.Status)
	assert.Nil(t, reopened.DoneAt)
}

func TestToggle_OwnerOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "planner-1", "req-1", "Book the venue")
	require.NoError(t, err)

	_, err = svc.Toggle(ctx, "planner-2", task.ID)
	require.ErrorIs(t, err, ErrNotTaskOwner)

	require.ErrorIs(t, svc.Delete(ctx, "planner-2", task.ID), ErrNotTaskOwner)
	require.NoError(t, svc.Delete(ctx, "planner-1", task.ID))
	require.ErrorIs(t, svc.Delete(ctx, "planner-1", task.ID), ErrTaskNotFound)
}

func TestListForRequest_ScopedToRequest(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "planner-1", "req-1", "Book the venue")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "planner-1", "req-1", "Order flowers")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "planner-1", "req-2", "Hire a DJ")
	require.NoError(t, err)

	tasks, err := svc.ListForRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}
