package message

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
	require.NoError(t, db.AutoMigrate(&models.Message{}))
	return NewService(db, zap.NewNop().Sugar())
}

func TestConversation_BothDirectionsInOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, "client-1", "planner-1", "Is the 14th still free?")
	require.NoError(t, err)
	_, err = svc.Send(ctx, "planner-1", "client-1", "Yes, shall I pencil you in?")
	require.NoError(t, err)
	_, err = svc.Send(ctx, "client-1", "planner-2", "Hi there")
	require.NoError(t, err)

	conv, err := svc.Conversation(ctx, "client-1", "planner-1")
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "client-1", conv[0].SenderID)
	assert.Equal(t, "planner-1", conv[1].SenderID)
}

func TestMarkRead_ClearsUnreadBadge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, "client-1", "planner-1", "one")
	require.NoError(t, err)
	_, err = svc.Send(ctx, "client-1", "planner-1", "two")
	require.NoError(t, err)
	_, err = svc.Send(ctx, "client-2", "planner-1", "three")
	require.NoError(t, err)

	unread, err := svc.UnreadCount(ctx, "planner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	marked, err := svc.MarkRead(ctx, "planner-1", "client-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	unread, err = svc.UnreadCount(ctx, "planner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	// Re-marking is a no-op.
	marked, err = svc.MarkRead(ctx, "planner-1", "client-1")
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestSend_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, "client-1", "planner-1", "")
	require.Error(t, err)
	_, err = svc.Send(ctx, "client-1", "client-1", "talking to myself")
	require.Error(t, err)
}
