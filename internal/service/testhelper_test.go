package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ai-chat-go/internal/model"
	"ai-chat-go/pkg/tasks"
)

// newTestDB 创建一个内存 SQLite 数据库并完成建表。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.User{},
		&model.Chatroom{},
		&model.Message{},
		&model.Subscription{},
		&model.Otp{},
	)
	require.NoError(t, err)
	return db
}

// fakeChatroomCache 是 ChatroomCache 的内存实现，记录失效次数供断言。
type fakeChatroomCache struct {
	entries     map[string][]model.ChatroomSnapshot
	setCalls    int
	invalidated int
}

func newFakeChatroomCache() *fakeChatroomCache {
	return &fakeChatroomCache{entries: make(map[string][]model.ChatroomSnapshot)}
}

func (c *fakeChatroomCache) Get(_ context.Context, userID string) ([]model.ChatroomSnapshot, bool, error) {
	snapshots, ok := c.entries[userID]
	return snapshots, ok, nil
}

func (c *fakeChatroomCache) Set(_ context.Context, userID string, chatrooms []model.ChatroomSnapshot) error {
	c.setCalls++
	c.entries[userID] = chatrooms
	return nil
}

func (c *fakeChatroomCache) Invalidate(_ context.Context, userID string) error {
	c.invalidated++
	delete(c.entries, userID)
	return nil
}

// fakeEnqueuer 记录入队的任务，可配置入队失败。
type fakeEnqueuer struct {
	enqueued []tasks.ReplyTask
	err      error
}

func (e *fakeEnqueuer) EnqueueReply(_ context.Context, task tasks.ReplyTask) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	if task.JobID == "" {
		task.JobID = "job-test"
	}
	e.enqueued = append(e.enqueued, task)
	return task.JobID, nil
}
