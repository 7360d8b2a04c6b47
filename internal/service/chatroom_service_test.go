package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-chat-go/internal/model"
	"ai-chat-go/internal/repository"
)

func newChatroomService(t *testing.T) (ChatroomService, *fakeChatroomCache, repository.ChatroomRepository, string) {
	t.Helper()
	db := newTestDB(t)
	userID, _ := seedUserWithChatroom(t, db)
	cache := newFakeChatroomCache()
	chatroomRepo := repository.NewChatroomRepository(db)
	svc := NewChatroomService(chatroomRepo, repository.NewMessageRepository(db), cache)
	return svc, cache, chatroomRepo, userID
}

func TestChatroomCreate(t *testing.T) {
	svc, cache, _, userID := newChatroomService(t)

	chatroom, err := svc.Create(context.Background(), userID, "  工作讨论  ")
	require.NoError(t, err)
	assert.Equal(t, "工作讨论", chatroom.Name)
	assert.Equal(t, userID, chatroom.UserID)
	assert.NotEmpty(t, chatroom.ID)
	// 集合变了，列表缓存必须失效
	assert.Equal(t, 1, cache.invalidated)
}

func TestChatroomCreate_EmptyName(t *testing.T) {
	svc, _, _, userID := newChatroomService(t)

	_, err := svc.Create(context.Background(), userID, "   ")
	assert.ErrorIs(t, err, ErrInvalidChatroomName)
}

// 同一用户下名称不区分大小写唯一。
func TestChatroomCreate_DuplicateNameCaseInsensitive(t *testing.T) {
	svc, _, _, userID := newChatroomService(t)

	_, err := svc.Create(context.Background(), userID, "Project Alpha")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), userID, "project alpha")
	assert.ErrorIs(t, err, ErrChatroomNameExists)
}

// 不同用户之间允许同名聊天室。
func TestChatroomCreate_SameNameDifferentUsers(t *testing.T) {
	db := newTestDB(t)
	userA, _ := seedUserWithChatroom(t, db)
	userB, _ := seedUserWithChatroom(t, db)
	svc := NewChatroomService(repository.NewChatroomRepository(db), repository.NewMessageRepository(db), newFakeChatroomCache())

	_, err := svc.Create(context.Background(), userA, "Project Alpha")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), userB, "Project Alpha")
	assert.NoError(t, err)
}

func TestChatroomList_PopulatesCacheOnMiss(t *testing.T) {
	svc, cache, _, userID := newChatroomService(t)

	list, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, cache.setCalls)

	cached, hit, err := cache.Get(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, list, cached)
}

func TestChatroomList_ServesFromCache(t *testing.T) {
	svc, cache, chatroomRepo, userID := newChatroomService(t)

	_, err := svc.List(context.Background(), userID)
	require.NoError(t, err)

	// 绕过缓存失效直接写库，模拟缓存尚未到期的窗口
	require.NoError(t, chatroomRepo.Create(context.Background(), &model.Chatroom{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   "旁路写入",
	}))

	list, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, list, 1, "缓存命中时不应看到旁路写入的记录")
	assert.Equal(t, 1, cache.setCalls, "命中时不应重复回填")
}

// 列表按活跃度（updated_at）倒序。
func TestChatroomList_OrderedByRecency(t *testing.T) {
	svc, cache, chatroomRepo, userID := newChatroomService(t)

	second, err := svc.Create(context.Background(), userID, "后创建")
	require.NoError(t, err)
	require.NoError(t, chatroomRepo.Touch(context.Background(), second.ID, time.Now().Add(time.Hour)))
	cache.entries = map[string][]model.ChatroomSnapshot{} // 清掉缓存，强制读库

	list, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestChatroomDetail(t *testing.T) {
	db := newTestDB(t)
	userID, chatroomID := seedUserWithChatroom(t, db)
	svc := NewChatroomService(repository.NewChatroomRepository(db), repository.NewMessageRepository(db), newFakeChatroomCache())

	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	for i, content := range []string{"第一条", "第二条", "第三条"} {
		require.NoError(t, db.Create(&model.Message{
			ID:         uuid.NewString(),
			ChatroomID: chatroomID,
			Role:       model.RoleUser,
			Content:    content,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	detail, err := svc.Detail(context.Background(), userID, chatroomID)
	require.NoError(t, err)
	assert.Equal(t, chatroomID, detail.Chatroom.ID)
	// 只带最近两条，最新在前
	require.Len(t, detail.LastMessages, 2)
	assert.Equal(t, "第三条", detail.LastMessages[0].Content)
	assert.Equal(t, "第二条", detail.LastMessages[1].Content)
}

func TestChatroomDetail_NotOwned(t *testing.T) {
	db := newTestDB(t)
	_, chatroomID := seedUserWithChatroom(t, db)
	otherUser, _ := seedUserWithChatroom(t, db)
	svc := NewChatroomService(repository.NewChatroomRepository(db), repository.NewMessageRepository(db), newFakeChatroomCache())

	_, err := svc.Detail(context.Background(), otherUser, chatroomID)
	assert.ErrorIs(t, err, ErrChatroomNotFound)
}
