package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ai-chat-go/internal/model"
	"ai-chat-go/internal/repository"
)

// seedUserWithChatroom 创建一个用户和一个属于他的聊天室。
func seedUserWithChatroom(t *testing.T, db *gorm.DB) (userID, chatroomID string) {
	t.Helper()
	userID = uuid.NewString()
	chatroomID = uuid.NewString()
	require.NoError(t, db.Create(&model.User{
		ID:          userID,
		PhoneNumber: "138" + userID[:8],
		Password:    "x",
	}).Error)
	require.NoError(t, db.Create(&model.Chatroom{
		ID:     chatroomID,
		UserID: userID,
		Name:   "默认聊天室",
	}).Error)
	return userID, chatroomID
}

func seedMessages(t *testing.T, db *gorm.DB, chatroomID, role string, n int, at time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, db.Create(&model.Message{
			ID:         uuid.NewString(),
			ChatroomID: chatroomID,
			Role:       role,
			Content:    "hello",
			CreatedAt:  at.Add(time.Duration(i) * time.Second),
		}).Error)
	}
}

func TestEligibilityCheck_BasicUnderLimit(t *testing.T) {
	db := newTestDB(t)
	userID, chatroomID := seedUserWithChatroom(t, db)
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)
	seedMessages(t, db, chatroomID, model.RoleUser, 4, now.Add(-time.Hour))

	svc := NewEligibilityService(repository.NewSubscriptionRepository(db), repository.NewMessageRepository(db), 5)
	assert.NoError(t, svc.Check(context.Background(), userID, now))
}

func TestEligibilityCheck_BasicAtLimit(t *testing.T) {
	db := newTestDB(t)
	userID, chatroomID := seedUserWithChatroom(t, db)
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)
	seedMessages(t, db, chatroomID, model.RoleUser, 5, now.Add(-time.Hour))

	svc := NewEligibilityService(repository.NewSubscriptionRepository(db), repository.NewMessageRepository(db), 5)
	err := svc.Check(context.Background(), userID, now)
	assert.ErrorIs(t, err, ErrDailyLimitReached)
}

// 助手回复不占用用户的每日额度。
func TestEligibilityCheck_AssistantMessagesNotCounted(t *testing.T) {
	db := newTestDB(t)
	userID, chatroomID := seedUserWithChatroom(t, db)
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)
	seedMessages(t, db, chatroomID, model.RoleUser, 4, now.Add(-2*time.Hour))
	seedMessages(t, db, chatroomID, model.RoleAssistant, 4, now.Add(-time.Hour))

	svc := NewEligibilityService(repository.NewSubscriptionRepository(db), repository.NewMessageRepository(db), 5)
	assert.NoError(t, svc.Check(context.Background(), userID, now))
}

// 昨天发送的消息不计入今天的额度，额度在本地零点重置。
func TestEligibilityCheck_ResetsAtMidnight(t *testing.T) {
	db := newTestDB(t)
	userID, chatroomID := seedUserWithChatroom(t, db)
	now := time.Date(2026, 8, 31, 0, 30, 0, 0, time.UTC)
	seedMessages(t, db, chatroomID, model.RoleUser, 5, now.Add(-2*time.Hour)) // 前一天 22:30

	svc := NewEligibilityService(repository.NewSubscriptionRepository(db), repository.NewMessageRepository(db), 5)
	assert.NoError(t, svc.Check(context.Background(), userID, now))
}

// 限额按用户跨所有聊天室统计，换房间不能绕过。
func TestEligibilityCheck_CountsAcrossChatrooms(t *testing.T) {
	db := newTestDB(t)
	userID, chatroomID := seedUserWithChatroom(t, db)
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)
	seedMessages(t, db, chatroomID, model.RoleUser, 3, now.Add(-2*time.Hour))

	otherRoom := uuid.NewString()
	require.NoError(t, db.Create(&model.Chatroom{ID: otherRoom, UserID: userID, Name: "另一个"}).Error)
	seedMessages(t, db, otherRoom, model.RoleUser, 2, now.Add(-time.Hour))

	svc := NewEligibilityService(repository.NewSubscriptionRepository(db), repository.NewMessageRepository(db), 5)
	err := svc.Check(context.Background(), userID, now)
	assert.ErrorIs(t, err, ErrDailyLimitReached)
}

func TestEligibilityCheck_ProUnlimited(t *testing.T) {
	db := newTestDB(t)
	userID, chatroomID := seedUserWithChatroom(t, db)
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)
	seedMessages(t, db, chatroomID, model.RoleUser, 50, now.Add(-time.Hour))

	require.NoError(t, db.Create(&model.Subscription{
		ID:               uuid.NewString(),
		UserID:           userID,
		Plan:             model.PlanPro,
		Status:           model.SubStatusActive,
		CurrentPeriodEnd: now.Add(24 * time.Hour),
	}).Error)

	svc := NewEligibilityService(repository.NewSubscriptionRepository(db), repository.NewMessageRepository(db), 5)
	assert.NoError(t, svc.Check(context.Background(), userID, now))
}

// 计费周期已结束的订阅不再享受 pro 待遇，无需等取消事件到达。
func TestEligibilityCheck_ExpiredProFallsBackToBasic(t *testing.T) {
	db := newTestDB(t)
	userID, chatroomID := seedUserWithChatroom(t, db)
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)
	seedMessages(t, db, chatroomID, model.RoleUser, 5, now.Add(-time.Hour))

	require.NoError(t, db.Create(&model.Subscription{
		ID:               uuid.NewString(),
		UserID:           userID,
		Plan:             model.PlanPro,
		Status:           model.SubStatusActive,
		CurrentPeriodEnd: now.Add(-time.Minute),
	}).Error)

	svc := NewEligibilityService(repository.NewSubscriptionRepository(db), repository.NewMessageRepository(db), 5)
	err := svc.Check(context.Background(), userID, now)
	assert.ErrorIs(t, err, ErrDailyLimitReached)
}

func TestEligibilityCheck_TrialingIsPro(t *testing.T) {
	db := newTestDB(t)
	userID, chatroomID := seedUserWithChatroom(t, db)
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)
	seedMessages(t, db, chatroomID, model.RoleUser, 20, now.Add(-time.Hour))

	require.NoError(t, db.Create(&model.Subscription{
		ID:               uuid.NewString(),
		UserID:           userID,
		Plan:             model.PlanPro,
		Status:           model.SubStatusTrialing,
		CurrentPeriodEnd: now.Add(7 * 24 * time.Hour),
	}).Error)

	svc := NewEligibilityService(repository.NewSubscriptionRepository(db), repository.NewMessageRepository(db), 5)
	assert.NoError(t, svc.Check(context.Background(), userID, now))
}
