package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"ai-chat-go/internal/model"
)

// MessageRepository 接口定义了消息数据的持久化操作。
type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	// FindRecent 返回聊天室内最近的 limit 条消息，按创建时间倒序（最新在前）。
	FindRecent(ctx context.Context, chatroomID string, limit int) ([]model.Message, error)
	// CountUserMessagesSince 统计用户自 since 起在其所有聊天室发送的 user 角色消息数。
	CountUserMessagesSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

// messageRepository 是 MessageRepository 接口的 GORM 实现。
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建一个新的 MessageRepository 实例。
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create 在数据库中创建一条新的消息记录。
func (r *messageRepository) Create(ctx context.Context, message *model.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// FindRecent 返回聊天室内最近的 limit 条消息，最新在前。
func (r *messageRepository) FindRecent(ctx context.Context, chatroomID string, limit int) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Where("chatroom_id = ?", chatroomID).
		Order("created_at desc").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// CountUserMessagesSince 跨用户的全部聊天室统计 user 角色消息数，用于每日限额判定。
func (r *messageRepository) CountUserMessagesSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Joins("JOIN chatrooms ON chatrooms.id = messages.chatroom_id").
		Where("chatrooms.user_id = ? AND messages.role = ? AND messages.created_at >= ?",
			userID, model.RoleUser, since).
		Count(&count).Error
	return count, err
}
