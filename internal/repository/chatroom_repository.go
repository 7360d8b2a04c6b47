package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"ai-chat-go/internal/model"
)

// ChatroomRepository 接口定义了聊天室数据的持久化操作。
type ChatroomRepository interface {
	Create(ctx context.Context, chatroom *model.Chatroom) error
	// FindByIDAndUser 查找属于指定用户的聊天室，兼做归属校验。
	FindByIDAndUser(ctx context.Context, chatroomID, userID string) (*model.Chatroom, error)
	// FindByUserAndName 在用户名下按名称查找聊天室，名称不区分大小写。
	FindByUserAndName(ctx context.Context, userID, name string) (*model.Chatroom, error)
	// ListByUser 返回用户的全部聊天室，按活跃度（updated_at）倒序。
	ListByUser(ctx context.Context, userID string) ([]model.Chatroom, error)
	// Touch 将聊天室的 updated_at 刷新为指定时间。
	Touch(ctx context.Context, chatroomID string, now time.Time) error
}

// chatroomRepository 是 ChatroomRepository 接口的 GORM 实现。
type chatroomRepository struct {
	db *gorm.DB
}

// NewChatroomRepository 创建一个新的 ChatroomRepository 实例。
func NewChatroomRepository(db *gorm.DB) ChatroomRepository {
	return &chatroomRepository{db: db}
}

// Create 在数据库中创建一个新的聊天室记录。
func (r *chatroomRepository) Create(ctx context.Context, chatroom *model.Chatroom) error {
	return r.db.WithContext(ctx).Create(chatroom).Error
}

// FindByIDAndUser 根据聊天室 ID 和所属用户查找聊天室。
func (r *chatroomRepository) FindByIDAndUser(ctx context.Context, chatroomID, userID string) (*model.Chatroom, error) {
	var chatroom model.Chatroom
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", chatroomID, userID).
		First(&chatroom).Error
	if err != nil {
		return nil, err
	}
	return &chatroom, nil
}

// FindByUserAndName 在用户名下按名称（不区分大小写）查找聊天室。
func (r *chatroomRepository) FindByUserAndName(ctx context.Context, userID, name string) (*model.Chatroom, error) {
	var chatroom model.Chatroom
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, name).
		First(&chatroom).Error
	if err != nil {
		return nil, err
	}
	return &chatroom, nil
}

// ListByUser 返回用户的全部聊天室，最近活跃的排在前面。
func (r *chatroomRepository) ListByUser(ctx context.Context, userID string) ([]model.Chatroom, error) {
	var chatrooms []model.Chatroom
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Find(&chatrooms).Error
	return chatrooms, err
}

// Touch 刷新聊天室的活跃度标记。
func (r *chatroomRepository) Touch(ctx context.Context, chatroomID string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Chatroom{}).
		Where("id = ?", chatroomID).
		Update("updated_at", now).Error
}
