package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ai-chat-go/internal/model"
	"ai-chat-go/internal/repository"
	"ai-chat-go/pkg/log"
)

var (
	// ErrChatroomNameExists 表示同一用户下已存在同名（不区分大小写）聊天室。
	ErrChatroomNameExists = errors.New("chatroom name already exists")
	// ErrChatroomNotFound 表示聊天室不存在或不属于当前用户。
	ErrChatroomNotFound = errors.New("chatroom not found or not accessible")
	// ErrInvalidChatroomName 表示聊天室名称为空。
	ErrInvalidChatroomName = errors.New("chatroom name is required")
)

// ChatroomDetail 是聊天室详情接口的返回结构，附带最近两条消息。
type ChatroomDetail struct {
	Chatroom     *model.Chatroom `json:"chatroom"`
	LastMessages []model.Message `json:"lastMessages"`
}

// ChatroomService 定义了聊天室相关的业务操作。
type ChatroomService interface {
	Create(ctx context.Context, userID, name string) (*model.Chatroom, error)
	// List 返回用户的聊天室列表，读路径走缓存装饰：
	// 命中直接返回，未命中读库并回填，TTL 到期自愈。
	List(ctx context.Context, userID string) ([]model.ChatroomSnapshot, error)
	Detail(ctx context.Context, userID, chatroomID string) (*ChatroomDetail, error)
}

type chatroomService struct {
	chatroomRepo repository.ChatroomRepository
	messageRepo  repository.MessageRepository
	cache        repository.ChatroomCache
}

// NewChatroomService 创建一个新的 ChatroomService 实例。
func NewChatroomService(
	chatroomRepo repository.ChatroomRepository,
	messageRepo repository.MessageRepository,
	cache repository.ChatroomCache,
) ChatroomService {
	return &chatroomService{
		chatroomRepo: chatroomRepo,
		messageRepo:  messageRepo,
		cache:        cache,
	}
}

// Create 为用户创建一个新的聊天室。
// 同一用户下名称不区分大小写唯一；创建成功后使该用户的列表缓存失效。
func (s *chatroomService) Create(ctx context.Context, userID, name string) (*model.Chatroom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidChatroomName
	}

	// 1. 查重：不同用户之间允许同名
	_, err := s.chatroomRepo.FindByUserAndName(ctx, userID, name)
	if err == nil {
		return nil, ErrChatroomNameExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 落库
	chatroom := &model.Chatroom{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   name,
	}
	if err := s.chatroomRepo.Create(ctx, chatroom); err != nil {
		return nil, err
	}

	// 3. 聊天室集合变了，列表缓存必须失效
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		// 缓存失效失败不影响创建结果，TTL 到期后自愈
		log.Warnf("创建聊天室后使缓存失效失败: userId=%s, error: %v", userID, err)
	}

	return chatroom, nil
}

// List 返回用户的聊天室列表，按活跃度倒序。
func (s *chatroomService) List(ctx context.Context, userID string) ([]model.ChatroomSnapshot, error) {
	// 1. 先查缓存
	cached, hit, err := s.cache.Get(ctx, userID)
	if err != nil {
		// 缓存故障降级为直接读库
		log.Warnf("读取聊天室列表缓存失败: userId=%s, error: %v", userID, err)
	}
	if hit {
		return cached, nil
	}

	// 2. 未命中则读库
	chatrooms, err := s.chatroomRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshots := make([]model.ChatroomSnapshot, 0, len(chatrooms))
	for _, c := range chatrooms {
		snapshots = append(snapshots, model.ChatroomSnapshot{
			ID:        c.ID,
			Name:      c.Name,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}

	// 3. 回填缓存
	if err := s.cache.Set(ctx, userID, snapshots); err != nil {
		log.Warnf("回填聊天室列表缓存失败: userId=%s, error: %v", userID, err)
	}

	return snapshots, nil
}

// Detail 返回聊天室详情和最近两条消息。
func (s *chatroomService) Detail(ctx context.Context, userID, chatroomID string) (*ChatroomDetail, error) {
	chatroom, err := s.chatroomRepo.FindByIDAndUser(ctx, chatroomID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatroomNotFound
		}
		return nil, err
	}

	lastMessages, err := s.messageRepo.FindRecent(ctx, chatroomID, 2)
	if err != nil {
		return nil, err
	}

	return &ChatroomDetail{
		Chatroom:     chatroom,
		LastMessages: lastMessages,
	}, nil
}
