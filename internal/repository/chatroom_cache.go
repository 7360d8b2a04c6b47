package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ai-chat-go/internal/model"
)

// ChatroomCache 定义了聊天室列表缓存的操作接口。
// 缓存是纯粹的读路径优化：未命中或失效只会多一次数据库读，不影响正确性。
// 任何改变聊天室集合或活跃度排序的写入都必须调用 Invalidate。
type ChatroomCache interface {
	// Get 读取缓存的聊天室列表，第二个返回值表示是否命中。
	Get(ctx context.Context, userID string) ([]model.ChatroomSnapshot, bool, error)
	Set(ctx context.Context, userID string, chatrooms []model.ChatroomSnapshot) error
	Invalidate(ctx context.Context, userID string) error
}

// redisChatroomCache 是 ChatroomCache 的 Redis 实现。
type redisChatroomCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewChatroomCache 创建一个新的 ChatroomCache 实例。
func NewChatroomCache(rdb *redis.Client, ttl time.Duration) ChatroomCache {
	return &redisChatroomCache{rdb: rdb, ttl: ttl}
}

func chatroomCacheKey(userID string) string {
	return fmt.Sprintf("user:chatrooms:%s", userID)
}

// Get 读取缓存的聊天室列表快照。
func (c *redisChatroomCache) Get(ctx context.Context, userID string) ([]model.ChatroomSnapshot, bool, error) {
	jsonData, err := c.rdb.Get(ctx, chatroomCacheKey(userID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("读取聊天室列表缓存失败: %w", err)
	}

	var chatrooms []model.ChatroomSnapshot
	if err := json.Unmarshal([]byte(jsonData), &chatrooms); err != nil {
		return nil, false, fmt.Errorf("解析聊天室列表缓存失败: %w", err)
	}
	return chatrooms, true, nil
}

// Set 将聊天室列表快照写入缓存，带 TTL。
func (c *redisChatroomCache) Set(ctx context.Context, userID string, chatrooms []model.ChatroomSnapshot) error {
	jsonData, err := json.Marshal(chatrooms)
	if err != nil {
		return fmt.Errorf("序列化聊天室列表失败: %w", err)
	}
	if err := c.rdb.Set(ctx, chatroomCacheKey(userID), jsonData, c.ttl).Err(); err != nil {
		return fmt.Errorf("写入聊天室列表缓存失败: %w", err)
	}
	return nil
}

// Invalidate 删除用户的聊天室列表缓存。
func (c *redisChatroomCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.rdb.Del(ctx, chatroomCacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("删除聊天室列表缓存失败: %w", err)
	}
	return nil
}
