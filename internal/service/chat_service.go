package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ai-chat-go/internal/model"
	"ai-chat-go/internal/repository"
	"ai-chat-go/pkg/log"
	"ai-chat-go/pkg/tasks"
)

// ErrEmptyMessage 表示用户消息为空。
var ErrEmptyMessage = errors.New("message content is required")

// contextHeader 和 contextFooter 是上下文 prompt 的固定包裹格式，
// 与 worker 端的拼接约定（contentPrompt + userMessage）配套。
const (
	contextHeader = "Previous conversation:\n"
	contextFooter = "\n\nCurrent user message: "
)

// ReplyEnqueuer 抽象了回复任务的持久化入队。
// 调用返回即代表任务已被队列持久化接收，后续处理完全异步。
type ReplyEnqueuer interface {
	EnqueueReply(ctx context.Context, task tasks.ReplyTask) (string, error)
}

// ChatService 负责接收用户消息并触发异步的 AI 回复生成。
type ChatService interface {
	// SendMessage 执行限额检查、构建上下文、持久化用户消息并入队回复任务。
	// 返回时任务已入队，但 AI 回复尚未生成。
	SendMessage(ctx context.Context, userID, chatroomID, userMessage string) error
}

type chatService struct {
	chatroomRepo repository.ChatroomRepository
	messageRepo  repository.MessageRepository
	eligibility  EligibilityService
	enqueuer     ReplyEnqueuer
	historySize  int
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	chatroomRepo repository.ChatroomRepository,
	messageRepo repository.MessageRepository,
	eligibility EligibilityService,
	enqueuer ReplyEnqueuer,
	historySize int,
) ChatService {
	return &chatService{
		chatroomRepo: chatroomRepo,
		messageRepo:  messageRepo,
		eligibility:  eligibility,
		enqueuer:     enqueuer,
		historySize:  historySize,
	}
}

// SendMessage 是发送消息的主流程。
// 顺序约定：用户消息先落库、任务后入队，轮询聊天室的读者
// 总能先看到触发消息，即使助手回复尚未生成。
func (s *chatService) SendMessage(ctx context.Context, userID, chatroomID, userMessage string) error {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return ErrEmptyMessage
	}

	// 1. 校验聊天室归属
	if _, err := s.chatroomRepo.FindByIDAndUser(ctx, chatroomID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChatroomNotFound
		}
		return err
	}

	// 2. 限额检查。必须先于任何写入：被拒绝的请求不落库也不入队
	if err := s.eligibility.Check(ctx, userID, time.Now()); err != nil {
		return err
	}

	// 3. 构建上下文 prompt
	contentPrompt, err := s.buildContextPrompt(ctx, chatroomID)
	if err != nil {
		return err
	}

	// 4. 持久化用户消息
	msg := &model.Message{
		ID:         uuid.NewString(),
		ChatroomID: chatroomID,
		Role:       model.RoleUser,
		Content:    userMessage,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return err
	}

	// 5. 入队回复任务
	jobID, err := s.enqueuer.EnqueueReply(ctx, tasks.ReplyTask{
		ContentPrompt: contentPrompt,
		UserMessage:   userMessage,
		UserID:        userID,
		ChatroomID:    chatroomID,
	})
	if err != nil {
		return fmt.Errorf("入队回复任务失败: %w", err)
	}

	log.Infof("回复任务已入队: jobId=%s, chatroomId=%s", jobID, chatroomID)
	return nil
}

// buildContextPrompt 将聊天室最近的历史消息拼装为单个文本块。
// 没有历史消息时返回空串。取最近 historySize 条（最新在前）后反转为时间序。
func (s *chatService) buildContextPrompt(ctx context.Context, chatroomID string) (string, error) {
	recent, err := s.messageRepo.FindRecent(ctx, chatroomID, s.historySize)
	if err != nil {
		return "", err
	}
	if len(recent) == 0 {
		return "", nil
	}

	// 反转为时间序（最旧在前）
	var sb strings.Builder
	sb.WriteString(contextHeader)
	for i := len(recent) - 1; i >= 0; i-- {
		m := recent[i]
		label := "Assistant"
		if m.Role == model.RoleUser {
			label = "User"
		}
		sb.WriteString(fmt.Sprintf("%s: %s", label, m.Content))
		if i > 0 {
			sb.WriteString("\n")
		}
	}
	sb.WriteString(contextFooter)
	return sb.String(), nil
}
