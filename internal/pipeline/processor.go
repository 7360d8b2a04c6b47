// Package pipeline 定义了回复任务的核心处理流程。
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"ai-chat-go/internal/model"
	"ai-chat-go/internal/repository"
	"ai-chat-go/pkg/llm"
	"ai-chat-go/pkg/log"
	"ai-chat-go/pkg/tasks"
)

// fallbackMessages 是补全失败时写入对话的固定回复，用户可见的对话中
// 绝不出现原始的 provider 错误信息或堆栈。
var fallbackMessages = map[llm.Kind]string{
	llm.KindInvalidAPIKey: "I'm currently experiencing configuration issues. Please contact support.",
	llm.KindQuotaExceeded: "I've reached my usage limit for today. Please try again tomorrow or contact support for assistance.",
	llm.KindContentPolicy: "I can't process this request as it may violate content policies. Please rephrase your message in a different way.",
	llm.KindRateLimited:   "I'm receiving too many requests right now. Please wait a moment and try again.",
	llm.KindNetwork:       "I'm having trouble connecting to my AI service. Please check your internet connection and try again.",
	llm.KindUnknown:       "I encountered an unexpected error while processing your message. Please try again or contact support if the issue persists.",
}

// FallbackMessage 返回指定错误分类对应的固定回复文本。
func FallbackMessage(kind llm.Kind) string {
	if msg, ok := fallbackMessages[kind]; ok {
		return msg
	}
	return fallbackMessages[llm.KindUnknown]
}

// Processor 封装了回复任务处理的所有依赖和逻辑。
// 每个任务的状态机：接收 → 调用补全 → {成功|失败} → 落库 → 缓存失效 → 完成。
type Processor struct {
	llmClient    llm.Client
	messageRepo  repository.MessageRepository
	chatroomRepo repository.ChatroomRepository
	cache        repository.ChatroomCache
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	llmClient llm.Client,
	messageRepo repository.MessageRepository,
	chatroomRepo repository.ChatroomRepository,
	cache repository.ChatroomCache,
) *Processor {
	return &Processor{
		llmClient:    llmClient,
		messageRepo:  messageRepo,
		chatroomRepo: chatroomRepo,
		cache:        cache,
	}
}

// Process 是回复任务处理的主函数。
// 补全失败不会向上抛出：失败被归类后转换为固定回复落库，
// 活跃度刷新和缓存失效在成功与失败分支都必须执行。
// 返回非 nil 仅代表存储层故障，由队列按重试策略重新投递。
func (p *Processor) Process(ctx context.Context, task tasks.ReplyTask) error {
	log.Infof("[Processor] 开始处理回复任务: jobId=%s, chatroomId=%s", task.JobID, task.ChatroomID)

	// 1. 拼接完整 prompt 并调用补全
	fullPrompt := task.ContentPrompt + strings.TrimSpace(task.UserMessage)
	replyContent, err := p.llmClient.Complete(ctx, fullPrompt)
	if err != nil {
		kind := llm.Classify(err)
		log.Errorf("[Processor] 补全调用失败: jobId=%s, kind=%s, error: %v", task.JobID, kind, err)
		replyContent = FallbackMessage(kind)
	}

	// 2. 将回复（或固定的失败回复）作为助手消息落库
	reply := &model.Message{
		ID:         uuid.NewString(),
		ChatroomID: task.ChatroomID,
		Role:       model.RoleAssistant,
		Content:    replyContent,
	}
	if err := p.messageRepo.Create(ctx, reply); err != nil {
		log.Errorf("[Processor] 保存助手消息失败: jobId=%s, error: %v", task.JobID, err)
		return err
	}

	// 3. 刷新聊天室活跃度标记。失败只记日志：排序标记偏旧是外观问题，
	// 不值得为它重放整个任务（重放会重复生成回复）
	if err := p.chatroomRepo.Touch(ctx, task.ChatroomID, time.Now()); err != nil {
		log.Warnf("[Processor] 刷新聊天室活跃度失败: chatroomId=%s, error: %v", task.ChatroomID, err)
	}

	// 4. 使所属用户的聊天室列表缓存失效。同样只记日志，TTL 到期后自愈
	if err := p.cache.Invalidate(ctx, task.UserID); err != nil {
		log.Warnf("[Processor] 使聊天室列表缓存失效失败: userId=%s, error: %v", task.UserID, err)
	}

	log.Infof("[Processor] 回复任务处理完成: jobId=%s", task.JobID)
	return nil
}
