// Package kafka 提供了回复任务队列的生产者与消费者。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"ai-chat-go/internal/config"
	"ai-chat-go/pkg/log"
	"ai-chat-go/pkg/tasks"
)

// TaskProcessor defines the interface for any service that can process a reply task.
// This decouples the Kafka consumer from the concrete pipeline implementation.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.ReplyTask) error
}

// attemptsKeyPrefix 记录每个任务的已尝试次数，跨重投递保持计数。
const attemptsKeyPrefix = "queue:attempts:"

// failedJobsKey 保存尝试耗尽的任务记录，供人工排查；成功的任务不留痕。
const failedJobsKey = "queue:failed"

// Producer 将回复任务写入 Kafka。写入成功即代表任务已被持久化接收，
// 调用方无需等待任务被处理。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 创建一个新的 Producer。
func NewProducer(cfg config.KafkaConfig) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

// EnqueueReply 发送一个回复生成任务到队列，返回任务 ID。
// 任务 ID 由生产者分配，消费侧用它做尝试计数。
func (p *Producer) EnqueueReply(ctx context.Context, task tasks.ReplyTask) (string, error) {
	if task.JobID == "" {
		task.JobID = uuid.NewString()
	}

	taskBytes, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("序列化回复任务失败: %w", err)
	}

	// 以 chatroomId 作为分区键，保证同一聊天室内的任务按序消费
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.ChatroomID),
		Value: taskBytes,
	})
	if err != nil {
		return "", fmt.Errorf("写入 Kafka 失败: %w", err)
	}
	return task.JobID, nil
}

// Close 关闭底层的 Kafka writer。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Consumer 从 Kafka 拉取回复任务并交给 processor 处理。
type Consumer struct {
	cfg       config.KafkaConfig
	rdb       *redis.Client
	processor TaskProcessor
}

// NewConsumer 创建一个新的 Consumer。
func NewConsumer(cfg config.KafkaConfig, rdb *redis.Client, processor TaskProcessor) *Consumer {
	return &Consumer{cfg: cfg, rdb: rdb, processor: processor}
}

// Run 启动消费循环，直到 ctx 被取消。
// 同时在处理中的任务数不超过 cfg.Concurrency，每个任务彼此独立。
func (c *Consumer) Run(ctx context.Context) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{c.cfg.Brokers},
		Topic:    c.cfg.Topic,
		GroupID:  c.cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'，并发数 %d", c.cfg.Topic, c.cfg.Concurrency)

	g := &errgroup.Group{}
	g.SetLimit(c.cfg.Concurrency)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			log.Error("从 Kafka 读取消息失败", err)
			break
		}

		var task tasks.ReplyTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		msg := m
		g.Go(func() error {
			if c.handle(ctx, task) {
				if err := r.CommitMessages(ctx, msg); err != nil {
					log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
				}
			}
			return nil
		})
	}

	// 等待在途任务处理完成后再关闭 reader
	_ = g.Wait()
	if err := r.Close(); err != nil {
		return fmt.Errorf("关闭 Kafka 消费者失败: %w", err)
	}
	return nil
}

// handle 处理单个任务，返回是否应提交 offset。
// 在 MaxAttempts 内按指数退避重试；尝试耗尽后将任务记录保留到 Redis 供人工排查。
func (c *Consumer) handle(ctx context.Context, task tasks.ReplyTask) bool {
	attemptsKey := attemptsKeyPrefix + task.JobID

	for {
		attempts, incErr := c.rdb.Incr(ctx, attemptsKey).Result()
		if incErr != nil {
			// Redis 异常时保守处理：不提交 offset，让 Kafka 重新投递
			log.Errorf("任务尝试计数失败: jobId=%s, error: %v", task.JobID, incErr)
			return false
		}
		_ = c.rdb.Expire(ctx, attemptsKey, 24*time.Hour).Err()

		procErr := c.processor.Process(ctx, task)
		if procErr == nil {
			// 成功的任务不保留任何记录
			_ = c.rdb.Del(ctx, attemptsKey).Err()
			return true
		}

		log.Errorf("处理回复任务失败: jobId=%s, attempt=%d, error: %v", task.JobID, attempts, procErr)

		if attempts >= int64(c.cfg.MaxAttempts) {
			log.Errorf("回复任务尝试耗尽(>=%d)，保留记录并终止重试: jobId=%s", c.cfg.MaxAttempts, task.JobID)
			c.recordFailure(ctx, task, procErr)
			return true
		}

		// 指数退避：初始 RetryBackoffMs，每次翻倍
		backoff := time.Duration(c.cfg.RetryBackoffMs) * time.Millisecond << (attempts - 1)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
	}
}

// failedJobRecord 是保留在 Redis 中的失败任务记录。
type failedJobRecord struct {
	Task     tasks.ReplyTask `json:"task"`
	Error    string          `json:"error"`
	FailedAt time.Time       `json:"failedAt"`
}

// recordFailure 将尝试耗尽的任务推入失败列表。列表不设置过期时间，由运维清理。
func (c *Consumer) recordFailure(ctx context.Context, task tasks.ReplyTask, procErr error) {
	rec := failedJobRecord{
		Task:     task,
		Error:    procErr.Error(),
		FailedAt: time.Now(),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		log.Errorf("序列化失败任务记录失败: jobId=%s, error: %v", task.JobID, err)
		return
	}
	if err := c.rdb.LPush(ctx, failedJobsKey, b).Err(); err != nil {
		log.Errorf("保存失败任务记录失败: jobId=%s, error: %v", task.JobID, err)
	}
}
