// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-chat-go/internal/config"
)

// 补全调用的错误分类。worker 依赖 errors.Is 将底层失败映射为固定的用户可见回复，
// 原始的 provider 错误信息绝不直接落库。
var (
	// ErrInvalidAPIKey 表示 API key 缺失或无效。
	ErrInvalidAPIKey = errors.New("llm: invalid or missing API key")
	// ErrQuotaExceeded 表示 provider 侧的用量配额已耗尽。
	ErrQuotaExceeded = errors.New("llm: provider quota exceeded")
	// ErrContentPolicy 表示请求触发了内容安全过滤。
	ErrContentPolicy = errors.New("llm: content policy violation")
	// ErrRateLimited 表示 provider 正在限流。
	ErrRateLimited = errors.New("llm: rate limited")
	// ErrNetwork 表示网络连接失败或超时。
	ErrNetwork = errors.New("llm: network error")
)

// Kind 是补全失败的分类结果。
type Kind string

const (
	KindInvalidAPIKey Kind = "invalid-credentials"
	KindQuotaExceeded Kind = "quota-exceeded"
	KindContentPolicy Kind = "content-policy-violation"
	KindRateLimited   Kind = "rate-limited"
	KindNetwork       Kind = "network-error"
	KindUnknown       Kind = "unknown"
)

// Classify 将补全调用返回的错误归入六类之一。
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidAPIKey):
		return KindInvalidAPIKey
	case errors.Is(err, ErrQuotaExceeded):
		return KindQuotaExceeded
	case errors.Is(err, ErrContentPolicy):
		return KindContentPolicy
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	}

	// 未包装的传输层错误同样视为网络故障
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetwork
	}

	return KindUnknown
}

// Client defines the interface for an LLM client.
type Client interface {
	// Complete 以单条 prompt 调用补全接口，返回生成的完整文本。
	Complete(ctx context.Context, prompt string) (string, error)
}

type openaiClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new LLM client based on the config.
func NewClient(cfg config.LLMConfig) Client {
	return &openaiClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Complete calls the chat completions API and returns the generated text.
func (c *openaiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", fmt.Errorf("%w: api key not configured", ErrInvalidAPIKey)
	}

	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", classifyStatus(resp.StatusCode, string(bodyBytes))
	}

	var chunk chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chunk); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(chunk.Choices) == 0 {
		return "", errors.New("chat api returned no choices")
	}

	choice := chunk.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", fmt.Errorf("%w: completion stopped by safety filter", ErrContentPolicy)
	}

	return choice.Message.Content, nil
}

// classifyStatus 将非 200 响应映射为分类错误，响应体仅保留在错误信息中用于日志。
func classifyStatus(status int, body string) error {
	lower := strings.ToLower(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrInvalidAPIKey, status)
	case status == http.StatusTooManyRequests:
		// 429 既可能是瞬时限流也可能是配额耗尽，按响应体区分
		if strings.Contains(lower, "quota") || strings.Contains(lower, "billing") {
			return fmt.Errorf("%w: status %d", ErrQuotaExceeded, status)
		}
		return fmt.Errorf("%w: status %d", ErrRateLimited, status)
	case status == http.StatusBadRequest &&
		(strings.Contains(lower, "content_filter") || strings.Contains(lower, "safety")):
		return fmt.Errorf("%w: status %d", ErrContentPolicy, status)
	default:
		return fmt.Errorf("chat api returned non-200 status: %d, body: %s", status, body)
	}
}
