package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-chat-go/internal/config"
)

func newTestClient(baseURL string) Client {
	return NewClient(config.LLMConfig{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Model:          "test-model",
		TimeoutSeconds: 5,
	})
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"hello there"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	reply, err := newTestClient(srv.URL).Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)
}

func TestComplete_MissingAPIKey(t *testing.T) {
	client := NewClient(config.LLMConfig{BaseURL: "http://unused", TimeoutSeconds: 5})

	_, err := client.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestComplete_StatusClassification(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		expected error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`, ErrInvalidAPIKey},
		{"forbidden", http.StatusForbidden, `{"error":"forbidden"}`, ErrInvalidAPIKey},
		{"quota", http.StatusTooManyRequests, `{"error":"insufficient quota, check billing"}`, ErrQuotaExceeded},
		{"rate limit", http.StatusTooManyRequests, `{"error":"slow down"}`, ErrRateLimited},
		{"content filter", http.StatusBadRequest, `{"error":{"code":"content_filter"}}`, ErrContentPolicy},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Complete(context.Background(), "hi")
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

// 补全被安全过滤截断时按内容政策处理。
func TestComplete_ContentFilterFinish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":""},"finish_reason":"content_filter"}]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrContentPolicy)
}

func TestComplete_ConnectionRefused(t *testing.T) {
	// 端口已关闭的地址
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindInvalidAPIKey, Classify(fmt.Errorf("wrap: %w", ErrInvalidAPIKey)))
	assert.Equal(t, KindQuotaExceeded, Classify(ErrQuotaExceeded))
	assert.Equal(t, KindContentPolicy, Classify(ErrContentPolicy))
	assert.Equal(t, KindRateLimited, Classify(ErrRateLimited))
	assert.Equal(t, KindNetwork, Classify(ErrNetwork))
	assert.Equal(t, KindUnknown, Classify(errors.New("mystery")))
}
