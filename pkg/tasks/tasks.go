// Package tasks defines the structure for jobs that are sent to Kafka.
package tasks

// ReplyTask represents a unit of work for generating one AI reply.
// JSON 字段名即队列的线上格式，修改前需要考虑在途消息的兼容性。
type ReplyTask struct {
	JobID         string `json:"jobId"`
	ContentPrompt string `json:"contentPrompt"`
	UserMessage   string `json:"userMessage"`
	UserID        string `json:"userId"`
	ChatroomID    string `json:"chatroomId"`
}
