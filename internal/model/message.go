package model

import "time"

// 消息角色。不强制 user/assistant 交替：处理是异步的，
// 用户可以在回复落库前连续发送多条消息。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 对应于数据库中的 'messages' 表。
// 同一聊天室内的消息按 CreatedAt 全序排列。
type Message struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ChatroomID string    `gorm:"type:varchar(36);index;not null" json:"chatroomId"`
	Role       string    `gorm:"type:varchar(16);not null" json:"role"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}
