package model

import "time"

// Chatroom 对应于数据库中的 'chatrooms' 表。
// 同一用户下的聊天室名称不区分大小写唯一；UpdatedAt 在每条助手回复落库时被刷新，
// 作为列表排序的活跃度标记。
type Chatroom struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"userId"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Chatroom) TableName() string {
	return "chatrooms"
}

// ChatroomSnapshot 是聊天室列表接口返回并写入缓存的精简视图。
type ChatroomSnapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
