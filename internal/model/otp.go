package model

import "time"

// Otp 对应于数据库中的 'otps' 表。
// 每个用户最多保留一条记录，重新发送时原地覆盖。Code 存 bcrypt 哈希。
type Otp struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"userId"`
	Code      string    `gorm:"type:varchar(100);not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	IsUsed    bool      `gorm:"not null;default:false" json:"isUsed"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Otp) TableName() string {
	return "otps"
}
