// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// User 对应于数据库中的 'users' 表。
type User struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	PhoneNumber string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"phoneNumber"`
	Email       *string    `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	FullName    *string    `gorm:"type:varchar(100)" json:"fullName"`
	// Password 是 bcrypt 哈希后的密码，绝不以明文存储。
	Password   string     `gorm:"type:varchar(100);not null" json:"-"`
	VerifiedAt *time.Time `json:"verifiedAt"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
