package model

import "time"

// 套餐与订阅状态。
const (
	PlanBasic = "basic"
	PlanPro   = "pro"

	SubStatusActive   = "active"
	SubStatusTrialing = "trialing"
	SubStatusInactive = "inactive"
)

// Subscription 对应于数据库中的 'subscriptions' 表。
// 用户的有效套餐始终实时计算（见 EffectiveTier），不做冗余存储，
// 避免计费事件之间出现脏数据。
type Subscription struct {
	ID               string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID           string    `gorm:"type:varchar(36);index;not null" json:"userId"`
	Plan             string    `gorm:"type:varchar(16);not null;default:basic" json:"plan"`
	Status           string    `gorm:"type:varchar(16);not null;default:inactive" json:"status"`
	ProviderSubID    string    `gorm:"type:varchar(255)" json:"providerSubId"`
	CurrentPeriodEnd time.Time `json:"currentPeriodEnd"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// EffectiveTier 计算订阅在 now 时刻的有效套餐。
// 仅当状态为 active/trialing 且计费周期未结束时为 pro，其余一律 basic。
func (s *Subscription) EffectiveTier(now time.Time) string {
	if s == nil {
		return PlanBasic
	}
	isActive := s.Status == SubStatusActive || s.Status == SubStatusTrialing
	if isActive && now.Before(s.CurrentPeriodEnd) {
		return PlanPro
	}
	return PlanBasic
}
