// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"ai-chat-go/internal/model"
	"ai-chat-go/internal/repository"
)

// ErrDailyLimitReached 表示 basic 套餐用户当天的消息额度已用完。
// handler 将其映射为 429。
var ErrDailyLimitReached = errors.New("daily message limit reached for free plan")

// EligibilityService 判断用户此刻是否还能发送新消息（套餐感知的每日限额）。
// 检查没有任何副作用，必须在任何持久化动作之前同步执行，
// 被拒绝的请求不留下任何痕迹。
type EligibilityService interface {
	// Check 在允许发送时返回 nil，超出限额时返回 ErrDailyLimitReached。
	Check(ctx context.Context, userID string, now time.Time) error
}

type eligibilityService struct {
	subscriptionRepo repository.SubscriptionRepository
	messageRepo      repository.MessageRepository
	freeDailyLimit   int
}

// NewEligibilityService 创建一个新的 EligibilityService 实例。
func NewEligibilityService(
	subscriptionRepo repository.SubscriptionRepository,
	messageRepo repository.MessageRepository,
	freeDailyLimit int,
) EligibilityService {
	return &eligibilityService{
		subscriptionRepo: subscriptionRepo,
		messageRepo:      messageRepo,
		freeDailyLimit:   freeDailyLimit,
	}
}

// Check 计算有效套餐并统计当天（本地时区零点起）的 user 角色消息数。
// pro 用户不限量；basic 用户达到 freeDailyLimit 后被拒绝。
func (s *eligibilityService) Check(ctx context.Context, userID string, now time.Time) error {
	tier, err := s.effectiveTier(ctx, userID, now)
	if err != nil {
		return err
	}
	if tier == model.PlanPro {
		return nil
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count, err := s.messageRepo.CountUserMessagesSince(ctx, userID, midnight)
	if err != nil {
		return err
	}
	if count >= int64(s.freeDailyLimit) {
		return ErrDailyLimitReached
	}
	return nil
}

// effectiveTier 实时计算用户的有效套餐，没有订阅记录时视为 basic。
func (s *eligibilityService) effectiveTier(ctx context.Context, userID string, now time.Time) (string, error) {
	sub, err := s.subscriptionRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.PlanBasic, nil
		}
		return "", err
	}
	return sub.EffectiveTier(now), nil
}
