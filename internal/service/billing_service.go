package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ai-chat-go/internal/model"
	"ai-chat-go/internal/repository"
	"ai-chat-go/pkg/log"
)

// SubscriptionStatus 是订阅状态查询的返回结构。
// Tier 是实时计算出的有效套餐，Subscription 为原始记录（可能为 nil）。
type SubscriptionStatus struct {
	User         *model.User         `json:"user"`
	Tier         string              `json:"tier"`
	Subscription *model.Subscription `json:"subscription"`
}

// BillingService 定义了订阅相关的业务操作。
// 支付渠道（签名校验、Checkout 会话）是外部协作方，
// 这里只消费已经完成校验的订阅事件。
type BillingService interface {
	Status(ctx context.Context, userID string) (*SubscriptionStatus, error)
	// ApplyCheckoutCompleted 处理支付完成事件：升级（或创建）用户的 pro 订阅。
	ApplyCheckoutCompleted(ctx context.Context, userID, providerSubID string, periodEnd time.Time) error
	// ApplyCancellation 处理取消/退款事件：按支付方订阅 ID 降级。
	ApplyCancellation(ctx context.Context, providerSubID string) error
}

type billingService struct {
	userRepo         repository.UserRepository
	subscriptionRepo repository.SubscriptionRepository
}

// NewBillingService 创建一个新的 BillingService 实例。
func NewBillingService(userRepo repository.UserRepository, subscriptionRepo repository.SubscriptionRepository) BillingService {
	return &billingService{
		userRepo:         userRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

// Status 返回用户信息、实时计算的有效套餐和原始订阅记录。
func (s *billingService) Status(ctx context.Context, userID string) (*SubscriptionStatus, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	sub, err := s.subscriptionRepo.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		sub = nil
	}

	return &SubscriptionStatus{
		User:         user,
		Tier:         sub.EffectiveTier(time.Now()),
		Subscription: sub,
	}, nil
}

// ApplyCheckoutCompleted 将用户订阅升级为 pro/active。
// 已有记录原地更新，否则创建新记录。
func (s *billingService) ApplyCheckoutCompleted(ctx context.Context, userID, providerSubID string, periodEnd time.Time) error {
	existing, err := s.subscriptionRepo.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		sub := &model.Subscription{
			ID:               uuid.NewString(),
			UserID:           userID,
			Plan:             model.PlanPro,
			Status:           model.SubStatusActive,
			ProviderSubID:    providerSubID,
			CurrentPeriodEnd: periodEnd,
		}
		if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
			return err
		}
		log.Infof("订阅创建成功: userId=%s, periodEnd=%s", userID, periodEnd.Format(time.RFC3339))
		return nil
	}

	existing.Plan = model.PlanPro
	existing.Status = model.SubStatusActive
	existing.ProviderSubID = providerSubID
	existing.CurrentPeriodEnd = periodEnd
	if err := s.subscriptionRepo.Update(ctx, existing); err != nil {
		return err
	}
	log.Infof("订阅更新成功: userId=%s, periodEnd=%s", userID, periodEnd.Format(time.RFC3339))
	return nil
}

// ApplyCancellation 将订阅降级为 basic/inactive。
func (s *billingService) ApplyCancellation(ctx context.Context, providerSubID string) error {
	return s.subscriptionRepo.DeactivateByProviderSubID(ctx, providerSubID)
}
