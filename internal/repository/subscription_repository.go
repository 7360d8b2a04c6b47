package repository

import (
	"context"

	"gorm.io/gorm"

	"ai-chat-go/internal/model"
)

// SubscriptionRepository 接口定义了订阅数据的持久化操作。
type SubscriptionRepository interface {
	// FindByUserID 返回用户最近一条订阅记录，没有订阅时返回 gorm.ErrRecordNotFound。
	FindByUserID(ctx context.Context, userID string) (*model.Subscription, error)
	Create(ctx context.Context, sub *model.Subscription) error
	Update(ctx context.Context, sub *model.Subscription) error
	// DeactivateByProviderSubID 按支付方订阅 ID 将订阅降级为 basic/inactive。
	DeactivateByProviderSubID(ctx context.Context, providerSubID string) error
}

// subscriptionRepository 是 SubscriptionRepository 接口的 GORM 实现。
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository 创建一个新的 SubscriptionRepository 实例。
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// FindByUserID 返回用户最近的订阅记录。
func (r *subscriptionRepository) FindByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Create 在数据库中创建一条新的订阅记录。
func (r *subscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// Update 更新数据库中一条已存在的订阅记录。
func (r *subscriptionRepository) Update(ctx context.Context, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

// DeactivateByProviderSubID 处理退款/取消事件：按支付方订阅 ID 批量降级。
func (r *subscriptionRepository) DeactivateByProviderSubID(ctx context.Context, providerSubID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("provider_sub_id = ?", providerSubID).
		Updates(map[string]interface{}{
			"plan":   model.PlanBasic,
			"status": model.SubStatusInactive,
		}).Error
}
