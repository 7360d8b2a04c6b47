package repository

import (
	"context"

	"gorm.io/gorm"

	"ai-chat-go/internal/model"
)

// OtpRepository 接口定义了 OTP 验证码的持久化操作。
type OtpRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.Otp, error)
	Create(ctx context.Context, otp *model.Otp) error
	Update(ctx context.Context, otp *model.Otp) error
}

// otpRepository 是 OtpRepository 接口的 GORM 实现。
type otpRepository struct {
	db *gorm.DB
}

// NewOtpRepository 创建一个新的 OtpRepository 实例。
func NewOtpRepository(db *gorm.DB) OtpRepository {
	return &otpRepository{db: db}
}

// FindByUserID 查找用户当前的 OTP 记录。
func (r *otpRepository) FindByUserID(ctx context.Context, userID string) (*model.Otp, error) {
	var otp model.Otp
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&otp).Error
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

// Create 在数据库中创建一条新的 OTP 记录。
func (r *otpRepository) Create(ctx context.Context, otp *model.Otp) error {
	return r.db.WithContext(ctx).Create(otp).Error
}

// Update 更新数据库中一条已存在的 OTP 记录。
func (r *otpRepository) Update(ctx context.Context, otp *model.Otp) error {
	return r.db.WithContext(ctx).Save(otp).Error
}
