package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ai-chat-go/internal/model"
	"ai-chat-go/internal/repository"
	"ai-chat-go/pkg/hash"
	"ai-chat-go/pkg/log"
	"ai-chat-go/pkg/token"
)

var (
	// ErrPhoneNumberExists 表示手机号已被注册。
	ErrPhoneNumberExists = errors.New("phone number already exists")
	// ErrEmailExists 表示邮箱已被注册。
	ErrEmailExists = errors.New("email already exists")
	// ErrUserNotFound 表示用户不存在。
	ErrUserNotFound = errors.New("user not found")
	// ErrOtpInvalid 表示验证码错误或尚未发送。
	ErrOtpInvalid = errors.New("invalid OTP")
	// ErrOtpExpired 表示验证码已过期。
	ErrOtpExpired = errors.New("OTP expired")
	// ErrWrongPassword 表示当前密码不正确。
	ErrWrongPassword = errors.New("incorrect password")
)

// otpExpiry 是验证码的有效时长。
const otpExpiry = 5 * time.Minute

// OtpIssue 是发送验证码的返回结构。
// 当前没有接入短信网关，验证码直接随响应返回（开发联调用法，与上游约定一致）。
type OtpIssue struct {
	Otp         string  `json:"otp"`
	PhoneNumber string  `json:"phoneNumber"`
	Email       *string `json:"email"`
	FullName    *string `json:"fullName"`
}

// AuthService 定义了注册登录相关的业务操作。
// 登录采用 OTP 验证：发送验证码、校验验证码后签发 JWT。
type AuthService interface {
	SignUp(ctx context.Context, phoneNumber string, email, fullName *string, password string) (*model.User, error)
	SendOtp(ctx context.Context, phoneNumber string) (*OtpIssue, error)
	// VerifyOtp 校验验证码，成功时标记用户已验证并返回 JWT。
	VerifyOtp(ctx context.Context, phoneNumber, otp string) (string, *model.User, error)
	// ForgotPassword 重新发送验证码，流程与 SendOtp 一致。
	ForgotPassword(ctx context.Context, phoneNumber string) (*OtpIssue, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

type authService struct {
	userRepo   repository.UserRepository
	otpRepo    repository.OtpRepository
	jwtManager *token.JWTManager
}

// NewAuthService 创建一个新的 AuthService 实例。
func NewAuthService(userRepo repository.UserRepository, otpRepo repository.OtpRepository, jwtManager *token.JWTManager) AuthService {
	return &authService{
		userRepo:   userRepo,
		otpRepo:    otpRepo,
		jwtManager: jwtManager,
	}
}

// SignUp 处理用户注册：手机号唯一、邮箱（若提供）唯一、密码 bcrypt 哈希。
func (s *authService) SignUp(ctx context.Context, phoneNumber string, email, fullName *string, password string) (*model.User, error) {
	// 1. 手机号查重
	_, err := s.userRepo.FindByPhoneNumber(ctx, phoneNumber)
	if err == nil {
		return nil, ErrPhoneNumberExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 邮箱查重（邮箱可选）
	if email != nil && *email != "" {
		_, err := s.userRepo.FindByEmail(ctx, *email)
		if err == nil {
			return nil, ErrEmailExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	// 3. 哈希密码并落库
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	newUser := &model.User{
		ID:          uuid.NewString(),
		PhoneNumber: phoneNumber,
		Email:       email,
		FullName:    fullName,
		Password:    hashedPassword,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	log.Infof("用户注册成功: phone=%s", phoneNumber)
	return newUser, nil
}

// SendOtp 为用户生成并保存一条新的验证码。
func (s *authService) SendOtp(ctx context.Context, phoneNumber string) (*OtpIssue, error) {
	user, err := s.userRepo.FindByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	otp, err := s.issueOtp(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &OtpIssue{
		Otp:         otp,
		PhoneNumber: user.PhoneNumber,
		Email:       user.Email,
		FullName:    user.FullName,
	}, nil
}

// VerifyOtp 校验验证码并签发 JWT。
func (s *authService) VerifyOtp(ctx context.Context, phoneNumber, otp string) (string, *model.User, error) {
	user, err := s.userRepo.FindByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}

	record, err := s.otpRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrOtpInvalid
		}
		return "", nil, err
	}
	if record.IsUsed {
		return "", nil, ErrOtpInvalid
	}
	if time.Now().After(record.ExpiresAt) {
		return "", nil, ErrOtpExpired
	}
	if !hash.CheckPasswordHash(otp, record.Code) {
		return "", nil, ErrOtpInvalid
	}

	// 标记用户已验证并消费验证码
	now := time.Now()
	user.VerifiedAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", nil, err
	}
	record.IsUsed = true
	if err := s.otpRepo.Update(ctx, record); err != nil {
		return "", nil, err
	}

	authToken, err := s.jwtManager.GenerateToken(user.ID, user.PhoneNumber)
	if err != nil {
		return "", nil, fmt.Errorf("签发 token 失败: %w", err)
	}

	log.Infof("用户验证成功: phone=%s", phoneNumber)
	return authToken, user, nil
}

// ForgotPassword 重新发送验证码，后续由 ChangePassword 或 VerifyOtp 接续。
func (s *authService) ForgotPassword(ctx context.Context, phoneNumber string) (*OtpIssue, error) {
	return s.SendOtp(ctx, phoneNumber)
}

// ChangePassword 在校验当前密码后更新为新密码。
func (s *authService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !hash.CheckPasswordHash(currentPassword, user.Password) {
		return ErrWrongPassword
	}

	hashedPassword, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hashedPassword
	return s.userRepo.Update(ctx, user)
}

// issueOtp 生成 6 位验证码，bcrypt 哈希后按用户覆盖保存，返回明文验证码。
func (s *authService) issueOtp(ctx context.Context, userID string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("生成验证码失败: %w", err)
	}
	otp := fmt.Sprintf("%06d", n.Int64()+100000)

	otpHash, err := hash.HashPassword(otp)
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().Add(otpExpiry)

	// 每个用户只保留一条记录，重发时原地覆盖
	existing, err := s.otpRepo.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		record := &model.Otp{
			ID:        uuid.NewString(),
			UserID:    userID,
			Code:      otpHash,
			ExpiresAt: expiresAt,
		}
		if err := s.otpRepo.Create(ctx, record); err != nil {
			return "", err
		}
		return otp, nil
	}

	existing.Code = otpHash
	existing.ExpiresAt = expiresAt
	existing.IsUsed = false
	if err := s.otpRepo.Update(ctx, existing); err != nil {
		return "", err
	}
	return otp, nil
}
