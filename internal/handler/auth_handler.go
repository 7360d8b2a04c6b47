// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ai-chat-go/internal/model"
	"ai-chat-go/internal/service"
	"ai-chat-go/pkg/log"
)

// AuthHandler 负责处理注册与 OTP 登录相关的 API 请求。
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignUpRequest 定义了注册 API 的请求体结构。
type SignUpRequest struct {
	PhoneNumber string  `json:"phoneNumber" binding:"required"`
	Email       *string `json:"email"`
	FullName    *string `json:"fullName"`
	Password    string  `json:"password" binding:"required,min=6"`
}

// SignUp 处理用户注册请求。
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("SignUp: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "无效的请求负载：手机号和密码不能为空"})
		return
	}

	user, err := h.authService.SignUp(c.Request.Context(), req.PhoneNumber, req.Email, req.FullName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPhoneNumberExists):
			c.JSON(http.StatusConflict, gin.H{"message": "手机号已被注册"})
		case errors.Is(err, service.ErrEmailExists):
			c.JSON(http.StatusConflict, gin.H{"message": "邮箱已被注册"})
		default:
			log.Errorf("SignUp: registration failed for '%s', error: %v", req.PhoneNumber, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created",
		"user":    sanitizeUser(user),
	})
}

// PhoneNumberRequest 定义了仅携带手机号的请求体结构。
type PhoneNumberRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

// SendOtp 处理发送验证码请求。
func (h *AuthHandler) SendOtp(c *gin.Context) {
	var req PhoneNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "无效的请求负载：手机号不能为空"})
		return
	}

	issue, err := h.authService.SendOtp(c.Request.Context(), req.PhoneNumber)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "无效的手机号"})
			return
		}
		log.Errorf("SendOtp: failed for '%s', error: %v", req.PhoneNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "OTP generated",
		"data":    issue,
	})
}

// VerifyOtpRequest 定义了校验验证码 API 的请求体结构。
type VerifyOtpRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Otp         string `json:"otp" binding:"required,len=6"`
}

// VerifyOtp 处理校验验证码并签发 token 的请求。
func (h *AuthHandler) VerifyOtp(c *gin.Context) {
	var req VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "无效的请求负载：手机号和验证码不能为空"})
		return
	}

	authToken, user, err := h.authService.VerifyOtp(c.Request.Context(), req.PhoneNumber, req.Otp)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "无效的手机号"})
		case errors.Is(err, service.ErrOtpExpired):
			c.JSON(http.StatusBadRequest, gin.H{"message": "验证码已过期，请重新获取"})
		case errors.Is(err, service.ErrOtpInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"message": "验证码错误"})
		default:
			log.Errorf("VerifyOtp: failed for '%s', error: %v", req.PhoneNumber, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Verification successful",
		"authToken": authToken,
		"user":      sanitizeUser(user),
	})
}

// ForgotPassword 处理忘记密码请求（重新发送验证码）。
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req PhoneNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "无效的请求负载：手机号不能为空"})
		return
	}

	issue, err := h.authService.ForgotPassword(c.Request.Context(), req.PhoneNumber)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "无效的手机号"})
			return
		}
		log.Errorf("ForgotPassword: failed for '%s', error: %v", req.PhoneNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "OTP sent for password reset",
		"data":    issue,
	})
}

// ChangePasswordRequest 定义了修改密码 API 的请求体结构。
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// ChangePassword 处理已登录用户的修改密码请求。
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "无效的请求负载：当前密码和新密码不能为空"})
		return
	}

	user := c.MustGet("user").(*model.User)
	err := h.authService.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWrongPassword):
			c.JSON(http.StatusBadRequest, gin.H{"message": "当前密码不正确"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "用户不存在"})
		default:
			log.Errorf("ChangePassword: failed for user '%s', error: %v", user.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// sanitizeUser 构造不含密码哈希的用户视图。
func sanitizeUser(user *model.User) gin.H {
	return gin.H{
		"id":          user.ID,
		"phoneNumber": user.PhoneNumber,
		"email":       user.Email,
		"fullName":    user.FullName,
		"verifiedAt":  user.VerifiedAt,
		"createdAt":   user.CreatedAt,
	}
}
