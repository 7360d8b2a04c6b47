package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ai-chat-go/internal/model"
)

// UserHandler 负责处理用户信息相关的 API 请求。
type UserHandler struct{}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me 返回当前登录用户的个人信息。
// 用户信息已经由 AuthMiddleware 注入到上下文中。
func (h *UserHandler) Me(c *gin.Context) {
	user := c.MustGet("user").(*model.User)
	c.JSON(http.StatusOK, gin.H{
		"message": "success",
		"user":    sanitizeUser(user),
	})
}
