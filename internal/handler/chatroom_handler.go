package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ai-chat-go/internal/model"
	"ai-chat-go/internal/service"
	"ai-chat-go/pkg/log"
)

// ChatroomHandler 负责处理聊天室与消息相关的 API 请求。
type ChatroomHandler struct {
	chatroomService service.ChatroomService
	chatService     service.ChatService
}

// NewChatroomHandler 创建一个新的 ChatroomHandler 实例。
func NewChatroomHandler(chatroomService service.ChatroomService, chatService service.ChatService) *ChatroomHandler {
	return &ChatroomHandler{
		chatroomService: chatroomService,
		chatService:     chatService,
	}
}

// CreateChatroomRequest 定义了创建聊天室 API 的请求体结构。
type CreateChatroomRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create 处理创建聊天室请求。
func (h *ChatroomHandler) Create(c *gin.Context) {
	var req CreateChatroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "无效的请求负载：名称不能为空"})
		return
	}

	user := c.MustGet("user").(*model.User)
	chatroom, err := h.chatroomService.Create(c.Request.Context(), user.ID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidChatroomName):
			c.JSON(http.StatusBadRequest, gin.H{"message": "名称不能为空"})
		case errors.Is(err, service.ErrChatroomNameExists):
			c.JSON(http.StatusBadRequest, gin.H{"message": "同名聊天室已存在"})
		default:
			log.Errorf("CreateChatroom: failed for user '%s', error: %v", user.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Chatroom created successfully",
		"chatroom": chatroom,
	})
}

// List 处理获取聊天室列表请求，读路径走缓存。
func (h *ChatroomHandler) List(c *gin.Context) {
	user := c.MustGet("user").(*model.User)
	chatrooms, err := h.chatroomService.List(c.Request.Context(), user.ID)
	if err != nil {
		log.Errorf("ListChatrooms: failed for user '%s', error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Chatrooms retrieved successfully",
		"chatrooms": chatrooms,
	})
}

// Detail 处理获取聊天室详情请求。
func (h *ChatroomHandler) Detail(c *gin.Context) {
	user := c.MustGet("user").(*model.User)
	chatroomID := c.Param("id")

	detail, err := h.chatroomService.Detail(c.Request.Context(), user.ID, chatroomID)
	if err != nil {
		if errors.Is(err, service.ErrChatroomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "聊天室不存在或没有访问权限"})
			return
		}
		log.Errorf("ChatroomDetail: failed for user '%s', error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Chatroom details retrieved successfully",
		"data":    detail,
	})
}

// SendMessageRequest 定义了发送消息 API 的请求体结构。
type SendMessageRequest struct {
	UserMessage string `json:"userMessage" binding:"required"`
}

// SendMessage 处理向聊天室发送消息的请求。
// 成功响应只代表任务已被接收，AI 回复稍后异步写入聊天室。
func (h *ChatroomHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "无效的请求负载：消息内容不能为空"})
		return
	}

	user := c.MustGet("user").(*model.User)
	chatroomID := c.Param("id")

	err := h.chatService.SendMessage(c.Request.Context(), user.ID, chatroomID, req.UserMessage)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"message": "消息内容不能为空"})
		case errors.Is(err, service.ErrChatroomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "聊天室不存在或没有访问权限"})
		case errors.Is(err, service.ErrDailyLimitReached):
			// 429：basic 套餐当天额度已用完
			c.JSON(http.StatusTooManyRequests, gin.H{"message": "今日免费额度已用完，升级 Pro 或明天再试"})
		default:
			log.Errorf("SendMessage: failed for user '%s', error: %v", user.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "You'll receive the response shortly."})
}
