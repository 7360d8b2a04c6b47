package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ai-chat-go/internal/model"
	"ai-chat-go/internal/service"
	"ai-chat-go/pkg/log"
)

// BillingHandler 负责处理订阅相关的 API 请求。
// 支付渠道的签名校验与 Checkout 会话由外部网关完成，
// 这里只消费已校验过的订阅事件。
type BillingHandler struct {
	billingService service.BillingService
}

// NewBillingHandler 创建一个新的 BillingHandler 实例。
func NewBillingHandler(billingService service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// Status 返回当前用户的订阅状态和实时计算的有效套餐。
func (h *BillingHandler) Status(c *gin.Context) {
	user := c.MustGet("user").(*model.User)

	status, err := h.billingService.Status(c.Request.Context(), user.ID)
	if err != nil {
		log.Errorf("SubscriptionStatus: failed for user '%s', error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// SubscriptionEventRequest 定义了订阅事件 webhook 的请求体结构。
// Type 取值：checkout.completed / subscription.cancelled。
type SubscriptionEventRequest struct {
	Type          string    `json:"type" binding:"required"`
	UserID        string    `json:"userId"`
	ProviderSubID string    `json:"providerSubId" binding:"required"`
	PeriodEnd     time.Time `json:"periodEnd"`
}

// ApplyEvent 处理来自支付网关的订阅事件。
func (h *BillingHandler) ApplyEvent(c *gin.Context) {
	var req SubscriptionEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "无效的订阅事件"})
		return
	}

	var err error
	switch req.Type {
	case "checkout.completed":
		if req.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "checkout 事件缺少 userId"})
			return
		}
		err = h.billingService.ApplyCheckoutCompleted(c.Request.Context(), req.UserID, req.ProviderSubID, req.PeriodEnd)
	case "subscription.cancelled":
		err = h.billingService.ApplyCancellation(c.Request.Context(), req.ProviderSubID)
	default:
		log.Warnf("ApplyEvent: unhandled event type '%s'", req.Type)
		c.JSON(http.StatusOK, gin.H{"message": "Event ignored"})
		return
	}

	if err != nil {
		log.Errorf("ApplyEvent: failed to apply '%s', error: %v", req.Type, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event applied"})
}
