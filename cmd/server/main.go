// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ai-chat-go/internal/config"
	"ai-chat-go/internal/handler"
	"ai-chat-go/internal/middleware"
	"ai-chat-go/internal/model"
	"ai-chat-go/internal/pipeline"
	"ai-chat-go/internal/repository"
	"ai-chat-go/internal/service"
	"ai-chat-go/pkg/database"
	kafkaqueue "ai-chat-go/pkg/kafka"
	"ai-chat-go/pkg/llm"
	"ai-chat-go/pkg/log"
	"ai-chat-go/pkg/token"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("./configs/config.yaml")
	if err != nil {
		panic(err)
	}

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 构造数据库与 Redis 客户端（显式注入，不使用包级单例）
	db, err := database.NewMySQL(cfg.Database.MySQL.DSN)
	if err != nil {
		log.Fatal("MySQL 初始化失败", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Chatroom{},
		&model.Message{},
		&model.Subscription{},
		&model.Otp{},
	); err != nil {
		log.Fatal("数据库迁移失败", err)
	}

	rdb, err := database.NewRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err != nil {
		log.Fatal("Redis 初始化失败", err)
	}

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	chatroomRepo := repository.NewChatroomRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	otpRepo := repository.NewOtpRepository(db)
	chatroomCache := repository.NewChatroomCache(rdb, time.Duration(cfg.Chat.CacheTTLSeconds)*time.Second)

	// 5. 初始化队列与 LLM 客户端
	producer := kafkaqueue.NewProducer(cfg.Kafka)
	defer producer.Close()
	llmClient := llm.NewClient(cfg.LLM)

	// 6. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenExpireDays)
	authService := service.NewAuthService(userRepo, otpRepo, jwtManager)
	eligibilityService := service.NewEligibilityService(subscriptionRepo, messageRepo, cfg.Chat.FreeDailyLimit)
	chatroomService := service.NewChatroomService(chatroomRepo, messageRepo, chatroomCache)
	chatService := service.NewChatService(chatroomRepo, messageRepo, eligibilityService, producer, cfg.Chat.HistorySize)
	billingService := service.NewBillingService(userRepo, subscriptionRepo)

	// 7. 启动后台回复任务消费者
	processor := pipeline.NewProcessor(llmClient, messageRepo, chatroomRepo, chatroomCache)
	consumer := kafkaqueue.NewConsumer(cfg.Kafka, rdb, processor)

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Run(consumerCtx); err != nil {
			log.Error("消费者退出异常", err)
		}
	}()

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Backend is LIVE"})
	})

	// 9. 注册路由
	authed := middleware.AuthMiddleware(jwtManager, userRepo)
	api := r.Group("/api")
	{
		// Auth 路由组
		auth := api.Group("/auth")
		{
			authHandler := handler.NewAuthHandler(authService)
			auth.POST("/signup", authHandler.SignUp)
			auth.POST("/send-otp", authHandler.SendOtp)
			auth.POST("/verify-otp", authHandler.VerifyOtp)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/change-password", authed, authHandler.ChangePassword)
		}

		// User 路由组，需要认证
		user := api.Group("/user")
		user.Use(authed)
		{
			user.GET("/me", handler.NewUserHandler().Me)
		}

		// Chatroom 路由组，需要认证
		chatroomHandler := handler.NewChatroomHandler(chatroomService, chatService)
		chatroom := api.Group("/chatroom")
		chatroom.Use(authed)
		{
			chatroom.POST("", chatroomHandler.Create)
			chatroom.GET("", chatroomHandler.List)
			chatroom.GET("/:id", chatroomHandler.Detail)
			chatroom.POST("/:id/message", chatroomHandler.SendMessage)
		}

		// Billing 路由组
		billing := api.Group("/billing")
		{
			billingHandler := handler.NewBillingHandler(billingService)
			billing.GET("/subscription/status", authed, billingHandler.Status)
			// 订阅事件由支付网关完成签名校验后转发
			billing.POST("/webhook/events", billingHandler.ApplyEvent)
		}
	}

	// 10. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 先停 HTTP，再等消费者处理完在途任务
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	cancelConsumer()
	select {
	case <-consumerDone:
	case <-time.After(10 * time.Second):
		log.Warnf("等待消费者退出超时")
	}

	log.Info("服务已优雅关闭")
}
