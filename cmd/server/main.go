package main

import (
	"context"
	"fmt"
	"log"

	"github.com/qs3c/medquiz_go_server/config"
	"github.com/qs3c/medquiz_go_server/internal/api"
	"github.com/qs3c/medquiz_go_server/internal/api/handler"
	"github.com/qs3c/medquiz_go_server/internal/database"
	"github.com/qs3c/medquiz_go_server/internal/pkg/cron"
	"github.com/qs3c/medquiz_go_server/internal/pkg/email"
	"github.com/qs3c/medquiz_go_server/internal/pkg/oss"
	"github.com/qs3c/medquiz_go_server/internal/pkg/paystack"
	"github.com/qs3c/medquiz_go_server/internal/pkg/pubsub"
	"github.com/qs3c/medquiz_go_server/internal/pkg/queue"
	"github.com/qs3c/medquiz_go_server/internal/pkg/ws"
	"github.com/qs3c/medquiz_go_server/internal/repository"
	"github.com/qs3c/medquiz_go_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 结果重试队列 + 订阅变更通知
	retryQueue := queue.NewQueue(rdb, cfg.Quiz.ResultRetryQueue)
	publisher := pubsub.NewPublisher(rdb)
	subscriber := pubsub.NewSubscriber(rdb)

	// OSS 客户端（未配置时跳过，归档功能降级）
	var ossClient *oss.Client
	if cfg.OSS.Endpoint != "" {
		ossClient, err = oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Printf("Failed to init OSS client, upload archive disabled: %v", err)
		}
	}

	// 邮件服务（未配置时跳过）
	var emailService *email.Service
	if cfg.Email.SMTPHost != "" {
		emailService = email.NewService(&cfg.Email)
	}

	// WebSocket Hub（管理端实时刷新）
	wsHub := ws.NewHub()

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	resultRepo := repository.NewResultRepository(db)

	// 初始化 Service
	subService := service.NewSubscriptionService(subRepo, publisher, cfg)
	var emailSender service.EmailSender
	var receiptSender service.ReceiptSender
	if emailService != nil {
		emailSender = emailService
		receiptSender = emailService
	}
	authService := service.NewAuthService(userRepo, subService, emailSender, publisher, cfg)
	quizService := service.NewQuizService(questionRepo, resultRepo, retryQueue, cfg)
	catalogService := service.NewCatalogService(questionRepo)
	ingestService := service.NewIngestService(questionRepo, ossClient, cfg)
	adminService := service.NewAdminService(userRepo, subRepo)
	gateway := paystack.NewClient(&cfg.Paystack)
	paymentService := service.NewPaymentService(gateway, userRepo, subService, receiptSender, cfg)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	quizHandler := handler.NewQuizHandler(quizService)
	subscriptionHandler := handler.NewSubscriptionHandler(subService, paymentService)
	adminHandler := handler.NewAdminHandler(adminService, subService)
	ingestHandler := handler.NewIngestHandler(ingestService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, authService, cfg.JWT.Secret, cfg.CORS.AllowedOrigins)

	// 订阅变更 → 管理端 WebSocket 广播
	go func() {
		err := subscriber.Subscribe(context.Background(), func(msg *pubsub.ChangeMessage) {
			if err := wsHub.Broadcast(&ws.Message{Type: msg.Type, Data: msg}); err != nil {
				log.Printf("Failed to broadcast subscription change: %v", err)
			}
		})
		if err != nil && err != context.Canceled {
			log.Printf("Subscription change listener exited: %v", err)
		}
	}()

	// 定时任务：会话超时交卷、订阅过期刷新、结果重试
	cronService := cron.NewService(quizService, subService, retryQueue)
	cronService.Start()
	defer cronService.Stop()

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		catalogHandler,
		quizHandler,
		subscriptionHandler,
		adminHandler,
		ingestHandler,
		websocketHandler,
		authService,
		subService,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
