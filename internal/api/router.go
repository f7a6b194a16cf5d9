package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/medquiz_go_server/config"
	"github.com/qs3c/medquiz_go_server/internal/api/handler"
	"github.com/qs3c/medquiz_go_server/internal/api/middleware"
	"github.com/qs3c/medquiz_go_server/internal/service"
)

type Router struct {
	authHandler         *handler.AuthHandler
	catalogHandler      *handler.CatalogHandler
	quizHandler         *handler.QuizHandler
	subscriptionHandler *handler.SubscriptionHandler
	adminHandler        *handler.AdminHandler
	ingestHandler       *handler.IngestHandler
	websocketHandler    *handler.WebSocketHandler
	authService         *service.AuthService
	subService          *service.SubscriptionService
	cfg                 *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	catalogHandler *handler.CatalogHandler,
	quizHandler *handler.QuizHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	adminHandler *handler.AdminHandler,
	ingestHandler *handler.IngestHandler,
	websocketHandler *handler.WebSocketHandler,
	authService *service.AuthService,
	subService *service.SubscriptionService,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:         authHandler,
		catalogHandler:      catalogHandler,
		quizHandler:         quizHandler,
		subscriptionHandler: subscriptionHandler,
		adminHandler:        adminHandler,
		ingestHandler:       ingestHandler,
		websocketHandler:    websocketHandler,
		authService:         authService,
		subService:          subService,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
		}

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			// 用户
			user := authenticated.Group("/user")
			{
				user.GET("/info", r.authHandler.GetUserInfo)
				user.PUT("/profile", r.authHandler.UpdateProfile)
				user.PUT("/password", r.authHandler.ChangePassword)
			}

			// 题库目录（登录即可浏览，不要求订阅）
			authenticated.GET("/catalog/categories", r.catalogHandler.Categories)

			// 订阅与支付
			subscription := authenticated.Group("/subscription")
			{
				subscription.GET("/status", r.subscriptionHandler.Status)
				subscription.POST("/pay", r.subscriptionHandler.InitiatePayment)
				subscription.POST("/verify", r.subscriptionHandler.VerifyPayment)
			}

			// 历史成绩（回看不受订阅门禁限制）
			authenticated.GET("/quiz/results", r.quizHandler.History)

			// 测验（订阅门禁）
			quiz := authenticated.Group("/quiz")
			quiz.Use(middleware.SubscriptionCheck(r.subService))
			{
				quiz.POST("/start", r.quizHandler.Start)
				quiz.GET("/session", r.quizHandler.Current)
				quiz.POST("/answer", r.quizHandler.SubmitAnswer)
				quiz.POST("/next", r.quizHandler.Advance)
				quiz.POST("/previous", r.quizHandler.Previous)
				quiz.POST("/complete", r.quizHandler.Complete)
				quiz.POST("/abandon", r.quizHandler.Abandon)
			}
		}

		// 管理端接口
		admin := api.Group("/admin")
		admin.GET("/ws", r.websocketHandler.Handle)
		admin.Use(middleware.Auth(r.cfg.JWT.Secret), middleware.AdminAuth(r.authService))
		{
			admin.GET("/subscriptions", r.adminHandler.Subscriptions)
			admin.PUT("/subscriptions", r.adminHandler.SetSubscription)
			admin.POST("/questions/upload", r.ingestHandler.Upload)
			admin.POST("/questions/upload-file", r.ingestHandler.UploadFile)
		}
	}

	return engine
}
