package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mindhaven/internal/ai"
	appsvc "mindhaven/internal/app"
	"mindhaven/internal/bootstrap"
	"mindhaven/internal/cache"
	"mindhaven/internal/platform/rabbitmq"
	"mindhaven/internal/repository"
	"mindhaven/internal/transport/http/handler"
	"mindhaven/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	gin.SetMode(cfg.App.GinMode)
	registerValidators()

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(app.Log),
		middleware.Metrics(),
		cors.New(corsConfig(cfg.CORS.AllowedOrigins)),
	)

	userRepo := repository.NewUserRepository(app.MySQL)
	postRepo := repository.NewPostRepository(app.MySQL)
	messageRepo := repository.NewTherapyMessageRepository(app.MySQL)

	var postCache appsvc.PostCache
	var historyCache appsvc.HistoryCache
	if app.Redis != nil {
		postCache = cache.NewPostCache(
			app.Redis,
			time.Duration(cfg.Redis.PostListTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.PostListDirtyTTLSeconds)*time.Second,
		)
		historyCache = cache.NewHistoryCache(
			app.Redis,
			appsvc.MaxHistoryLimit,
			time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
		)
	}

	var publisher appsvc.AsyncMessagePublisher = appsvc.NewDirectPublisher(messageRepo)
	if app.MQConn != nil {
		publisher = rabbitmq.NewMessagePublisher(app.MQConn, cfg.RabbitMQ.TherapyMessageQueue)
	}

	llmClient := ai.NewOpenAICompatibleClient(ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})
	predictorClient := ai.NewPredictorClient(cfg.Predictor.URL, time.Duration(cfg.Predictor.TimeoutSeconds)*time.Second)

	quiz := appsvc.NewQuiz()
	authService := appsvc.NewAuthService(userRepo, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.JWTExpireHour)*time.Hour)
	postService := appsvc.NewPostService(postRepo, postCache, app.Log)
	userService := appsvc.NewUserService(userRepo, postService)
	therapyService := appsvc.NewTherapyService(messageRepo, llmClient, publisher, historyCache, quiz, cfg.LLM.MaxContextMessage, app.Log)
	predictionService := appsvc.NewPredictionService(predictorClient, app.Log)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	postHandler := handler.NewPostHandler(postService)
	quizHandler := handler.NewQuizHandler(quiz)
	therapyHandler := handler.NewTherapyHandler(therapyService)
	predictionHandler := handler.NewPredictionHandler(predictionService)
	healthHandler := handler.NewHealthHandler(app)

	authJWT := middleware.AuthJWT(cfg.Auth.JWTSecret)

	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	userGroup := router.Group("/user")
	userGroup.POST("/signup", authHandler.Signup)
	userGroup.POST("/login", authHandler.Login)
	userGroup.GET("/logout", authHandler.Logout)
	userGroup.GET("/:id", userHandler.Get)
	userGroup.GET("/:id/posts", userHandler.Posts)
	userGroup.PUT("/:id", authJWT, userHandler.Update)

	postGroup := router.Group("/posts")
	postGroup.GET("/getAllPosts", postHandler.List)
	postGroup.GET("/getPost/:id", postHandler.Get)
	postGroup.POST("/createPost", authJWT, postHandler.Create)
	postGroup.PUT("/editPosts/:id", authJWT, postHandler.Update)
	postGroup.DELETE("/deletePosts/:id", authJWT, postHandler.Delete)

	router.GET("/quiz/questions", quizHandler.Questions)

	chatGroup := router.Group("/chat")
	chatGroup.Use(authJWT)
	chatGroup.POST("/messages", therapyHandler.Send)
	chatGroup.POST("/stream", therapyHandler.Stream)
	chatGroup.GET("/history", therapyHandler.History)
	chatGroup.DELETE("/history", therapyHandler.Clear)

	router.POST("/model/predict-mental-health", predictionHandler.Predict)

	return router
}

// corsConfig allows any origin when none is configured, without credentials.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
