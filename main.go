package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assessment-service/config"
	"assessment-service/internal/handlers"
	"assessment-service/internal/middleware"
	"assessment-service/internal/models"
	"assessment-service/internal/repository"
	"assessment-service/internal/service"
	"assessment-service/pkg/cache"
	"assessment-service/pkg/database"
	"assessment-service/pkg/email"
	"assessment-service/pkg/messaging"
	"assessment-service/pkg/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	log.Println("Configuration loaded")

	pgClient, err := database.NewPostgresClient(&cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("Connected to PostgreSQL")
	defer pgClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := pgClient.InitSchema(ctx); err != nil {
		log.Printf("Warning: Failed to initialize PostgreSQL schema: %v", err)
	} else {
		log.Println("PostgreSQL schema initialized")
	}
	cancel()

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")
	defer redisClient.Close()

	rabbitClient, err := messaging.NewRabbitMQClient(&cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	log.Println("Connected to RabbitMQ")
	defer rabbitClient.Close()

	s3Client, err := storage.NewS3Client(&cfg.S3)
	if err != nil {
		log.Fatalf("Failed to connect to S3: %v", err)
	}
	log.Println("Connected to S3")

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	if err := s3Client.CreateBucket(ctx, cfg.S3.CertificateBucket); err != nil {
		log.Printf("Warning: Failed to create certificate bucket: %v", err)
	}
	cancel()

	smtpClient := email.NewSMTPClient(&cfg.SMTP)
	log.Println("SMTP client initialized")

	db := pgClient.GetDB()

	userRepo := repository.NewUserRepository(db)
	competencyRepo := repository.NewCompetencyRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	certRepo := repository.NewCertificateRepository(db)
	authRepo := repository.NewAuthRepository(redisClient)

	authService := service.NewAuthService(authRepo, userRepo, rabbitClient, cfg.JWT.Secret)
	userService := service.NewUserService(userRepo)
	assessmentService := service.NewAssessmentService(sessionRepo, questionRepo, userRepo, certRepo, rabbitClient)
	questionService := service.NewQuestionService(questionRepo, competencyRepo)
	certificateService := service.NewCertificateService(certRepo, sessionRepo, userRepo, s3Client, cfg.S3.CertificateBucket)
	notificationService := service.NewNotificationService(smtpClient)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	assessmentHandler := handlers.NewAssessmentHandler(assessmentService)
	questionHandler := handlers.NewQuestionHandler(questionService)
	certificateHandler := handlers.NewCertificateHandler(certificateService)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "assessment-service",
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})

	auth := router.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/verify", authHandler.VerifyCode)
		auth.POST("/refresh", authHandler.RefreshToken)
	}

	authorized := router.Group("/")
	authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		users := authorized.Group("/users")
		{
			users.GET("/me", userHandler.GetProfile)
			users.PUT("/me", userHandler.UpdateProfile)
		}

		assessments := authorized.Group("/assessments")
		{
			// Eligibility only needs an authenticated caller.
			assessments.GET("/eligibility/:step", assessmentHandler.Eligibility)

			sessions := assessments.Group("")
			sessions.Use(middleware.RequireRole(models.RoleStudent), middleware.RequireVerifiedEmail())
			{
				sessions.POST("/start", assessmentHandler.Start)
				sessions.GET("/:sessionId/current-question", assessmentHandler.GetCurrentQuestion)
				sessions.POST("/:sessionId/submit-answer", assessmentHandler.SubmitAnswer)
				sessions.POST("/:sessionId/skip-question", assessmentHandler.SkipQuestion)
				sessions.POST("/:sessionId/navigate", assessmentHandler.Navigate)
				sessions.POST("/:sessionId/complete", assessmentHandler.Complete)
				sessions.GET("/:sessionId/results", assessmentHandler.GetResults)
			}
		}

		certificates := authorized.Group("/certificates")
		{
			certificates.GET("", certificateHandler.List)
			certificates.GET("/:certificateId/download", certificateHandler.Download)
		}

		admin := authorized.Group("/admin")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/competencies", questionHandler.CreateCompetency)
			admin.GET("/competencies", questionHandler.ListCompetencies)
			admin.PUT("/competencies/:competencyId", questionHandler.UpdateCompetency)
			admin.DELETE("/competencies/:competencyId", questionHandler.DeleteCompetency)
			admin.GET("/competencies/:competencyId/questions", questionHandler.ListByCompetency)
			admin.POST("/questions", questionHandler.Create)
			admin.GET("/questions/:questionId", questionHandler.Get)
			admin.PUT("/questions/:questionId", questionHandler.Update)
			admin.DELETE("/questions/:questionId", questionHandler.Deactivate)
		}
	}

	log.Println("Starting RabbitMQ consumers...")
	startConsumers(rabbitClient, notificationService)

	httpAddr := ":" + cfg.Server.HTTPPort
	log.Printf("Assessment Service HTTP server starting on port %s...", cfg.Server.HTTPPort)
	go func() {
		if err := router.Run(httpAddr); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Assessment Service stopped")
}

func startConsumers(rabbitClient *messaging.RabbitMQClient, notificationService *service.NotificationService) {
	ctx := context.Background()

	go consumeQueue(ctx, rabbitClient, service.SendCodeQueue, notificationService.HandleSendCode)
	go consumeQueue(ctx, rabbitClient, service.CertificateIssuedQueue, notificationService.HandleCertificateIssued)

	log.Println("All RabbitMQ consumers started")
}

func consumeQueue(ctx context.Context, rabbitClient *messaging.RabbitMQClient, queueName string, handler func(context.Context, []byte) error) {
	msgs, err := rabbitClient.Consume(queueName)
	if err != nil {
		log.Printf("Failed to start consumer for queue %s: %v", queueName, err)
		return
	}

	log.Printf("Started consumer for queue: %s", queueName)

	for msg := range msgs {
		if err := handler(ctx, msg.Body); err != nil {
			log.Printf("Error handling message from %s: %v", queueName, err)
			msg.Nack(false, true)
		} else {
			msg.Ack(false)
		}
	}
}
