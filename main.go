package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/youssefabdellah10/craftopia-sub000/config"
	"github.com/youssefabdellah10/craftopia-sub000/controllers"
	"github.com/youssefabdellah10/craftopia-sub000/middleware"
	"github.com/youssefabdellah10/craftopia-sub000/models"
	"github.com/youssefabdellah10/craftopia-sub000/services"
	"github.com/youssefabdellah10/craftopia-sub000/utils"
)

func main() {
	log.Println("Starting Craftopia API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(config.GetDB()); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configureImageService(ctx, cfg)
	configureEmailService(cfg)
	closePublisher := configureEventPublisher(cfg)
	defer closePublisher()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(cfg, middleware.EnsureValidToken(cfg))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server is running on http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shut down: %v", err)
	}

	// let queued emails and events finish
	services.GetTaskRunner().Wait()
	log.Println("Server stopped")
}

// setupRouter wires every route. auth authenticates the caller and sets
// the context keys read by middleware.GetUserID and friends.
func setupRouter(cfg *config.Config, auth gin.HandlerFunc) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(corsConfig(cfg)))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)
		v1.GET("/uploads/:filename", controllers.GetUploadedImage)
	}

	authed := v1.Group("", auth)
	{
		authed.POST("/users", controllers.CreateUser)
		authed.GET("/users/me", controllers.GetMyProfile)
		authed.PUT("/users/me", controllers.UpdateMyProfile)

		requests := authed.Group("/customization-requests")
		requests.POST("", controllers.CreateCustomizationRequest)
		requests.GET("/open", controllers.ListOpenCustomizationRequests)
		requests.GET("/mine", controllers.ListMyCustomizationRequests)
		requests.GET("/mine/no-offers", controllers.ListMyCustomizationRequestsWithoutOffers)
		requests.GET("/:id", controllers.GetCustomizationRequest)
		requests.PATCH("/:id/close", controllers.CloseCustomizationRequest)
		requests.POST("/:id/responses", controllers.RespondToCustomizationRequest)

		responses := authed.Group("/customization-responses")
		responses.GET("/mine", controllers.ListMyCustomizationResponses)
		responses.GET("/artist-mine", controllers.ListArtistCustomizationResponses)
		responses.PATCH("/:id/accept", controllers.AcceptCustomizationResponse)
		responses.PATCH("/:id/decline", controllers.DeclineCustomizationResponse)

		orders := authed.Group("/orders")
		orders.GET("", controllers.ListMyOrders)
		orders.GET("/:id", controllers.GetOrder)
		orders.GET("/:id/messages", controllers.ListMessages)
		orders.POST("/:id/messages", controllers.SendMessage)
	}

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		corsCfg.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
	}
	return corsCfg
}

func configureImageService(ctx context.Context, cfg *config.Config) {
	utils.UploadDir = cfg.UploadDir

	if !cfg.UsesS3() {
		log.Printf("AWS_S3_BUCKET not set, storing images under %s", cfg.UploadDir)
		services.SetImageService(services.NewLocalImageService(cfg.UploadDir))
		return
	}

	s3Service, err := services.NewS3Service(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize S3: %v", err)
	}
	services.SetImageService(services.NewS3ImageService(s3Service))
	log.Printf("Storing images in S3 bucket %s", cfg.AWSS3Bucket)
}

func configureEmailService(cfg *config.Config) {
	if cfg.SendGridAPIKey == "" {
		log.Println("SENDGRID_API_KEY not set, emails will only be logged")
		return
	}

	mailer, err := services.NewSendGridEmailService(cfg.SendGridAPIKey, cfg.MailFrom)
	if err != nil {
		log.Fatalf("Failed to initialize SendGrid: %v", err)
	}
	services.SetEmailService(mailer)
}

func configureEventPublisher(cfg *config.Config) func() {
	if cfg.RabbitMQURL == "" {
		log.Println("RABBITMQ_URL not set, domain events are disabled")
		return func() {}
	}

	publisher, err := services.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.EventsExchange)
	if err != nil {
		// events are best-effort, the API still works without them
		log.Printf("Failed to connect to RabbitMQ, domain events are disabled: %v", err)
		return func() {}
	}
	services.SetEventPublisher(publisher)
	return publisher.Close
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Craftopia API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"dialect": db.Dialector.Name(),
		"tables":  tables,
	})
}
