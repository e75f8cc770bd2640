// @title           Agency Backend API
// @version         1.0.0
// @description     Backend API for a digital agency: authentication, paid order intake with file uploads, two-phase Stripe payments, consultation booking and real-time admin dashboards.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"agency-backend/docs"
	"agency-backend/internal/config"
	"agency-backend/internal/database"
	"agency-backend/internal/email"
	"agency-backend/internal/handlers"
	"agency-backend/internal/meet"
	"agency-backend/internal/middleware"
	"agency-backend/internal/payments"
	"agency-backend/internal/realtime"
	"agency-backend/internal/services"
	"agency-backend/internal/storage"
	"agency-backend/internal/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var logger *zap.Logger
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		if baseURL, err := url.Parse(cfg.BaseURL); err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		logger.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		logger.Fatal("failed to ensure indexes", zap.Error(err))
	}

	storageClient, err := storage.NewClient(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}

	paymentsClient := payments.NewClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	mailer := email.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)
	outbox := email.NewOutbox(mailer, logger, 256)
	outbox.Start(2)

	hub := realtime.NewHub(logger)
	watcher := realtime.NewWatcher(db, hub, logger)
	watcher.Start(ctx)

	var linkGen meet.LinkGenerator
	if cfg.CalendarEnabled() {
		calendarClient, err := meet.NewCalendarClient(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRefreshToken)
		if err != nil {
			logger.Error("failed to initialize google calendar, using static meeting links", zap.Error(err))
			linkGen = meet.StaticLinkGenerator{BaseURL: cfg.FrontendURL}
		} else {
			linkGen = calendarClient
		}
	} else {
		logger.Info("google calendar not configured, using static meeting links")
		linkGen = meet.StaticLinkGenerator{BaseURL: cfg.FrontendURL}
	}

	orderService := services.NewOrderService(db, db, db, db, storageClient, paymentsClient, outbox, hub, logger, cfg.FrontendURL)
	meetingService := services.NewMeetingService(db, db, db, outbox, logger)

	sweeper := workers.NewSweeper(db, storageClient, logger)
	reminder := workers.NewReminder(db, linkGen, outbox, logger)
	cronRunner := workers.StartCron(sweeper, reminder, logger)

	authHandler := handlers.NewAuthHandler(db, cfg, outbox, logger)
	contactHandler := handlers.NewContactHandler(db, outbox)
	servicesHandler := handlers.NewServicesHandler(db, storageClient, logger)
	ordersHandler := handlers.NewOrdersHandler(orderService, db)
	checkoutHandler := handlers.NewCheckoutHandler(orderService, paymentsClient)
	webhookHandler := handlers.NewWebhookHandler(paymentsClient, orderService, logger)
	meetingsHandler := handlers.NewMeetingsHandler(meetingService, db)
	cancelHandler := handlers.NewCancelHandler(orderService, db)
	adminHandler := handlers.NewAdminHandler(orderService, db)
	notificationsHandler := handlers.NewNotificationsHandler(db)
	downloadHandler := handlers.NewDownloadHandler(db, storageClient, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.FrontendURL))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", handlers.HealthHandler)
	router.GET("/ws", hub.ServeWS)

	api := router.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/otp/request", authHandler.RequestOTP)
	api.POST("/auth/otp/verify", authHandler.VerifyOTP)
	api.POST("/auth/google", authHandler.GoogleLogin)
	api.POST("/contact", contactHandler.SubmitContact)
	api.GET("/services", servicesHandler.ListServices)
	api.POST("/stripe/webhook", webhookHandler.HandleWebhook)

	// Authenticated routes
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(cfg))

	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/order", ordersHandler.StageOrder)
	authed.GET("/order/mine", ordersHandler.GetUserOrders)
	authed.POST("/order/create-checkout-session", checkoutHandler.CreateCheckoutSession)
	authed.POST("/order/finalize", checkoutHandler.FinalizeOrder)
	authed.GET("/order/check-session/:sessionId", checkoutHandler.CheckSession)
	authed.POST("/scheduled-meetings", meetingsHandler.ScheduleMeeting)
	authed.POST("/cancel-requests", cancelHandler.CreateCancelRequest)

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware())

	admin.GET("/orders", adminHandler.ListOrders)
	admin.POST("/orders/:id/complete", adminHandler.CompleteOrder)
	admin.DELETE("/orders/:id", adminHandler.CancelOrder)
	admin.GET("/orders/:id/download", downloadHandler.DownloadOrder)
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/contacts", adminHandler.ListContacts)
	admin.GET("/stats", adminHandler.Stats)
	admin.POST("/services", servicesHandler.CreateService)
	admin.PUT("/services/:id", servicesHandler.UpdateService)
	admin.DELETE("/services/:id", servicesHandler.DeleteService)
	admin.GET("/scheduled-meetings", meetingsHandler.ListMeetings)
	admin.PATCH("/scheduled-meetings/:id/accept", meetingsHandler.AcceptMeeting)
	admin.PATCH("/scheduled-meetings/:id/reschedule", meetingsHandler.RescheduleMeeting)
	admin.GET("/cancel-requests", cancelHandler.ListCancelRequests)
	admin.POST("/cancel-requests/:id/accept", cancelHandler.AcceptCancelRequest)
	admin.POST("/cancel-requests/:id/decline", cancelHandler.DeclineCancelRequest)
	admin.GET("/notifications", notificationsHandler.ListNotifications)
	admin.PATCH("/notifications/viewed", notificationsHandler.MarkViewed)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	<-cronRunner.Stop().Done()
	outbox.Close()
	if err := db.Close(shutdownCtx); err != nil {
		logger.Error("failed to close mongodb connection", zap.Error(err))
	}
}
