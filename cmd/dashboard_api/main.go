package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	analyticsapp "github.com/replytics/dashboard-api/internal/analytics_service/app"
	analyticsrepo "github.com/replytics/dashboard-api/internal/analytics_service/repository/postgres"
	auditapp "github.com/replytics/dashboard-api/internal/audit_service/app"
	auditrepo "github.com/replytics/dashboard-api/internal/audit_service/repository/postgres"
	billinghttp "github.com/replytics/dashboard-api/internal/billing_service/adapters/http"
	"github.com/replytics/dashboard-api/internal/billing_service/adapters/paymentgateway"
	billingapp "github.com/replytics/dashboard-api/internal/billing_service/app"
	billingrepo "github.com/replytics/dashboard-api/internal/billing_service/repository/postgres"
	businessapp "github.com/replytics/dashboard-api/internal/business_service/app"
	businessrepo "github.com/replytics/dashboard-api/internal/business_service/repository/postgres"
	calllogapp "github.com/replytics/dashboard-api/internal/calllog_service/app"
	calllogrepo "github.com/replytics/dashboard-api/internal/calllog_service/repository/postgres"
	catalogapp "github.com/replytics/dashboard-api/internal/catalog_service/app"
	catalogrepo "github.com/replytics/dashboard-api/internal/catalog_service/repository/postgres"
	customerapp "github.com/replytics/dashboard-api/internal/customer_service/app"
	customerrepo "github.com/replytics/dashboard-api/internal/customer_service/repository/postgres"
	"github.com/replytics/dashboard-api/internal/dashboard_api_service/middleware"
	httptransport "github.com/replytics/dashboard-api/internal/dashboard_api_service/transport/http"
	identityapp "github.com/replytics/dashboard-api/internal/identity_service/app"
	identityrepo "github.com/replytics/dashboard-api/internal/identity_service/repository/postgres"
	phonenumberapp "github.com/replytics/dashboard-api/internal/phonenumber_service/app"
	"github.com/replytics/dashboard-api/internal/phonenumber_service/adapters/telco"
	phonenumberrepo "github.com/replytics/dashboard-api/internal/phonenumber_service/repository/postgres"
	"github.com/replytics/dashboard-api/internal/platform/cache"
	"github.com/replytics/dashboard-api/internal/platform/config"
	"github.com/replytics/dashboard-api/internal/platform/database"
	"github.com/replytics/dashboard-api/internal/platform/logger"
	"github.com/replytics/dashboard-api/internal/platform/messagebroker"
	smsapp "github.com/replytics/dashboard-api/internal/sms_service/app"
	smsrepo "github.com/replytics/dashboard-api/internal/sms_service/repository/postgres"
	"github.com/replytics/dashboard-api/internal/voicebot"
)

const serviceName = "dashboard_api"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Dashboard API service starting...", "port", cfg.DashboardAPIPort)

	ctx := context.Background()

	dbPool, err := database.NewDBPool(ctx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Connected to PostgreSQL database")

	natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, serviceName, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("Connected to NATS")

	redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL)
	if err != nil {
		appLogger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisCache.Close()
	appLogger.Info("Connected to Redis")

	// Business configuration and tenant resolution.
	businessSvc := businessapp.NewApplication(
		businessrepo.NewPgBusinessProfileRepository(dbPool, appLogger),
		businessrepo.NewPgVoiceSettingsRepository(dbPool, appLogger),
		businessrepo.NewPgHoursRepository(dbPool, appLogger),
		natsClient,
		appLogger,
	)

	// Sessions.
	authSvc := identityapp.NewAuthService(
		identityrepo.NewPgUserRepository(dbPool),
		identityrepo.NewPgRefreshTokenRepository(dbPool),
		businessSvc,
		natsClient,
		identityapp.AuthConfig{
			JWTSecret:          cfg.JWTSecret,
			JWTExpiryHours:     cfg.JWTExpiryHours,
			RefreshExpiryHours: cfg.RefreshExpiryHours,
		},
		appLogger,
	)

	auditSvc := auditapp.NewRecorder(auditrepo.NewPgAuditEntryRepository(dbPool, appLogger), natsClient, appLogger)
	catalogSvc := catalogapp.NewApplication(catalogrepo.NewPgServiceRepository(dbPool, appLogger), appLogger)
	customerSvc := customerapp.NewApplication(customerrepo.NewPgCustomerRepository(dbPool, appLogger), appLogger)
	analyticsSvc := analyticsapp.NewApplication(analyticsrepo.NewPgAnalyticsRepository(dbPool, appLogger), appLogger)
	calllogSvc := calllogapp.NewApplication(calllogrepo.NewPgCallRepository(dbPool, appLogger), appLogger)
	smsSvc := smsapp.NewApplication(
		smsrepo.NewPgConversationRepository(dbPool, appLogger),
		smsrepo.NewPgMessageRepository(dbPool, appLogger),
		natsClient,
		appLogger,
	)
	billingSvc := billingapp.NewBillingService(
		billingrepo.NewPgSubscriptionRepository(dbPool, appLogger),
		billingrepo.NewPgInvoiceRepository(dbPool, appLogger),
		billingrepo.NewPgUsageRepository(dbPool, appLogger),
		billingrepo.NewPgProcessedEventRepository(dbPool, appLogger),
		paymentgateway.NewHMACGatewayAdapter(cfg.PaymentWebhookSecret, cfg.PaymentCheckoutBaseURL, appLogger),
		natsClient,
		appLogger,
	)
	phoneSvc := phonenumberapp.NewApplication(
		phonenumberrepo.NewPgPhoneNumberRepository(dbPool, appLogger),
		telco.NewProviderAdapter(cfg.TelcoAccountSID, cfg.PublicBaseURL, appLogger),
		appLogger,
	)

	voiceBotClient := voicebot.NewClient(voicebot.Config{
		BaseURL:    cfg.VoiceBotURL,
		JWTSecret:  cfg.VoiceBotJWTSecret,
		JWTExpiry:  time.Duration(cfg.VoiceBotJWTExpiryMins) * time.Minute,
		Timeout:    time.Duration(cfg.VoiceBotTimeoutSeconds) * time.Second,
		MaxRetries: cfg.VoiceBotMaxRetries,
		CacheTTL:   time.Duration(cfg.VoiceBotCacheTTL) * time.Second,
	}, redisCache, appLogger)

	validate := validator.New()
	authMW := middleware.AuthMiddleware(authSvc, businessSvc, appLogger)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		AuthMiddleware: authMW,
		Auth:           httptransport.NewAuthHandler(authSvc, appLogger, validate),
		Business:       httptransport.NewBusinessHandler(businessSvc, auditSvc, appLogger, validate),
		Catalog:        httptransport.NewCatalogHandler(catalogSvc, auditSvc, appLogger, validate),
		Customers:      httptransport.NewCustomerHandler(customerSvc, appLogger),
		Analytics:      httptransport.NewAnalyticsHandler(analyticsSvc, appLogger),
		Calls:          httptransport.NewCallLogHandler(calllogSvc, appLogger),
		SMS:            httptransport.NewSMSHandler(smsSvc, appLogger, validate),
		Billing:        httptransport.NewBillingHandler(billingSvc, auditSvc, appLogger, validate),
		Numbers:        httptransport.NewPhoneNumberHandler(phoneSvc, auditSvc, appLogger, validate),
		VoiceBot:       httptransport.NewVoiceBotHandler(voiceBotClient, calllogSvc, cfg.VoiceBotWebhookSecret, appLogger),
		Audit:          httptransport.NewAuditHandler(auditSvc, appLogger),
		Health:         httptransport.NewHealthHandler(dbPool, natsClient, redisCache, appLogger),
		PaymentHook:    billinghttp.NewWebhookHandler(billingSvc, appLogger),

		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.DashboardAPIPort),
		Handler: router,
	}

	go func() {
		appLogger.Info("Dashboard API server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
		}
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	<-quitChan
	appLogger.Info("Shutdown signal received, shutting down HTTP server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	} else {
		appLogger.Info("HTTP server shut down gracefully.")
	}
	appLogger.Info("Dashboard API service shut down.")
}
