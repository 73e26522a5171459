package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"social-hub/domain/repository"
	"social-hub/infrastructure/cache"
	facebookclient "social-hub/infrastructure/clients/facebook"
	instagramclient "social-hub/infrastructure/clients/instagram"
	tiktokclient "social-hub/infrastructure/clients/tiktok"
	"social-hub/infrastructure/configuration"
	"social-hub/infrastructure/logger"
	"social-hub/infrastructure/oauthstate"
	"social-hub/infrastructure/persistence"
	"social-hub/infrastructure/pubsub"
	"social-hub/infrastructure/realtime"
	"social-hub/infrastructure/servicebus"
	httpHandler "social-hub/interfaces/http"
	"social-hub/server"
	"social-hub/usecase"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	psqlDb, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("PostgreSQL initialization failed")
		os.Exit(1)
	}
	if err := persistence.EnsureSchema(psqlDb); err != nil {
		logger.GetLogger().WithField("error", err).Error("Schema setup failed")
		os.Exit(1)
	}
	logger.GetLogger().Info("Database connected.")

	mongoDb, err := persistence.NewMongoDb(ctx)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without audit trail")
		mongoDb = nil
	} else {
		logger.GetLogger().Info("MongoDB connected successfully")
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - continuing without eventing")
		pubSubClient = nil
	}

	azServiceBusClient, err := servicebus.NewServiceBusClient(configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without webhook fan-out")
		azServiceBusClient = nil
	}

	redisClient, _ := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	replayGuard := cache.NewReplayGuard(redisClient, oauthstate.MaxAge)
	analyticsCache := cache.NewAnalyticsCache(redisClient, time.Duration(configuration.C.Analytics.CacheTTLSeconds)*time.Second)

	// Repository wiring: channels and posts can live on Azure SQL in production
	// while users stay on PostgreSQL.
	channelRepository := repository.IChannel(persistence.NewChannelRepository(psqlDb))
	postRepository := repository.IPost(persistence.NewPostRepository(psqlDb))
	if configuration.C.Database.Mssql.Host != "" {
		mssqlDb, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("MSSQL initialization failed; falling back to PostgreSQL")
		} else {
			channelRepository = persistence.NewChannelRepositoryMSSQL(mssqlDb)
			postRepository = persistence.NewPostRepositoryMSSQL(mssqlDb)
		}
	}
	userRepository := persistence.NewUserRepository(psqlDb)
	auditRepository := persistence.NewAuditRepository(mongoDb)

	fbClient := facebookclient.NewClient(configuration.GetPlatformConfig("facebook"))
	igClient := instagramclient.NewClient(configuration.GetPlatformConfig("instagram"))
	tkClient := tiktokclient.NewClient(configuration.GetPlatformConfig("tiktok"))

	notifier := pubsub.NewNotifier(pubSubClient, configuration.C.Pubsub.Topic)
	webhookQueue := servicebus.NewWebhookQueue(azServiceBusClient, configuration.C.ServiceBus.Queue)
	stateCodec := oauthstate.NewCodec(app.SecretKey)
	publishHub := realtime.NewPublishHub()

	connectUsecase := usecase.NewConnectUsecase(channelRepository, auditRepository, stateCodec, replayGuard, notifier, fbClient, igClient, tkClient)
	analyticsUsecase := usecase.NewAnalyticsUsecase(fbClient, igClient, tkClient, analyticsCache)
	publishUsecase := usecase.NewPublishUsecase(channelRepository, postRepository, auditRepository, notifier, publishHub, fbClient, igClient)
	webhookUsecase := usecase.NewWebhookUsecase(channelRepository, auditRepository, webhookQueue, fbClient, configuration.C.Webhook.VerifyToken)
	metricsUsecase := usecase.NewMetricsUsecase(channelRepository, postRepository, analyticsUsecase, notifier)
	userUsecase := usecase.NewUserUsecase(userRepository)

	userHandler := httpHandler.NewUserHandler(userUsecase)
	healthHandler := httpHandler.NewHealthHandler()
	connectHandler := httpHandler.NewConnectHandler(connectUsecase, channelRepository)
	analyticsHandler := httpHandler.NewAnalyticsHandler(analyticsUsecase, channelRepository)
	publishHandler := httpHandler.NewPublishHandler(publishUsecase, postRepository)
	webhookHandler := httpHandler.NewWebhookHandler(webhookUsecase)

	if os.Getenv("ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.InitiateRouter(
		userHandler,
		healthHandler,
		connectHandler,
		analyticsHandler,
		publishHandler,
		webhookHandler,
		userRepository,
		publishHub,
	)

	httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.GetLogger().WithField("port", app.Port).Info("HTTP server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		interval := time.Duration(configuration.C.Analytics.MetricsInterval) * time.Second
		metricsUsecase.Run(ctx, interval)
		return nil
	})

	g.Go(func() error {
		select {
		case sig := <-interrupt:
			logger.GetLogger().WithField("signal", sig.String()).Info("Shutdown signal received")
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server exited with error")
	}
	logger.GetLogger().Info("Server stopped")
}
