package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"nexabuild-assistant/handler"
	"nexabuild-assistant/internal/app"
	"nexabuild-assistant/internal/config"
	"nexabuild-assistant/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := app.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	cfg, err = app.ResolveSecrets(ctx, cfg, awsCfg)
	if err != nil {
		slog.Error("failed to resolve provider secrets", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	limiter, err := app.NewLimiter(cfg, awsCfg)
	if err != nil {
		slog.Error("failed to create rate limiter", "err", err)
		os.Exit(1)
	}

	chatService, err := usecase.NewChatService(app.Tiers(cfg), usecase.WithLogger(logger))
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}
	app.LogProviders(logger, cfg)

	// ---- Handler ----
	h, err := handler.NewHandler(chatService,
		handler.WithLimiter(limiter),
		handler.WithAllowedOrigin(cfg.ClientOrigin),
		handler.WithLogger(logger),
	)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
