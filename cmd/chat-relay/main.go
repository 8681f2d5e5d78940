package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/handler"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/config"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/gateway"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/paramstore"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Require("PARAM_PREFIX", "GATEWAY_MODEL"); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	gatewayKey, err := paramstore.NewSecret(ssmClient, paramstore.ParamName(cfg.ParamPrefix, "gateway-api-key"))
	if err != nil {
		slog.Error("failed to create gateway secret", "err", err)
		os.Exit(1)
	}
	gatewayClient, err := gateway.NewClient(gatewayKey, gateway.WithBaseURL(cfg.GatewayBaseURL))
	if err != nil {
		slog.Error("failed to create gateway client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	relay, err := usecase.NewRelayService(gatewayClient, cfg.GatewayModel)
	if err != nil {
		slog.Error("failed to create relay service", "err", err)
		os.Exit(1)
	}
	h, err := handler.NewChatHandler(relay, handler.WithLogger(logger))
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
