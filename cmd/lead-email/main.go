package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/handler"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/catalog"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/config"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/paramstore"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/resend"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/usecase"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Require("PARAM_PREFIX", "BUSINESS_EMAIL"); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	resendKey, err := paramstore.NewSecret(ssmClient, paramstore.ParamName(cfg.ParamPrefix, "resend-api-key"))
	if err != nil {
		slog.Error("failed to create resend secret", "err", err)
		os.Exit(1)
	}
	sender, err := resend.NewSender(resendKey, cfg.BusinessEmail, resend.WithBusinessName(catalog.Default().Business.Name))
	if err != nil {
		slog.Error("failed to create email sender", "err", err)
		os.Exit(1)
	}

	notify, err := usecase.NewNotifyService(sender, nil, usecase.WithNotifyLogger(logger))
	if err != nil {
		slog.Error("failed to create notify service", "err", err)
		os.Exit(1)
	}
	h, err := handler.NewEmailHandler(notify, handler.WithLogger(logger))
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
