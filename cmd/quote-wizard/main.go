package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/handler"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/catalog"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/config"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/paramstore"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/resend"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/pricing"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/repository"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/usecase"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/wizard"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Require("PARAM_PREFIX", "SESSION_TABLE", "BUSINESS_EMAIL", "BUSINESS_PHONE"); err != nil {
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

	// ---- Clients ----
	store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.SessionTable)
	if err != nil {
		slog.Error("failed to create session store", "err", err)
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
	cat := catalog.Default()
	sender, err := resend.NewSender(resendKey, cfg.BusinessEmail, resend.WithBusinessName(cat.Business.Name))
	if err != nil {
		slog.Error("failed to create email sender", "err", err)
		os.Exit(1)
	}

	// ---- Use cases ----
	notify, err := usecase.NewNotifyService(sender, nil, usecase.WithNotifyLogger(logger))
	if err != nil {
		slog.Error("failed to create notify service", "err", err)
		os.Exit(1)
	}
	machine, err := wizard.New(pricing.NewCalculator(cat), notify, wizard.WithDelay(cfg.WizardDelay), wizard.WithLogger(logger))
	if err != nil {
		slog.Error("failed to create wizard", "err", err)
		os.Exit(1)
	}
	quotes, err := usecase.NewQuoteService(machine, store, cfg.BusinessPhone)
	if err != nil {
		slog.Error("failed to create quote service", "err", err)
		os.Exit(1)
	}
	h, err := handler.NewQuoteHandler(quotes, handler.WithLogger(logger))
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
