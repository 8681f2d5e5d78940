package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/handler"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/catalog"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/config"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/gateway"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/paramstore"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/resend"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/twilio"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/metrics"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/pricing"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/repository"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/server"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/usecase"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/wizard"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run every function behind one local HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address (default from HTTP_ADDR)",
				EnvVars: []string{"HTTP_ADDR"},
			},
			&cli.StringFlag{
				Name:    "gateway-key",
				Usage:   "AI gateway API key",
				EnvVars: []string{"GATEWAY_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "resend-key",
				Usage:   "Resend API key; email is disabled when empty",
				EnvVars: []string{"RESEND_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "twilio-token",
				Usage:   "Twilio auth token",
				EnvVars: []string{"TWILIO_AUTH_TOKEN"},
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	addr := c.String("addr")
	if addr == "" {
		addr = cfg.HTTPAddr
	}
	logger := slog.Default()
	cat := catalog.Default()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	gatewayClient, err := gateway.NewClient(paramstore.StaticToken(c.String("gateway-key")), gateway.WithBaseURL(cfg.GatewayBaseURL))
	if err != nil {
		return err
	}
	relay, err := usecase.NewRelayService(gatewayClient, cfg.GatewayModel, usecase.WithRelayRecorder(rec))
	if err != nil {
		return err
	}

	var email usecase.EmailSender
	if key := c.String("resend-key"); key != "" {
		sender, err := resend.NewSender(paramstore.StaticToken(key), cfg.BusinessEmail, resend.WithBusinessName(cat.Business.Name))
		if err != nil {
			return err
		}
		email = sender
	} else {
		logger.Warn("RESEND_API_KEY not set, lead email disabled")
	}
	var authToken twilio.TokenSource
	if token := c.String("twilio-token"); token != "" {
		authToken = paramstore.StaticToken(token)
	}
	sms, err := twilio.NewSender(twilio.Credentials{
		AccountSID: cfg.TwilioAccountSID,
		FromNumber: cfg.TwilioFromNumber,
		AuthToken:  authToken,
	}, cfg.BusinessPhone)
	if err != nil {
		return err
	}
	notify, err := usecase.NewNotifyService(email, sms, usecase.WithNotifyRecorder(rec), usecase.WithNotifyLogger(logger))
	if err != nil {
		return err
	}

	machine, err := wizard.New(pricing.NewCalculator(cat), notify, wizard.WithDelay(cfg.WizardDelay), wizard.WithLogger(logger))
	if err != nil {
		return err
	}
	quotes, err := usecase.NewQuoteService(machine, repository.NewMemoryStore(), cfg.BusinessPhone, usecase.WithQuoteRecorder(rec))
	if err != nil {
		return err
	}

	chatH, err := handler.NewChatHandler(relay, handler.WithLogger(logger))
	if err != nil {
		return err
	}
	emailH, err := handler.NewEmailHandler(notify, handler.WithLogger(logger))
	if err != nil {
		return err
	}
	smsH, err := handler.NewSMSHandler(notify, handler.WithLogger(logger))
	if err != nil {
		return err
	}
	quoteH, err := handler.NewQuoteHandler(quotes, handler.WithLogger(logger))
	if err != nil {
		return err
	}

	srv := server.New(server.Deps{
		Chat:     chatH,
		Email:    emailH,
		SMS:      smsH,
		Quote:    quoteH,
		Catalog:  cat,
		Gatherer: reg,
		Observer: rec,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx, addr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
