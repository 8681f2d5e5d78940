// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/gateway"
)

// Config is shared by every binary; each one reads only the fields it needs
// and checks them with the Require helpers.
type Config struct {
	ParamPrefix  string `envconfig:"PARAM_PREFIX" default:"/royaldiamond"`
	SessionTable string `envconfig:"SESSION_TABLE"`

	GatewayBaseURL string `envconfig:"GATEWAY_BASE_URL" default:"https://ai.gateway.lovable.dev/v1"`
	GatewayModel   string `envconfig:"GATEWAY_MODEL" default:"google/gemini-2.5-flash"`

	BusinessEmail string `envconfig:"BUSINESS_EMAIL" default:"neoscienzatechnology@gmail.com"`
	BusinessPhone string `envconfig:"BUSINESS_PHONE" default:"+14253996635"`

	TwilioAccountSID string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioFromNumber string `envconfig:"TWILIO_FROM_NUMBER"`

	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr    string        `envconfig:"HTTP_ADDR" default:":8080"`
	RelayURL    string        `envconfig:"RELAY_URL" default:"http://localhost:8080"`
	WizardDelay time.Duration `envconfig:"WIZARD_DELAY" default:"300ms"`
}

// Load reads the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: load: %w", err)
	}
	if cfg.GatewayModel == "" {
		cfg.GatewayModel = gateway.DefaultModel
	}
	return &cfg, nil
}

// Require fails naming the first of keys whose value is empty.
func (c *Config) Require(keys ...string) error {
	values := map[string]string{
		"PARAM_PREFIX":       c.ParamPrefix,
		"SESSION_TABLE":      c.SessionTable,
		"GATEWAY_BASE_URL":   c.GatewayBaseURL,
		"GATEWAY_MODEL":      c.GatewayModel,
		"BUSINESS_EMAIL":     c.BusinessEmail,
		"BUSINESS_PHONE":     c.BusinessPhone,
		"TWILIO_ACCOUNT_SID": c.TwilioAccountSID,
		"TWILIO_FROM_NUMBER": c.TwilioFromNumber,
		"HTTP_ADDR":          c.HTTPAddr,
		"RELAY_URL":          c.RelayURL,
	}
	for _, k := range keys {
		v, known := values[k]
		if !known {
			return fmt.Errorf("config: unknown key %s", k)
		}
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("config: missing required env %s", k)
		}
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
