package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/chat"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/config"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/functions"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/widget"
)

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Talk to the chat relay from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "relay-url",
				Usage: "Base URL of the functions deployment (default from RELAY_URL)",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Publishable key sent to the functions gateway",
				EnvVars: []string{"FUNCTIONS_API_KEY"},
			},
		},
		Action: func(c *cli.Context) error {
			relayURL, err := resolveRelayURL(c.String("relay-url"))
			if err != nil {
				return err
			}
			client, err := functions.NewClient(relayURL, functions.WithAPIKey(c.String("api-key")))
			if err != nil {
				return err
			}
			session, err := chat.NewSession(client, client)
			if err != nil {
				return err
			}
			return runChat(c.Context, session, c.App.Reader, c.App.Writer)
		},
	}
}

// resolveRelayURL prefers the flag and falls back to RELAY_URL.
func resolveRelayURL(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if err := cfg.Require("RELAY_URL"); err != nil {
		return "", err
	}
	return cfg.RelayURL, nil
}

func runChat(ctx context.Context, session *chat.Session, in io.Reader, out io.Writer) error {
	var open widget.Signal
	panel := widget.NewPanel(&open, func() {
		fmt.Fprintf(out, "bot> %s\n", session.Messages()[0].Content)
	})
	defer panel.Detach()
	open.Publish()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := scanner.Text()
		if strings.TrimSpace(text) == "/quit" {
			return nil
		}

		fmt.Fprint(out, "bot> ")
		printed := ""
		res, err := session.Send(ctx, text, func(partial string) {
			if strings.HasPrefix(partial, printed) {
				fmt.Fprint(out, partial[len(printed):])
				printed = partial
			}
		})
		if errors.Is(err, chat.ErrEmptyMessage) {
			fmt.Fprintln(out)
			continue
		}
		if err != nil {
			return err
		}
		if res.Degraded {
			if printed != "" {
				fmt.Fprint(out, "\nbot> ")
			}
			fmt.Fprint(out, res.Reply)
		} else if printed != res.Reply {
			fmt.Fprint(out, "\r\033[Kbot> "+res.Reply)
		}
		fmt.Fprintln(out)
		if res.Notified {
			fmt.Fprintf(out, "  (lead sent: %s %s)\n", res.Lead.Name, res.Lead.Phone)
		}
	}
}
