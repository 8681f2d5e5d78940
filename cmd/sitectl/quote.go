package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/catalog"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/pricing"
)

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:  "quote",
		Usage: "Price a cleaning the way the quote wizard does",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "type",
				Aliases:  []string{"t"},
				Usage:    "Cleaning type (regular, deep)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "frequency",
				Aliases: []string{"f"},
				Usage:   "Frequency for regular cleaning (weekly, biweekly, monthly)",
			},
			&cli.StringFlag{
				Name:     "size",
				Aliases:  []string{"s"},
				Usage:    "Home size (2/2, 3/2-3, 4/2.5-3, 5/4)",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "extra",
				Aliases: []string{"e"},
				Usage:   "Extra service, repeatable (oven1, oven2, fridge, none)",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: "text",
				Usage: "Output format (text, json, sms)",
			},
		},
		Action: func(c *cli.Context) error {
			calc := pricing.NewCalculator(nil)
			sel, err := selectionFromFlags(calc.Catalog(), c.String("type"), c.String("frequency"), c.String("size"), c.StringSlice("extra"))
			if err != nil {
				return err
			}
			return printQuote(c.App.Writer, calc, sel, c.String("format"))
		},
	}
}

func selectionFromFlags(cat *catalog.Catalog, cleaningType, frequency, size string, extras []string) (domain.QuoteSelection, error) {
	if _, ok := catalog.Lookup(cat.Choices.CleaningTypes, cleaningType); !ok {
		return domain.QuoteSelection{}, fmt.Errorf("unknown cleaning type %q", cleaningType)
	}
	sel := domain.QuoteSelection{CleaningType: domain.CleaningType(cleaningType), Extras: []domain.Extra{}}

	if sel.CleaningType == domain.CleaningRegular {
		if _, ok := catalog.Lookup(cat.Choices.Frequencies, frequency); !ok {
			return domain.QuoteSelection{}, fmt.Errorf("regular cleaning needs --frequency, got %q", frequency)
		}
		sel.Frequency = domain.Frequency(frequency)
	}
	if _, ok := catalog.Lookup(cat.Choices.HomeSizes, size); !ok {
		return domain.QuoteSelection{}, fmt.Errorf("unknown home size %q", size)
	}
	sel.HomeSize = domain.HomeSize(size)

	for _, e := range extras {
		if _, ok := catalog.Lookup(cat.Choices.Extras, e); !ok {
			return domain.QuoteSelection{}, fmt.Errorf("unknown extra %q", e)
		}
		if domain.Extra(e) == domain.ExtraNone {
			continue
		}
		sel.Extras = append(sel.Extras, domain.Extra(e))
	}
	return sel, nil
}

func printQuote(w io.Writer, calc *pricing.Calculator, sel domain.QuoteSelection, format string) error {
	q := calc.Calculate(sel)
	summary := calc.Summarize(sel, q)

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	case "sms":
		_, err := fmt.Fprintln(w, calc.SMSBody(sel, q))
		return err
	case "text", "":
		_, err := fmt.Fprintf(w, "%s\n\nEstimate: %s\n", calc.Details(summary), summary.Estimate)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
