// Package catalog holds the static business data of the site: the price
// tables, the wizard's choice labels, contact details, services and FAQ
// entries. The data ships embedded as YAML and can be replaced with Parse.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
)

//go:embed catalog.yaml
var embedded []byte

type Catalog struct {
	Business Business   `yaml:"business" json:"business"`
	Pricing  Pricing    `yaml:"pricing" json:"pricing"`
	Choices  Choices    `yaml:"choices" json:"choices"`
	Services []Service  `yaml:"services" json:"services"`
	FAQ      []FAQEntry `yaml:"faq" json:"faq"`
}

type Business struct {
	Name         string `yaml:"name" json:"name"`
	Phone        string `yaml:"phone" json:"phone"`
	PhoneDisplay string `yaml:"phone_display" json:"phoneDisplay"`
	Email        string `yaml:"email" json:"email"`
}

type Pricing struct {
	Currency  string                      `yaml:"currency" json:"currency"`
	Regular   map[string]map[string]int64 `yaml:"regular" json:"regular"`
	Extras    map[string]int64            `yaml:"extras" json:"extras"`
	DeepClean DeepClean                   `yaml:"deep_clean" json:"deepClean"`
}

// DeepClean describes the hourly terms quoted instead of a fixed total.
type DeepClean struct {
	Terms      string `yaml:"terms" json:"terms"`
	ShortTerms string `yaml:"short_terms" json:"shortTerms"`
	Note       string `yaml:"note" json:"note"`
}

type Choices struct {
	CleaningTypes []Choice `yaml:"cleaning_types" json:"cleaningTypes"`
	Frequencies   []Choice `yaml:"frequencies" json:"frequencies"`
	HomeSizes     []Choice `yaml:"home_sizes" json:"homeSizes"`
	Extras        []Choice `yaml:"extras" json:"extras"`
}

// Choice is one selectable value. Label is what the transcript records for
// the visitor's answer; Button is the text on the option, when it differs.
type Choice struct {
	Value  string `yaml:"value" json:"value"`
	Label  string `yaml:"label" json:"label"`
	Button string `yaml:"button,omitempty" json:"button,omitempty"`
}

// ButtonText returns the option text shown to the visitor.
func (c Choice) ButtonText() string {
	if c.Button != "" {
		return c.Button
	}
	return c.Label
}

type Service struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

type FAQEntry struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog. The embedded document is validated
// by the package tests, so a parse failure here is a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded catalog is invalid: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}

// Parse decodes and validates a catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if strings.TrimSpace(c.Business.Phone) == "" {
		return errors.New("catalog: business phone is required")
	}
	if len(c.Choices.CleaningTypes) == 0 || len(c.Choices.HomeSizes) == 0 {
		return errors.New("catalog: cleaning types and home sizes are required")
	}
	for _, f := range c.Choices.Frequencies {
		row, ok := c.Pricing.Regular[f.Value]
		if !ok {
			return fmt.Errorf("catalog: no price row for frequency %q", f.Value)
		}
		for _, s := range c.Choices.HomeSizes {
			if _, ok := row[s.Value]; !ok {
				return fmt.Errorf("catalog: no price for frequency %q and home size %q", f.Value, s.Value)
			}
		}
	}
	for _, e := range c.Choices.Extras {
		if _, ok := c.Pricing.Extras[e.Value]; !ok {
			return fmt.Errorf("catalog: no price for extra %q", e.Value)
		}
	}
	return nil
}

// BasePrice returns the standard plan price, or 0 when the table has no entry.
func (c *Catalog) BasePrice(f domain.Frequency, s domain.HomeSize) int64 {
	return c.Pricing.Regular[string(f)][string(s)]
}

// ExtraPrice returns the flat price of an extra, or 0 when unknown.
func (c *Catalog) ExtraPrice(e domain.Extra) int64 {
	return c.Pricing.Extras[string(e)]
}

// Lookup finds the choice with the given value in a list.
func Lookup(choices []Choice, value string) (Choice, bool) {
	for _, ch := range choices {
		if ch.Value == value {
			return ch, true
		}
	}
	return Choice{}, false
}

// LabelFor returns the label of value, falling back to the raw value.
func LabelFor(choices []Choice, value string) string {
	if ch, ok := Lookup(choices, value); ok {
		return ch.Label
	}
	return value
}
