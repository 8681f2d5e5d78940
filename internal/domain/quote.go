package domain

import "github.com/shopspring/decimal"

type CleaningType string

const (
	CleaningRegular CleaningType = "regular"
	CleaningDeep    CleaningType = "deep"
)

type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

type HomeSize string

const (
	HomeSize2Bed HomeSize = "2/2"
	HomeSize3Bed HomeSize = "3/2-3"
	HomeSize4Bed HomeSize = "4/2.5-3"
	HomeSize5Bed HomeSize = "5/4"
)

type Extra string

const (
	ExtraOvenOneDoor  Extra = "oven1"
	ExtraOvenTwoDoors Extra = "oven2"
	ExtraFridge       Extra = "fridge"
	ExtraNone         Extra = "none"
)

// QuoteSelection is filled in step by step by the wizard. Frequency stays empty
// for deep cleaning.
type QuoteSelection struct {
	CleaningType CleaningType `json:"cleaningType,omitempty"`
	Frequency    Frequency    `json:"frequency,omitempty"`
	HomeSize     HomeSize     `json:"homeSize,omitempty"`
	Extras       []Extra      `json:"extras"`
}

// Quote is derived from a QuoteSelection and never stored on its own.
// Deep-clean quotes are billed hourly, so every amount is zero and
// IsDeepClean is set.
type Quote struct {
	BasePrice   decimal.Decimal `json:"basePrice"`
	ExtrasPrice decimal.Decimal `json:"extrasPrice"`
	Total       decimal.Decimal `json:"total"`
	IsDeepClean bool            `json:"isDeepClean"`
}

// QuoteSummary is the rendered quote card: display labels plus the amounts.
type QuoteSummary struct {
	CleaningType string   `json:"cleaningType"`
	Frequency    string   `json:"frequency"`
	HomeSize     string   `json:"homeSize"`
	Extras       []string `json:"extras"`
	Estimate     string   `json:"estimate"`
	Quote
}
