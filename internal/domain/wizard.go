package domain

import "time"

type WizardStep string

const (
	StepCleaningType WizardStep = "cleaningType"
	StepFrequency    WizardStep = "frequency"
	StepHomeSize     WizardStep = "homeSize"
	StepExtras       WizardStep = "extras"
	StepQuote        WizardStep = "quote"
)

type Speaker string

const (
	SpeakerBot  Speaker = "bot"
	SpeakerUser Speaker = "user"
)

// Option is one button offered by a bot turn.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// WizardTurn is one entry of the wizard transcript.
type WizardTurn struct {
	Speaker Speaker       `json:"type"`
	Content string        `json:"content"`
	Options []Option      `json:"options,omitempty"`
	Quote   *QuoteSummary `json:"quoteData,omitempty"`
}

// WizardSession is the complete per-visitor wizard state. NotificationSent is
// the one-shot guard for the quote email and is cleared only by a reset.
type WizardSession struct {
	ID               string         `json:"id"`
	Step             WizardStep     `json:"step"`
	Selection        QuoteSelection `json:"selection"`
	Transcript       []WizardTurn   `json:"transcript"`
	NotificationSent bool           `json:"notificationSent"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	TTL              int64          `json:"-"`
}
