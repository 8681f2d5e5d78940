// Package wizard drives the guided quote conversation: one question per step,
// a fixed option set per question, and a priced quote card at the end.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/catalog"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/pricing"
)

const (
	DefaultDelay = 300 * time.Millisecond

	greeting        = "Hello! 👋 Get your cleaning quote in seconds."
	askCleaningType = "What type of cleaning do you need?"
	askFrequency    = "How often?"
	askHomeSize     = "How many bedrooms and bathrooms?"
	askExtras       = "Any extras?"
	askSchedule     = "Would you like to schedule now?"
)

var (
	// ErrInvalidChoice is returned for a value outside the current step's options.
	ErrInvalidChoice = errors.New("wizard: choice is not offered at this step")
	// ErrFinished is returned for any choice after the quote has been shown.
	ErrFinished = errors.New("wizard: quote already shown, reset to start over")
)

// QuoteNotifier delivers the quote email. It is called at most once per
// session run; a reset allows one more.
type QuoteNotifier interface {
	NotifyQuote(ctx context.Context, n domain.LeadNotification) error
}

type Machine struct {
	calc     *pricing.Calculator
	notifier QuoteNotifier
	delay    time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Machine)

// WithDelay sets the pause between the visitor's answer and the next bot turn.
func WithDelay(d time.Duration) Option {
	return func(m *Machine) {
		if d >= 0 {
			m.delay = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

func New(calc *pricing.Calculator, notifier QuoteNotifier, opts ...Option) (*Machine, error) {
	if notifier == nil {
		return nil, errors.New("wizard: quote notifier must not be nil")
	}
	if calc == nil {
		calc = pricing.NewCalculator(nil)
	}
	m := &Machine{
		calc:     calc,
		notifier: notifier,
		delay:    DefaultDelay,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Start seeds an empty session with the greeting and the first question. A
// session that already has a transcript is left alone.
func (m *Machine) Start(s *domain.WizardSession) []domain.WizardTurn {
	if len(s.Transcript) > 0 {
		return nil
	}
	s.Step = domain.StepCleaningType
	s.Selection = domain.QuoteSelection{Extras: []domain.Extra{}}
	turns := []domain.WizardTurn{
		{Speaker: domain.SpeakerBot, Content: greeting},
		m.question(domain.StepCleaningType),
	}
	s.Transcript = append(s.Transcript, turns...)
	s.UpdatedAt = m.now().UTC()
	return turns
}

// Reset discards the run, including the notification guard, and starts over.
func (m *Machine) Reset(s *domain.WizardSession) []domain.WizardTurn {
	s.Transcript = nil
	s.NotificationSent = false
	return m.Start(s)
}

// Options returns the buttons offered at step. The quote step has none.
func (m *Machine) Options(step domain.WizardStep) []domain.Option {
	choices := m.choices(step)
	out := make([]domain.Option, 0, len(choices))
	for _, c := range choices {
		out = append(out, domain.Option{Value: c.Value, Label: c.ButtonText()})
	}
	return out
}

// Select records the visitor's answer for the current step, waits the
// configured delay and appends the next bot turn. It returns the turns it
// appended. An empty session is started first; on error the session is
// otherwise unchanged.
func (m *Machine) Select(ctx context.Context, s *domain.WizardSession, value string) ([]domain.WizardTurn, error) {
	m.Start(s)
	if s.Step == domain.StepQuote {
		return nil, ErrFinished
	}
	choice, ok := catalog.Lookup(m.choices(s.Step), value)
	if !ok {
		return nil, fmt.Errorf("%w: %q at step %s", ErrInvalidChoice, value, s.Step)
	}

	if err := m.pause(ctx); err != nil {
		return nil, fmt.Errorf("wizard: %w", err)
	}

	turns := []domain.WizardTurn{{Speaker: domain.SpeakerUser, Content: choice.Label}}
	sel := &s.Selection
	switch s.Step {
	case domain.StepCleaningType:
		sel.CleaningType = domain.CleaningType(value)
		if sel.CleaningType == domain.CleaningDeep {
			sel.Frequency = ""
			s.Step = domain.StepHomeSize
		} else {
			s.Step = domain.StepFrequency
		}
		turns = append(turns, m.question(s.Step))
	case domain.StepFrequency:
		sel.Frequency = domain.Frequency(value)
		s.Step = domain.StepHomeSize
		turns = append(turns, m.question(s.Step))
	case domain.StepHomeSize:
		sel.HomeSize = domain.HomeSize(value)
		s.Step = domain.StepExtras
		turns = append(turns, m.question(s.Step))
	case domain.StepExtras:
		if domain.Extra(value) == domain.ExtraNone {
			sel.Extras = []domain.Extra{}
		} else {
			sel.Extras = []domain.Extra{domain.Extra(value)}
		}
		s.Step = domain.StepQuote
		summary := m.calc.Summarize(*sel, m.calc.Calculate(*sel))
		turns = append(turns, domain.WizardTurn{
			Speaker: domain.SpeakerBot,
			Content: askSchedule,
			Quote:   &summary,
		})
		m.notifyOnce(ctx, s, summary)
	}

	s.Transcript = append(s.Transcript, turns...)
	s.UpdatedAt = m.now().UTC()
	return turns, nil
}

// SMSBody renders the "schedule by SMS" text for a finished session.
func (m *Machine) SMSBody(s *domain.WizardSession) string {
	return m.calc.SMSBody(s.Selection, m.calc.Calculate(s.Selection))
}

func (m *Machine) notifyOnce(ctx context.Context, s *domain.WizardSession, summary domain.QuoteSummary) {
	if s.NotificationSent {
		return
	}
	if err := m.notifier.NotifyQuote(ctx, m.calc.Notification(summary)); err != nil {
		m.logger.Error("failed to send quote email", "err", err, "session_id", s.ID)
		return
	}
	s.NotificationSent = true
}

func (m *Machine) pause(ctx context.Context) error {
	if m.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *Machine) question(step domain.WizardStep) domain.WizardTurn {
	var text string
	switch step {
	case domain.StepCleaningType:
		text = askCleaningType
	case domain.StepFrequency:
		text = askFrequency
	case domain.StepHomeSize:
		text = askHomeSize
	case domain.StepExtras:
		text = askExtras
	}
	return domain.WizardTurn{Speaker: domain.SpeakerBot, Content: text, Options: m.Options(step)}
}

func (m *Machine) choices(step domain.WizardStep) []catalog.Choice {
	ch := m.calc.Catalog().Choices
	switch step {
	case domain.StepCleaningType:
		return ch.CleaningTypes
	case domain.StepFrequency:
		return ch.Frequencies
	case domain.StepHomeSize:
		return ch.HomeSizes
	case domain.StepExtras:
		return ch.Extras
	}
	return nil
}
