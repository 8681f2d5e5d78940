package usecase

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/wizard"
)

// SessionStore keeps wizard sessions between stateless invocations.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (domain.WizardSession, bool, error)
	SaveSession(ctx context.Context, s domain.WizardSession) error
}

type QuoteService struct {
	machine *wizard.Machine
	store   SessionStore
	phone   string
	rec     Recorder
}

type QuoteInput struct {
	SessionID string
	Choice    string
	Reset     bool
}

// ScheduleLinks are the call and text shortcuts offered under a finished quote.
type ScheduleLinks struct {
	Call string `json:"call"`
	SMS  string `json:"sms"`
}

type QuoteOutput struct {
	SessionID string
	Step      domain.WizardStep
	Messages  []domain.WizardTurn
	Quote     *domain.QuoteSummary
	Schedule  *ScheduleLinks
}

type QuoteOption func(*QuoteService)

func WithQuoteRecorder(r Recorder) QuoteOption {
	return func(s *QuoteService) {
		if r != nil {
			s.rec = r
		}
	}
}

// NewQuoteService wires the wizard to a session store. businessPhone is the
// E.164 number used for the scheduling links.
func NewQuoteService(m *wizard.Machine, store SessionStore, businessPhone string, opts ...QuoteOption) (*QuoteService, error) {
	if m == nil {
		return nil, errors.New("usecase: wizard must not be nil")
	}
	if store == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	businessPhone = strings.TrimSpace(businessPhone)
	if businessPhone == "" {
		return nil, errors.New("usecase: business phone must not be empty")
	}
	s := &QuoteService{machine: m, store: store, phone: businessPhone, rec: nopRecorder{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Advance loads the session, applies at most one action (reset, a choice, or
// nothing, which just starts the session) and saves it back. Unknown or
// expired session ids start over under the same id.
func (s *QuoteService) Advance(ctx context.Context, in QuoteInput) (QuoteOutput, error) {
	id := strings.TrimSpace(in.SessionID)
	var sess domain.WizardSession
	if id == "" {
		sess.ID = newUUID()
	} else {
		loaded, found, err := s.store.GetSession(ctx, id)
		if err != nil {
			return QuoteOutput{}, newError(ErrorInternal, "session_read_error", err)
		}
		if found {
			sess = loaded
		}
		sess.ID = id
	}

	choice := strings.TrimSpace(in.Choice)
	switch {
	case in.Reset:
		s.machine.Reset(&sess)
		s.rec.QuoteStep("reset")
	case choice != "":
		if _, err := s.machine.Select(ctx, &sess, choice); err != nil {
			if errors.Is(err, wizard.ErrInvalidChoice) {
				return QuoteOutput{}, newError(ErrorInvalidInput, "invalid_choice", err)
			}
			if errors.Is(err, wizard.ErrFinished) {
				return QuoteOutput{}, newError(ErrorInvalidInput, "wizard_finished", err)
			}
			return QuoteOutput{}, newError(ErrorInternal, "wizard_error", err)
		}
		s.rec.QuoteStep(string(sess.Step))
	default:
		if s.machine.Start(&sess) != nil {
			s.rec.QuoteStep("start")
		}
	}

	if err := s.store.SaveSession(ctx, sess); err != nil {
		return QuoteOutput{}, newError(ErrorInternal, "session_write_error", err)
	}
	return s.output(sess), nil
}

func (s *QuoteService) output(sess domain.WizardSession) QuoteOutput {
	out := QuoteOutput{
		SessionID: sess.ID,
		Step:      sess.Step,
		Messages:  sess.Transcript,
	}
	if sess.Step != domain.StepQuote {
		return out
	}
	for i := len(sess.Transcript) - 1; i >= 0; i-- {
		if q := sess.Transcript[i].Quote; q != nil {
			out.Quote = q
			break
		}
	}
	out.Schedule = &ScheduleLinks{
		Call: "tel:" + s.phone,
		SMS:  "sms:" + s.phone + "?body=" + escapeSMSBody(s.machine.SMSBody(&sess)),
	}
	return out
}

// escapeSMSBody query-escapes body with spaces as %20, which SMS apps show
// literally when written as +.
func escapeSMSBody(body string) string {
	return strings.ReplaceAll(url.QueryEscape(body), "+", "%20")
}

var newUUID = func() string {
	return uuid.NewString()
}
