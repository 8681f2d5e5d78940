package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/functions"
)

type fakeRelay struct {
	body    io.Reader
	err     error
	gotMsgs []domain.ChatMessage
	block   chan struct{}
}

func (f *fakeRelay) StreamChat(_ context.Context, msgs []domain.ChatMessage) (io.ReadCloser, error) {
	f.gotMsgs = msgs
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(f.body), nil
}

type fakeNotifier struct {
	mu  sync.Mutex
	got []domain.LeadNotification
	err error
}

func (f *fakeNotifier) NotifyLead(_ context.Context, n domain.LeadNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, n)
	return f.err
}

func sse(fragments ...string) string {
	var b strings.Builder
	for _, f := range fragments {
		fmt.Fprintf(&b, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", f)
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

func newSession(t *testing.T, r Relay, n LeadNotifier) *Session {
	t.Helper()
	s, err := NewSession(r, n)
	require.NoError(t, err)
	return s
}

func TestNewSession_SeedsGreeting(t *testing.T) {
	_, err := NewSession(nil, &fakeNotifier{})
	require.Error(t, err)
	_, err = NewSession(&fakeRelay{}, nil)
	require.Error(t, err)

	s := newSession(t, &fakeRelay{}, &fakeNotifier{})
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, domain.RoleAssistant, msgs[0].Role)
	require.Equal(t, Greeting, msgs[0].Content)
}

func TestSend_StreamsAndNotifiesOnce(t *testing.T) {
	marker := `[LEAD_CAPTURED: name="Jane", phone="+15551234567", service="Deep Cleaning", estimate="$200"]`
	relay := &fakeRelay{body: strings.NewReader(sse("Thanks ", "Jane! ", marker))}
	notifier := &fakeNotifier{}
	s := newSession(t, relay, notifier)

	var updates []string
	res, err := s.Send(context.Background(), "  My name is Jane  ", func(p string) { updates = append(updates, p) })
	require.NoError(t, err)

	require.Equal(t, []string{"Thanks", "Thanks Jane!", "Thanks Jane!"}, updates)
	require.Equal(t, "Thanks Jane!", res.Reply)
	require.False(t, res.Degraded)
	require.True(t, res.Notified)
	require.NotNil(t, res.Lead)
	require.Equal(t, "Jane", res.Lead.Name)

	require.Len(t, notifier.got, 1)
	require.Equal(t, "+15551234567", notifier.got[0].Phone)
	require.Equal(t, "Deep Cleaning", notifier.got[0].Service)
	require.Equal(t, "$200", notifier.got[0].Estimate)

	require.Len(t, relay.gotMsgs, 2)
	require.Equal(t, "My name is Jane", relay.gotMsgs[1].Content)

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, "Thanks Jane!", msgs[2].Content)
}

func TestSend_MarkerWithoutPhoneDoesNotNotify(t *testing.T) {
	relay := &fakeRelay{body: strings.NewReader(sse(`Great! [LEAD_CAPTURED: name="Jane"]`))}
	notifier := &fakeNotifier{}
	s := newSession(t, relay, notifier)

	res, err := s.Send(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.Equal(t, "Great!", res.Reply)
	require.NotNil(t, res.Lead)
	require.False(t, res.Notified)
	require.Empty(t, notifier.got)
}

func TestSend_NotifierFailureKeepsReply(t *testing.T) {
	relay := &fakeRelay{body: strings.NewReader(sse(`Ok [LEAD_CAPTURED: phone="+1555"]`))}
	s := newSession(t, relay, &fakeNotifier{err: errors.New("sms down")})

	res, err := s.Send(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.Equal(t, "Ok", res.Reply)
	require.False(t, res.Notified)
	require.False(t, res.Degraded)
}

func TestSend_RateLimitedDegradesToApology(t *testing.T) {
	relay := &fakeRelay{err: &functions.StatusError{StatusCode: 429, Message: "Rate limit exceeded. Please try again later."}}
	notifier := &fakeNotifier{}
	s := newSession(t, relay, notifier)

	res, err := s.Send(context.Background(), "I need a quote", nil)
	require.NoError(t, err)
	require.True(t, res.Degraded)
	require.Equal(t, Apology, res.Reply)
	var statusErr *functions.StatusError
	require.ErrorAs(t, res.Err, &statusErr)
	require.Empty(t, notifier.got)

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, "I need a quote", msgs[1].Content)
	require.Equal(t, Apology, msgs[2].Content)
}

func TestSend_MidStreamFailureKeepsPartial(t *testing.T) {
	body := io.MultiReader(
		strings.NewReader(`data: {"choices":[{"delta":{"content":"Sure, "}}]}`+"\n"),
		iotest.ErrReader(errors.New("connection reset")),
	)
	notifier := &fakeNotifier{}
	s := newSession(t, &fakeRelay{body: body}, notifier)

	res, err := s.Send(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.True(t, res.Degraded)
	msgs := s.Messages()
	require.Len(t, msgs, 4)
	require.Equal(t, "Sure,", msgs[2].Content)
	require.Equal(t, Apology, msgs[3].Content)
	require.Empty(t, notifier.got)
}

func TestSend_DoneStopsParsing(t *testing.T) {
	body := `data: {"choices":[{"delta":{"content":"One"}}]}` + "\n" +
		"data: [DONE]\n" +
		`data: {"choices":[{"delta":{"content":" Two"}}]}` + "\n"
	s := newSession(t, &fakeRelay{body: strings.NewReader(body)}, &fakeNotifier{})
	res, err := s.Send(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.Equal(t, "One", res.Reply)
}

func TestSend_RejectsEmptyAndBusy(t *testing.T) {
	relay := &fakeRelay{body: strings.NewReader(sse("ok")), block: make(chan struct{})}
	s := newSession(t, relay, &fakeNotifier{})

	_, err := s.Send(context.Background(), "   ", nil)
	require.ErrorIs(t, err, ErrEmptyMessage)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Send(context.Background(), "first", nil)
	}()
	require.Eventually(t, func() bool { return s.busy.Load() }, time.Second, 5*time.Millisecond)

	_, err = s.Send(context.Background(), "second", nil)
	require.ErrorIs(t, err, ErrBusy)

	close(relay.block)
	<-done
	msgs := s.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, "first", msgs[1].Content)
}

// cappedRelay rejects oversized conversations the way the relay service does.
type cappedRelay struct {
	max  int
	sent [][]domain.ChatMessage
}

func (c *cappedRelay) StreamChat(_ context.Context, msgs []domain.ChatMessage) (io.ReadCloser, error) {
	c.sent = append(c.sent, msgs)
	if len(msgs) > c.max {
		return nil, errors.New("too_many_messages")
	}
	return io.NopCloser(strings.NewReader(sse("Sure."))), nil
}

func TestSend_LongConversationStaysWithinRelayCap(t *testing.T) {
	relay := &cappedRelay{max: DefaultHistoryLimit}
	s := newSession(t, relay, &fakeNotifier{})

	for i := range 40 {
		res, err := s.Send(context.Background(), fmt.Sprintf("question %d", i), nil)
		require.NoError(t, err)
		require.False(t, res.Degraded, "turn %d", i+1)
		require.Equal(t, "Sure.", res.Reply)
	}

	require.Len(t, s.Messages(), 81)
	last := relay.sent[len(relay.sent)-1]
	require.LessOrEqual(t, len(last), DefaultHistoryLimit)
	require.Equal(t, domain.RoleUser, last[0].Role)
	require.Equal(t, "question 39", last[len(last)-1].Content)
	require.Equal(t, Greeting, relay.sent[0][0].Content)
}

func TestWindow(t *testing.T) {
	msgs := []domain.ChatMessage{
		{Role: domain.RoleAssistant, Content: "hello"},
		{Role: domain.RoleUser, Content: "a"},
		{Role: domain.RoleAssistant, Content: "b"},
		{Role: domain.RoleUser, Content: "c"},
		{Role: domain.RoleAssistant, Content: "d"},
		{Role: domain.RoleUser, Content: "e"},
	}

	require.Equal(t, msgs, window(msgs, 10))
	require.Equal(t, msgs[3:], window(msgs, 4))
	require.Equal(t, msgs[3:], window(msgs, 3))
	require.Equal(t, msgs[5:], window(msgs, 1))
}
