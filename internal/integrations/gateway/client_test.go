package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
)

type fakeTokens struct {
	val string
	err error
}

func (f fakeTokens) Value(context.Context) (string, error) {
	return f.val, f.err
}

func TestChatURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://ai.gateway.lovable.dev/v1", "https://ai.gateway.lovable.dev/v1/chat/completions"},
		{"https://ai.gateway.lovable.dev/v1/", "https://ai.gateway.lovable.dev/v1/chat/completions"},
		{"http://localhost:8080", "http://localhost:8080/v1/chat/completions"},
		{"", "https://ai.gateway.lovable.dev/v1/chat/completions"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, chatURL(tc.base), "base=%q", tc.base)
	}
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)

	c, err := NewClient(fakeTokens{val: "k"})
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, c.baseURL)
	require.Zero(t, c.httpClient.Timeout)
}

func TestStreamChat_SendsStreamingRequestAndReturnsBody(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer gw-key", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\ndata: [DONE]\n\n")
	}))
	defer srv.Close()

	c, err := NewClient(fakeTokens{val: "gw-key"}, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	body, err := c.StreamChat(context.Background(), DefaultModel, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "sys"},
		{Role: domain.RoleUser, Content: "hello"},
	})
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Contains(t, string(raw), "data: [DONE]")
	require.True(t, got.Stream)
	require.Equal(t, DefaultModel, got.Model)
	require.Len(t, got.Messages, 2)
}

func TestStreamChat_NonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusPaymentRequired, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", status)
		}))

		c, err := NewClient(fakeTokens{val: "k"}, WithBaseURL(srv.URL+"/v1"), WithHTTPClient(srv.Client()))
		require.NoError(t, err)
		_, err = c.StreamChat(context.Background(), DefaultModel, nil)
		srv.Close()

		var statusErr *HTTPStatusError
		require.True(t, errors.As(err, &statusErr))
		require.Equal(t, status, statusErr.HTTPStatusCode())
		require.Contains(t, statusErr.Body, "nope")
	}
}

func TestStreamChat_TokenError(t *testing.T) {
	c, err := NewClient(fakeTokens{err: errors.New("ssm unavailable")})
	require.NoError(t, err)
	_, err = c.StreamChat(context.Background(), DefaultModel, nil)
	require.ErrorContains(t, err, "ssm unavailable")
}

func TestStreamChat_EmptyModel(t *testing.T) {
	c, err := NewClient(fakeTokens{val: "k"})
	require.NoError(t, err)
	_, err = c.StreamChat(context.Background(), " ", nil)
	require.ErrorContains(t, err, "model")
}
