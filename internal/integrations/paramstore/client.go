package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the subset of *ssm.Client used here.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter reads a raw parameter value by name.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client reads SecureString parameters from SSM Parameter Store.
type Client struct {
	api ssmAPI
}

func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	withDecryption := true
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("paramstore: parameter %q missing value", name)
	}
	return *out.Parameter.Value, nil
}

// ParamName joins a prefix such as "/royal-diamond/prod" and a key.
func ParamName(prefix, key string) string {
	return strings.TrimRight(strings.TrimSpace(prefix), "/") + "/" + strings.TrimLeft(key, "/")
}

// tokenPayload is the JSON shape every secret is stored in.
type tokenPayload struct {
	Token string `json:"token"`
}

// Secret resolves one {"token": "..."} parameter and keeps it for the life of
// the process. Failed lookups are not cached, so a later call retries.
type Secret struct {
	getter Getter
	name   string

	mu    sync.Mutex
	value string
}

func NewSecret(getter Getter, name string) (*Secret, error) {
	if getter == nil {
		return nil, errors.New("paramstore: getter must not be nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("paramstore: secret name must not be empty")
	}
	return &Secret{getter: getter, name: name}, nil
}

// Value returns the token, fetching it on first use.
func (s *Secret) Value(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value != "" {
		return s.value, nil
	}

	raw, err := s.getter.GetParameter(ctx, s.name)
	if err != nil {
		return "", fmt.Errorf("paramstore: fetch secret: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("paramstore: secret %q is not token JSON: %w", s.name, err)
	}
	tp.Token = strings.TrimSpace(tp.Token)
	if tp.Token == "" {
		return "", fmt.Errorf("paramstore: secret %q has an empty token", s.name)
	}
	s.value = tp.Token
	return s.value, nil
}

// StaticToken is a fixed secret, used when running outside AWS.
type StaticToken string

func (t StaticToken) Value(context.Context) (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", errors.New("paramstore: static token is empty")
	}
	return string(t), nil
}
