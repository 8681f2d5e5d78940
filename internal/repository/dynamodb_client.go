package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
)

const (
	skState     = "STATE"
	ttlDuration = 24 * time.Hour
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client stores wizard sessions in a single-table layout, one STATE item per
// session, expired by the table's TTL attribute.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

func sessionPK(id string) string {
	return "SESSION#" + id
}

// GetSession returns the stored session. found is false when there is no item
// or the item's TTL has passed but DynamoDB has not swept it yet.
func (c *Client) GetSession(ctx context.Context, id string) (domain.WizardSession, bool, error) {
	if strings.TrimSpace(id) == "" {
		return domain.WizardSession{}, false, errors.New("repository: GetSession: id is required")
	}
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: sessionPK(id)},
			"SK": &types.AttributeValueMemberS{Value: skState},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.WizardSession{}, false, fmt.Errorf("repository: GetSession get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.WizardSession{}, false, nil
	}

	s, err := itemToSession(out.Item)
	if err != nil {
		return domain.WizardSession{}, false, fmt.Errorf("repository: GetSession decode: %w", err)
	}
	if s.TTL > 0 && s.TTL <= c.now().Unix() {
		return domain.WizardSession{}, false, nil
	}
	return s, true, nil
}

// SaveSession writes the whole session and pushes its TTL forward.
func (c *Client) SaveSession(ctx context.Context, s domain.WizardSession) error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("repository: SaveSession: id is required")
	}
	now := c.now().UTC()
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	s.TTL = now.Add(ttlDuration).Unix()

	item, err := sessionItem(s)
	if err != nil {
		return fmt.Errorf("repository: SaveSession encode: %w", err)
	}
	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("repository: SaveSession: %w", err)
	}
	return nil
}

func sessionItem(s domain.WizardSession) (map[string]types.AttributeValue, error) {
	selection, err := json.Marshal(s.Selection)
	if err != nil {
		return nil, err
	}
	transcript, err := json.Marshal(s.Transcript)
	if err != nil {
		return nil, err
	}
	return map[string]types.AttributeValue{
		"PK":               &types.AttributeValueMemberS{Value: sessionPK(s.ID)},
		"SK":               &types.AttributeValueMemberS{Value: skState},
		"sessionId":        &types.AttributeValueMemberS{Value: s.ID},
		"step":             &types.AttributeValueMemberS{Value: string(s.Step)},
		"selection":        &types.AttributeValueMemberS{Value: string(selection)},
		"transcript":       &types.AttributeValueMemberS{Value: string(transcript)},
		"notificationSent": &types.AttributeValueMemberBOOL{Value: s.NotificationSent},
		"updatedAt":        &types.AttributeValueMemberS{Value: s.UpdatedAt.UTC().Format(time.RFC3339Nano)},
		"ttl":              &types.AttributeValueMemberN{Value: strconv.FormatInt(s.TTL, 10)},
	}, nil
}

func itemToSession(item map[string]types.AttributeValue) (domain.WizardSession, error) {
	id, err := strAttr(item, "sessionId")
	if err != nil {
		return domain.WizardSession{}, err
	}
	step, err := strAttr(item, "step")
	if err != nil {
		return domain.WizardSession{}, err
	}
	s := domain.WizardSession{ID: id, Step: domain.WizardStep(step)}

	if raw, err := strAttr(item, "selection"); err == nil && raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.Selection); err != nil {
			return domain.WizardSession{}, fmt.Errorf("repository: attribute %q: %w", "selection", err)
		}
	}
	if raw, err := strAttr(item, "transcript"); err == nil && raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.Transcript); err != nil {
			return domain.WizardSession{}, fmt.Errorf("repository: attribute %q: %w", "transcript", err)
		}
	}
	s.NotificationSent, _ = boolAttr(item, "notificationSent") // absent means not sent
	if raw, err := strAttr(item, "updatedAt"); err == nil {
		s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, raw)
	}
	if ttl, err := int64Attr(item, "ttl"); err == nil {
		s.TTL = ttl
	}
	return s, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func boolAttr(item map[string]types.AttributeValue, key string) (bool, error) {
	v, ok := item[key]
	if !ok {
		return false, fmt.Errorf("repository: missing attribute %q", key)
	}
	b, ok := v.(*types.AttributeValueMemberBOOL)
	if !ok {
		return false, fmt.Errorf("repository: attribute %q is not a bool", key)
	}
	return b.Value, nil
}

func int64Attr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
