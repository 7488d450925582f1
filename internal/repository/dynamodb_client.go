package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	pkPrefixRate    = "RATE#"
	skPrefixWindow  = "WINDOW#"
	attrHits        = "hits"
	attrTTL         = "ttl"
	attrWindowStart = "windowStart"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Client wraps a DynamoDB table holding fixed-window request counters shared
// by every process serving the chat endpoints.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// ratePK returns the partition key for a caller.
func ratePK(key string) string {
	return pkPrefixRate + key
}

// windowSK returns the sort key for the window starting at start.
func windowSK(start time.Time) string {
	return skPrefixWindow + strconv.FormatInt(start.UTC().Unix(), 10)
}

// IncrementWindow atomically records one hit for key in the window starting
// at windowStart and returns the hit count after the increment. Items expire
// through the table TTL once ttl has passed since the window started.
func (c *Client) IncrementWindow(ctx context.Context, key string, windowStart time.Time, ttl time.Duration) (int, error) {
	if strings.TrimSpace(key) == "" {
		return 0, errors.New("repository: IncrementWindow: key is required")
	}

	out, err := c.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: ratePK(key)},
			"SK": &types.AttributeValueMemberS{Value: windowSK(windowStart)},
		},
		UpdateExpression: aws.String("ADD #hits :one SET #ttl = if_not_exists(#ttl, :ttl), #ws = if_not_exists(#ws, :ws)"),
		ExpressionAttributeNames: map[string]string{
			"#hits": attrHits,
			"#ttl":  attrTTL,
			"#ws":   attrWindowStart,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":ttl": &types.AttributeValueMemberN{Value: strconv.FormatInt(windowStart.Add(ttl).Unix(), 10)},
			":ws":  &types.AttributeValueMemberS{Value: windowStart.UTC().Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("repository: IncrementWindow update item: %w", err)
	}
	if out == nil {
		return 0, errors.New("repository: IncrementWindow: empty response")
	}

	hits, err := intAttr(out.Attributes, attrHits)
	if err != nil {
		return 0, fmt.Errorf("repository: IncrementWindow decode hits: %w", err)
	}
	return hits, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
