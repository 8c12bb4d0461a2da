package kvstore

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/registry"
)

// dynamoBatchLimit is the BatchWriteItem request limit.
const dynamoBatchLimit = 25

// DynamoDBKVStore implements core.KVStore on a DynamoDB table with a string
// partition key "key", a binary attribute "value" and an optional numeric
// "ttl" in Unix seconds. Expired items are hidden even before DynamoDB's
// TTL sweeper removes them.
type DynamoDBKVStore struct {
	client    *dynamodb.Client
	tableName string
	closed    bool
}

// NewDynamoDBKVStore loads AWS configuration and checks the table exists.
func NewDynamoDBKVStore(ctx context.Context, cfg registry.InternalDynamoDBConfig) (*DynamoDBKVStore, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}
	if cfg.TableName == "" {
		return nil, fmt.Errorf("table name is required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	var opts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	client := dynamodb.NewFromConfig(awsCfg, opts...)

	if _, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(cfg.TableName),
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to DynamoDB table %s: %w", cfg.TableName, err)
	}
	log.Printf("[DYNAMODB] Using table %s in %s", cfg.TableName, cfg.Region)

	return &DynamoDBKVStore{client: client, tableName: cfg.TableName}, nil
}

func keyAttr(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"key": &types.AttributeValueMemberS{Value: key},
	}
}

func dynamoItem(key string, value []byte, ttl time.Duration) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"key":        &types.AttributeValueMemberS{Value: key},
		"value":      &types.AttributeValueMemberB{Value: value},
		"created_at": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
	}
	if ttl > 0 {
		item["ttl"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(time.Now().Add(ttl).Unix(), 10)}
	}
	return item
}

// expired reports whether the item's ttl attribute is in the past.
func expired(item map[string]types.AttributeValue) bool {
	attr, ok := item["ttl"].(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	ttl, err := strconv.ParseInt(attr.Value, 10, 64)
	return err == nil && time.Now().Unix() > ttl
}

// Get retrieves a value by key.
func (d *DynamoDBKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if d.closed {
		return nil, fmt.Errorf("KV store is closed")
	}

	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       keyAttr(key),
	})
	if err != nil {
		log.Printf("[DYNAMODB] ERROR: Failed to get key %s: %v", key, err)
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	if result.Item == nil || expired(result.Item) {
		return nil, notFound(key)
	}

	value, ok := result.Item["value"].(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("invalid value format for key %s", key)
	}
	return value.Value, nil
}

// Set stores a value. A zero ttl means no expiration.
func (d *DynamoDBKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if d.closed {
		return fmt.Errorf("KV store is closed")
	}
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      dynamoItem(key, value, ttl),
	}); err != nil {
		log.Printf("[DYNAMODB] ERROR: Failed to set key %s: %v", key, err)
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	log.Printf("[DYNAMODB] PUT %s (%d bytes, ttl %v)", key, len(value), ttl)
	return nil
}

// Delete removes a key.
func (d *DynamoDBKVStore) Delete(ctx context.Context, key string) error {
	if d.closed {
		return fmt.Errorf("KV store is closed")
	}
	if _, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       keyAttr(key),
	}); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Exists checks if an unexpired item exists for key.
func (d *DynamoDBKVStore) Exists(ctx context.Context, key string) (bool, error) {
	if d.closed {
		return false, fmt.Errorf("KV store is closed")
	}

	// "key" and "ttl" are reserved words in expressions.
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(d.tableName),
		Key:                      keyAttr(key),
		ProjectionExpression:     aws.String("#k, #t"),
		ExpressionAttributeNames: map[string]string{"#k": "key", "#t": "ttl"},
	})
	if err != nil {
		return false, fmt.Errorf("failed to check existence of key %s: %w", key, err)
	}
	return result.Item != nil && !expired(result.Item), nil
}

// BatchSet writes items in BatchWriteItem requests of at most 25. Writes
// are not atomic across requests.
func (d *DynamoDBKVStore) BatchSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	if d.closed {
		return fmt.Errorf("KV store is closed")
	}

	requests := make([]types.WriteRequest, 0, len(items))
	for key, value := range items {
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: dynamoItem(key, value, ttl)},
		})
	}

	for start := 0; start < len(requests); start += dynamoBatchLimit {
		end := start + dynamoBatchLimit
		if end > len(requests) {
			end = len(requests)
		}
		if _, err := d.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{d.tableName: requests[start:end]},
		}); err != nil {
			return fmt.Errorf("failed to batch set keys: %w", err)
		}
	}
	return nil
}

// Close marks the store closed. The SDK client holds no connections that
// need releasing.
func (d *DynamoDBKVStore) Close() error {
	d.closed = true
	return nil
}

type dynamoDBStrategy struct{}

func (dynamoDBStrategy) Type() string { return "dynamodb" }

func (dynamoDBStrategy) Create(cfg registry.InternalKVStoreConfig) (core.KVStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	store, err := NewDynamoDBKVStore(ctx, cfg.DynamoDBConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB KV store: %w", err)
	}
	return store, nil
}

func (dynamoDBStrategy) Validate(config *registry.InternalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	kv := config.KVStore
	if kv.Type != "dynamodb" {
		return fmt.Errorf("invalid type for DynamoDB validator: %s", kv.Type)
	}
	if kv.DynamoDBConfig.Region == "" {
		return fmt.Errorf("region is required for DynamoDB")
	}
	if kv.DynamoDBConfig.TableName == "" {
		return fmt.Errorf("table_name is required for DynamoDB")
	}
	return validateCommon(kv)
}

func init() {
	register(dynamoDBStrategy{})
}
