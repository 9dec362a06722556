package s3

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/colgo/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB table keyed by base_uri and version.
type mockDDBClient struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	queryErr error
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{items: make(map[string]map[string]types.AttributeValue)}
}

func (m *mockDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	uri := params.Item["base_uri"].(*types.AttributeValueMemberS).Value
	version := params.Item["version"].(*types.AttributeValueMemberN).Value
	key := uri + ":" + version

	if aws.ToString(params.ConditionExpression) == "attribute_not_exists(version)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}
	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.queryErr != nil {
		return nil, m.queryErr
	}

	uri := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value
	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["base_uri"].(*types.AttributeValueMemberS).Value == uri {
			items = append(items, item)
		}
	}
	version := func(i int) uint64 {
		v, _ := strconv.ParseUint(items[i]["version"].(*types.AttributeValueMemberN).Value, 10, 64)
		return v
	}
	sort.Slice(items, func(i, j int) bool { return version(i) > version(j) })

	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func TestDDBCommitter_Sequence(t *testing.T) {
	ctx := context.Background()
	c := NewDDBCommitter(newMockDDBClient(), "commits", "s3://bucket/db")

	v, m, err := c.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
	assert.Empty(t, m)

	for i := uint64(1); i <= 12; i++ {
		require.NoError(t, c.Commit(ctx, i, "catalog/"+strconv.FormatUint(i, 10)))
	}

	v, m, err = c.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), v)
	assert.Equal(t, "catalog/12", m)
}

func TestDDBCommitter_StaleVersion(t *testing.T) {
	ctx := context.Background()
	c := NewDDBCommitter(newMockDDBClient(), "commits", "s3://bucket/db")

	require.NoError(t, c.Commit(ctx, 1, "catalog/1"))
	err := c.Commit(ctx, 1, "catalog/other")
	assert.ErrorIs(t, err, blobstore.ErrConcurrentModification)

	err = c.Commit(ctx, 5, "catalog/5")
	assert.ErrorIs(t, err, blobstore.ErrConcurrentModification)
}

func TestDDBCommitter_ConditionalWriteRace(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient()
	a := NewDDBCommitter(client, "commits", "s3://bucket/db")

	// Simulate a writer that committed version 1 between Latest and PutItem.
	_, err := client.PutItem(ctx, &dynamodb.PutItemInput{
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: "s3://bucket/db"},
			"version":  &types.AttributeValueMemberN{Value: "1"},
			"manifest": &types.AttributeValueMemberS{Value: "catalog/b"},
		},
	})
	require.NoError(t, err)

	err = a.Commit(ctx, 1, "catalog/a")
	assert.ErrorIs(t, err, blobstore.ErrConcurrentModification)
}

func TestDDBCommitter_Isolation(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient()
	a := NewDDBCommitter(client, "commits", "s3://bucket/a")
	b := NewDDBCommitter(client, "commits", "s3://bucket/b")

	require.NoError(t, a.Commit(ctx, 1, "catalog/1"))
	v, _, err := b.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}

func TestDDBCommitter_QueryError(t *testing.T) {
	client := newMockDDBClient()
	client.queryErr = errors.New("throttled")
	c := NewDDBCommitter(client, "commits", "s3://bucket/db")

	_, _, err := c.Latest(context.Background())
	assert.ErrorContains(t, err, "throttled")
	assert.Error(t, c.Commit(context.Background(), 1, "catalog/1"))
}
