package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/colgo/blobstore"
)

// DDBClient is the subset of the DynamoDB API used by DDBCommitter.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DDBCommitter implements blobstore.Committer with DynamoDB conditional writes.
//
// Manifests live in S3; DynamoDB holds one item per committed version and
// supplies the compare-and-swap that S3 lacks, so writers in different
// processes can share one catalog.
//
// Table schema:
//   - Partition key: base_uri (string), the bucket and prefix of the catalog
//   - Sort key: version (number)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name colgo-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitter struct {
	client    DDBClient
	tableName string
	baseURI   string
}

// NewDDBCommitter creates a committer for the catalog at baseURI
// (e.g. "s3://bucket/prefix").
func NewDDBCommitter(client DDBClient, tableName, baseURI string) *DDBCommitter {
	return &DDBCommitter{
		client:    client,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// Latest implements blobstore.Committer.
func (c *DDBCommitter) Latest(ctx context.Context) (uint64, string, error) {
	resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: c.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return 0, "", fmt.Errorf("s3: query commit table: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("s3: commit item has no numeric version")
	}
	manifestAttr, ok := item["manifest"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("s3: commit item has no manifest")
	}
	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("s3: parse commit version: %w", err)
	}
	return version, manifestAttr.Value, nil
}

// Commit implements blobstore.Committer.
func (c *DDBCommitter) Commit(ctx context.Context, version uint64, manifest string) error {
	latest, _, err := c.Latest(ctx)
	if err != nil {
		return err
	}
	if version != latest+1 {
		return fmt.Errorf("%w: version %d, latest is %d", blobstore.ErrConcurrentModification, version, latest)
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: c.baseURI},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
			"manifest": &types.AttributeValueMemberS{Value: manifest},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("%w: version %d already committed", blobstore.ErrConcurrentModification, version)
		}
		return fmt.Errorf("s3: commit version %d: %w", version, err)
	}
	return nil
}

var _ blobstore.Committer = (*DDBCommitter)(nil)
