package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// recordTTL is how long history entries live before DynamoDB expires them.
const recordTTL = 90 * 24 * time.Hour

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoStore keeps analysis history in a single-table layout keyed by post
// URL: PK="ANALYSIS#{postUrl}", SK="latest". Re-analyzing a URL overwrites the
// previous record.
type DynamoStore struct {
	client DynamoAPI
	table  string
}

// Compile-time interface check.
var _ Store = (*DynamoStore)(nil)

// NewDynamoStore creates a history store backed by the given table.
func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// analysisItem is the marshaled DynamoDB row. Key attributes and TTL live
// beside the flattened record fields.
type analysisItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	ExpiresAt int64  `dynamodbav:"expiresAt"`
	Record
}

func analysisPK(postURL string) string {
	return "ANALYSIS#" + postURL
}

// PutAnalysis writes one completed analysis, stamping AnalyzedAt if unset.
func (s *DynamoStore) PutAnalysis(ctx context.Context, rec Record) error {
	if rec.AnalyzedAt.IsZero() {
		rec.AnalyzedAt = time.Now().UTC()
	}

	item, err := attributevalue.MarshalMap(analysisItem{
		PK:        analysisPK(rec.PostURL),
		SK:        "latest",
		ExpiresAt: rec.AnalyzedAt.Add(recordTTL).Unix(),
		Record:    rec,
	})
	if err != nil {
		return fmt.Errorf("marshal analysis record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put analysis record: %w", err)
	}

	log.Debug().
		Str("requestId", rec.RequestID).
		Str("postUrl", rec.PostURL).
		Msg("Analysis record persisted")
	return nil
}

// GetAnalysis loads the latest analysis for a post URL.
func (s *DynamoStore) GetAnalysis(ctx context.Context, postURL string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: analysisPK(postURL)},
			"SK": &types.AttributeValueMemberS{Value: "latest"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get analysis record: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var item analysisItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal analysis record: %w", err)
	}
	return &item.Record, nil
}
