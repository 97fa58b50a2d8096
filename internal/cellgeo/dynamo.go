package cellgeo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/hello-nrfcloud/backend-sub002/internal/batch"
	"github.com/hello-nrfcloud/backend-sub002/internal/retry"
)

// dynamoBatchLimit is the BatchWriteItem item limit.
const dynamoBatchLimit = 25

// DynamoAPI is the part of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ DynamoAPI = (*dynamodb.Client)(nil)

type dynamoItem struct {
	CellID   string  `dynamodbav:"cellId"`
	Lat      float64 `dynamodbav:"lat"`
	Lng      float64 `dynamodbav:"lng"`
	Accuracy float64 `dynamodbav:"accuracy"`
	TTL      int64   `dynamodbav:"ttl,omitempty"`
}

// errUnprocessed marks a batch write that left items behind.
var errUnprocessed = errors.New("unprocessed items")

// DynamoStore keeps cell locations in a DynamoDB table with the partition
// key "cellId". Items carry a "ttl" attribute in epoch seconds for DynamoDB
// expiry.
type DynamoStore struct {
	api    DynamoAPI
	table  string
	opts   options
	retry  retry.Config
	logger zerolog.Logger
}

// NewDynamoStore creates a DynamoStore on table.
func NewDynamoStore(api DynamoAPI, table string, cfg retry.Config, logger zerolog.Logger, opts ...Option) *DynamoStore {
	return &DynamoStore{
		api:    api,
		table:  table,
		opts:   newOptions(opts),
		retry:  cfg,
		logger: logger.With().Str("component", "cellgeo_dynamo").Str("table", table).Logger(),
	}
}

func cellKey(cell Cell) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"cellId": &types.AttributeValueMemberS{Value: CellID(cell)},
	}
}

// Get returns the cached location of cell. A missing item or table is a miss.
func (s *DynamoStore) Get(ctx context.Context, cell Cell) (Location, bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       cellKey(cell),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return Location{}, false, nil
		}
		return Location{}, false, fmt.Errorf("failed to get cell %s: %w", CellID(cell), err)
	}
	if len(out.Item) == 0 {
		return Location{}, false, nil
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return Location{}, false, fmt.Errorf("failed to unmarshal cell %s: %w", CellID(cell), err)
	}
	return Location{Lat: item.Lat, Lng: item.Lng, Accuracy: item.Accuracy}, true, nil
}

// Put stores the location of cell.
func (s *DynamoStore) Put(ctx context.Context, cell Cell, loc Location) error {
	item, err := s.marshal(cell, loc)
	if err != nil {
		return err
	}
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store cell %s: %w", CellID(cell), err)
	}
	return nil
}

// Delete removes the cached location of cell.
func (s *DynamoStore) Delete(ctx context.Context, cell Cell) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       cellKey(cell),
	})
	if err != nil {
		return fmt.Errorf("failed to delete cell %s: %w", CellID(cell), err)
	}
	return nil
}

// PutMany stores entries with BatchWriteItem, retrying unprocessed items.
func (s *DynamoStore) PutMany(ctx context.Context, entries []Entry) error {
	for _, chunk := range batch.Batch(entries, dynamoBatchLimit) {
		requests := make([]types.WriteRequest, 0, len(chunk))
		for _, e := range chunk {
			item, err := s.marshal(e.Cell, e.Location)
			if err != nil {
				return err
			}
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}
		if err := s.writeBatch(ctx, requests); err != nil {
			return err
		}
	}
	return nil
}

func (s *DynamoStore) writeBatch(ctx context.Context, requests []types.WriteRequest) error {
	pending := requests
	err := retry.Do(ctx, s.retry, func() error {
		out, err := s.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.table: pending},
		})
		if err != nil {
			return err
		}
		if left := out.UnprocessedItems[s.table]; len(left) > 0 {
			s.logger.Debug().Int("unprocessed", len(left)).Msg("retrying unprocessed cells")
			pending = left
			return errUnprocessed
		}
		return nil
	}, func(err error) bool {
		return errors.Is(err, errUnprocessed)
	})
	if err != nil {
		return fmt.Errorf("batch write of %d cells failed: %w", len(requests), err)
	}
	return nil
}

func (s *DynamoStore) marshal(cell Cell, loc Location) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(dynamoItem{
		CellID:   CellID(cell),
		Lat:      loc.Lat,
		Lng:      loc.Lng,
		Accuracy: loc.Accuracy,
		TTL:      s.opts.now().Add(s.opts.ttl).Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cell %s: %w", CellID(cell), err)
	}
	return item, nil
}
