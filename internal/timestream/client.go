package timestream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/timestreamquery"
	"github.com/aws/aws-sdk-go-v2/service/timestreamquery/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/hello-nrfcloud/backend-sub002/internal/retry"
)

// QueryAPI is the part of the Timestream query client used here.
type QueryAPI interface {
	Query(ctx context.Context, params *timestreamquery.QueryInput, optFns ...func(*timestreamquery.Options)) (*timestreamquery.QueryOutput, error)
}

var _ QueryAPI = (*timestreamquery.Client)(nil)

// Client runs statements against Timestream and returns parsed rows.
type Client struct {
	api    QueryAPI
	retry  retry.Config
	logger zerolog.Logger
}

// DefaultRetryConfig retries throttled pages with a short exponential backoff.
func DefaultRetryConfig() retry.Config {
	return retry.Config{
		MaxRetries:     5,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     3 * time.Second,
		Jitter:         0.2,
	}
}

// NewClient creates a Client around api.
func NewClient(api QueryAPI, cfg retry.Config, logger zerolog.Logger) *Client {
	return &Client{
		api:    api,
		retry:  cfg,
		logger: logger.With().Str("component", "timestream").Logger(),
	}
}

// Query runs statement and follows NextToken until all pages are read.
func (c *Client) Query(ctx context.Context, statement string) ([]Row, error) {
	var (
		rows      []Row
		nextToken *string
		pages     int
	)
	start := time.Now()

	for {
		var out *timestreamquery.QueryOutput
		err := retry.Do(ctx, c.retry, func() error {
			var err error
			out, err = c.api.Query(ctx, &timestreamquery.QueryInput{
				QueryString: aws.String(statement),
				NextToken:   nextToken,
			})
			return err
		}, IsThrottled)
		if err != nil {
			return nil, fmt.Errorf("timestream query failed: %w", err)
		}
		pages++

		parsed, err := ParseRows(out.ColumnInfo, out.Rows)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %d: %w", pages, err)
		}
		rows = append(rows, parsed...)

		if out.NextToken == nil || *out.NextToken == "" {
			break
		}
		nextToken = out.NextToken
	}

	c.logger.Debug().
		Str("query", Oneline(statement)).
		Int("pages", pages).
		Int("rows", len(rows)).
		Dur("took", time.Since(start)).
		Msg("query finished")

	return rows, nil
}

// IsThrottled reports whether err is a Timestream throttling error.
func IsThrottled(err error) bool {
	var te *types.ThrottlingException
	if errors.As(err, &te) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ThrottlingException"
}
