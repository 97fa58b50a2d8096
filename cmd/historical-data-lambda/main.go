package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/timestreamquery"

	"github.com/hello-nrfcloud/backend-sub002/internal/config"
	"github.com/hello-nrfcloud/backend-sub002/internal/errors"
	"github.com/hello-nrfcloud/backend-sub002/internal/historicaldata"
	"github.com/hello-nrfcloud/backend-sub002/internal/history"
	"github.com/hello-nrfcloud/backend-sub002/internal/logging"
	"github.com/hello-nrfcloud/backend-sub002/internal/timestream"
)

func main() {
	cfg := errors.MustValue(config.FromEnv())
	errors.Must(cfg.RequireHistoricalTable(), "historical data table")
	errors.Must(cfg.RequireEventBus(), "event bus")

	cfg.Logging.Pretty = false
	logger := logging.New(cfg.Logging)
	logger.Info().
		Str("table", cfg.HistoricalData.Table.String()).
		Str("event_bus", cfg.HistoricalData.EventBus).
		Msg("cold start")

	awsCfg := errors.MustValue(awsconfig.LoadDefaultConfig(context.Background()))
	client := timestream.NewClient(timestreamquery.NewFromConfig(awsCfg), cfg.Retry, logger)
	repo := history.NewRepository(client, cfg.HistoricalData.Table, logger)
	bus := eventbridge.NewFromConfig(awsCfg)

	lambda.Start(historicaldata.NewHandler(repo, bus, cfg.HistoricalData.EventBus, logger).Handle)
}
