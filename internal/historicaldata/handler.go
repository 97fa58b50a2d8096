// Package historicaldata handles historical data requests forwarded from
// websocket clients over EventBridge.
package historicaldata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hello-nrfcloud/backend-sub002/internal/history"
)

// Getter answers a historical data request for a device.
type Getter interface {
	Get(ctx context.Context, deviceID, model string, req history.Request) (history.Response, error)
}

var _ Getter = (*history.Repository)(nil)

// PutEventsAPI is the EventBridge call used to publish responses.
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

var _ PutEventsAPI = (*eventbridge.Client)(nil)

// Responses are published with this source and detail type so the
// websocket publisher forwards them to the connection.
const (
	EventSource     = "thingy.ws"
	EventDetailType = "message"
)

// Detail is the event detail of a request.
type Detail struct {
	DeviceID     string  `json:"deviceId"`
	ConnectionID string  `json:"connectionId"`
	Message      Message `json:"message"`
}

// Message carries the device model and the request itself.
type Message struct {
	Model   string          `json:"model"`
	Request history.Request `json:"request"`
}

// Payload is the message sent back to the websocket connection.
type Payload struct {
	DeviceID     string           `json:"deviceId"`
	ConnectionID string           `json:"connectionId"`
	Message      history.Response `json:"message"`
}

// Handler answers request events and publishes the responses.
type Handler struct {
	repo     Getter
	events   PutEventsAPI
	eventBus string
	logger   zerolog.Logger
}

// NewHandler creates a Handler backed by repo that publishes to eventBus.
func NewHandler(repo Getter, publisher PutEventsAPI, eventBus string, logger zerolog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		events:   publisher,
		eventBus: eventBus,
		logger:   logger.With().Str("component", "historical-data").Logger(),
	}
}

// Handle answers the request in event and publishes the response. Malformed
// and invalid requests are logged and dropped since retrying cannot fix
// them. Query and publish failures are returned so the invocation is
// retried.
func (h *Handler) Handle(ctx context.Context, event events.CloudWatchEvent) (err error) {
	logger := h.logger.With().Str("aws_request_id", invocationID(ctx)).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("recovered from panic")
			err = fmt.Errorf("internal error")
		}
	}()

	payloads, err := h.answer(ctx, logger, event)
	if err != nil {
		return err
	}
	if err := h.publish(ctx, payloads); err != nil {
		logger.Error().Err(err).Msg("failed to publish response")
		return err
	}
	return nil
}

func (h *Handler) answer(ctx context.Context, logger zerolog.Logger, event events.CloudWatchEvent) ([]Payload, error) {
	var detail Detail
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		logger.Error().Err(err).Str("detail_type", event.DetailType).Msg("failed to parse event detail")
		return nil, nil
	}
	if detail.DeviceID == "" {
		logger.Error().Msg("event detail has no deviceId")
		return nil, nil
	}

	req := detail.Message.Request
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	logger = logger.With().
		Str("device_id", detail.DeviceID).
		Str("connection_id", detail.ConnectionID).
		Str("request_id", req.ID).
		Logger()
	logger.Info().Str("model", detail.Message.Model).Str("message", req.Message).Str("type", string(req.Type)).
		Msg("historical data request")

	resp, err := h.repo.Get(ctx, detail.DeviceID, detail.Message.Model, req)
	if errors.Is(err, history.ErrInvalidRequest) {
		logger.Warn().Err(err).Msg("dropping invalid request")
		return nil, nil
	}
	if err != nil {
		logger.Error().Err(err).Msg("historical data request failed")
		return nil, err
	}

	logger.Debug().Int("rows", len(resp.Rows)).Int("series", len(resp.Series)).Msg("historical data response")
	return []Payload{{
		DeviceID:     detail.DeviceID,
		ConnectionID: detail.ConnectionID,
		Message:      resp,
	}}, nil
}

// publish sends one event per payload. A partially failed batch is an
// error naming the first failure.
func (h *Handler) publish(ctx context.Context, payloads []Payload) error {
	if len(payloads) == 0 {
		return nil
	}
	entries := make([]types.PutEventsRequestEntry, 0, len(payloads))
	for _, p := range payloads {
		detail, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(h.eventBus),
			Source:       aws.String(EventSource),
			DetailType:   aws.String(EventDetailType),
			Detail:       aws.String(string(detail)),
		})
	}

	out, err := h.events.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to put events: %w", err)
	}
	if out.FailedEntryCount > 0 {
		for _, e := range out.Entries {
			if e.ErrorCode != nil {
				return fmt.Errorf("%d of %d events rejected: %s: %s",
					out.FailedEntryCount, len(entries), aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage))
			}
		}
		return fmt.Errorf("%d of %d events rejected", out.FailedEntryCount, len(entries))
	}
	return nil
}

func invocationID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return lc.AwsRequestID
	}
	return ""
}
