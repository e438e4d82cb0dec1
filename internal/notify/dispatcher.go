// Package notify turns notification requests into Expo messages and submits
// them to the push gateway in ordered batches.
package notify

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"io.winapps.pushrelay/internal/apperr"
	"io.winapps.pushrelay/internal/expo"
	"io.winapps.pushrelay/internal/metrics"
	notificationsmodels "io.winapps.pushrelay/internal/models/notifications"
)

// Gateway submits one batch of messages and returns one ticket per message.
type Gateway interface {
	SendPushNotifications(ctx context.Context, messages []expo.Message) ([]expo.Ticket, error)
}

// TokenReader is the read side of the token store.
type TokenReader interface {
	GetByUserID(ctx context.Context, userID string) (*notificationsmodels.ExpoToken, error)
	List(ctx context.Context) ([]notificationsmodels.ExpoToken, error)
}

// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	tokens    TokenReader
	gateway   Gateway
	batchSize int
	validate  *validator.Validate
	metrics   *metrics.Metrics
	logger    *zap.SugaredLogger
}

type Option func(*Dispatcher)

// WithBatchSize caps the number of messages per gateway request.
func WithBatchSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func NewDispatcher(tokens TokenReader, gateway Gateway, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		tokens:    tokens,
		gateway:   gateway,
		batchSize: expo.MaxBatchSize,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends payload to every token the target resolves to. On failure
// both a failed result and the error are returned.
func (d *Dispatcher) Dispatch(ctx context.Context, target Target, payload notificationsmodels.Payload) (*notificationsmodels.DispatchResult, error) {
	label := target.Kind.String()

	payload = payload.WithDefaults()
	if err := d.validate.Struct(payload); err != nil {
		return d.fail(label, apperr.Wrap(apperr.CodeInvalidArgument, "Invalid notification payload", err))
	}

	recipients, err := d.resolve(ctx, target)
	if err != nil {
		return d.fail(label, err)
	}
	if len(recipients) == 0 {
		return d.fail(label, apperr.New(apperr.CodeNoValidTokens, "No valid expo tokens found"))
	}

	messages := make([]expo.Message, 0, len(recipients))
	for _, to := range recipients {
		messages = append(messages, newMessage(to, payload))
	}
	return d.send(ctx, label, messages)
}

// DispatchBatch fans every usable payload out to every valid stored token,
// payload by payload. Payloads without a title or body are skipped.
func (d *Dispatcher) DispatchBatch(ctx context.Context, payloads []notificationsmodels.Payload) (*notificationsmodels.DispatchResult, error) {
	const label = "batch"

	recipients, err := d.allValidTokens(ctx)
	if err != nil {
		return d.fail(label, err)
	}
	if len(recipients) == 0 {
		return d.fail(label, apperr.New(apperr.CodeNoValidTokens, "No valid expo tokens found"))
	}

	var messages []expo.Message
	for i, p := range payloads {
		if p.Title == "" || p.Body == "" {
			d.logger.Debugw("Skipping notification without title or body", "index", i)
			continue
		}
		p = p.WithDefaults()
		if err := d.validate.Struct(p); err != nil {
			return d.fail(label, apperr.Wrap(apperr.CodeInvalidArgument, fmt.Sprintf("Invalid notification at index %d", i), err))
		}
		for _, to := range recipients {
			messages = append(messages, newMessage(to, p))
		}
	}
	if len(messages) == 0 {
		return d.fail(label, apperr.New(apperr.CodeNoValidNotifications, "No valid notifications to send"))
	}
	return d.send(ctx, label, messages)
}

func (d *Dispatcher) resolve(ctx context.Context, target Target) ([]string, error) {
	switch target.Kind {
	case TargetExplicitToken:
		if !expo.IsPushToken(target.Value) {
			return nil, apperr.New(apperr.CodeInvalidTokenFormat, "Invalid Expo push token format")
		}
		return []string{target.Value}, nil

	case TargetSpecificUser:
		rec, err := d.tokens.GetByUserID(ctx, target.Value)
		if err != nil {
			if apperr.Is(err, apperr.CodeNotFound) {
				return nil, apperr.Wrap(apperr.CodeUserTokenNotFound, "No expo token found for user_id: "+target.Value, err)
			}
			return nil, err
		}
		if !expo.IsPushToken(rec.ExpoPushToken) {
			return nil, apperr.New(apperr.CodeInvalidTokenFormat, "Invalid Expo push token format for user_id: "+target.Value)
		}
		return []string{rec.ExpoPushToken}, nil

	default:
		return d.allValidTokens(ctx)
	}
}

// allValidTokens lists the store and silently drops malformed tokens.
func (d *Dispatcher) allValidTokens(ctx context.Context) ([]string, error) {
	records, err := d.tokens.List(ctx)
	if err != nil {
		return nil, err
	}
	valid := make([]string, 0, len(records))
	for _, rec := range records {
		if expo.IsPushToken(rec.ExpoPushToken) {
			valid = append(valid, rec.ExpoPushToken)
		}
	}
	if dropped := len(records) - len(valid); dropped > 0 {
		d.logger.Infow("Skipped invalid expo tokens", "skipped", dropped, "valid", len(valid))
	}
	return valid, nil
}

// send submits batches in order. The first failed batch aborts the rest and
// discards the tickets collected so far.
func (d *Dispatcher) send(ctx context.Context, label string, messages []expo.Message) (*notificationsmodels.DispatchResult, error) {
	batches := expo.Chunk(messages, d.batchSize)
	tickets := make([]expo.Ticket, 0, len(messages))

	for i, batch := range batches {
		got, err := d.gateway.SendPushNotifications(ctx, batch)
		if err != nil {
			d.metrics.ObserveBatch(metrics.OutcomeFailure)
			d.logger.Errorw("Expo push batch failed",
				"batch", i+1,
				"batches", len(batches),
				"messages", len(batch),
				"error", err,
			)
			return d.fail(label, apperr.Wrap(apperr.CodeGatewaySendFailed, "Failed to send notifications", err))
		}
		d.metrics.ObserveBatch(metrics.OutcomeSuccess)
		tickets = append(tickets, got...)
	}

	d.metrics.ObserveDispatch(label, metrics.OutcomeSuccess, len(tickets))
	d.logger.Infow("Notifications dispatched", "target", label, "sent", len(tickets), "batches", len(batches))

	return &notificationsmodels.DispatchResult{
		Success:   true,
		SentCount: len(tickets),
		Message:   fmt.Sprintf("Sent %d notification(s)", len(tickets)),
		Tickets:   tickets,
	}, nil
}

func (d *Dispatcher) fail(label string, err error) (*notificationsmodels.DispatchResult, error) {
	d.metrics.ObserveDispatch(label, metrics.OutcomeFailure, 0)
	return &notificationsmodels.DispatchResult{
		Success: false,
		Message: apperr.Message(err),
		Error:   string(apperr.CodeOf(err)),
	}, err
}

func newMessage(to string, p notificationsmodels.Payload) expo.Message {
	msg := expo.Message{
		To:       to,
		Title:    p.Title,
		Body:     p.Body,
		Data:     p.Data,
		Badge:    p.Badge,
		Priority: p.Priority,
	}
	if p.Sound != notificationsmodels.SoundNone {
		sound := p.Sound
		msg.Sound = &sound
	}
	return msg
}
