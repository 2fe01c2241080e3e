package service

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"wallet_core/models"
	"wallet_core/pkg/capture"
	"wallet_core/pkg/txstore"
)

// PaymentService turns HTTP input into engine calls.
type PaymentService struct {
	engine  *Engine
	capture *capture.Adapter
}

func NewPaymentService(engine *Engine, adapter *capture.Adapter) *PaymentService {
	return &PaymentService{engine: engine, capture: adapter}
}

// Summary prices a send without reserving funds.
func (s *PaymentService) Summary(in models.SendInput) (models.SendSummary, error) {
	req, err := sendRequest(in)
	if err != nil {
		return models.SendSummary{}, err
	}
	q, err := s.engine.Quote(req)
	if err != nil {
		return models.SendSummary{}, err
	}
	return models.SendSummary{
		Currency: q.Currency,
		Amount:   models.FormatAmount(q.Amount, q.Currency),
		Fee:      models.FormatAmount(q.Fee, q.Currency),
		Total:    models.FormatAmount(q.Total(), q.Currency),
	}, nil
}

func (s *PaymentService) Send(ctx context.Context, in models.SendInput) (models.Transaction, error) {
	req, err := sendRequest(in)
	if err != nil {
		return models.Transaction{}, err
	}
	return s.engine.CreateFromRequest(ctx, req)
}

func (s *PaymentService) Deposit(ctx context.Context, in models.DepositInput) (models.Transaction, error) {
	amount, err := parseDecimal(in.Amount)
	if err != nil {
		return models.Transaction{}, err
	}
	return s.engine.CreateFromRequest(ctx, TransferRequest{
		Direction:    models.DirectionReceived,
		Counterparty: in.From,
		Amount:       amount,
		Currency:     models.ParseCurrency(in.Currency),
		Channel:      models.ChannelAddress,
		Note:         in.Note,
	})
}

// Capture normalizes a scanned payload and creates the pending payment for
// it.
func (s *PaymentService) Capture(ctx context.Context, in models.CaptureInput) (models.Transaction, error) {
	payload := []byte(in.Payload)
	switch strings.ToLower(in.Encoding) {
	case "", "text":
	case "base64":
		decoded, err := base64.StdEncoding.DecodeString(in.Payload)
		if err != nil {
			return models.Transaction{}, errors.Wrapf(models.ErrMalformedPayload, "base64 payload: %v", err)
		}
		payload = decoded
	default:
		return models.Transaction{}, errors.Wrapf(models.ErrMalformedPayload, "unknown encoding %q", in.Encoding)
	}

	intent, err := s.capture.Normalize(capture.Event{
		Channel: models.Channel(strings.ToLower(strings.TrimSpace(in.Channel))),
		Payload: payload,
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return s.engine.CreateFromIntent(ctx, intent)
}

func (s *PaymentService) Transactions(q txstore.Query) []models.Transaction {
	return s.engine.List(q)
}

func (s *PaymentService) Transaction(id uuid.UUID) (models.Transaction, error) {
	return s.engine.Get(id)
}

func (s *PaymentService) Confirm(ctx context.Context, id uuid.UUID, proof models.ConfirmationProof) (models.Transaction, error) {
	return s.engine.Confirm(ctx, id, proof)
}

func (s *PaymentService) Settle(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	return s.engine.Settle(ctx, id)
}

func (s *PaymentService) Fail(ctx context.Context, id uuid.UUID, reason string) (models.Transaction, error) {
	return s.engine.Fail(ctx, id, reason)
}

func (s *PaymentService) Retry(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	return s.engine.Retry(ctx, id)
}

func sendRequest(in models.SendInput) (TransferRequest, error) {
	amount, err := parseDecimal(in.Amount)
	if err != nil {
		return TransferRequest{}, err
	}
	return TransferRequest{
		Direction:    models.DirectionSent,
		Counterparty: in.Recipient,
		Amount:       amount,
		Currency:     models.ParseCurrency(in.Currency),
		Channel:      models.ChannelAddress,
		Note:         in.Note,
	}, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, errors.Wrapf(models.ErrNonPositiveAmount, "amount %q is not a number", s)
	}
	return d, nil
}
