package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"

	"chatauth/internal/models"
)

// Producer пишет verify-response и revoke-request. Ключ сообщения —
// correlation id: Hash-балансировщик кладёт весь трафик одного id в одну
// партицию, внутри неё порядок строгий.
type Producer struct {
	verifyResponses *kafka.Writer
	revokeRequests  *kafka.Writer
}

func NewProducer(brokers []string, verifyResponseTopic, revokeRequestTopic string) *Producer {
	return &Producer{
		verifyResponses: newWriter(brokers, verifyResponseTopic),
		revokeRequests:  newWriter(brokers, revokeRequestTopic),
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

func (p *Producer) ProduceVerifyResponse(ctx context.Context, resp *models.VerifyResponse) error {
	if err := produce(ctx, p.verifyResponses, resp.CorrelationID, resp); err != nil {
		return fmt.Errorf("produce verify-response: %w", err)
	}
	log.Printf("[bus][produce] verify-response correlation_id=%s success=%v", resp.CorrelationID, resp.Success)
	return nil
}

func (p *Producer) ProduceRevokeRequest(ctx context.Context, req *models.RevokeRequest) error {
	if err := produce(ctx, p.revokeRequests, req.CorrelationID, req); err != nil {
		return fmt.Errorf("produce revoke-request: %w", err)
	}
	log.Printf("[bus][produce] revoke-request correlation_id=%s original_correlation_id=%s",
		req.CorrelationID, req.OriginalCorrelationID)
	return nil
}

func produce(ctx context.Context, w *kafka.Writer, key string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b})
}

func (p *Producer) Close() error {
	return errors.Join(p.verifyResponses.Close(), p.revokeRequests.Close())
}
