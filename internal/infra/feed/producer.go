package feed

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

var ErrProducerClosed = errors.New("order feed producer closed")

type IOrderFeedProducer interface {
	PublishOrderCreated(ctx context.Context, order *model.Order) error
	PublishOrderUpdated(ctx context.Context, order *model.Order) error
	Close() error
}

// OrderFeedProducer 訂單變更通知發佈端
// 以userID當key，同一用戶的變更會落在同一分區維持順序
type OrderFeedProducer struct {
	writer *kafka.Writer
	closed atomic.Bool
}

func NewOrderFeedProducer(brokers []string, topic string) *OrderFeedProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		MaxAttempts:  3,
		Compression:  kafka.Snappy,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error().Msgf("order feed producer: "+msg, args...)
		}),
	}

	return &OrderFeedProducer{writer: writer}
}

func (p *OrderFeedProducer) PublishOrderCreated(ctx context.Context, order *model.Order) error {
	return p.publish(ctx, model.OrderCreatedEventName, order)
}

func (p *OrderFeedProducer) PublishOrderUpdated(ctx context.Context, order *model.Order) error {
	return p.publish(ctx, model.OrderUpdatedEventName, order)
}

func (p *OrderFeedProducer) publish(ctx context.Context, eventType model.OrderEventType, order *model.Order) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	event := model.OrderEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OrderID:    order.OrderID,
		UserID:     order.UserID,
		OccurredAt: time.Now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.Itoa(order.UserID)),
		Value: value,
	})
}

func (p *OrderFeedProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

var _ IOrderFeedProducer = (*OrderFeedProducer)(nil)
