package feed

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

var ErrConsumerClosed = errors.New("order feed consumer closed")

const (
	reconnectBaseDelay = 500 * time.Millisecond
	reconnectMaxDelay  = 30 * time.Second
)

type EventHandler func(event model.OrderEvent)

type IOrderFeedConsumer interface {
	Start(ctx context.Context) error
	Stop()
}

// OrderFeedConsumer 訂單變更通知消費端
// 讀取失敗以指數退避重試，重連成功後觸發onReconnect讓上層全面作廢快取，
// 補上斷線期間漏掉的變更
type OrderFeedConsumer struct {
	reader      *kafka.Reader
	handler     EventHandler
	onReconnect func()
	closeOnce   sync.Once
	closeChan   chan struct{}
}

func NewOrderFeedConsumer(brokers []string, topic, groupID string, handler EventHandler, onReconnect func()) *OrderFeedConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})

	return &OrderFeedConsumer{
		reader:      reader,
		handler:     handler,
		onReconnect: onReconnect,
		closeChan:   make(chan struct{}),
	}
}

func (c *OrderFeedConsumer) checkIsClosed() bool {
	select {
	case <-c.closeChan:
		return true
	default:
		return false
	}
}

func (c *OrderFeedConsumer) Start(ctx context.Context) error {
	if c.checkIsClosed() {
		return ErrConsumerClosed
	}

	go c.consumeLoop(ctx)
	return nil
}

func (c *OrderFeedConsumer) consumeLoop(ctx context.Context) {
	delay := reconnectBaseDelay
	degraded := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closeChan:
			return
		default:
		}

		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || c.checkIsClosed() {
				return
			}
			log.Error().Err(err).Msgf("order feed read failed, retrying in %s", delay)
			degraded = true

			select {
			case <-ctx.Done():
				return
			case <-c.closeChan:
				return
			case <-time.After(delay):
			}

			delay *= 2
			if delay > reconnectMaxDelay {
				delay = reconnectMaxDelay
			}
			continue
		}

		if degraded {
			// 斷線期間可能漏掉通知，通知上層補作廢
			degraded = false
			delay = reconnectBaseDelay
			if c.onReconnect != nil {
				c.onReconnect()
			}
		}

		var event model.OrderEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error().Err(err).Msgf("order feed got malformed event at offset %d", msg.Offset)
			continue
		}

		c.handler(event)
	}
}

func (c *OrderFeedConsumer) Stop() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
		if err := c.reader.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close order feed reader")
		}
	})
}

var _ IOrderFeedConsumer = (*OrderFeedConsumer)(nil)
