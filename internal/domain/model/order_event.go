package model

import "time"

type OrderEventType string

const (
	OrderCreatedEventName OrderEventType = "OrderCreated"
	OrderUpdatedEventName OrderEventType = "OrderUpdated"
	OrderDeletedEventName OrderEventType = "OrderDeleted"
)

// OrderEvent 訂單變更通知
// 只帶識別資訊不帶內容，訂閱端一律重新讀取現值
type OrderEvent struct {
	EventID    string         `json:"event_id"`
	EventType  OrderEventType `json:"event_type"`
	OrderID    string         `json:"order_id"`
	UserID     int            `json:"user_id"`
	OccurredAt time.Time      `json:"occurred_at"`
}
