package queue

import (
	"fmt"
	"time"

	"account_shop/internal/model"
)

// 订单生命周期事件类型。
const (
	EventOrderCreated        = "order_created"
	EventOrderStatusChanged  = "order_status_changed"
	EventOrderPaymentChanged = "order_payment_changed"
)

// OrderEvent 是写入 Kafka 的订单生命周期事件。
type OrderEvent struct {
	Event         string    `json:"event"`
	OrderNo       string    `json:"order_no"`
	ProductID     uint      `json:"product_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	Quantity      int       `json:"quantity"`
	TotalCents    int64     `json:"total_cents"` // 分
	OccurredAt    time.Time `json:"occurred_at"`
}

// Validate 做最小字段校验，防止下游消费脏消息。
func (e OrderEvent) Validate() error {
	if e.Event == "" {
		return fmt.Errorf("event is required")
	}
	if e.OrderNo == "" {
		return fmt.Errorf("order_no is required")
	}
	if e.ProductID == 0 {
		return fmt.Errorf("product_id is required")
	}
	return nil
}

// NewOrderEvent 从订单快照构造事件。
func NewOrderEvent(event string, o *model.Order) OrderEvent {
	return OrderEvent{
		Event:         event,
		OrderNo:       o.OrderNo,
		ProductID:     o.ProductID,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		Quantity:      o.Quantity,
		TotalCents:    o.TotalCents,
		OccurredAt:    time.Now().UTC(),
	}
}
