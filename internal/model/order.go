package model

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus 订单处理状态。状态间可任意流转（与历史后台行为一致），
// 但进入 completed/cancelled/refunded 时会触发商品侧联动，见 ledger 包。
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// ValidOrderStatus 校验订单状态枚举值。
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

// PaymentStatus 收款状态，和订单状态相互独立：
// 订单可以先发货（completed）后确认收款，也可以只记退款不改状态。
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// ValidPaymentStatus 校验收款状态枚举值。
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// ProductSnapshot 下单瞬间的商品快照。商品后续改价、改名不影响已有订单。
type ProductSnapshot struct {
	Category   string `gorm:"size:64" json:"category"`
	Name       string `gorm:"size:128" json:"name"`
	PriceCents int64  `json:"price_cents"`
	Seller     string `gorm:"size:64" json:"seller"`
}

// BuyerInfo 买家联系信息。邮箱必填，是匿名订单的唯一身份标识。
type BuyerInfo struct {
	Email  string `gorm:"size:128;not null;index" json:"email"`
	Region string `gorm:"size:64" json:"region"`
	Gender string `gorm:"size:16" json:"gender"`
	Notes  string `gorm:"size:512" json:"notes"`
}

// Order 订单。创建后只有 status/payment_status/admin_notes 可变，其余字段留作审计。
type Order struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrderNo   string          `gorm:"size:64;uniqueIndex;not null" json:"order_no"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Product   ProductSnapshot `gorm:"embedded;embeddedPrefix:product_" json:"product_info"`

	// UserID 仅注册买家下单时填写，匿名订单为空
	UserID *uint     `gorm:"index" json:"user_id,omitempty"`
	Buyer  BuyerInfo `gorm:"embedded;embeddedPrefix:buyer_" json:"buyer_info"`

	Quantity       int   `gorm:"not null;default:1" json:"quantity"`
	UnitPriceCents int64 `gorm:"not null" json:"unit_price_cents"` // 单位：分
	TotalCents     int64 `gorm:"not null" json:"total_cents"`

	Status        OrderStatus   `gorm:"size:16;not null;default:pending;index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"size:16;not null;default:unpaid;index" json:"payment_status"`

	PayMethod     string     `gorm:"size:32" json:"pay_method"`
	TransactionID string     `gorm:"size:128" json:"transaction_id"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`

	AdminNotes string `gorm:"size:512" json:"admin_notes"`
}

func (Order) TableName() string { return "orders" }
