package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"account_shop/internal/catalog"
	"account_shop/internal/model"
)

// 订单状态与商品库存的联动规则：
//   - 进入 completed：商品强制置为 sold（库存清零）
//   - 进入 cancelled/refunded：若订单此前仍占用库存，则按数量回补
//   - 其余流转（pending ↔ processing 等）不碰商品
//
// 状态间不设流转表，任意状态可以改成任意状态（与历史后台行为一致），
// 副作用只看 (原状态, 新状态) 这一对。

// holdsStock 判断某状态下订单是否仍占用库存。
// cancelled/refunded 已经回补过，不再占用。
func holdsStock(s model.OrderStatus) bool {
	return s != model.OrderCancelled && s != model.OrderRefunded
}

// releasesStock 判断进入该状态是否需要回补库存。
func releasesStock(s model.OrderStatus) bool {
	return s == model.OrderCancelled || s == model.OrderRefunded
}

// SetStatus 修改订单状态并触发商品侧联动。
// 重复取消不会重复回补：回补只在“原状态仍占用库存”时发生。
func (l *Ledger) SetStatus(ctx context.Context, id uint, next model.OrderStatus, adminNotes string) (*model.Order, error) {
	if !model.ValidOrderStatus(next) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}

	order, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := order.Status

	order.Status = next
	if adminNotes != "" {
		order.AdminNotes = adminNotes
	}
	if err := l.db.WithContext(ctx).Save(order).Error; err != nil {
		return nil, err
	}

	l.applyCatalogEffect(ctx, order, prev, next)
	return order, nil
}

// applyCatalogEffect 执行状态流转对商品的联动。
// 商品可能已被管理员删除，联动时找不到商品按无事发生处理。
func (l *Ledger) applyCatalogEffect(ctx context.Context, order *model.Order, prev, next model.OrderStatus) {
	switch {
	case next == model.OrderCompleted:
		if err := l.catalog.MarkSold(ctx, order.ProductID); err != nil && !errors.Is(err, catalog.ErrNotFound) {
			log.Printf("ledger: mark sold product=%d order=%s: %v", order.ProductID, order.OrderNo, err)
		}
	case releasesStock(next) && holdsStock(prev):
		if _, err := l.catalog.AdjustStock(ctx, order.ProductID, int64(order.Quantity)); err != nil && !errors.Is(err, catalog.ErrNotFound) {
			log.Printf("ledger: restore stock product=%d order=%s: %v", order.ProductID, order.OrderNo, err)
		}
	}
}

// PaymentInfo 收款补充信息。非空字段才会合并进订单，不会清掉已有值。
type PaymentInfo struct {
	Method        string
	TransactionID string
}

// SetPaymentStatus 修改收款状态，与订单状态互不影响。
// 首次进入 paid 时打 paid_at 时间戳，此后不再变。
func (l *Ledger) SetPaymentStatus(ctx context.Context, id uint, next model.PaymentStatus, info PaymentInfo) (*model.Order, error) {
	if !model.ValidPaymentStatus(next) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, next)
	}

	order, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	order.PaymentStatus = next
	if info.Method != "" {
		order.PayMethod = info.Method
	}
	if info.TransactionID != "" {
		order.TransactionID = info.TransactionID
	}
	if next == model.PaymentPaid && order.PaidAt == nil {
		now := time.Now()
		order.PaidAt = &now
	}

	if err := l.db.WithContext(ctx).Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// BatchResult 批量改状态的单条结果。
type BatchResult struct {
	OrderID uint   `json:"order_id"`
	OK      bool   `json:"ok"`
	Reason  string `json:"reason,omitempty"`

	// Order 成功时的最新订单，供调用方发事件/清缓存用，不序列化
	Order *model.Order `json:"-"`
}

// BatchSetStatus 逐单应用 SetStatus，单条失败不影响其他条目，
// 每条结果独立上报。
func (l *Ledger) BatchSetStatus(ctx context.Context, ids []uint, next model.OrderStatus, adminNotes string) []BatchResult {
	results := make([]BatchResult, 0, len(ids))
	for _, id := range ids {
		order, err := l.SetStatus(ctx, id, next, adminNotes)
		if err != nil {
			results = append(results, BatchResult{OrderID: id, OK: false, Reason: err.Error()})
			continue
		}
		results = append(results, BatchResult{OrderID: id, OK: true, Order: order})
	}
	return results
}
