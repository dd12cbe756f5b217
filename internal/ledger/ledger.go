package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"account_shop/internal/catalog"
	"account_shop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound             = errors.New("order not found")
	ErrProductUnavailable   = errors.New("product not available")
	ErrInvalidOrder         = errors.New("invalid order")
	ErrInvalidStatus        = errors.New("invalid order status")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
)

// Ledger 订单台账。订单创建后不删除，状态类字段只能经由本包的
// 流转方法修改，商品侧联动也在这里统一触发。
type Ledger struct {
	db      *gorm.DB
	catalog *catalog.Catalog
}

func New(db *gorm.DB, c *catalog.Catalog) *Ledger {
	return &Ledger{db: db, catalog: c}
}

// CreateInput 下单参数。ProductID 是商品业务编号；UserID 仅登录买家有值。
type CreateInput struct {
	ProductID string
	Quantity  int
	Buyer     model.BuyerInfo
	UserID    *uint
}

// Create 下单。关键顺序：
// 1. 查商品、校验可售
// 2. 原子扣库存（条件 UPDATE，失败即止，不会产生半个订单）
// 3. 落订单；失败则回补库存
// 扣库存在前、写订单在后，保证不会出现“订单在、库存没扣”的脏数据。
func (l *Ledger) Create(ctx context.Context, in CreateInput) (*model.Order, error) {
	if strings.TrimSpace(in.Buyer.Email) == "" {
		return nil, fmt.Errorf("%w: buyer email is required", ErrInvalidOrder)
	}
	if in.Quantity <= 0 {
		in.Quantity = 1
	}

	p, err := l.catalog.GetByProductID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.ProductAvailable {
		return nil, ErrProductUnavailable
	}

	if _, err := l.catalog.AdjustStock(ctx, p.ID, -int64(in.Quantity)); err != nil {
		return nil, err
	}

	order := &model.Order{
		OrderNo:   newOrderNo(),
		ProductID: p.ID,
		Product: model.ProductSnapshot{
			Category:   p.Category,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			Seller:     p.Seller,
		},
		UserID:         in.UserID,
		Buyer:          in.Buyer,
		Quantity:       in.Quantity,
		UnitPriceCents: p.PriceCents,
		TotalCents:     p.PriceCents * int64(in.Quantity),
		Status:         model.OrderPending,
		PaymentStatus:  model.PaymentUnpaid,
	}
	if err := l.db.WithContext(ctx).Create(order).Error; err != nil {
		// 订单没写进去就把扣掉的库存补回来，尽力而为
		if _, compErr := l.catalog.AdjustStock(ctx, p.ID, int64(in.Quantity)); compErr != nil {
			log.Printf("ledger: compensate stock product=%d qty=%d: %v", p.ID, in.Quantity, compErr)
		}
		return nil, err
	}
	return order, nil
}

// Get 按主键取订单。
func (l *Ledger) Get(ctx context.Context, id uint) (*model.Order, error) {
	var o model.Order
	if err := l.db.WithContext(ctx).First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// ListFilter 管理端订单筛选。Email 为大小写不敏感的子串匹配。
type ListFilter struct {
	Status        model.OrderStatus
	PaymentStatus model.PaymentStatus
	Email         string
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	Limit         int
}

// Page 分页结果。
type Page struct {
	Orders     []model.Order `json:"orders"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

// List 管理端订单列表，创建时间倒序。
func (l *Ledger) List(ctx context.Context, f ListFilter) (*Page, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}

	q := l.db.WithContext(ctx).Model(&model.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.Email != "" {
		q = q.Where("LOWER(buyer_email) LIKE ?", "%"+strings.ToLower(f.Email)+"%")
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("created_at < ?", *f.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var orders []model.Order
	err := q.Order("created_at DESC, id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return &Page{
		Orders:     orders,
		Total:      total,
		Page:       f.Page,
		TotalPages: int(math.Ceil(float64(total) / float64(f.Limit))),
	}, nil
}

// ListForUser 买家查看自己的订单，创建时间倒序。
func (l *Ledger) ListForUser(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

// newOrderNo 生成订单号：AS 前缀 + uuid 去横线取前 16 位。
func newOrderNo() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "AS" + strings.ToUpper(raw[:16])
}
