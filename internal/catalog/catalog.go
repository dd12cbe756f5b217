package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"account_shop/internal/model"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrDuplicateID       = errors.New("product id already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidProduct    = errors.New("invalid product")
)

// Catalog 商品目录：负责商品 CRUD 与库存的原子增减。
// 库存扣减必须走 AdjustStock，禁止读-改-写，防止并发超卖。
type Catalog struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Catalog { return &Catalog{db: db} }

// CreateInput 建品参数。Stock 为 nil 时默认 1（独占型账号一号一单）。
type CreateInput struct {
	ProductID   string
	Category    string
	Name        string
	Seller      string
	Description string
	PriceCents  int64
	Stock       *int64
}

// Create 校验并落库新商品，业务编号重复返回 ErrDuplicateID。
func (c *Catalog) Create(ctx context.Context, in CreateInput) (*model.Product, error) {
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, fmt.Errorf("%w: product_id is required", ErrInvalidProduct)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if strings.TrimSpace(in.Category) == "" {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidProduct)
	}
	if in.PriceCents < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrInvalidProduct)
	}
	stock := int64(1)
	if in.Stock != nil {
		stock = *in.Stock
	}
	if stock < 0 {
		return nil, fmt.Errorf("%w: stock must be >= 0", ErrInvalidProduct)
	}

	p := &model.Product{
		ProductID:   strings.TrimSpace(in.ProductID),
		Category:    in.Category,
		Name:        in.Name,
		Seller:      in.Seller,
		Description: in.Description,
		PriceCents:  in.PriceCents,
		Stock:       stock,
		Status:      model.DeriveProductStatus(stock, model.ProductAvailable),
	}
	if err := c.db.WithContext(ctx).Create(p).Error; err != nil {
		if looksLikeUniqueViolation(err) {
			return nil, ErrDuplicateID
		}
		return nil, err
	}
	return p, nil
}

// Get 按主键取商品。
func (c *Catalog) Get(ctx context.Context, id uint) (*model.Product, error) {
	var p model.Product
	if err := c.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetByProductID 按业务编号取商品，下单入口用。
func (c *Catalog) GetByProductID(ctx context.Context, productID string) (*model.Product, error) {
	var p model.Product
	err := c.db.WithContext(ctx).Where("product_id = ?", productID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListFilter 列表筛选与分页参数。
type ListFilter struct {
	Category string
	Status   model.ProductStatus
	Page     int
	Limit    int
}

// Page 分页结果，附带总数与总页数。
type Page struct {
	Products   []model.Product `json:"products"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
}

// List 按创建时间倒序分页列出商品。
func (c *Catalog) List(ctx context.Context, f ListFilter) (*Page, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}

	q := c.db.WithContext(ctx).Model(&model.Product{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var products []model.Product
	err := q.Order("created_at DESC, id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	return &Page{
		Products:   products,
		Total:      total,
		Page:       f.Page,
		TotalPages: int(math.Ceil(float64(total) / float64(f.Limit))),
	}, nil
}

// UpdateInput 白名单式部分更新：只有这里列出的字段可被管理端修改，
// 不存在“请求体直接覆盖记录”的路径。
type UpdateInput struct {
	Category    *string
	Name        *string
	Seller      *string
	Description *string
	PriceCents  *int64
	Stock       *int64
	Status      *model.ProductStatus
}

// Update 部分字段合并后重新校验。显式把状态改为 sold 等价于清零库存。
func (c *Catalog) Update(ctx context.Context, id uint, in UpdateInput) (*model.Product, error) {
	p, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Category != nil {
		if strings.TrimSpace(*in.Category) == "" {
			return nil, fmt.Errorf("%w: category is required", ErrInvalidProduct)
		}
		p.Category = *in.Category
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
		}
		p.Name = *in.Name
	}
	if in.Seller != nil {
		p.Seller = *in.Seller
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.PriceCents != nil {
		if *in.PriceCents < 0 {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrInvalidProduct)
		}
		p.PriceCents = *in.PriceCents
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, fmt.Errorf("%w: stock must be >= 0", ErrInvalidProduct)
		}
		p.Stock = *in.Stock
	}
	if in.Status != nil {
		if !model.ValidProductStatus(*in.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidProduct, *in.Status)
		}
		p.Status = *in.Status
		if *in.Status == model.ProductSold {
			p.Stock = 0
		}
	}

	// 维持不变量：status==sold ⟺ stock==0（reserved 除外）
	p.Status = model.DeriveProductStatus(p.Stock, p.Status)

	if err := c.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// AdjustStock 原子调整库存：stock += delta，结果为负则整条不生效。
// 条件更新在一条 UPDATE 里完成判断与扣减，两个并发请求抢最后一件
// 时只会有一个成功。
func (c *Catalog) AdjustStock(ctx context.Context, id uint, delta int64) (*model.Product, error) {
	res := c.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// 区分商品不存在和库存不足
		if _, err := c.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInsufficientStock
	}

	p, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// 扣减后重算派生状态
	if next := model.DeriveProductStatus(p.Stock, p.Status); next != p.Status {
		if err := c.db.WithContext(ctx).Model(p).Update("status", next).Error; err != nil {
			return nil, err
		}
		p.Status = next
	}
	return p, nil
}

// MarkSold 把商品强制置为卖出（库存清零）。订单完结时由 ledger 调用。
func (c *Catalog) MarkSold(ctx context.Context, id uint) error {
	res := c.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{"stock": 0, "status": model.ProductSold})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete 删除商品。这里用硬删除，业务编号删除后可复用。
func (c *Catalog) Delete(ctx context.Context, id uint) error {
	res := c.db.WithContext(ctx).Unscoped().Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// looksLikeUniqueViolation 识别 sqlite 唯一约束错误。
func looksLikeUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE") || strings.Contains(s, "unique")
}
