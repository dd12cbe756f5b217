package model

import (
	"time"

	"gorm.io/gorm"
)

// ProductStatus 商品可售状态。sold 由库存推导（stock==0），reserved 由管理员显式标记。
type ProductStatus string

const (
	ProductAvailable ProductStatus = "available"
	ProductReserved  ProductStatus = "reserved"
	ProductSold      ProductStatus = "sold"
)

// ValidProductStatus 校验状态枚举值。
func ValidProductStatus(s ProductStatus) bool {
	switch s {
	case ProductAvailable, ProductReserved, ProductSold:
		return true
	}
	return false
}

// DeriveProductStatus 按库存推导状态：库存为 0 即 sold；
// reserved 为显式标记，只要还有库存就保留。
func DeriveProductStatus(stock int64, current ProductStatus) ProductStatus {
	if stock == 0 {
		return ProductSold
	}
	if current == ProductReserved {
		return ProductReserved
	}
	return ProductAvailable
}

// Product 数字账号商品：分类、卖家、价格、库存与派生状态。
// 独占型账号默认库存 1，卖出即 sold。
type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// ProductID 对外业务编号，全局唯一
	ProductID   string        `gorm:"size:64;uniqueIndex;not null" json:"product_id"`
	Category    string        `gorm:"size:64;not null;index" json:"category"`
	Name        string        `gorm:"size:128;not null" json:"name"`
	Seller      string        `gorm:"size:64" json:"seller"`
	Description string        `gorm:"size:1024" json:"description"`
	PriceCents  int64         `gorm:"not null" json:"price_cents"` // 单位：分
	Stock       int64         `gorm:"not null;default:1" json:"stock"`
	Status      ProductStatus `gorm:"size:16;not null;default:available;index" json:"status"`
}

func (Product) TableName() string { return "products" }
