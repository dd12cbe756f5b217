package model

import (
	"time"

	"gorm.io/gorm"
)

// ProductType 商品类型字典（微博、QQ、游戏等），前台筛选用。
type ProductType struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string `gorm:"size:64;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
}

func (ProductType) TableName() string { return "product_types" }
