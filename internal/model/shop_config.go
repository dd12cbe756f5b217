package model

import (
	"time"

	"gorm.io/gorm"
)

// ShopConfig 商城配置单例：公告、横幅与商家联系方式。
// 只允许通过白名单字段更新，见 router 包。
type ShopConfig struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Banner       string `gorm:"size:255" json:"banner"` // 横幅图片 URL
	Announcement string `gorm:"size:512" json:"announcement"`

	MerchantName  string `gorm:"size:64" json:"merchant_name"`
	BusinessHours string `gorm:"size:64" json:"business_hours"`
	QQ            string `gorm:"size:32" json:"qq"`
	Wechat        string `gorm:"size:32" json:"wechat"`
}

func (ShopConfig) TableName() string { return "shop_configs" }
