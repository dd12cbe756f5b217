package router

import (
	"errors"
	"net/http"

	"account_shop/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// getShopConfig 商城配置。首次访问时落一条默认配置。
func getShopConfig(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cfg model.ShopConfig
		err := d.DB.First(&cfg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cfg = model.ShopConfig{
				Announcement:  "欢迎来到账号商城！",
				MerchantName:  "优质账号商城",
				BusinessHours: "7x24小时",
			}
			err = d.DB.Create(&cfg).Error
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": cfg})
	}
}

// updateShopConfig 更新商城配置（管理员）。
// 白名单逐字段合并，请求体里没出现的字段保持原值。
func updateShopConfig(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Banner        *string `json:"banner"`
			Announcement  *string `json:"announcement"`
			MerchantName  *string `json:"merchant_name"`
			BusinessHours *string `json:"business_hours"`
			QQ            *string `json:"qq"`
			Wechat        *string `json:"wechat"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		var cfg model.ShopConfig
		err := d.DB.First(&cfg).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}

		if req.Banner != nil {
			cfg.Banner = *req.Banner
		}
		if req.Announcement != nil {
			cfg.Announcement = *req.Announcement
		}
		if req.MerchantName != nil {
			cfg.MerchantName = *req.MerchantName
		}
		if req.BusinessHours != nil {
			cfg.BusinessHours = *req.BusinessHours
		}
		if req.QQ != nil {
			cfg.QQ = *req.QQ
		}
		if req.Wechat != nil {
			cfg.Wechat = *req.Wechat
		}

		if err := d.DB.Save(&cfg).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": cfg, "msg": "配置更新成功"})
	}
}
