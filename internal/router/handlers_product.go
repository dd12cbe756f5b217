package router

import (
	"errors"
	"net/http"

	"account_shop/internal/catalog"
	"account_shop/internal/model"
	rediskey "account_shop/pkg/redis"

	"github.com/gin-gonic/gin"
)

// createProduct 创建商品（管理员）。库存缺省为 1（独占型账号）。
func createProduct(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID   string `json:"product_id" binding:"required"`
			Category    string `json:"category" binding:"required"`
			Name        string `json:"name" binding:"required"`
			Seller      string `json:"seller"`
			Description string `json:"description"`
			PriceCents  int64  `json:"price_cents" binding:"min=0"`
			Stock       *int64 `json:"stock" binding:"omitempty,min=0"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		p, err := d.Catalog.Create(c.Request.Context(), catalog.CreateInput{
			ProductID:   req.ProductID,
			Category:    req.Category,
			Name:        req.Name,
			Seller:      req.Seller,
			Description: req.Description,
			PriceCents:  req.PriceCents,
			Stock:       req.Stock,
		})
		if err != nil {
			switch {
			case errors.Is(err, catalog.ErrDuplicateID):
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "商品编号已存在"})
			case errors.Is(err, catalog.ErrInvalidProduct):
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			}
			return
		}
		c.JSON(http.StatusCreated, gin.H{"code": 0, "data": p})
	}
}

// listProducts 商品列表，支持分类/状态筛选与分页。
func listProducts(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := parsePageQuery(c)
		// category 与 type 两种参数名都接受（历史前端两种都用过）
		category := c.Query("category")
		if category == "" {
			category = c.Query("type")
		}

		result, err := d.Catalog.List(c.Request.Context(), catalog.ListFilter{
			Category: category,
			Status:   model.ProductStatus(c.Query("status")),
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": result})
	}
}

// getProduct 商品详情。配置 Redis 时走读穿缓存。
func getProduct(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		if d.RDB != nil {
			if p, hit := rediskey.GetProduct(c.Request.Context(), d.RDB, id); hit {
				c.JSON(http.StatusOK, gin.H{"code": 0, "data": p})
				return
			}
		}

		p, err := d.Catalog.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "商品不存在"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		if d.RDB != nil {
			rediskey.PutProduct(c.Request.Context(), d.RDB, p, d.Cfg.ProductCacheTTL)
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": p})
	}
}

// updateProduct 部分更新商品（管理员），字段白名单见 catalog.UpdateInput。
func updateProduct(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		var req struct {
			Category    *string `json:"category"`
			Name        *string `json:"name"`
			Seller      *string `json:"seller"`
			Description *string `json:"description"`
			PriceCents  *int64  `json:"price_cents"`
			Stock       *int64  `json:"stock"`
			Status      *string `json:"status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		in := catalog.UpdateInput{
			Category:    req.Category,
			Name:        req.Name,
			Seller:      req.Seller,
			Description: req.Description,
			PriceCents:  req.PriceCents,
			Stock:       req.Stock,
		}
		if req.Status != nil {
			s := model.ProductStatus(*req.Status)
			in.Status = &s
		}

		p, err := d.Catalog.Update(c.Request.Context(), id, in)
		if err != nil {
			switch {
			case errors.Is(err, catalog.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "商品不存在"})
			case errors.Is(err, catalog.ErrInvalidProduct):
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			}
			return
		}
		invalidateProductCache(c, d, id)
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": p})
	}
}

// deleteProduct 删除商品（管理员）。
func deleteProduct(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		if err := d.Catalog.Delete(c.Request.Context(), id); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "商品不存在"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		invalidateProductCache(c, d, id)
		c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "商品删除成功"})
	}
}

// listProductTypes 商品类型列表。
func listProductTypes(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var types []model.ProductType
		if err := d.DB.Order("id").Find(&types).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": types})
	}
}

// createProductType 新增商品类型（管理员）。
func createProductType(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name        string `json:"name" binding:"required"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		t := &model.ProductType{Name: req.Name, Description: req.Description}
		if err := d.DB.Create(t).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"code": 0, "data": t})
	}
}
