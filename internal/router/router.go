package router

import (
	"log"
	"net/http"
	"strconv"

	"account_shop/internal/catalog"
	"account_shop/internal/config"
	"account_shop/internal/ledger"
	"account_shop/internal/middleware"
	"account_shop/internal/queue"
	rediskey "account_shop/pkg/redis"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps 聚合 handler 依赖，由 main 装配。RDB 与 Producer 允许为 nil，
// 对应 Redis/Kafka 未配置的部署形态。
type Deps struct {
	DB       *gorm.DB
	Catalog  *catalog.Catalog
	Ledger   *ledger.Ledger
	RDB      *rd.Client
	Producer *queue.Producer
	Cfg      config.AppConfig
}

// Setup 注册全部 HTTP 路由。
func Setup(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})

	api := r.Group("/api")

	authed := middleware.Authenticate(d.DB, d.Cfg.JWTSecret)
	optional := middleware.OptionalAuth(d.DB, d.Cfg.JWTSecret)
	adminOnly := middleware.RequireAdmin()

	// 账号
	api.POST("/admin/register", optional, registerAdmin(d))
	api.POST("/admin/login", login(d))
	api.POST("/auth/register", registerUser(d))
	api.POST("/auth/login", login(d))

	// 商品
	api.GET("/products", listProducts(d))
	api.GET("/products/:id", getProduct(d))
	api.POST("/products", authed, adminOnly, createProduct(d))
	api.PUT("/products/:id", authed, adminOnly, updateProduct(d))
	api.DELETE("/products/:id", authed, adminOnly, deleteProduct(d))

	// 商品类型
	api.GET("/product_types", listProductTypes(d))
	api.POST("/product_types", authed, adminOnly, createProductType(d))

	// 订单。下单不要求登录（匿名买家按邮箱标识）；配置了 Redis 时挂限流。
	createChain := []gin.HandlerFunc{}
	if d.RDB != nil {
		createChain = append(createChain, middleware.OrderRateLimit(d.RDB, d.Cfg.OrderRateLimit, d.Cfg.OrderRateWindow))
	}
	createChain = append(createChain, optional, createOrder(d))
	api.POST("/orders", createChain...)
	api.GET("/orders", authed, adminOnly, listOrders(d))
	api.GET("/my/orders", authed, listMyOrders(d))
	api.GET("/orders/:id", optional, getOrder(d))
	api.PATCH("/orders/:id/status", authed, adminOnly, setOrderStatus(d))
	api.PATCH("/orders/:id/payment", authed, adminOnly, setOrderPayment(d))
	api.POST("/orders/batch/status", authed, adminOnly, batchSetOrderStatus(d))

	// 商城配置
	api.GET("/shop/config", getShopConfig(d))
	api.PUT("/shop/config", authed, adminOnly, updateShopConfig(d))
}

// parseIDParam 解析路径中的数字主键，失败时已写好 400 响应。
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "ID无效"})
		return 0, false
	}
	return uint(id), true
}

// parsePageQuery 解析 page/limit 查询参数，非法值回退默认。
func parsePageQuery(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return page, limit
}

// publishEvent 尽力发布订单事件，未配置 Kafka 时为空操作。
func publishEvent(c *gin.Context, d Deps, ev queue.OrderEvent) {
	if d.Producer == nil {
		return
	}
	if err := d.Producer.Publish(c.Request.Context(), ev); err != nil {
		log.Printf("publish %s order=%s: %v", ev.Event, ev.OrderNo, err)
	}
}

// invalidateProductCache 删商品缓存键，未配置 Redis 时为空操作。
func invalidateProductCache(c *gin.Context, d Deps, productID uint) {
	if d.RDB == nil {
		return
	}
	rediskey.InvalidateProduct(c.Request.Context(), d.RDB, productID)
}
