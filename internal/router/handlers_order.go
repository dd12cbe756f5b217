package router

import (
	"errors"
	"net/http"
	"time"

	"account_shop/internal/catalog"
	"account_shop/internal/ledger"
	"account_shop/internal/middleware"
	"account_shop/internal/model"
	"account_shop/internal/queue"

	"github.com/gin-gonic/gin"
)

// createOrder 下单入口。匿名买家按邮箱标识；登录买家额外记 user_id。
// 库存扣减与订单落库的顺序约束见 ledger.Create。
func createOrder(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID string `json:"product_id" binding:"required"`
			Quantity  int    `json:"quantity" binding:"omitempty,min=1"`
			Buyer     struct {
				Email  string `json:"email" binding:"required,email"`
				Region string `json:"region"`
				Gender string `json:"gender" binding:"omitempty,oneof=male female other"`
				Notes  string `json:"notes"`
			} `json:"buyer_info" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		in := ledger.CreateInput{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			Buyer: model.BuyerInfo{
				Email:  req.Buyer.Email,
				Region: req.Buyer.Region,
				Gender: req.Buyer.Gender,
				Notes:  req.Buyer.Notes,
			},
		}
		if u, ok := middleware.Principal(c); ok {
			in.UserID = &u.ID
		}

		order, err := d.Ledger.Create(c.Request.Context(), in)
		if err != nil {
			switch {
			case errors.Is(err, catalog.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "商品不存在"})
			case errors.Is(err, ledger.ErrProductUnavailable), errors.Is(err, catalog.ErrInsufficientStock):
				c.JSON(http.StatusConflict, gin.H{"code": 409, "msg": "商品不可购买或库存不足"})
			case errors.Is(err, ledger.ErrInvalidOrder):
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			}
			return
		}

		invalidateProductCache(c, d, order.ProductID)
		publishEvent(c, d, queue.NewOrderEvent(queue.EventOrderCreated, order))
		c.JSON(http.StatusCreated, gin.H{"code": 0, "data": order})
	}
}

// listOrders 管理端订单列表，支持状态/收款状态/邮箱/时间段筛选。
func listOrders(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := parsePageQuery(c)
		f := ledger.ListFilter{
			Status:        model.OrderStatus(c.Query("status")),
			PaymentStatus: model.PaymentStatus(c.Query("payment_status")),
			Email:         c.Query("email"),
			Page:          page,
			Limit:         limit,
		}

		if v := c.Query("start_date"); v != "" {
			t, _, err := parseDateQuery(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "start_date 格式错误，请用 RFC3339 或 2006-01-02"})
				return
			}
			f.StartDate = &t
		}
		if v := c.Query("end_date"); v != "" {
			t, dateOnly, err := parseDateQuery(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "end_date 格式错误，请用 RFC3339 或 2006-01-02"})
				return
			}
			if dateOnly {
				// 纯日期按当天最后一刻截止
				t = t.Add(24 * time.Hour)
			}
			f.EndDate = &t
		}

		result, err := d.Ledger.List(c.Request.Context(), f)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": result})
	}
}

// listMyOrders 登录买家查看自己的订单。
func listMyOrders(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := middleware.Principal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "未提供认证令牌"})
			return
		}
		orders, err := d.Ledger.ListForUser(c.Request.Context(), u.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": orders})
	}
}

// getOrder 订单详情。匿名订单凭 id 即可查询（下单响应就是回执）；
// 归属某买家的订单只有本人或管理员可见。
func getOrder(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		order, err := d.Ledger.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "订单不存在"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}

		if order.UserID != nil {
			u, ok := middleware.Principal(c)
			if !ok || (!u.IsAdmin() && u.ID != *order.UserID) {
				c.JSON(http.StatusForbidden, gin.H{"code": 403, "msg": "无权查看该订单"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": order})
	}
}

// setOrderStatus 修改订单状态（管理员），商品侧联动见 ledger 包。
func setOrderStatus(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		var req struct {
			Status     string `json:"status" binding:"required"`
			AdminNotes string `json:"admin_notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		order, err := d.Ledger.SetStatus(c.Request.Context(), id, model.OrderStatus(req.Status), req.AdminNotes)
		if err != nil {
			switch {
			case errors.Is(err, ledger.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "订单不存在"})
			case errors.Is(err, ledger.ErrInvalidStatus):
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "无效的订单状态"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			}
			return
		}

		// 状态联动可能动过库存
		invalidateProductCache(c, d, order.ProductID)
		publishEvent(c, d, queue.NewOrderEvent(queue.EventOrderStatusChanged, order))
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": order})
	}
}

// setOrderPayment 修改收款状态（管理员），与订单状态正交。
func setOrderPayment(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		var req struct {
			PaymentStatus string `json:"payment_status" binding:"required"`
			PaymentInfo   struct {
				Method        string `json:"method"`
				TransactionID string `json:"transaction_id"`
			} `json:"payment_info"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		order, err := d.Ledger.SetPaymentStatus(c.Request.Context(), id,
			model.PaymentStatus(req.PaymentStatus),
			ledger.PaymentInfo{
				Method:        req.PaymentInfo.Method,
				TransactionID: req.PaymentInfo.TransactionID,
			})
		if err != nil {
			switch {
			case errors.Is(err, ledger.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "订单不存在"})
			case errors.Is(err, ledger.ErrInvalidPaymentStatus):
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "无效的收款状态"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			}
			return
		}

		publishEvent(c, d, queue.NewOrderEvent(queue.EventOrderPaymentChanged, order))
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": order})
	}
}

// batchSetOrderStatus 批量改状态（管理员）。逐单处理，
// 单条失败不中断，结果逐条上报。
func batchSetOrderStatus(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			OrderIDs   []uint `json:"order_ids" binding:"required,min=1"`
			Status     string `json:"status" binding:"required"`
			AdminNotes string `json:"admin_notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		results := d.Ledger.BatchSetStatus(c.Request.Context(), req.OrderIDs, model.OrderStatus(req.Status), req.AdminNotes)
		for _, r := range results {
			if !r.OK || r.Order == nil {
				continue
			}
			invalidateProductCache(c, d, r.Order.ProductID)
			publishEvent(c, d, queue.NewOrderEvent(queue.EventOrderStatusChanged, r.Order))
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"results": results}})
	}
}

// parseDateQuery 解析日期参数：优先 RFC3339，失败回退纯日期格式。
// 第二个返回值表示是否是纯日期。
func parseDateQuery(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
