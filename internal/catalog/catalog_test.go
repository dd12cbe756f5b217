package catalog

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"account_shop/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:catalog_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 单连接：内存库不丢数据，并发写串行化
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Product{}))
	return db
}

func int64p(v int64) *int64 { return &v }

func TestCreateAndGetRoundTrip(t *testing.T) {
	c := New(newTestDB(t))
	ctx := context.Background()

	created, err := c.Create(ctx, CreateInput{
		ProductID:   "WB-1001",
		Category:    "微博",
		Name:        "五年老号",
		Seller:      "随机",
		Description: "带原始邮箱",
		PriceCents:  8800,
		Stock:       int64p(3),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "WB-1001", got.ProductID)
	assert.Equal(t, "微博", got.Category)
	assert.Equal(t, "五年老号", got.Name)
	assert.Equal(t, "随机", got.Seller)
	assert.Equal(t, "带原始邮箱", got.Description)
	assert.Equal(t, int64(8800), got.PriceCents)
	assert.Equal(t, int64(3), got.Stock)
	assert.Equal(t, model.ProductAvailable, got.Status)
}

func TestCreateDefaultsAndValidation(t *testing.T) {
	c := New(newTestDB(t))
	ctx := context.Background()

	// 未给库存时默认 1
	p, err := c.Create(ctx, CreateInput{ProductID: "QQ-1", Category: "QQ", Name: "靓号", PriceCents: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Stock)

	// 库存 0 直接是 sold
	p, err = c.Create(ctx, CreateInput{ProductID: "QQ-2", Category: "QQ", Name: "占位", PriceCents: 100, Stock: int64p(0)})
	require.NoError(t, err)
	assert.Equal(t, model.ProductSold, p.Status)

	_, err = c.Create(ctx, CreateInput{ProductID: "QQ-3", Category: "QQ", Name: "负价", PriceCents: -1})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = c.Create(ctx, CreateInput{ProductID: "QQ-4", Category: "QQ", Name: "负库存", PriceCents: 1, Stock: int64p(-1)})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = c.Create(ctx, CreateInput{ProductID: "QQ-5", Category: "QQ", PriceCents: 1})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	// 业务编号唯一
	_, err = c.Create(ctx, CreateInput{ProductID: "QQ-1", Category: "QQ", Name: "重复编号", PriceCents: 100})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestGetNotFound(t *testing.T) {
	c := New(newTestDB(t))

	_, err := c.Get(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetByProductID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdjustStock(t *testing.T) {
	c := New(newTestDB(t))
	ctx := context.Background()

	p, err := c.Create(ctx, CreateInput{ProductID: "G-1", Category: "游戏", Name: "Steam 号", PriceCents: 5000, Stock: int64p(2)})
	require.NoError(t, err)

	// 扣到 0 应翻转为 sold
	p2, err := c.AdjustStock(ctx, p.ID, -2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p2.Stock)
	assert.Equal(t, model.ProductSold, p2.Status)

	// 结果为负的扣减整条拒绝
	_, err = c.AdjustStock(ctx, p.ID, -1)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// 回补后恢复 available
	p3, err := c.AdjustStock(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p3.Stock)
	assert.Equal(t, model.ProductAvailable, p3.Status)

	_, err = c.AdjustStock(ctx, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdjustStockKeepsReserved(t *testing.T) {
	c := New(newTestDB(t))
	ctx := context.Background()

	p, err := c.Create(ctx, CreateInput{ProductID: "G-2", Category: "游戏", Name: "预留号", PriceCents: 100, Stock: int64p(3)})
	require.NoError(t, err)

	st := model.ProductReserved
	_, err = c.Update(ctx, p.ID, UpdateInput{Status: &st})
	require.NoError(t, err)

	// 有库存时 reserved 标记不被派生逻辑冲掉
	p2, err := c.AdjustStock(ctx, p.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, model.ProductReserved, p2.Status)
}

func TestMarkSold(t *testing.T) {
	c := New(newTestDB(t))
	ctx := context.Background()

	p, err := c.Create(ctx, CreateInput{ProductID: "G-3", Category: "游戏", Name: "完结号", PriceCents: 100, Stock: int64p(5)})
	require.NoError(t, err)

	require.NoError(t, c.MarkSold(ctx, p.ID))
	got, err := c.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Stock)
	assert.Equal(t, model.ProductSold, got.Status)

	assert.ErrorIs(t, c.MarkSold(ctx, 999), ErrNotFound)
}

func TestUpdatePatch(t *testing.T) {
	c := New(newTestDB(t))
	ctx := context.Background()

	p, err := c.Create(ctx, CreateInput{ProductID: "WB-2", Category: "微博", Name: "老号", PriceCents: 1000, Stock: int64p(2)})
	require.NoError(t, err)

	name := "十年老号"
	price := int64(2000)
	got, err := c.Update(ctx, p.ID, UpdateInput{Name: &name, PriceCents: &price})
	require.NoError(t, err)
	assert.Equal(t, "十年老号", got.Name)
	assert.Equal(t, int64(2000), got.PriceCents)
	// 未出现在 patch 里的字段不变
	assert.Equal(t, "微博", got.Category)
	assert.Equal(t, int64(2), got.Stock)

	// 显式置 sold 等价于清零库存
	st := model.ProductSold
	got, err = c.Update(ctx, p.ID, UpdateInput{Status: &st})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Stock)
	assert.Equal(t, model.ProductSold, got.Status)

	bad := model.ProductStatus("banana")
	_, err = c.Update(ctx, p.ID, UpdateInput{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	negative := int64(-5)
	_, err = c.Update(ctx, p.ID, UpdateInput{PriceCents: &negative})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = c.Update(ctx, 999, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFilterAndPagination(t *testing.T) {
	c := New(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := c.Create(ctx, CreateInput{
			ProductID:  fmt.Sprintf("WB-%d", i),
			Category:   "微博",
			Name:       fmt.Sprintf("微博号 %d", i),
			PriceCents: 100,
		})
		require.NoError(t, err)
	}
	sold, err := c.Create(ctx, CreateInput{ProductID: "QQ-9", Category: "QQ", Name: "已售", PriceCents: 100, Stock: int64p(0)})
	require.NoError(t, err)

	all, err := c.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(6), all.Total)
	assert.Len(t, all.Products, 6)

	// 最新创建的排最前
	assert.Equal(t, sold.ID, all.Products[0].ID)

	weibo, err := c.List(ctx, ListFilter{Category: "微博"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), weibo.Total)

	soldOnly, err := c.List(ctx, ListFilter{Status: model.ProductSold})
	require.NoError(t, err)
	assert.Equal(t, int64(1), soldOnly.Total)

	page2, err := c.List(ctx, ListFilter{Page: 2, Limit: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(6), page2.Total)
	assert.Equal(t, 2, page2.TotalPages)
	assert.Len(t, page2.Products, 2)
}

func TestDelete(t *testing.T) {
	c := New(newTestDB(t))
	ctx := context.Background()

	p, err := c.Create(ctx, CreateInput{ProductID: "DEL-1", Category: "其他", Name: "待删", PriceCents: 100})
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, p.ID))
	_, err = c.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, c.Delete(ctx, p.ID), ErrNotFound)

	// 硬删除后业务编号可以复用
	_, err = c.Create(ctx, CreateInput{ProductID: "DEL-1", Category: "其他", Name: "复用编号", PriceCents: 100})
	require.NoError(t, err)
}
