package ledger

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"account_shop/internal/catalog"
	"account_shop/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

func newTestLedger(t *testing.T) (*Ledger, *catalog.Catalog) {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 单连接：内存库不丢数据，并发写串行化
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Product{}, &model.Order{}))
	c := catalog.New(db)
	return New(db, c), c
}

func int64p(v int64) *int64 { return &v }

func seedProduct(t *testing.T, c *catalog.Catalog, stock int64) *model.Product {
	t.Helper()
	p, err := c.Create(context.Background(), catalog.CreateInput{
		ProductID:  fmt.Sprintf("P-%d", dbSeq.Add(1)),
		Category:   "游戏",
		Name:       "Game Key",
		Seller:     "随机",
		PriceCents: 1000,
		Stock:      int64p(stock),
	})
	require.NoError(t, err)
	return p
}

func TestCreateOrderDecrementsStockAndSnapshots(t *testing.T) {
	l, c := newTestLedger(t)
	ctx := context.Background()
	p := seedProduct(t, c, 3)

	order, err := l.Create(ctx, CreateInput{
		ProductID: p.ProductID,
		Quantity:  2,
		Buyer:     model.BuyerInfo{Email: "foo@example.com", Region: "华南"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.OrderNo)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, model.PaymentUnpaid, order.PaymentStatus)
	assert.Equal(t, int64(1000), order.UnitPriceCents)
	assert.Equal(t, int64(2000), order.TotalCents)

	// 库存已原子扣减
	got, err := c.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Stock)

	// 快照冻结：商品改价改名不影响已有订单
	newName := "改名号"
	newPrice := int64(9999)
	_, err = c.Update(ctx, p.ID, catalog.UpdateInput{Name: &newName, PriceCents: &newPrice})
	require.NoError(t, err)

	reloaded, err := l.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Game Key", reloaded.Product.Name)
	assert.Equal(t, int64(1000), reloaded.Product.PriceCents)
}

func TestCreateOrderUnavailable(t *testing.T) {
	l, c := newTestLedger(t)
	ctx := context.Background()
	p := seedProduct(t, c, 1)

	_, err := l.Create(ctx, CreateInput{ProductID: p.ProductID, Buyer: model.BuyerInfo{Email: "a@b.c"}})
	require.NoError(t, err)

	// 卖空后再下单：商品状态已是 sold
	_, err = l.Create(ctx, CreateInput{ProductID: p.ProductID, Buyer: model.BuyerInfo{Email: "a@b.c"}})
	assert.ErrorIs(t, err, ErrProductUnavailable)

	got, err := c.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Stock)
	assert.Equal(t, model.ProductSold, got.Status)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	l, c := newTestLedger(t)
	p := seedProduct(t, c, 1)

	_, err := l.Create(context.Background(), CreateInput{
		ProductID: p.ProductID,
		Quantity:  2,
		Buyer:     model.BuyerInfo{Email: "a@b.c"},
	})
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)

	// 失败的下单不留半个订单
	got, err := c.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Stock)
}

func TestCreateOrderMissingProduct(t *testing.T) {
	l, _ := newTestLedger(t)
	_, err := l.Create(context.Background(), CreateInput{ProductID: "nope", Buyer: model.BuyerInfo{Email: "a@b.c"}})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCreateOrderRequiresEmail(t *testing.T) {
	l, c := newTestLedger(t)
	p := seedProduct(t, c, 1)
	_, err := l.Create(context.Background(), CreateInput{ProductID: p.ProductID})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

// 两个并发请求抢最后一件：必须恰好一单成功，库存不为负。
func TestConcurrentOversell(t *testing.T) {
	l, c := newTestLedger(t)
	p := seedProduct(t, c, 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = l.Create(context.Background(), CreateInput{
				ProductID: p.ProductID,
				Quantity:  1,
				Buyer:     model.BuyerInfo{Email: fmt.Sprintf("racer%d@example.com", idx)},
			})
		}(i)
	}
	wg.Wait()

	var ok, failed int
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			failed++
		}
	}
	assert.Equal(t, 1, ok, "exactly one buyer wins the last unit")
	assert.Equal(t, 1, failed)

	got, err := c.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Stock)
	assert.GreaterOrEqual(t, got.Stock, int64(0))
}

func TestListFilters(t *testing.T) {
	l, c := newTestLedger(t)
	ctx := context.Background()
	p := seedProduct(t, c, 10)

	for _, email := range []string{"Foo.Bar@example.com", "someone@foo.cn", "other@qq.com"} {
		_, err := l.Create(ctx, CreateInput{ProductID: p.ProductID, Buyer: model.BuyerInfo{Email: email}})
		require.NoError(t, err)
	}

	// 邮箱大小写不敏感子串匹配
	page, err := l.List(ctx, ListFilter{Email: "FOO"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = l.List(ctx, ListFilter{Status: model.OrderPending})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	// 时间窗：未来起点查不到任何订单
	future := time.Now().Add(time.Hour)
	page, err = l.List(ctx, ListFilter{StartDate: &future})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)

	page, err = l.List(ctx, ListFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Orders, 1)
}

func TestListForUser(t *testing.T) {
	l, c := newTestLedger(t)
	ctx := context.Background()
	p := seedProduct(t, c, 10)

	uid := uint(42)
	_, err := l.Create(ctx, CreateInput{ProductID: p.ProductID, UserID: &uid, Buyer: model.BuyerInfo{Email: "me@example.com"}})
	require.NoError(t, err)
	_, err = l.Create(ctx, CreateInput{ProductID: p.ProductID, Buyer: model.BuyerInfo{Email: "anon@example.com"}})
	require.NoError(t, err)

	mine, err := l.ListForUser(ctx, uid)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "me@example.com", mine[0].Buyer.Email)
}
