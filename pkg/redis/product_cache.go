package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"account_shop/internal/model"

	rd "github.com/redis/go-redis/v9"
)

// 商品详情读穿缓存。缓存永远是加速层：任何 Redis 故障都降级回 DB，
// 写路径负责删键，不做双写。

// GetProduct 读缓存。found=false 表示未命中或缓存不可用。
func GetProduct(ctx context.Context, rdb *rd.Client, id uint) (*model.Product, bool) {
	data, err := rdb.Get(ctx, ProductCacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, rd.Nil) {
			log.Printf("product cache get id=%d: %v", id, err)
		}
		return nil, false
	}
	var p model.Product
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("product cache unmarshal id=%d: %v", id, err)
		return nil, false
	}
	return &p, true
}

// PutProduct 写缓存，失败只记日志。
func PutProduct(ctx context.Context, rdb *rd.Client, p *model.Product, ttl time.Duration) {
	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("product cache marshal id=%d: %v", p.ID, err)
		return
	}
	if err := rdb.Set(ctx, ProductCacheKey(p.ID), data, ttl).Err(); err != nil {
		log.Printf("product cache set id=%d: %v", p.ID, err)
	}
}

// InvalidateProduct 删缓存键。商品或其库存发生任何变更后调用。
func InvalidateProduct(ctx context.Context, rdb *rd.Client, id uint) {
	if err := rdb.Del(ctx, ProductCacheKey(id)).Err(); err != nil {
		log.Printf("product cache del id=%d: %v", id, err)
	}
}
