package main

import (
	"context"
	"log"
	"time"

	"account_shop/internal/catalog"
	"account_shop/internal/config"
	"account_shop/internal/ledger"
	"account_shop/internal/model"
	"account_shop/internal/queue"
	"account_shop/internal/router"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// 连接 SQLite，自动建表
	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Product{},
		&model.ProductType{},
		&model.Order{},
		&model.User{},
		&model.ShopConfig{},
	); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis 可选：开着就用于下单限流和商品缓存
	var rdb *rd.Client
	if cfg.RedisAddr != "" {
		rdb = rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis ping: %v", err)
		}
		cancel()
	}

	// Kafka 可选：开着就发布订单生命周期事件
	var producer *queue.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
	}

	cat := catalog.New(db)

	r := gin.Default()
	router.Setup(r, router.Deps{
		DB:       db,
		Catalog:  cat,
		Ledger:   ledger.New(db, cat),
		RDB:      rdb,
		Producer: producer,
		Cfg:      cfg,
	})

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("http serve: %v", err)
	}
}
