package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 聚合运行时配置，全部通过环境变量注入，避免硬编码。
// JWT_SECRET 为必填项：签名密钥属于外部凭据，代码里不允许出现默认值。
type AppConfig struct {
	HTTPAddr string
	DBPath   string

	// 登录令牌签名密钥与有效期
	JWTSecret string
	TokenTTL  time.Duration

	// Redis 可选：为空则关闭限流与商品缓存
	RedisAddr string
	RedisDB   int

	// Kafka 可选：Brokers 为空则关闭订单事件发布
	KafkaBrokers []string
	KafkaTopic   string

	// 下单接口限流与商品缓存策略
	OrderRateLimit  int
	OrderRateWindow time.Duration
	ProductCacheTTL time.Duration
}

// Load 读取并校验配置，缺失时使用默认值。
func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		DBPath:          getEnv("DB_PATH", "account_shop.db"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		TokenTTL:        24 * time.Hour,
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisDB:         0,
		KafkaBrokers:    splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "account-shop-order-events"),
		OrderRateLimit:  100,
		OrderRateWindow: time.Second,
		ProductCacheTTL: 5 * time.Minute,
	}

	if cfg.JWTSecret == "" {
		return AppConfig{}, fmt.Errorf("JWT_SECRET is required")
	}

	tokenTTLHour, err := getEnvInt("TOKEN_TTL_HOUR", int(cfg.TokenTTL.Hours()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid TOKEN_TTL_HOUR: %w", err)
	}
	if tokenTTLHour <= 0 {
		return AppConfig{}, fmt.Errorf("TOKEN_TTL_HOUR must be > 0")
	}
	cfg.TokenTTL = time.Duration(tokenTTLHour) * time.Hour

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	rateLimit, err := getEnvInt("ORDER_RATE_LIMIT", cfg.OrderRateLimit)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid ORDER_RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("ORDER_RATE_LIMIT must be > 0")
	}
	cfg.OrderRateLimit = rateLimit

	rateWindowSec, err := getEnvInt("ORDER_RATE_WINDOW_SEC", int(cfg.OrderRateWindow.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid ORDER_RATE_WINDOW_SEC: %w", err)
	}
	if rateWindowSec <= 0 {
		return AppConfig{}, fmt.Errorf("ORDER_RATE_WINDOW_SEC must be > 0")
	}
	cfg.OrderRateWindow = time.Duration(rateWindowSec) * time.Second

	cacheTTLSec, err := getEnvInt("PRODUCT_CACHE_TTL_SEC", int(cfg.ProductCacheTTL.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid PRODUCT_CACHE_TTL_SEC: %w", err)
	}
	if cacheTTLSec <= 0 {
		return AppConfig{}, fmt.Errorf("PRODUCT_CACHE_TTL_SEC must be > 0")
	}
	cfg.ProductCacheTTL = time.Duration(cacheTTLSec) * time.Second

	// Kafka 开启时 topic 不允许为空
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty")
	}

	return cfg, nil
}

// getEnv 读取字符串环境变量，若为空则返回默认值。
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt 读取整数环境变量，若为空则返回默认值。
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// splitCSV 将逗号分隔字符串解析为字符串切片。
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
