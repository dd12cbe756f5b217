package redis

import "fmt"

// ProductCacheKey 商品详情缓存键。
func ProductCacheKey(id uint) string {
	return fmt.Sprintf("account_shop:product:%d", id)
}

// OrderRateLimitKey 下单限流键，ident 为买家邮箱或客户端 IP。
func OrderRateLimitKey(ident string) string {
	return fmt.Sprintf("account_shop:rate_limit:order:%s", ident)
}
