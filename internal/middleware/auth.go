package middleware

import (
	"net/http"
	"strings"

	"account_shop/internal/auth"
	"account_shop/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const principalKey = "principal"

// Authenticate 校验 Authorization: Bearer 令牌并加载对应用户。
// 失败直接 401 中断，后续 handler 可通过 Principal 取当前用户。
func Authenticate(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, secret)
		if !ok {
			return
		}
		if !loadPrincipal(c, db, claims) {
			return
		}
		c.Next()
	}
}

// OptionalAuth 带了令牌就校验，没带就按匿名放行。
// 带了坏令牌仍然拒绝，不会静默降级成匿名。
func OptionalAuth(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		claims, ok := parseBearer(c, secret)
		if !ok {
			return
		}
		if !loadPrincipal(c, db, claims) {
			return
		}
		c.Next()
	}
}

// RequireAdmin 管理员闸门，必须挂在 Authenticate 之后。
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := Principal(c)
		if !ok || !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": 403, "msg": "需要管理员权限"})
			return
		}
		c.Next()
	}
}

// Principal 取当前请求已认证的用户。
func Principal(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*model.User)
	return u, ok
}

func parseBearer(c *gin.Context, secret string) (*auth.Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "未提供认证令牌"})
		return nil, false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "令牌格式无效"})
		return nil, false
	}
	claims, err := auth.ParseToken(secret, token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "令牌无效或已过期"})
		return nil, false
	}
	return claims, true
}

func loadPrincipal(c *gin.Context, db *gorm.DB, claims *auth.Claims) bool {
	var u model.User
	if err := db.First(&u, claims.UserID).Error; err != nil {
		// 令牌有效但用户已注销
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "用户不存在"})
		return false
	}
	c.Set(principalKey, &u)
	return true
}
