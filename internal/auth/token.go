package auth

import (
	"errors"
	"fmt"
	"time"

	"account_shop/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken 统一表示签名错误、过期、格式非法等令牌问题。
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims 登录令牌负载：用户 id + 角色，服务端据此做权限判断。
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken 为用户签发 HS256 令牌。
func GenerateToken(secret string, u *model.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken 验签并解析令牌。任何失败都折叠成 ErrInvalidToken，
// 避免向调用方泄露具体失败原因。
func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		// 只接受 HMAC，拒绝 alg 混淆
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
