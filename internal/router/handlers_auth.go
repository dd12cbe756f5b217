package router

import (
	"errors"
	"net/http"
	"strings"

	"account_shop/internal/auth"
	"account_shop/internal/middleware"
	"account_shop/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type credentialsReq struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// registerAdmin 注册管理员。首个管理员可直接注册（初始化部署），
// 之后的管理员必须由已有管理员持令牌创建。
func registerAdmin(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		var adminCount int64
		if err := d.DB.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&adminCount).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		if adminCount > 0 {
			u, ok := middleware.Principal(c)
			if !ok || !u.IsAdmin() {
				c.JSON(http.StatusForbidden, gin.H{"code": 403, "msg": "仅管理员可新增管理员"})
				return
			}
		}

		createAccount(c, d, req, model.RoleAdmin)
	}
}

// registerUser 注册买家账号，开放注册。
func registerUser(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		createAccount(c, d, req, model.RoleUser)
	}
}

// createAccount 建账号并直接签发令牌（注册即登录）。
func createAccount(c *gin.Context, d Deps, req credentialsReq, role string) {
	username := strings.TrimSpace(req.Username)

	var existing model.User
	err := d.DB.Where("username = ?", username).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "用户名已存在"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
		return
	}
	u := &model.User{Username: username, PasswordHash: hash, Role: role}
	if err := d.DB.Create(u).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
		return
	}

	token, err := auth.GenerateToken(d.Cfg.JWTSecret, u, d.Cfg.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 0, "data": gin.H{"token": token, "role": u.Role}})
}

// login 登录，管理员与买家共用。
func login(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		var u model.User
		err := d.DB.Where("username = ?", strings.TrimSpace(req.Username)).First(&u).Error
		if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
			// 用户不存在和密码错误给同一个提示，避免探测账号
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "用户名或密码错误"})
			return
		}

		token, err := auth.GenerateToken(d.Cfg.JWTSecret, &u, d.Cfg.TokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"token": token, "role": u.Role}})
	}
}
