package model

import (
	"time"

	"gorm.io/gorm"
)

// 角色：admin 可管理商品与订单；user 为注册买家。
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User 登录账号，管理员与注册买家共用一张表，按 Role 区分。
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username     string `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"size:128;not null" json:"-"`
	Role         string `gorm:"size:16;not null;default:user" json:"role"`
}

func (User) TableName() string { return "users" }

// IsAdmin 判断是否管理员。
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
