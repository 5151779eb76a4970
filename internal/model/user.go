package model

import (
	"strings"
	"time"
)

// DefaultUserName 未设置昵称和邮箱时的显示名
const DefaultUserName = "用户"

// User 用户模型
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:64"`
	Email        string    `json:"email" gorm:"unique"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session 当前登录用户（未登录时为 nil）
type Session struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Name 显示名：昵称 > 邮箱前缀 > 默认值
func (s *Session) Name() string {
	if s == nil {
		return DefaultUserName
	}
	if s.DisplayName != "" {
		return s.DisplayName
	}
	if local, _, _ := strings.Cut(s.Email, "@"); local != "" {
		return local
	}
	return DefaultUserName
}

// SessionUser 专门用于 Session 存储的用户信息结构
type SessionUser struct {
	ID       string
	Email    string
	Username string
}
