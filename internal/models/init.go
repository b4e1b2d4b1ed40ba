package models

import (
	"strings"

	"github.com/sketezo-next/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultUser 初始化默认演示账号（仅在用户表为空时创建）
func InitDefaultUser(email, password string) error {
	var count int64
	DB.Model(&User{}).Count(&count)
	if count > 0 {
		return nil
	}

	if email == "" {
		email = "demo@sketezo.local"
	}
	if password == "" {
		password = "demo123456"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		DisplayName:  "Demo User",
		Status:       "active",
	}

	if err := DB.Create(&user).Error; err != nil {
		return err
	}

	if password == "demo123456" {
		logger.Warnw("default_user_created_with_default_password", "email", user.Email)
	} else {
		logger.Warnw("default_user_created", "email", user.Email, "password_hidden", true)
	}

	return nil
}
