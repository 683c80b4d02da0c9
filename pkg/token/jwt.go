// Package token 提供了 JSON Web Token 的校验功能。
// 令牌由外部认证服务签发，本服务只负责验证并取出调用方身份。
package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager 负责 JWT 的校验。
type JWTManager struct {
	secretKey []byte
}

// IdentityClaims 定义了令牌中携带的调用方身份。
type IdentityClaims struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewJWTManager 创建一个新的 JWTManager 实例。
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{secretKey: []byte(secret)}
}

// VerifyToken 验证给定的 token 字符串。
// 如果 token 有效，返回其中的身份声明；签名不匹配或已过期则返回错误。
func (m *JWTManager) VerifyToken(tokenString string) (*IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&IdentityClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected token signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
