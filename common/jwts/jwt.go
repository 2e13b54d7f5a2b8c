package jwts

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenInvalid  = errors.New("token not valid")
	ErrNotAccessType = errors.New("token type is not access")
)

// CustomClaims 令牌负载
// 签发方是外部账号服务，这里只负责校验和取出身份
type CustomClaims struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	Type   string `json:"type"` // access / refresh
	jwt.RegisteredClaims
}

// GetToken 用 HS512 签发令牌
func GetToken(userID int64, role string, tokenType string, secret string, expire time.Duration) (string, error) {
	claims := &CustomClaims{
		UserID: userID,
		Role:   role,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expire)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken 校验令牌并取出负载
func ParseToken(token, secret string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseAccessToken 校验访问令牌，refresh 令牌不能用于请求
func ParseAccessToken(token, secret string) (*CustomClaims, error) {
	claims, err := ParseToken(token, secret)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrNotAccessType
	}
	return claims, nil
}
