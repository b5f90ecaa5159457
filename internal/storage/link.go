package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const linkSubject = "blob_link"

// LinkClaims 限时访问链接载荷
type LinkClaims struct {
	Key string `json:"key"`
	jwt.RegisteredClaims
}

// LinkSigner 使用 HS256 签发与校验限时访问令牌
type LinkSigner struct {
	secret  []byte
	baseURL string
	now     func() time.Time
}

// NewLinkSigner 创建链接签名器，baseURL 为令牌前缀（如 https://api.example.com/api/v1/proofs）
func NewLinkSigner(secret, baseURL string) *LinkSigner {
	return &LinkSigner{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		now:     time.Now,
	}
}

// Sign 为存储键签发有效期为 ttl 的访问链接
func (s *LinkSigner) Sign(key string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", ErrInvalidKey
	}
	if ttl <= 0 {
		return "", fmt.Errorf("link ttl must be positive")
	}
	now := s.now()
	claims := LinkClaims{
		Key: key,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   linkSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	if s.baseURL == "" {
		return token, nil
	}
	return s.baseURL + "/" + token, nil
}

// Resolve 校验令牌并返回存储键
func (s *LinkSigner) Resolve(token string) (string, error) {
	token = strings.TrimSpace(token)
	if idx := strings.LastIndex(token, "/"); idx >= 0 {
		token = token[idx+1:]
	}
	if token == "" {
		return "", ErrLinkInvalid
	}
	claims := &LinkClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrLinkExpired
		}
		return "", ErrLinkInvalid
	}
	if !parsed.Valid || claims.Subject != linkSubject || strings.TrimSpace(claims.Key) == "" {
		return "", ErrLinkInvalid
	}
	return claims.Key, nil
}
