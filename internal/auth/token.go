// Package auth выпускает и проверяет токены администраторов панели.
package auth

import (
	"crypto/rand"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mmeshcher/proxypanel/internal/model"
)

// DefaultTTL — срок действия токена администратора.
const DefaultTTL = 12 * time.Hour

// ErrInvalidToken возвращается для подделанного, просроченного или повреждённого токена.
var ErrInvalidToken = errors.New("invalid token")

// Claims — утверждения токена администратора. Subject содержит ID.
type Claims struct {
	Username string          `json:"username"`
	Role     model.AdminRole `json:"role"`
	jwt.RegisteredClaims
}

// AdminID возвращает ID администратора из Subject.
func (c *Claims) AdminID() int64 {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return id
}

// TokenManager подписывает токены HMAC-SHA256.
type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewTokenManager создаёт менеджер токенов. При пустом секрете генерируется
// случайный ключ, и токены не переживают перезапуск процесса.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenManager{secretKey: key, ttl: ttl, now: time.Now}
}

// GenerateToken выпускает токен для администратора.
func (tm *TokenManager) GenerateToken(a model.AdminAccount) (string, error) {
	now := tm.now()
	claims := Claims{
		Username: a.Username,
		Role:     a.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(a.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secretKey)
}

// ParseToken проверяет подпись и срок действия токена.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return tm.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
