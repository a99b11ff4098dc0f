package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskmarket_backend/internal/models"
	"taskmarket_backend/pkg/apperrors"
)

// Claims is the JWT payload. TrustLevel is embedded at issue time so most
// requests can gate on it without a reputation lookup; it refreshes on the
// next login after a recompute.
type Claims struct {
	UserID     string          `json:"user_id"`
	Role       models.UserRole `json:"role"`
	TrustLevel int             `json:"trust_level"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses access tokens with a single HMAC secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// GenerateToken issues a signed token for the user.
func (t *TokenIssuer) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:     user.ID,
		Role:       user.Role,
		TrustLevel: user.TrustLevel,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ParseToken validates the signature and expiry and returns the claims.
func (t *TokenIssuer) ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, apperrors.ErrInvalidToken.WithError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
