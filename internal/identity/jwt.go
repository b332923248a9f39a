package identity

import (
	"fmt"
	"time"

	"github.com/acadocs/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	purposeBearer        = "bearer"
	purposePasswordReset = "password_reset"

	resetTokenTTL = time.Hour
)

type claims struct {
	UID           uuid.UUID `json:"uid"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	Purpose       string    `json:"purpose"`
	jwt.RegisteredClaims
}

type tokenIssuer struct {
	secret []byte
	expiry time.Duration
}

func newTokenIssuer(secret string, expirationHours int) *tokenIssuer {
	if expirationHours <= 0 {
		expirationHours = 24
	}
	return &tokenIssuer{
		secret: []byte(secret),
		expiry: time.Duration(expirationHours) * time.Hour,
	}
}

func (t *tokenIssuer) issue(account *models.Account, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		UID:           account.ID,
		Email:         account.Email,
		EmailVerified: account.EmailVerified,
		Purpose:       purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   account.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(t.secret)
}

func (t *tokenIssuer) parse(tokenString, purpose string) (*claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Purpose != purpose {
		return nil, ErrInvalidToken
	}

	return c, nil
}
