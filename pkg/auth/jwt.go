package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	SubjectID   string `json:"sub_id"`
	SubjectKind string `json:"sub_kind"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	AgencyID    string `json:"agency_id,omitempty"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	SecretKey []byte
	Duration  time.Duration
}

func NewJWTManager(secretKey string, duration time.Duration) *JWTManager {
	return &JWTManager{
		SecretKey: []byte(secretKey),
		Duration:  duration,
	}
}

// TokenSubject is everything a token says about its bearer.
type TokenSubject struct {
	ID       string
	Kind     string
	Email    string
	Role     string
	AgencyID string
}

func (j *JWTManager) GenerateToken(subject TokenSubject) (string, error) {
	now := time.Now()
	claims := Claims{
		SubjectID:   subject.ID,
		SubjectKind: subject.Kind,
		Email:       subject.Email,
		Role:        subject.Role,
		AgencyID:    subject.AgencyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.Duration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.SecretKey)
}

func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.SecretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
