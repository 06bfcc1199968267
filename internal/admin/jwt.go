// Package admin handles dashboard login and the signed session cookie.
package admin

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const Issuer = "chamada-dashboard"

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token expired")
	ErrInvalidClaims = errors.New("invalid claims")
)

// Credentials is the single dashboard account.
type Credentials struct {
	Username string
	Password string
}

// Check compara em tempo constante; senha vazia nunca confere.
func (c Credentials) Check(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	return userOK && passOK && c.Password != ""
}

// SessionClaims are carried by the dashboard session cookie. Generation ties
// the session to the credentials it was issued under.
type SessionClaims struct {
	Username   string `json:"username"`
	Generation string `json:"gen,omitempty"`
	jwt.RegisteredClaims
}

// JWTService signs and validates HS256 sessions.
type JWTService struct {
	secret     []byte
	issuer     string
	ttl        time.Duration
	generation string
}

func NewJWTService(secret, issuer string, ttl time.Duration) *JWTService {
	return &JWTService{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// WithCredentials invalida as sessões emitidas antes de uma troca de usuário
// ou senha do painel.
func (s *JWTService) WithCredentials(c Credentials) *JWTService {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(c.Username))
	mac.Write([]byte{0})
	mac.Write([]byte(c.Password))
	s.generation = hex.EncodeToString(mac.Sum(nil)[:8])
	return s
}

func (s *JWTService) ExpiresIn() time.Duration {
	return s.ttl
}

func (s *JWTService) GenerateToken(username string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Username:   username,
		Generation: s.generation,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTService) ValidateToken(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	}

	if claims.Username == "" || subtle.ConstantTimeCompare([]byte(claims.Generation), []byte(s.generation)) != 1 {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
