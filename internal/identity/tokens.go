package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "bitsconnect-api"
	tokenAudience = "bitsconnect-client"
	// DefaultTokenTTL is how long an issued session token stays valid.
	DefaultTokenTTL = 7 * 24 * time.Hour
)

// Tokens issues and verifies HS256 session tokens whose subject is the
// user id.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token codec. A zero ttl uses DefaultTokenTTL.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for userID.
func (t *Tokens) Issue(userID, username string) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("JWT secret not configured")
	}
	now := t.now()
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(t.ttl).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Claims are the verified parts of a session token.
type Claims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// TTL is the lifetime of newly issued tokens.
func (t *Tokens) TTL() time.Duration { return t.ttl }

// Parse verifies tokenString and returns its claims.
func (t *Tokens) Parse(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Claims{}, err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return Claims{}, errors.New("token has no subject")
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, errors.New("token has no expiry")
	}
	out := Claims{UserID: sub, ExpiresAt: exp.Time}
	if mc, ok := token.Claims.(jwt.MapClaims); ok {
		out.TokenID, _ = mc["jti"].(string)
	}
	return out, nil
}
