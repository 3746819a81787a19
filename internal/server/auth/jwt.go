// Package auth encodes and decodes session tokens: HS256-signed JWTs binding
// an account to the session identifier that was current when they were issued.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/peoplebook/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload carried by a session token. Times are Unix seconds.
type Claims struct {
	AccountID int64
	Subject   string
	SessionID string
	IssuedAt  int64
	ExpiresAt int64
}

// Expired reports whether the token is past its expiry at now. A token is
// expired from the second named by ExpiresAt onwards.
func (c Claims) Expired(now time.Time) bool {
	return now.Unix() >= c.ExpiresAt
}

type tokenClaims struct {
	jwt.RegisteredClaims
	AccountID int64  `json:"uid"`
	SessionID string `json:"sid"`
}

// Codec signs and parses session tokens with a key fixed at construction.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCodec returns a Codec signing with a private copy of key. Tokens issued
// by Issue expire ttl after issuance. now may be nil, meaning time.Now.
func NewCodec(key []byte, ttl time.Duration, now func() time.Time) *Codec {
	if now == nil {
		now = time.Now
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Codec{key: k, ttl: ttl, now: now}
}

// Issue builds claims for a fresh session and encodes them.
func (c *Codec) Issue(accountID int64, username, sessionID string) (string, Claims, error) {
	iat := c.now().Unix()
	claims := Claims{
		AccountID: accountID,
		Subject:   username,
		SessionID: sessionID,
		IssuedAt:  iat,
		ExpiresAt: iat + int64(c.ttl/time.Second),
	}
	token, err := c.Encode(claims)
	if err != nil {
		return "", Claims{}, err
	}
	return token, claims, nil
}

// Encode signs claims as an HS256 JWT.
func (c *Codec) Encode(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(time.Unix(claims.IssuedAt, 0)),
			ExpiresAt: jwt.NewNumericDate(time.Unix(claims.ExpiresAt, 0)),
		},
		AccountID: claims.AccountID,
		SessionID: claims.SessionID,
	})

	s, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

var errMissingClaims = errors.New("token is missing required claims")

// Decode verifies the signature and structure of tokenString and returns its
// claims. Expiry is deliberately not checked here; callers compare
// Claims.Expired against their own clock. Every failure wraps
// common.ErrInvalidToken.
func (c *Codec) Decode(tokenString string) (Claims, error) {
	tc := &tokenClaims{}

	_, err := jwt.ParseWithClaims(tokenString, tc, func(t *jwt.Token) (any, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if tc.AccountID == 0 || tc.SessionID == "" || tc.ExpiresAt == nil || tc.IssuedAt == nil {
		return Claims{}, fmt.Errorf("%w: %w", common.ErrInvalidToken, errMissingClaims)
	}

	return Claims{
		AccountID: tc.AccountID,
		Subject:   tc.Subject,
		SessionID: tc.SessionID,
		IssuedAt:  tc.IssuedAt.Unix(),
		ExpiresAt: tc.ExpiresAt.Unix(),
	}, nil
}
