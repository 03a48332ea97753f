package utils // package utils provides helpers for password hashing and token issuing

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification failures.  All of them wrap ErrToken so callers that
// only care about "is this token usable" can test a single value.
var (
	ErrToken             = errors.New("invalid token")
	ErrTokenMalformed    = fmt.Errorf("%w: malformed", ErrToken)
	ErrTokenBadSignature = fmt.Errorf("%w: bad signature", ErrToken)
	ErrTokenExpired      = fmt.Errorf("%w: expired", ErrToken)
)

// DefaultAccessTTL matches the one hour validity of the login token.
const DefaultAccessTTL = time.Hour

// Claims is the JWT payload: subject (user id), username, iat and exp.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenService issues and verifies HS256 tokens with a process-wide secret.
// It is immutable after construction and safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a service signing with secret.  A non-positive
// ttl selects DefaultAccessTTL.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of s reading time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// TTL reports the default validity window.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for the user with the default TTL.
func (s *TokenService) Issue(userID, username string) (AccessToken, error) {
	return s.IssueWithTTL(userID, username, s.ttl)
}

// IssueWithTTL signs a token valid for ttl from now.
func (s *TokenService) IssueWithTTL(userID, username string, ttl time.Duration) (AccessToken, error) {
	now := s.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Verify checks the signature first and only then the claims.  It returns
// ErrTokenMalformed, ErrTokenBadSignature or ErrTokenExpired on failure.
func (s *TokenService) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return Claims{}, ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return Claims{}, ErrTokenBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	default:
		return Claims{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	return claims, nil
}
