package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is the lifetime of every access token issued by JWTAuthenticator.
const TokenTTL = time.Hour

var (
	ErrTokenMissing  = errors.New("token is not provided")
	ErrTokenExpired  = errors.New("token has expired")
	ErrTokenInvalid  = errors.New("token is not valid")
	ErrTokenInternal = errors.New("token verification failed")
)

// Identity is the verified user identity carried by an access token.
type Identity struct {
	ID       string
	Username string
}

// Claims is the claim set embedded in access tokens.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTAuthenticator issues and verifies HS256 access tokens.
type JWTAuthenticator struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewJWTAuthenticator creates a new JWTAuthenticator instance. The issuer is also
// used as the token audience.
func NewJWTAuthenticator(secret, issuer string) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: issuer,
		now:      time.Now,
	}
}

// WithClock returns a copy of the authenticator that reads the current time from now.
func (a *JWTAuthenticator) WithClock(now func() time.Time) *JWTAuthenticator {
	c := *a
	c.now = now
	return &c
}

// IssueToken generates a signed token for the given identity that expires after TokenTTL.
func (a *JWTAuthenticator) IssueToken(identity Identity) (string, error) {
	now := a.now()
	claims := Claims{
		ID:       identity.ID,
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.ID,
			Issuer:    a.issuer,
			Audience:  jwt.ClaimStrings{a.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenStr, err := token.SignedString(a.secret)
	if err != nil {
		return "", err
	}

	return tokenStr, nil
}

// VerifyToken checks the signature and expiry of tokenString and returns the identity
// it carries. The returned error is always one of ErrTokenMissing, ErrTokenExpired,
// ErrTokenInvalid or ErrTokenInternal, wrapping the underlying cause.
func (a *JWTAuthenticator) VerifyToken(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, ErrTokenMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return a.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithAudience(a.audience),
		jwt.WithIssuer(a.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return Identity{}, classify(err)
	}

	if !token.Valid || claims.ID == "" {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{ID: claims.ID, Username: claims.Username}, nil
}

// classify maps a golang-jwt parse error onto the package's error kinds.
// Expiry is checked first because an expired token also reports invalid claims.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidClaims),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	default:
		return fmt.Errorf("%w: %w", ErrTokenInternal, err)
	}
}
