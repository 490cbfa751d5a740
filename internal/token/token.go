// Package token issues and verifies the signed JWTs used for API
// authentication. Two token types exist: short-lived access tokens and
// longer-lived refresh tokens. Each type is signed with its own secret
// so that a leaked secret of one type cannot forge tokens of the other,
// and carries an explicit "type" claim so that a valid token of the
// wrong type is never accepted where the other is expected.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type values carried in the "type" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrInvalidToken is returned for every verification failure: bad
// signature, expiry, malformed claims or wrong token type. Callers get
// no detail on purpose so that responses cannot leak why a credential
// was rejected.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the decoded, validated payload of a token.
type Claims struct {
	UserID    uint64
	Role      string
	Type      string
	ExpiresAt time.Time
}

// Signed is a serialized token together with its expiry, returned to
// clients alongside the token string.
type Signed struct {
	Token string
	Exp   time.Time
}

// Issuer mints and verifies tokens. It is immutable after construction
// and safe for concurrent use.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewIssuer builds an Issuer from the two signing secrets and the
// configured lifetimes (access in minutes, refresh in days).
func NewIssuer(accessSecret, refreshSecret string, accessTTLMin, refreshTTLDays int) *Issuer {
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     time.Duration(accessTTLMin) * time.Minute,
		refreshTTL:    time.Duration(refreshTTLDays) * 24 * time.Hour,
	}
}

// NewAccess signs a new HS256 access token for the user.
func (i *Issuer) NewAccess(userID uint64, role string) (Signed, error) {
	return i.sign(userID, role, TypeAccess, i.accessSecret, i.accessTTL)
}

// NewRefresh signs a new HS256 refresh token for the user using the
// refresh secret.
func (i *Issuer) NewRefresh(userID uint64, role string) (Signed, error) {
	return i.sign(userID, role, TypeRefresh, i.refreshSecret, i.refreshTTL)
}

func (i *Issuer) sign(userID uint64, role, typ string, secret []byte, ttl time.Duration) (Signed, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"type": typ,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(secret)
	if err != nil {
		return Signed{}, err
	}
	return Signed{Token: signed, Exp: exp}, nil
}

// VerifyAccess validates a token against the access secret and
// requires its type claim to be "access". A refresh token presented
// here fails even though its signature is valid under the refresh
// secret.
func (i *Issuer) VerifyAccess(raw string) (Claims, error) {
	c, err := i.parse(raw, i.accessSecret)
	if err != nil {
		return Claims{}, err
	}
	if c.Type != TypeAccess {
		return Claims{}, ErrInvalidToken
	}
	return c, nil
}

// VerifyEither tries the access secret first and the refresh secret
// second, returning the first successful decode. It exists for the
// refresh and logout flows, which receive a token without knowing a
// priori which secret signed it; the caller is responsible for
// checking the resulting type claim.
func (i *Issuer) VerifyEither(raw string) (Claims, error) {
	if c, err := i.parse(raw, i.accessSecret); err == nil {
		return c, nil
	}
	return i.parse(raw, i.refreshSecret)
}

// parse decodes and validates raw with the given secret. Signature,
// expiry and claim-shape failures all collapse into ErrInvalidToken.
func (i *Issuer) parse(raw string, secret []byte) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	var c Claims
	switch sub := mc["sub"].(type) {
	case float64:
		c.UserID = uint64(sub)
	case string:
		n, err := strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return Claims{}, ErrInvalidToken
		}
		c.UserID = n
	default:
		return Claims{}, ErrInvalidToken
	}
	if c.UserID == 0 {
		return Claims{}, ErrInvalidToken
	}
	c.Role, _ = mc["role"].(string)
	c.Type, _ = mc["type"].(string)
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}
