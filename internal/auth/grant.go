package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidGrant = errors.New("invalid grant")

// GrantClaims bind a redeemed token to the device that redeemed it.
type GrantClaims struct {
	DeviceID string `json:"did"`
	jwt.RegisteredClaims
}

// Grant is a signed device grant plus the device it was issued to.
type Grant struct {
	Value    string
	DeviceID string
	Expires  time.Time
}

type GrantSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewGrantSigner(secret string, ttl time.Duration) *GrantSigner {
	return &GrantSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a grant for the token usage identified by usageID.
func (s *GrantSigner) Issue(usageID, deviceID string) (Grant, error) {
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	claims := GrantClaims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   usageID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Grant{}, fmt.Errorf("sign grant: %w", err)
	}
	return Grant{Value: signed, DeviceID: deviceID, Expires: exp}, nil
}

// Verify returns the claims of a valid grant issued for usageID.
func (s *GrantSigner) Verify(raw, usageID string) (*GrantClaims, error) {
	claims := &GrantClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(usageID),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid || claims.DeviceID == "" {
		return nil, ErrInvalidGrant
	}
	return claims, nil
}
