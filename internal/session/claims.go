package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tair/storefront/internal/domain"
)

// ErrUndecodableToken is returned for tokens without a usable user claim
var ErrUndecodableToken = errors.New("token carries no user")

// Claims is the payload of an access token
type Claims struct {
	User domain.User `json:"user"`
	jwt.RegisteredClaims
}

// DecodeUser reads the user claim without checking the signature. The
// backend verifies every request; the client only needs to know who it is.
func DecodeUser(token string) (*domain.User, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodableToken, err)
	}
	if claims.User.ID == "" {
		return nil, ErrUndecodableToken
	}
	return &claims.User, nil
}
