package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// UserClaims are the JWT claims carried by API tokens.
type UserClaims struct {
	UserID int    `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type claimsKey struct{}

// SetUserClaims stores the claims on the request context
func SetUserClaims(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetUserClaims retrieves the claims from the request context
func GetUserClaims(ctx context.Context) (*UserClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*UserClaims)
	return claims, ok
}
