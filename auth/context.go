package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

// HeaderAuthorization is the gRPC metadata header carrying the bearer token.
const HeaderAuthorization = "authorization"

const bearerPrefix = "Bearer "

// contextKey is a private type for context keys to avoid collisions.
type contextKey int

const (
	identityKey contextKey = iota
)

// WithIdentity returns a new context with the given user identity.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the authenticated user identity from context.
// Returns empty string if no identity is set (unauthenticated request).
func IdentityFromContext(ctx context.Context) string {
	identity, ok := ctx.Value(identityKey).(string)
	if !ok {
		return ""
	}
	return identity
}

// TokenFromAuthorizationHeader extracts the token of a "Bearer <token>" header.
func TokenFromAuthorizationHeader(authHeader string) (string, error) {
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthHeader
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrTokenIsEmpty
	}
	return token, nil
}

// ExtractToken extracts the bearer token from incoming gRPC metadata.
func ExtractToken(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", ErrTokenIsEmpty
	}

	authHeaders := md.Get(HeaderAuthorization)
	if len(authHeaders) == 0 {
		return "", ErrTokenIsEmpty
	}
	return TokenFromAuthorizationHeader(authHeaders[0])
}

// ValidateToken validates a bearer token using the provided Authenticator.
// Returns context with identity set or error.
func ValidateToken(ctx context.Context, token string, authenticator Authenticator) (context.Context, error) {
	if token == "" {
		return ctx, ErrTokenIsEmpty
	}

	identity, err := authenticator.Authenticate(ctx, token)
	if err != nil {
		return ctx, ErrUnauthenticated
	}

	return WithIdentity(ctx, identity), nil
}

// AuthorizeTable checks table-level permissions when authenticator implements
// TableAuthorizer. Other authenticators allow every table.
func AuthorizeTable(ctx context.Context, authenticator Authenticator, database, table string) error {
	ta, ok := authenticator.(TableAuthorizer)
	if !ok {
		return nil
	}
	return ta.AuthorizeTable(ctx, database, table)
}
