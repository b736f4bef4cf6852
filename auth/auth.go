// Package auth provides bearer-token authentication for the upsert Flight endpoint.
package auth

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidAuthHeader is returned when the authorization header is malformed.
	ErrInvalidAuthHeader = errors.New("authorization header must use Bearer scheme")

	// ErrTokenIsEmpty is returned when the bearer token is missing.
	ErrTokenIsEmpty = errors.New("authorization token is empty")

	// ErrUnauthenticated is returned when authentication fails.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when an identity may not write a table.
	ErrForbidden = errors.New("forbidden")
)

// Authenticator validates bearer tokens and returns user identity.
// Implementations MUST be goroutine-safe.
type Authenticator interface {
	// Authenticate validates a bearer token and returns user identity.
	// Returns error if token is invalid or expired.
	Authenticate(ctx context.Context, token string) (identity string, err error)
}

// TableAuthorizer is an optional interface an Authenticator can implement to
// restrict which tables an identity may upsert into. It is called with the
// identity already stored in ctx.
type TableAuthorizer interface {
	AuthorizeTable(ctx context.Context, database, table string) error
}

// noAuthenticator is an Authenticator that allows all requests.
type noAuthenticator struct{}

// NoAuth returns an Authenticator that allows all requests.
// Useful for development/testing. DO NOT use in production.
func NoAuth() Authenticator {
	return &noAuthenticator{}
}

func (n *noAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	return "anonymous", nil
}

// bearerAuthenticator wraps a user-provided validation function.
type bearerAuthenticator struct {
	validateFunc func(token string) (identity string, err error)
}

// BearerAuth creates an Authenticator from a validation function.
//
// Example:
//
//	authenticator := auth.BearerAuth(func(token string) (string, error) {
//	    user, err := validateWithMyBackend(token)
//	    if err != nil {
//	        return "", auth.ErrUnauthenticated
//	    }
//	    return user.ID, nil
//	})
func BearerAuth(validateFunc func(token string) (identity string, err error)) Authenticator {
	return &bearerAuthenticator{
		validateFunc: validateFunc,
	}
}

func (b *bearerAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	return b.validateFunc(token)
}

// TokenAuth authenticates against a fixed token -> identity table and
// optionally limits identities to a set of databases.
type TokenAuth struct {
	tokens    map[string]string
	databases map[string]map[string]struct{}
}

// NewTokenAuth creates a TokenAuth from a token -> identity map.
func NewTokenAuth(tokens map[string]string) *TokenAuth {
	t := &TokenAuth{
		tokens:    make(map[string]string, len(tokens)),
		databases: make(map[string]map[string]struct{}),
	}
	for token, identity := range tokens {
		t.tokens[token] = identity
	}
	return t
}

// AllowDatabases restricts identity to the given databases.
// Identities without restrictions may write any table.
// Not safe to call concurrently with request handling.
func (t *TokenAuth) AllowDatabases(identity string, databases ...string) *TokenAuth {
	allowed, ok := t.databases[identity]
	if !ok {
		allowed = make(map[string]struct{}, len(databases))
		t.databases[identity] = allowed
	}
	for _, db := range databases {
		allowed[db] = struct{}{}
	}
	return t
}

// Authenticate implements Authenticator.
func (t *TokenAuth) Authenticate(ctx context.Context, token string) (string, error) {
	identity, ok := t.tokens[token]
	if !ok {
		return "", ErrUnauthenticated
	}
	return identity, nil
}

// AuthorizeTable implements TableAuthorizer.
func (t *TokenAuth) AuthorizeTable(ctx context.Context, database, table string) error {
	identity := IdentityFromContext(ctx)
	allowed, ok := t.databases[identity]
	if !ok {
		return nil
	}
	if _, ok := allowed[database]; !ok {
		return fmt.Errorf("%w: %s may not write %s.%s", ErrForbidden, identity, database, table)
	}
	return nil
}
