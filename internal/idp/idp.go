// Package idp abstracts the external identity provider that owns
// administrator credentials. The core never stores or hashes secrets; it only
// holds the provider-issued account id on the administrator record.
package idp

import (
	"context"
	"errors"
)

// ErrBadCredentials is returned by Authenticate when the email/secret pair is
// rejected. Callers translate it; whether the email exists at all is never
// revealed.
var ErrBadCredentials = errors.New("bad credentials")

// Provider is the contract the administrator lifecycle needs from the
// identity provider.
type Provider interface {
	// Authenticate verifies an email/secret pair and returns the provider
	// account id.
	Authenticate(ctx context.Context, email, secret string) (string, error)
	// CreateAccount provisions a new account and returns its id. Fails with
	// sentinel.ErrConflict when the email is already registered.
	CreateAccount(ctx context.Context, email, secret string) (string, error)
	// SetSecret replaces the account's secret.
	SetSecret(ctx context.Context, accountID, newSecret string) error
	// DeleteAccount removes the account. Deleting an unknown account returns
	// sentinel.ErrNotFound.
	DeleteAccount(ctx context.Context, accountID string) error
}
