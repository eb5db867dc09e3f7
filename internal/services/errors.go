// Package services holds the business operations behind every endpoint and
// server-side action. Each operation runs through the Gate, which validates
// its params, checks the session when required and hands back a database
// handle; failures are returned as *apperr.Error so the HTTP layer and the
// actions can normalise them the same way.
//
// This file centralizes the user-facing messages and the translation of
// repository sentinels into typed errors.
package services

import (
	"errors"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
	"github.com/tbourn/go-devflow-backend/internal/repo"
)

// User-facing messages returned by the services.
const (
	MsgUserExists         = "User already exists"
	MsgUsernameExists     = "Username already exists"
	MsgAccountExists      = "An account with the same provider already exists"
	MsgPasswordMismatch   = "Password does not match"
	MsgNotAuthor          = "You are not allowed to modify this resource"
	MsgSchemaUnexpected   = "Schema validation failed: Unexpected error occurred."
	MsgCredentialsMissing = "Account has no password; sign in with its provider"
	MsgVoteConflict       = "Vote was changed by another request; try again"
)

// ProviderCredentials names accounts that sign in with email and password.
const ProviderCredentials = "credentials"

// notFound maps repo.ErrNotFound to a NotFound error for resource and wraps
// everything else.
func notFound(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(resource)
	}
	return apperr.Wrap(err)
}
