package session

import "errors"

var (
	// ErrInvalidCredentials indicates neither the identity provider nor the
	// demo fallback accepted the credential pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAlreadyRegistered indicates the identity already exists at the provider.
	ErrAlreadyRegistered = errors.New("identity already registered")

	// ErrConfirmationRequired indicates the provider demands out-of-band
	// verification before first login. Callers must route the user back to
	// the login form with a visible message, not treat this as a failure.
	ErrConfirmationRequired = errors.New("email confirmation required")

	// ErrDomainNotAuthorized is an identity-provider configuration error,
	// surfaced verbatim to the operator with remediation text.
	ErrDomainNotAuthorized = errors.New("auth domain not authorized by identity provider")

	// ErrNoSession indicates no restorable session exists.
	ErrNoSession = errors.New("no active session")

	// ErrProviderUnavailable indicates the identity provider could not be
	// reached; login falls back to the demo credential.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)
