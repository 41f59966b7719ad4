package session

import "context"

// IdentityProvider port (interface for the external identity service)
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	// SignInFederated exchanges a token obtained from a federated provider
	// (OAuth popup on the dashboard side) for a session.
	SignInFederated(ctx context.Context, providerToken string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	// CurrentSession asks the provider for an already-valid session restored
	// from a long-lived credential. Returns ErrNoSession when there is none.
	CurrentSession(ctx context.Context) (*Session, error)
}

// Store port (interface for the locally cached session blob)
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context) (*Session, error)
	Delete(ctx context.Context) error
}
