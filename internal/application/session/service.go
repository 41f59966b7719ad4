package session

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	domain "github.com/deepfraud/deepfraud/internal/domain/session"
	"github.com/deepfraud/deepfraud/internal/infra/identity/tokens"
)

// Demo fallback operator, available whenever the identity provider is
// unreachable or rejects the attempt. Matches the fixed console credential
// pair admin/password.
const (
	demoUsername = "admin"
	demoPassword = "password"
)

func demoSession() *domain.Session {
	return &domain.Session{
		ID:             "u_8821",
		Username:       "Operator_88",
		Role:           "Senior Analyst",
		ClearanceLevel: 4,
	}
}

// Service implements the operator session use-cases: login with provider
// fallback, registration, federated login, logout, and session recovery.
type Service struct {
	Provider domain.IdentityProvider
	Store    domain.Store
	Tokens   *tokens.Manager
	Log      *zap.Logger
}

func NewService(provider domain.IdentityProvider, store domain.Store, tm *tokens.Manager, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Provider: provider, Store: store, Tokens: tm, Log: log}
}

// Login authenticates the operator. Email-shaped identifiers go to the
// identity provider first; any non-fatal provider failure falls back to the
// demo credential pair. Provider configuration errors surface verbatim.
func (s *Service) Login(ctx context.Context, identifier, secret string) (*domain.Session, error) {
	if looksLikeEmail(identifier) && s.Provider != nil {
		sess, err := s.Provider.SignIn(ctx, identifier, secret)
		if err == nil {
			if err := s.Store.Save(ctx, sess); err != nil {
				s.Log.Warn("session cache write failed", zap.Error(err))
			}
			return sess, nil
		}
		if errors.Is(err, domain.ErrDomainNotAuthorized) {
			return nil, err
		}
		s.Log.Warn("identity provider sign-in failed, trying demo fallback", zap.Error(err))
	}

	if strings.EqualFold(identifier, demoUsername) && secret == demoPassword {
		sess := demoSession()
		token, err := s.Tokens.Mint(sess)
		if err != nil {
			return nil, err
		}
		sess.Token = token
		if err := s.Store.Save(ctx, sess); err != nil {
			s.Log.Warn("session cache write failed", zap.Error(err))
		}
		return sess, nil
	}

	return nil, domain.ErrInvalidCredentials
}

// Register delegates to the identity provider only; there is no local
// account creation.
func (s *Service) Register(ctx context.Context, identifier, secret string) (*domain.Session, error) {
	if s.Provider == nil {
		return nil, domain.ErrProviderUnavailable
	}
	sess, err := s.Provider.SignUp(ctx, identifier, secret)
	if err != nil {
		return nil, err
	}
	if err := s.Store.Save(ctx, sess); err != nil {
		s.Log.Warn("session cache write failed", zap.Error(err))
	}
	return sess, nil
}

// LoginFederated exchanges a federated provider token for a session.
func (s *Service) LoginFederated(ctx context.Context, providerToken string) (*domain.Session, error) {
	if s.Provider == nil {
		return nil, domain.ErrProviderUnavailable
	}
	sess, err := s.Provider.SignInFederated(ctx, providerToken)
	if err != nil {
		return nil, err
	}
	if err := s.Store.Save(ctx, sess); err != nil {
		s.Log.Warn("session cache write failed", zap.Error(err))
	}
	return sess, nil
}

// Logout clears the local session and signs out of the identity provider.
// The provider call is best-effort; the local clear is the guarantee.
func (s *Service) Logout(ctx context.Context) error {
	if sess, err := s.Store.Load(ctx); err == nil && sess != nil && s.Provider != nil {
		if err := s.Provider.SignOut(ctx, sess.Token); err != nil {
			s.Log.Warn("identity provider sign-out failed", zap.Error(err))
		}
	}
	return s.Store.Delete(ctx)
}

// LocalSession returns the cached session, or nil when none is stored.
func (s *Service) LocalSession(ctx context.Context) (*domain.Session, error) {
	sess, err := s.Store.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

// RecoverSession reconciles a provider-restored session with the cached one,
// preferring the freshly validated session. Returns nil without error when
// neither source has one.
func (s *Service) RecoverSession(ctx context.Context) (*domain.Session, error) {
	if s.Provider != nil {
		sess, err := s.Provider.CurrentSession(ctx)
		if err == nil && sess != nil {
			if err := s.Store.Save(ctx, sess); err != nil {
				s.Log.Warn("session cache write failed", zap.Error(err))
			}
			return sess, nil
		}
		if err != nil && !errors.Is(err, domain.ErrNoSession) {
			s.Log.Warn("session recovery check failed", zap.Error(err))
		}
	}
	return s.LocalSession(ctx)
}

// Validate reports whether a bearer token belongs to an active session:
// either a locally minted JWT or the exact token of the cached session
// (covers opaque provider tokens).
func (s *Service) Validate(ctx context.Context, token string) (*domain.Session, error) {
	if claims, err := s.Tokens.Validate(token); err == nil {
		return &domain.Session{
			ID:             claims.Subject,
			Username:       claims.Username,
			Role:           claims.Role,
			ClearanceLevel: claims.Clearance,
			Token:          token,
		}, nil
	}
	sess, err := s.Store.Load(ctx)
	if err != nil || sess == nil || sess.Token == "" || sess.Token != token {
		return nil, domain.ErrNoSession
	}
	return sess, nil
}

func looksLikeEmail(identifier string) bool {
	at := strings.Index(identifier, "@")
	return at > 0 && strings.Contains(identifier[at:], ".")
}
