package httpidp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/deepfraud/deepfraud/internal/domain/session"
)

// Client talks to the external identity provider over its REST surface:
// password sign-in, sign-up (optionally gated on email confirmation),
// federated token exchange, sign-out, and a current-session query usable
// once at startup.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// wire types

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionBody struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	Role           string `json:"role"`
	ClearanceLevel int    `json:"clearanceLevel"`
	Token          string `json:"token"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	return c.postSession(ctx, "/v1/signin", credentialsBody{Email: email, Password: password})
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*session.Session, error) {
	return c.postSession(ctx, "/v1/signup", credentialsBody{Email: email, Password: password})
}

func (c *Client) SignInFederated(ctx context.Context, providerToken string) (*session.Session, error) {
	return c.postSession(ctx, "/v1/oauth/exchange", map[string]string{"providerToken": providerToken})
}

func (c *Client) SignOut(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/signout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return mapError(resp)
	}
	return nil
}

func (c *Client) CurrentSession(ctx context.Context) (*session.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/session", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized {
		return nil, session.ErrNoSession
	}
	if resp.StatusCode >= 400 {
		return nil, mapError(resp)
	}
	return decodeSession(resp.Body)
}

func (c *Client) postSession(ctx context.Context, path string, body any) (*session.Session, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, mapError(resp)
	}
	return decodeSession(resp.Body)
}

func decodeSession(r io.Reader) (*session.Session, error) {
	var b sessionBody
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decoding provider session: %w", err)
	}
	return &session.Session{
		ID:             b.ID,
		Username:       b.DisplayName,
		Role:           b.Role,
		ClearanceLevel: b.ClearanceLevel,
		Token:          b.Token,
	}, nil
}

// mapError translates provider status codes and error codes into the
// domain taxonomy.
func mapError(resp *http.Response) error {
	var b errorBody
	_ = json.NewDecoder(resp.Body).Decode(&b)

	switch {
	case b.Error.Code == "domain_not_authorized":
		if b.Error.Message != "" {
			return fmt.Errorf("%w: %s", session.ErrDomainNotAuthorized, b.Error.Message)
		}
		return session.ErrDomainNotAuthorized
	case b.Error.Code == "confirmation_required":
		return session.ErrConfirmationRequired
	case resp.StatusCode == http.StatusConflict:
		return session.ErrAlreadyRegistered
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return session.ErrInvalidCredentials
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", session.ErrProviderUnavailable, resp.StatusCode)
	}
	return fmt.Errorf("identity provider error: status %d code %s", resp.StatusCode, b.Error.Code)
}
