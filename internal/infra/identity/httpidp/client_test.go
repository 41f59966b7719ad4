package httpidp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepfraud/deepfraud/internal/domain/session"
)

func TestSignInDecodesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/signin", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("X-API-Key"))
		json.NewEncoder(w).Encode(map[string]any{
			"id": "idp-7", "displayName": "ops@example.com", "role": "Analyst",
			"clearanceLevel": 2, "token": "opaque",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-1", 0)
	sess, err := c.SignIn(context.Background(), "ops@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "idp-7", sess.ID)
	assert.Equal(t, "ops@example.com", sess.Username)
	assert.Equal(t, 2, sess.ClearanceLevel)
	assert.Equal(t, "opaque", sess.Token)
}

func TestErrorTaxonomyMapping(t *testing.T) {
	cases := []struct {
		status int
		code   string
		want   error
	}{
		{http.StatusUnauthorized, "", session.ErrInvalidCredentials},
		{http.StatusConflict, "", session.ErrAlreadyRegistered},
		{http.StatusForbidden, "confirmation_required", session.ErrConfirmationRequired},
		{http.StatusForbidden, "domain_not_authorized", session.ErrDomainNotAuthorized},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"code": tc.code}})
		}))
		c := NewClient(srv.URL, "k", 0)
		_, err := c.SignIn(context.Background(), "a@b.com", "pw")
		assert.ErrorIs(t, err, tc.want, "status=%d code=%s", tc.status, tc.code)
		srv.Close()
	}
}

func TestUnreachableProviderIsProviderUnavailable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "k", 0)
	_, err := c.SignIn(context.Background(), "a@b.com", "pw")
	assert.ErrorIs(t, err, session.ErrProviderUnavailable)
}

func TestCurrentSessionEmptyStates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", 0)
	_, err := c.CurrentSession(context.Background())
	assert.ErrorIs(t, err, session.ErrNoSession)
}
