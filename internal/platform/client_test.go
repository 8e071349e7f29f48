package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	domainErrors "github.com/orinx/billing/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUser_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer user-jwt", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(User{ID: "u1", Email: "u@example.com"})
	}))
	defer srv.Close()

	user, err := NewUserClient(srv.URL, "anon-key").GetUser(context.Background(), "user-jwt")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "u@example.com", user.Email)
}

func TestGetUser_InvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewUserClient(srv.URL, "anon-key").GetUser(context.Background(), "expired")
	assert.ErrorIs(t, err, domainErrors.ErrUnauthorized)
}

func TestGetUser_EmptyIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewUserClient(srv.URL, "anon-key").GetUser(context.Background(), "jwt")
	assert.ErrorIs(t, err, domainErrors.ErrUnauthorized)
}

func TestInviteUserByEmail_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/invite", r.URL.Path)
		assert.Equal(t, "accept-url", r.URL.Query().Get("redirect_to"))
		assert.Equal(t, "service-key", r.Header.Get("apikey"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "new@example.com", body["email"])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewAdminClient(srv.URL, "service-key").
		InviteUserByEmail(context.Background(), "new@example.com", "accept-url", map[string]any{"team_id": "t1"})
	assert.NoError(t, err)
}

// The redirect target itself carries query parameters; they must survive
// being embedded as a query value instead of splitting the outer URL.
func TestInviteUserByEmail_RedirectWithNestedQuery(t *testing.T) {
	redirect := "https://app.example.com/auth/callback?next=%2Fset-password%3Fnext%3D%2Fjoin-team"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, redirect, r.URL.Query().Get("redirect_to"))
		assert.Empty(t, r.URL.Query().Get("next"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewAdminClient(srv.URL, "service-key").
		InviteUserByEmail(context.Background(), "new@example.com", redirect, nil)
	assert.NoError(t, err)
}

func TestInviteUserByEmail_StructuredError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error_code":"email_exists","msg":"A user with this email address has already been registered"}`))
	}))
	defer srv.Close()

	err := NewAdminClient(srv.URL, "service-key").
		InviteUserByEmail(context.Background(), "taken@example.com", "", nil)
	require.Error(t, err)

	var perr *PlatformError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "email_exists", perr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, perr.Status)
}

func TestInviteUserByEmail_UnstructuredError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`upstream down`))
	}))
	defer srv.Close()

	err := NewAdminClient(srv.URL, "service-key").
		InviteUserByEmail(context.Background(), "x@example.com", "", nil)
	require.Error(t, err)

	var perr *PlatformError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "upstream down", perr.Message)
}
