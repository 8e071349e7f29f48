// Package platform talks to the hosted identity backend. Two clients with
// different capability levels exist: UserClient carries the public anon key
// and can only resolve the identity behind a caller's bearer token, while
// AdminClient carries the service key and may send invite emails. Handlers
// get the narrowest client that covers their operation.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	domainErrors "github.com/orinx/billing/internal/domain/errors"
)

// User is the identity resolved from a bearer token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// PlatformError is a structured error returned by the identity backend.
type PlatformError struct {
	Status  int
	Code    string `json:"error_code"`
	Message string `json:"msg"`
}

func (e *PlatformError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("platform: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("platform: status %d: %s", e.Status, e.Message)
}

// UserClient resolves caller identities using the public anon key. It holds
// no privileged credentials.
type UserClient struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

func NewUserClient(baseURL, anonKey string) *UserClient {
	return &UserClient{
		baseURL:    baseURL,
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetUser returns the identity behind the given bearer token. An invalid or
// expired token maps to ErrUnauthorized.
func (c *UserClient) GetUser(ctx context.Context, bearer string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("build user request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, domainErrors.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if user.ID == "" {
		return nil, domainErrors.ErrUnauthorized
	}
	return &user, nil
}

// AdminClient performs privileged identity operations with the service key.
// Keep its surface minimal; nothing else in the process should see the key.
type AdminClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewAdminClient(baseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// InviteUserByEmail sends an invite email through the identity backend. The
// data map is attached to the invited user's metadata and redirectTo is where
// the accept link lands.
func (c *AdminClient) InviteUserByEmail(ctx context.Context, email, redirectTo string, data map[string]any) error {
	payload := map[string]any{"email": email, "data": data}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal invite: %w", err)
	}

	endpoint := c.baseURL + "/auth/v1/invite"
	if redirectTo != "" {
		q := url.Values{"redirect_to": {redirectTo}}
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build invite request: %w", err)
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send invite: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	perr := &PlatformError{Status: resp.StatusCode}
	if err := json.Unmarshal(raw, perr); err != nil || perr.Message == "" {
		perr.Message = string(raw)
	}
	return perr
}
