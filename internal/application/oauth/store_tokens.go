// Package oauth stores third-party OAuth tokens handed back by provider
// callbacks. Write-only from the API's perspective.
package oauth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	domainErrors "github.com/orinx/billing/internal/domain/errors"
	"github.com/orinx/billing/internal/repository/postgres"
)

// AccountStore persists connected account credentials.
type AccountStore interface {
	Upsert(ctx context.Context, acct *postgres.ConnectedAccount) error
}

// StoreTokensUseCase records a provider connection for a user.
type StoreTokensUseCase struct {
	accounts AccountStore
	now      func() time.Time
}

func NewStoreTokensUseCase(accounts AccountStore) *StoreTokensUseCase {
	return &StoreTokensUseCase{accounts: accounts, now: time.Now}
}

// Input is the token payload from the OAuth callback exchange.
type Input struct {
	Provider     string
	UserID       string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Execute upserts the connection, deriving the absolute expiry from the
// provider's relative expires_in.
func (uc *StoreTokensUseCase) Execute(ctx context.Context, in Input) error {
	if in.Provider == "" || in.UserID == "" || in.AccessToken == "" {
		return domainErrors.NewValidationError("provider", "provider, user_id and access_token are required")
	}

	tokens := map[string]string{"access_token": in.AccessToken}
	if in.RefreshToken != "" {
		tokens["refresh_token"] = in.RefreshToken
	}

	err := uc.accounts.Upsert(ctx, &postgres.ConnectedAccount{
		UserID:    in.UserID,
		Provider:  in.Provider,
		Status:    "connected",
		Tokens:    tokens,
		ExpiresAt: uc.now().Add(time.Duration(in.ExpiresIn) * time.Second),
	})
	if err != nil {
		return fmt.Errorf("store tokens: %w", err)
	}

	log.Info().Str("provider", in.Provider).Str("user_id", in.UserID).Msg("connected account updated")
	return nil
}
