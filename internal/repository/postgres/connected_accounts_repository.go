package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectedAccount stores third-party OAuth tokens for a user. Tokens are
// written only through this privileged path, never exposed on read APIs.
type ConnectedAccount struct {
	UserID    string
	Provider  string
	Status    string
	Tokens    map[string]string
	ExpiresAt time.Time
}

type ConnectedAccountRepository struct {
	pool *pgxpool.Pool
}

func NewConnectedAccountRepository(pool *pgxpool.Pool) *ConnectedAccountRepository {
	return &ConnectedAccountRepository{pool: pool}
}

func (r *ConnectedAccountRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *ConnectedAccountRepository) Upsert(ctx context.Context, acct *ConnectedAccount) error {
	tokens, err := json.Marshal(acct.Tokens)
	if err != nil {
		return fmt.Errorf("marshal tokens: %w", err)
	}
	_, err = r.db(ctx).Exec(ctx,
		`INSERT INTO connected_accounts (user_id, provider, status, tokens, expires_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, provider) DO UPDATE SET
		   status = EXCLUDED.status,
		   tokens = EXCLUDED.tokens,
		   expires_at = EXCLUDED.expires_at,
		   updated_at = EXCLUDED.updated_at`,
		acct.UserID, acct.Provider, acct.Status, tokens, acct.ExpiresAt, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("upsert connected account: %w", err)
	}
	return nil
}
