// Package testutil provides shared mocks and fixtures for application tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orinx/billing/internal/domain/billing"
	domainErrors "github.com/orinx/billing/internal/domain/errors"
	"github.com/orinx/billing/internal/domain/invite"
	"github.com/orinx/billing/internal/platform"
)

// --- Verifier Mock ---

// MockVerifier is a mock transaction verifier. Set Transactions per id, or
// override VerifyFunc for error injection.
type MockVerifier struct {
	mu           sync.Mutex
	Transactions map[string]*billing.VerifiedTransaction
	Calls        int

	VerifyFunc func(ctx context.Context, id string) (*billing.VerifiedTransaction, error)
}

func NewMockVerifier() *MockVerifier {
	return &MockVerifier{Transactions: make(map[string]*billing.VerifiedTransaction)}
}

func (m *MockVerifier) VerifyTransaction(ctx context.Context, id string) (*billing.VerifiedTransaction, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.Transactions[id]
	if !ok {
		return nil, domainErrors.ErrVerificationFailed
	}
	return tx, nil
}

func (m *MockVerifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// --- Ledger Mock ---

// MockLedger is a race-safe in-memory ledger. Commits for a reference that
// already exists return ErrAlreadyProcessed, mirroring the database's unique
// constraint behavior.
type MockLedger struct {
	mu      sync.Mutex
	commits map[string]billing.SubscriptionCommit

	AlreadyProcessedFunc func(ctx context.Context, txRef string) (bool, error)
	CommitFunc           func(ctx context.Context, commit billing.SubscriptionCommit) error
}

func NewMockLedger() *MockLedger {
	return &MockLedger{commits: make(map[string]billing.SubscriptionCommit)}
}

func (m *MockLedger) AlreadyProcessed(ctx context.Context, txRef string) (bool, error) {
	if m.AlreadyProcessedFunc != nil {
		return m.AlreadyProcessedFunc(ctx, txRef)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.commits[txRef]
	return ok, nil
}

func (m *MockLedger) CommitSuccessfulPayment(ctx context.Context, commit billing.SubscriptionCommit) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx, commit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.commits[commit.Reference]; ok {
		return domainErrors.ErrAlreadyProcessed
	}
	m.commits[commit.Reference] = commit
	return nil
}

// Commit returns the committed record for a reference, if any.
func (m *MockLedger) Commit(txRef string) (billing.SubscriptionCommit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.commits[txRef]
	return c, ok
}

// CommitCount returns how many distinct references were committed.
func (m *MockLedger) CommitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.commits)
}

// --- Invite Repository Mock ---

// MockInviteRepository implements invite.Repository in memory.
type MockInviteRepository struct {
	mu      sync.Mutex
	invites map[uuid.UUID]*invite.Invite
	members map[string]*invite.Member

	CreateFunc       func(ctx context.Context, inv *invite.Invite) error
	UpsertMemberFunc func(ctx context.Context, m *invite.Member) error
}

func NewMockInviteRepository() *MockInviteRepository {
	return &MockInviteRepository{
		invites: make(map[uuid.UUID]*invite.Invite),
		members: make(map[string]*invite.Member),
	}
}

func memberKey(teamID, email string) string { return teamID + "/" + email }

func (m *MockInviteRepository) Create(ctx context.Context, inv *invite.Invite) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, inv)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invites[inv.Token] = inv
	return nil
}

func (m *MockInviteRepository) GetByToken(ctx context.Context, token uuid.UUID) (*invite.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[token]
	if !ok || !inv.Usable(time.Now()) {
		return nil, domainErrors.ErrInviteNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *MockInviteRepository) MarkAccepted(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invites {
		if inv.ID == id {
			inv.Status = invite.StatusAccepted
			now := time.Now()
			inv.AcceptedAt = &now
			return nil
		}
	}
	return domainErrors.ErrInviteNotFound
}

func (m *MockInviteRepository) IsActiveMember(ctx context.Context, teamID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.members[memberKey(teamID, email)]
	return ok, nil
}

func (m *MockInviteRepository) UpsertMember(ctx context.Context, member *invite.Member) error {
	if m.UpsertMemberFunc != nil {
		return m.UpsertMemberFunc(ctx, member)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[memberKey(member.TeamID, member.Email)] = member
	return nil
}

func (m *MockInviteRepository) ExpirePending(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var n int64
	for _, inv := range m.invites {
		if inv.Status == invite.StatusPending && inv.ExpiresAt.Before(now) {
			inv.Status = invite.StatusExpired
			n++
		}
	}
	return n, nil
}

// AddMember seeds an existing membership.
func (m *MockInviteRepository) AddMember(member *invite.Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[memberKey(member.TeamID, member.Email)] = member
}

// Member returns a seeded or upserted membership.
func (m *MockInviteRepository) Member(teamID, email string) (*invite.Member, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.members[memberKey(teamID, email)]
	return mem, ok
}

// --- Identity Mocks ---

// MockUserResolver resolves bearer tokens to users.
type MockUserResolver struct {
	Users map[string]*platform.User

	GetUserFunc func(ctx context.Context, bearer string) (*platform.User, error)
}

func NewMockUserResolver() *MockUserResolver {
	return &MockUserResolver{Users: make(map[string]*platform.User)}
}

func (m *MockUserResolver) GetUser(ctx context.Context, bearer string) (*platform.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, bearer)
	}
	u, ok := m.Users[bearer]
	if !ok {
		return nil, domainErrors.ErrUnauthorized
	}
	return u, nil
}

// MockInviter records invite emails sent through the admin client.
type MockInviter struct {
	mu    sync.Mutex
	Sent  []SentInvite
	Err   error
}

type SentInvite struct {
	Email      string
	RedirectTo string
	Data       map[string]any
}

func (m *MockInviter) InviteUserByEmail(ctx context.Context, email, redirectTo string, data map[string]any) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentInvite{Email: email, RedirectTo: redirectTo, Data: data})
	return nil
}

func (m *MockInviter) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
