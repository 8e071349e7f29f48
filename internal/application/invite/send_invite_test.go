package invite_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	inviteApp "github.com/orinx/billing/internal/application/invite"
	domainErrors "github.com/orinx/billing/internal/domain/errors"
	"github.com/orinx/billing/internal/domain/invite"
	"github.com/orinx/billing/internal/platform"
	"github.com/orinx/billing/internal/testutil"
)

func newSendUseCase(users *testutil.MockUserResolver, repo *testutil.MockInviteRepository, inviter *testutil.MockInviter) *inviteApp.SendInviteUseCase {
	return inviteApp.NewSendInviteUseCase(users, repo, inviter, "https://app.example.com", 168*time.Hour, "manager")
}

func ownerSession(users *testutil.MockUserResolver) {
	users.Users["owner-jwt"] = &platform.User{ID: "owner-1", Email: "owner@example.com"}
}

func TestSendInvite_Success(t *testing.T) {
	users := testutil.NewMockUserResolver()
	ownerSession(users)
	repo := testutil.NewMockInviteRepository()
	inviter := &testutil.MockInviter{}
	uc := newSendUseCase(users, repo, inviter)

	res, err := uc.Execute(context.Background(), inviteApp.SendInput{
		Bearer: "owner-jwt",
		Email:  "  New@Example.com ",
		TeamID: "team-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AlreadyRegistered {
		t.Error("fresh invitee must not be flagged already registered")
	}

	if inviter.SentCount() != 1 {
		t.Fatalf("expected one invite email, got %d", inviter.SentCount())
	}
	sent := inviter.Sent[0]
	if sent.Email != "new@example.com" {
		t.Errorf("expected normalized email, got %q", sent.Email)
	}
	if sent.Data["invited_role"] != "manager" {
		t.Errorf("expected default role manager, got %v", sent.Data["invited_role"])
	}

	// The redirect nests auth callback -> set password -> join team, with
	// the invite token innermost.
	if !strings.HasPrefix(sent.RedirectTo, "https://app.example.com/auth/callback?next=") {
		t.Fatalf("unexpected redirect %s", sent.RedirectTo)
	}
	outer, err := url.Parse(sent.RedirectTo)
	if err != nil {
		t.Fatal(err)
	}
	setPassword := outer.Query().Get("next")
	if !strings.HasPrefix(setPassword, "/set-password?next=") {
		t.Fatalf("expected set-password hop, got %s", setPassword)
	}
	inner, err := url.Parse(setPassword)
	if err != nil {
		t.Fatal(err)
	}
	joinTeam := inner.Query().Get("next")
	if joinTeam != "/join-team?token="+res.Token.String() {
		t.Errorf("expected join-team with invite token, got %s", joinTeam)
	}
}

func TestSendInvite_InvalidSession(t *testing.T) {
	uc := newSendUseCase(testutil.NewMockUserResolver(), testutil.NewMockInviteRepository(), &testutil.MockInviter{})

	_, err := uc.Execute(context.Background(), inviteApp.SendInput{
		Bearer: "bogus", Email: "x@example.com", TeamID: "team-1",
	})
	if !errors.Is(err, domainErrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSendInvite_MissingFields(t *testing.T) {
	users := testutil.NewMockUserResolver()
	ownerSession(users)
	uc := newSendUseCase(users, testutil.NewMockInviteRepository(), &testutil.MockInviter{})

	_, err := uc.Execute(context.Background(), inviteApp.SendInput{Bearer: "owner-jwt", TeamID: "team-1"})
	if err == nil {
		t.Error("expected error for missing email")
	}
	_, err = uc.Execute(context.Background(), inviteApp.SendInput{Bearer: "owner-jwt", Email: "x@example.com"})
	if err == nil {
		t.Error("expected error for missing team_id")
	}
}

func TestSendInvite_AlreadyMember(t *testing.T) {
	users := testutil.NewMockUserResolver()
	ownerSession(users)
	repo := testutil.NewMockInviteRepository()
	repo.AddMember(&invite.Member{TeamID: "team-1", Email: "member@example.com", UserID: "u2"})
	inviter := &testutil.MockInviter{}
	uc := newSendUseCase(users, repo, inviter)

	_, err := uc.Execute(context.Background(), inviteApp.SendInput{
		Bearer: "owner-jwt", Email: "member@example.com", TeamID: "team-1",
	})
	if !errors.Is(err, domainErrors.ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
	if inviter.SentCount() != 0 {
		t.Error("no email may be sent for an existing member")
	}
}

func TestSendInvite_InviteeAlreadyRegistered(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"structured code", &platform.PlatformError{Status: 422, Code: "email_exists", Message: "email address has already been registered"}},
		{"message only", &platform.PlatformError{Status: 400, Message: "A user with this email address has already been registered"}},
		{"already invited", errors.New("user already invited")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := testutil.NewMockUserResolver()
			ownerSession(users)
			repo := testutil.NewMockInviteRepository()
			inviter := &testutil.MockInviter{Err: tt.err}
			uc := newSendUseCase(users, repo, inviter)

			res, err := uc.Execute(context.Background(), inviteApp.SendInput{
				Bearer: "owner-jwt", Email: "taken@example.com", TeamID: "team-1",
			})
			if err != nil {
				t.Fatalf("already-registered must not fail the invite: %v", err)
			}
			if !res.AlreadyRegistered {
				t.Error("expected AlreadyRegistered flag")
			}

			// The invite row still exists so the user can accept after login.
			if _, err := repo.GetByToken(context.Background(), res.Token); err != nil {
				t.Errorf("invite row must survive: %v", err)
			}
		})
	}
}

func TestSendInvite_AlreadyOwner(t *testing.T) {
	users := testutil.NewMockUserResolver()
	ownerSession(users)
	inviter := &testutil.MockInviter{Err: errors.New("ERR_ALREADY_OWNER: user owns a workspace")}
	uc := newSendUseCase(users, testutil.NewMockInviteRepository(), inviter)

	_, err := uc.Execute(context.Background(), inviteApp.SendInput{
		Bearer: "owner-jwt", Email: "boss@example.com", TeamID: "team-1",
	})
	if !errors.Is(err, domainErrors.ErrAlreadyInvited) {
		t.Fatalf("expected ErrAlreadyInvited, got %v", err)
	}
}

func TestSendInvite_InviteEmailHardFailure(t *testing.T) {
	users := testutil.NewMockUserResolver()
	ownerSession(users)
	inviter := &testutil.MockInviter{Err: &platform.PlatformError{Status: 502, Message: "smtp unavailable"}}
	uc := newSendUseCase(users, testutil.NewMockInviteRepository(), inviter)

	_, err := uc.Execute(context.Background(), inviteApp.SendInput{
		Bearer: "owner-jwt", Email: "x@example.com", TeamID: "team-1",
	})
	if err == nil {
		t.Fatal("expected error when the invite email cannot be sent")
	}
}
