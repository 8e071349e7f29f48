package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	inviteApp "github.com/orinx/billing/internal/application/invite"
	"github.com/orinx/billing/internal/domain/invite"
	"github.com/orinx/billing/internal/interfaces/http/dto"
	"github.com/orinx/billing/internal/interfaces/http/handlers"
	"github.com/orinx/billing/internal/middleware"
	"github.com/orinx/billing/internal/platform"
	"github.com/orinx/billing/internal/testutil"
)

type teamFixture struct {
	router  *chi.Mux
	users   *testutil.MockUserResolver
	repo    *testutil.MockInviteRepository
	inviter *testutil.MockInviter
}

func newTeamFixture() *teamFixture {
	users := testutil.NewMockUserResolver()
	repo := testutil.NewMockInviteRepository()
	inviter := &testutil.MockInviter{}

	sendUC := inviteApp.NewSendInviteUseCase(users, repo, inviter, "https://app.example.com", 168*time.Hour, "manager")
	acceptUC := inviteApp.NewAcceptInviteUseCase(users, repo)
	h := handlers.NewTeamHandler(sendUC, acceptUC)

	r := chi.NewRouter()
	r.With(middleware.RequireBearer()).Post("/teams/invites", h.SendInvite)
	r.Post("/teams/invites/accept", h.AcceptInvite)

	return &teamFixture{router: r, users: users, repo: repo, inviter: inviter}
}

func postJSON(t *testing.T, router http.Handler, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSendInviteEndpoint_Success(t *testing.T) {
	f := newTeamFixture()
	f.users.Users["owner-jwt"] = &platform.User{ID: "owner-1", Email: "owner@example.com"}

	w := postJSON(t, f.router, "/teams/invites", "owner-jwt", dto.SendInviteRequest{
		Email: "new@example.com", TeamID: "team-1",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp dto.InviteResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp.Success || resp.Token == "" {
		t.Errorf("unexpected response %+v", resp)
	}
	if f.inviter.SentCount() != 1 {
		t.Errorf("expected one invite email, got %d", f.inviter.SentCount())
	}
}

func TestSendInviteEndpoint_NoBearer(t *testing.T) {
	f := newTeamFixture()

	w := postJSON(t, f.router, "/teams/invites", "", dto.SendInviteRequest{
		Email: "new@example.com", TeamID: "team-1",
	})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestSendInviteEndpoint_AlreadyMember(t *testing.T) {
	f := newTeamFixture()
	f.users.Users["owner-jwt"] = &platform.User{ID: "owner-1", Email: "owner@example.com"}
	f.repo.AddMember(&invite.Member{TeamID: "team-1", Email: "member@example.com", UserID: "u2"})

	w := postJSON(t, f.router, "/teams/invites", "owner-jwt", dto.SendInviteRequest{
		Email: "member@example.com", TeamID: "team-1",
	})

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestSendInviteEndpoint_BadBody(t *testing.T) {
	f := newTeamFixture()
	f.users.Users["owner-jwt"] = &platform.User{ID: "owner-1", Email: "owner@example.com"}

	w := postJSON(t, f.router, "/teams/invites", "owner-jwt", map[string]string{"email": "not-an-email"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAcceptInviteEndpoint_PrepareThenAccept(t *testing.T) {
	f := newTeamFixture()
	inv := invite.New("team-1", "guest@example.com", "member", false, "owner-1", time.Hour)
	f.repo.Create(context.Background(), inv)
	f.users.Users["guest-jwt"] = &platform.User{ID: "user-9", Email: "guest@example.com"}

	// Prepare needs no session.
	w := postJSON(t, f.router, "/teams/invites/accept", "", dto.AcceptInviteRequest{
		Token: inv.Token.String(), Action: "prepare",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("prepare: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var preview dto.InvitePreviewResponse
	json.NewDecoder(w.Body).Decode(&preview)
	if preview.Email != "guest@example.com" || preview.TeamID != "team-1" {
		t.Errorf("unexpected preview %+v", preview)
	}

	// Accept needs the invitee's session.
	w = postJSON(t, f.router, "/teams/invites/accept", "guest-jwt", dto.AcceptInviteRequest{
		Token: inv.Token.String(),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var accepted dto.InviteAcceptedResponse
	json.NewDecoder(w.Body).Decode(&accepted)
	if accepted.TeamID != "team-1" || accepted.Role != "member" {
		t.Errorf("unexpected result %+v", accepted)
	}
}

func TestAcceptInviteEndpoint_EmailMismatch(t *testing.T) {
	f := newTeamFixture()
	inv := invite.New("team-1", "guest@example.com", "member", false, "owner-1", time.Hour)
	f.repo.Create(context.Background(), inv)
	f.users.Users["other-jwt"] = &platform.User{ID: "user-2", Email: "other@example.com"}

	w := postJSON(t, f.router, "/teams/invites/accept", "other-jwt", dto.AcceptInviteRequest{
		Token: inv.Token.String(),
	})

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestAcceptInviteEndpoint_UnknownToken(t *testing.T) {
	f := newTeamFixture()
	f.users.Users["guest-jwt"] = &platform.User{ID: "user-9", Email: "guest@example.com"}

	w := postJSON(t, f.router, "/teams/invites/accept", "guest-jwt", dto.AcceptInviteRequest{
		Token: "2d9d3b6a-5a6f-4a3e-9f6e-000000000000",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAcceptInviteEndpoint_AcceptWithoutSession(t *testing.T) {
	f := newTeamFixture()
	inv := invite.New("team-1", "guest@example.com", "member", false, "owner-1", time.Hour)
	f.repo.Create(context.Background(), inv)

	w := postJSON(t, f.router, "/teams/invites/accept", "", dto.AcceptInviteRequest{
		Token: inv.Token.String(),
	})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
