package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/questline/huntapi/internal/hunt"
)

func TestCoordinatorLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := SeedCoordinator(ctx, discardLogger(), env.store, "coordinator@test.local", "hunter2")
	if err != nil {
		t.Fatalf("seed coordinator: %v", err)
	}
	// Seeding twice is a no-op.
	if err := SeedCoordinator(ctx, discardLogger(), env.store, "other@test.local", "x"); err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	if n, _ := env.store.CountCoordinators(ctx); n != 1 {
		t.Fatalf("coordinators = %d, want 1", n)
	}

	w := env.do(t, http.MethodPost, "/api/admin/login",
		CoordinatorLoginRequest{Email: "coordinator@test.local", Password: "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/admin/login",
		CoordinatorLoginRequest{Email: "Coordinator@Test.Local", Password: "hunter2"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var sessionID string
	for _, c := range w.Result().Cookies() {
		if c.Name == coordinatorCookieName {
			sessionID = c.Value
		}
	}
	if sessionID == "" {
		t.Fatal("login did not set the session cookie")
	}

	w = env.do(t, http.MethodGet, "/api/admin/me", nil, asCoordinator(sessionID))
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/admin/logout", nil, asCoordinator(sessionID))
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/admin/me", nil, asCoordinator(sessionID))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", w.Code)
	}
}

func TestAdminTeamLifecycle(t *testing.T) {
	env := newTestEnv(t)
	session := env.coordinatorSession(t)

	w := env.do(t, http.MethodPost, "/api/admin/teams", TeamRequest{Name: "  Blue Owls "}, asCoordinator(session))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	team := decodeBody[hunt.Team](t, w)
	if team.Name != "Blue Owls" {
		t.Errorf("name = %q, want trimmed", team.Name)
	}
	if len(team.JoinCode) != joinCodeLength {
		t.Errorf("joinCode = %q, want %d chars", team.JoinCode, joinCodeLength)
	}

	w = env.do(t, http.MethodPut, "/api/admin/teams/"+team.ID, TeamRequest{Name: "Night Owls"}, asCoordinator(session))
	if w.Code != http.StatusOK {
		t.Fatalf("rename: expected 200, got %d", w.Code)
	}
	renamed := decodeBody[hunt.Team](t, w)
	if renamed.Name != "Night Owls" || renamed.JoinCode != team.JoinCode {
		t.Errorf("renamed = %+v, want new name and same code", renamed)
	}

	w = env.do(t, http.MethodDelete, "/api/admin/teams/"+team.ID, nil, asCoordinator(session))
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	w = env.do(t, http.MethodDelete, "/api/admin/teams/"+team.ID, nil, asCoordinator(session))
	if w.Code != http.StatusNotFound {
		t.Fatalf("delete again: expected 404, got %d", w.Code)
	}
}

func TestAdminResetTeamClearsProgress(t *testing.T) {
	env := newTestEnv(t)
	session := env.coordinatorSession(t)
	team, token := env.seedTeam(t, "Red Foxes")
	clue := env.seedClue(t, 1, "Only clue", hunt.AnswerText)
	env.completeHunt(t, session, token, clue)
	env.do(t, http.MethodPost, "/api/admin/teams/"+team.ID+"/finale-approval",
		FinaleApprovalRequest{Approved: true}, asCoordinator(session))

	w := env.do(t, http.MethodPost, "/api/admin/teams/"+team.ID+"/reset", nil, asCoordinator(session))
	if w.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	got, err := env.store.TeamByID(context.Background(), team.ID)
	if err != nil {
		t.Fatalf("reload team: %v", err)
	}
	if len(got.CompletedClueIDs) != 0 || got.FinaleApproved || got.FormulaSolved || got.FinaleSolvedAt != nil {
		t.Fatalf("team after reset = %+v, want clean slate", got)
	}
	if got.JoinCode != team.JoinCode {
		t.Error("reset changed the join code")
	}

	// The old approved submission is gone, so the fresh run can answer
	// the same clue again.
	subs, err := env.store.ListSubmissions(context.Background(), SubmissionFilter{TeamID: team.ID})
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("got %d submissions after reset, want 0", len(subs))
	}
	env.submitText(t, token, clue, "same answer, new run")
}

func TestAdminClueValidation(t *testing.T) {
	env := newTestEnv(t)
	session := env.coordinatorSession(t)

	cases := []struct {
		name string
		req  ClueRequest
		want int
	}{
		{"ok text", ClueRequest{OrderIndex: 1, Title: "A", AnswerKind: hunt.AnswerText, ExpectedAnswer: "x"}, http.StatusCreated},
		{"ok photo", ClueRequest{OrderIndex: 2, Title: "B", AnswerKind: hunt.AnswerPhoto}, http.StatusCreated},
		{"missing title", ClueRequest{OrderIndex: 3, AnswerKind: hunt.AnswerText}, http.StatusBadRequest},
		{"bad kind", ClueRequest{OrderIndex: 4, Title: "C", AnswerKind: "video"}, http.StatusBadRequest},
		{"photo with expected answer", ClueRequest{OrderIndex: 5, Title: "D", AnswerKind: hunt.AnswerPhoto, ExpectedAnswer: "x"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/admin/clues", tc.req, asCoordinator(session))
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestAdminRoutesRequireCookie(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/admin/teams",
		"/api/admin/clues",
		"/api/admin/submissions",
		"/api/admin/accusations",
	} {
		w := env.do(t, http.MethodGet, path, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, w.Code)
		}
	}
}
