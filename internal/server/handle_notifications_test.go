package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/questline/huntapi/internal/hunt"
)

func TestNotificationsScopedToTeam(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teamA, tokenA := env.seedTeam(t, "Red Foxes")
	teamB, tokenB := env.seedTeam(t, "Blue Owls")

	noteA, err := env.store.CreateNotification(ctx, teamA.ID, "for the foxes")
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if _, err := env.store.CreateNotification(ctx, teamB.ID, "for the owls"); err != nil {
		t.Fatalf("create notification: %v", err)
	}

	w := env.do(t, http.MethodGet, "/api/notifications", nil, asPlayer(tokenA))
	notes := decodeBody[[]hunt.Notification](t, w)
	if len(notes) != 1 || notes[0].Message != "for the foxes" {
		t.Fatalf("notes = %+v", notes)
	}

	// Team B cannot consume team A's notification.
	w = env.do(t, http.MethodPost, "/api/notifications/"+noteA.ID+"/read", nil, asPlayer(tokenB))
	if w.Code != http.StatusNotFound {
		t.Fatalf("cross-team read: expected 404, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/notifications/"+noteA.ID+"/read", nil, asPlayer(tokenA))
	if w.Code != http.StatusOK {
		t.Fatalf("read: expected 200, got %d", w.Code)
	}

	// Read notifications fall out of the unread view but stay listed.
	w = env.do(t, http.MethodGet, "/api/notifications?unread=1", nil, asPlayer(tokenA))
	if unread := decodeBody[[]hunt.Notification](t, w); len(unread) != 0 {
		t.Fatalf("unread = %+v, want empty", unread)
	}
	w = env.do(t, http.MethodGet, "/api/notifications", nil, asPlayer(tokenA))
	all := decodeBody[[]hunt.Notification](t, w)
	if len(all) != 1 || !all[0].Read {
		t.Fatalf("all = %+v, want one read notification", all)
	}
}

func TestAnnouncementsVisibleToPlayers(t *testing.T) {
	env := newTestEnv(t)
	session := env.coordinatorSession(t)
	_, token := env.seedTeam(t, "Red Foxes")

	w := env.do(t, http.MethodPost, "/api/admin/announcements",
		AnnouncementRequest{Title: "Weather", Message: "Rain expected after 4pm.", Priority: hunt.PriorityHigh},
		asCoordinator(session))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decodeBody[hunt.Announcement](t, w)
	if created.EditedAt != nil {
		t.Error("fresh announcement already has editedAt")
	}

	w = env.do(t, http.MethodPut, "/api/admin/announcements/"+created.ID,
		AnnouncementRequest{Title: "Weather", Message: "Rain expected after 5pm."},
		asCoordinator(session))
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", w.Code)
	}
	updated := decodeBody[hunt.Announcement](t, w)
	if updated.EditedAt == nil {
		t.Error("edit did not set editedAt")
	}
	if updated.Priority != hunt.PriorityHigh {
		t.Errorf("priority = %q, want preserved", updated.Priority)
	}

	w = env.do(t, http.MethodGet, "/api/announcements", nil, asPlayer(token))
	anns := decodeBody[[]hunt.Announcement](t, w)
	if len(anns) != 1 || anns[0].Message != "Rain expected after 5pm." {
		t.Fatalf("anns = %+v", anns)
	}
}

func TestAnnouncementValidation(t *testing.T) {
	env := newTestEnv(t)
	session := env.coordinatorSession(t)

	w := env.do(t, http.MethodPost, "/api/admin/announcements",
		AnnouncementRequest{Message: "   "}, asCoordinator(session))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank message: expected 400, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/admin/announcements",
		AnnouncementRequest{Message: "x", Priority: "urgent"}, asCoordinator(session))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad priority: expected 400, got %d", w.Code)
	}
}
