package server

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/questline/huntapi/internal/hunt"
)

// submitText pushes a text answer through the pipeline and returns it.
func (e *testEnv) submitText(t *testing.T, token string, clue hunt.Clue, answer string) hunt.Submission {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/submissions", SubmitRequest{ClueID: clue.ID, Answer: answer}, asPlayer(token))
	if w.Code != http.StatusAccepted {
		t.Fatalf("submit: expected 202, got %d: %s", w.Code, w.Body.String())
	}
	return decodeBody[hunt.Submission](t, w)
}

func TestApproveCreditsClueOnce(t *testing.T) {
	env := newTestEnv(t)
	session := env.coordinatorSession(t)
	team, token := env.seedTeam(t, "Red Foxes")
	clue := env.seedClue(t, 1, "The fountain", hunt.AnswerText)
	env.seedClue(t, 2, "The bridge", hunt.AnswerText)
	sub := env.submitText(t, token, clue, "Neptune")

	w := env.do(t, http.MethodPost, "/api/admin/submissions/"+sub.ID+"/approve", nil, asCoordinator(session))
	if w.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Approving again is a no-op, not an error.
	w = env.do(t, http.MethodPost, "/api/admin/submissions/"+sub.ID+"/approve", nil, asCoordinator(session))
	if w.Code != http.StatusOK {
		t.Fatalf("re-approve: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	got, err := env.store.TeamByID(context.Background(), team.ID)
	if err != nil {
		t.Fatalf("reload team: %v", err)
	}
	count := 0
	for _, id := range got.CompletedClueIDs {
		if id == clue.ID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("clue credited %d times, want exactly once", count)
	}
}

func TestApproveLastClueAnnouncesOnce(t *testing.T) {
	env := newTestEnv(t)
	session := env.coordinatorSession(t)
	_, token := env.seedTeam(t, "Red Foxes")
	first := env.seedClue(t, 1, "The fountain", hunt.AnswerText)
	second := env.seedClue(t, 2, "The bridge", hunt.AnswerText)

	sub := env.submitText(t, token, first, "one")
	env.do(t, http.MethodPost, "/api/admin/submissions/"+sub.ID+"/approve", nil, asCoordinator(session))

	anns, err := env.store.ListAnnouncements(context.Background())
	if err != nil {
		t.Fatalf("list announcements: %v", err)
	}
	if len(anns) != 0 {
		t.Fatalf("announcement before completion: %+v", anns)
	}

	sub = env.submitText(t, token, second, "two")
	// Approve the final clue twice; the completion announcement must not
	// double up.
	env.do(t, http.MethodPost, "/api/admin/submissions/"+sub.ID+"/approve", nil, asCoordinator(session))
	env.do(t, http.MethodPost, "/api/admin/submissions/"+sub.ID+"/approve", nil, asCoordinator(session))

	anns, err = env.store.ListAnnouncements(context.Background())
	if err != nil {
		t.Fatalf("list announcements: %v", err)
	}
	if len(anns) != 1 {
		t.Fatalf("got %d announcements, want 1", len(anns))
	}
	if anns[0].Priority != hunt.PriorityHigh {
		t.Errorf("priority = %q, want high", anns[0].Priority)
	}
	if !strings.Contains(anns[0].Message, "Red Foxes") {
		t.Errorf("announcement does not name the team: %q", anns[0].Message)
	}
}

func TestApproveUploadingPhotoConflicts(t *testing.T) {
	env := newTestEnv(t)
	session := env.coordinatorSession(t)
	team, _ := env.seedTeam(t, "Red Foxes")
	clue := env.seedClue(t, 1, "Statue selfie", hunt.AnswerPhoto)

	sub := hunt.Submission{
		ID:          newID(),
		TeamID:      team.ID,
		TeamName:    team.Name,
		ClueID:      clue.ID,
		ClueTitle:   clue.Title,
		AnswerKind:  hunt.AnswerPhoto,
		Status:      hunt.StatusPending,
		Uploading:   true,
		SubmittedAt: time.Now().UTC(),
	}
	if err := env.store.CreateSubmission(context.Background(), sub); err != nil {
		t.Fatalf("create submission: %v", err)
	}

	w := env.do(t, http.MethodPost, "/api/admin/submissions/"+sub.ID+"/approve", nil, asCoordinator(session))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRejectUploadingPhoto(t *testing.T) {
	env := newTestEnv(t)
	session := env.coordinatorSession(t)
	team, _ := env.seedTeam(t, "Red Foxes")
	clue := env.seedClue(t, 1, "Statue selfie", hunt.AnswerPhoto)

	sub := hunt.Submission{
		ID:          newID(),
		TeamID:      team.ID,
		TeamName:    team.Name,
		ClueID:      clue.ID,
		ClueTitle:   clue.Title,
		AnswerKind:  hunt.AnswerPhoto,
		Status:      hunt.StatusPending,
		Uploading:   true,
		SubmittedAt: time.Now().UTC(),
	}
	if err := env.store.CreateSubmission(context.Background(), sub); err != nil {
		t.Fatalf("create submission: %v", err)
	}

	// Only approval has to wait for the photo; a coordinator can reject
	// before the transfer finishes.
	w := env.do(t, http.MethodPost, "/api/admin/submissions/"+sub.ID+"/reject",
		RejectRequest{Feedback: "Wrong statue."}, asCoordinator(session))
	if w.Code != http.StatusOK {
		t.Fatalf("reject while uploading: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	got, err := env.store.SubmissionByID(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("reload submission: %v", err)
	}
	if got.Status != hunt.StatusRejected {
		t.Errorf("status = %q, want rejected", got.Status)
	}
	if got.Uploading {
		t.Error("rejected submission still marked uploading")
	}
}

func TestRejectNotifiesAndUnblocks(t *testing.T) {
	env := newTestEnv(t)
	session := env.coordinatorSession(t)
	team, token := env.seedTeam(t, "Red Foxes")
	clue := env.seedClue(t, 1, "The fountain", hunt.AnswerText)
	sub := env.submitText(t, token, clue, "wrong guess")

	w := env.do(t, http.MethodPost, "/api/admin/submissions/"+sub.ID+"/reject",
		RejectRequest{Feedback: "That is the wrong fountain."}, asCoordinator(session))
	if w.Code != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	rejected := decodeBody[hunt.Submission](t, w)
	if rejected.Status != hunt.StatusRejected {
		t.Errorf("status = %q, want rejected", rejected.Status)
	}
	if rejected.Feedback != "That is the wrong fountain." {
		t.Errorf("feedback = %q", rejected.Feedback)
	}

	notes, err := env.store.ListNotifications(context.Background(), team.ID, false)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notes))
	}
	if notes[0].Message != "That is the wrong fountain." {
		t.Errorf("notification = %q", notes[0].Message)
	}

	// A rejected submission does not block the retry.
	w = env.do(t, http.MethodPost, "/api/submissions", SubmitRequest{ClueID: clue.ID, Answer: "better guess"}, asPlayer(token))
	if w.Code != http.StatusAccepted {
		t.Fatalf("retry after reject: expected 202, got %d", w.Code)
	}
}

func TestRejectDeletesMedia(t *testing.T) {
	env := newTestEnv(t)
	session := env.coordinatorSession(t)
	team, _ := env.seedTeam(t, "Red Foxes")
	clue := env.seedClue(t, 1, "Statue selfie", hunt.AnswerPhoto)

	sub := hunt.Submission{
		ID:                newID(),
		TeamID:            team.ID,
		TeamName:          team.Name,
		ClueID:            clue.ID,
		ClueTitle:         clue.Title,
		AnswerKind:        hunt.AnswerPhoto,
		Content:           "https://media.test/photo.jpg",
		MediaDeleteHandle: "handle-123",
		Status:            hunt.StatusPending,
		SubmittedAt:       time.Now().UTC(),
	}
	if err := env.store.CreateSubmission(context.Background(), sub); err != nil {
		t.Fatalf("create submission: %v", err)
	}

	w := env.do(t, http.MethodPost, "/api/admin/submissions/"+sub.ID+"/reject", RejectRequest{}, asCoordinator(session))
	if w.Code != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	env.reviewer.Wait()

	deleted := env.uploader.deletedHandles()
	if len(deleted) != 1 || deleted[0] != "handle-123" {
		t.Fatalf("deleted handles = %v, want [handle-123]", deleted)
	}

	// The generic retry prompt names the clue.
	notes, _ := env.store.ListNotifications(context.Background(), team.ID, false)
	if len(notes) != 1 || !strings.Contains(notes[0].Message, "Statue selfie") {
		t.Fatalf("notifications = %+v", notes)
	}
}

func TestApproveKeepsMedia(t *testing.T) {
	env := newTestEnv(t)
	session := env.coordinatorSession(t)
	team, _ := env.seedTeam(t, "Red Foxes")
	clue := env.seedClue(t, 1, "Statue selfie", hunt.AnswerPhoto)

	sub := hunt.Submission{
		ID:                newID(),
		TeamID:            team.ID,
		TeamName:          team.Name,
		ClueID:            clue.ID,
		ClueTitle:         clue.Title,
		AnswerKind:        hunt.AnswerPhoto,
		Content:           "https://media.test/photo.jpg",
		MediaDeleteHandle: "handle-456",
		Status:            hunt.StatusPending,
		SubmittedAt:       time.Now().UTC(),
	}
	if err := env.store.CreateSubmission(context.Background(), sub); err != nil {
		t.Fatalf("create submission: %v", err)
	}

	w := env.do(t, http.MethodPost, "/api/admin/submissions/"+sub.ID+"/approve", nil, asCoordinator(session))
	if w.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	env.reviewer.Wait()

	// The approved photo stays viewable; its asset goes away only when the
	// submission is rejected or deleted.
	if deleted := env.uploader.deletedHandles(); len(deleted) != 0 {
		t.Fatalf("deleted handles = %v, want none", deleted)
	}
	got, err := env.store.SubmissionByID(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("reload submission: %v", err)
	}
	if got.Content != sub.Content {
		t.Errorf("content = %q, want %q", got.Content, sub.Content)
	}
	if got.MediaDeleteHandle != sub.MediaDeleteHandle {
		t.Errorf("delete handle = %q, want %q", got.MediaDeleteHandle, sub.MediaDeleteHandle)
	}
}

func TestDeleteOnlyResolvedSubmissions(t *testing.T) {
	env := newTestEnv(t)
	session := env.coordinatorSession(t)
	_, token := env.seedTeam(t, "Red Foxes")
	clue := env.seedClue(t, 1, "The fountain", hunt.AnswerText)
	sub := env.submitText(t, token, clue, "guess")

	// Pending submissions cannot be deleted.
	w := env.do(t, http.MethodDelete, "/api/admin/submissions/"+sub.ID, nil, asCoordinator(session))
	if w.Code != http.StatusConflict {
		t.Fatalf("delete pending: expected 409, got %d", w.Code)
	}

	env.do(t, http.MethodPost, "/api/admin/submissions/"+sub.ID+"/reject", RejectRequest{}, asCoordinator(session))

	w = env.do(t, http.MethodDelete, "/api/admin/submissions/"+sub.ID, nil, asCoordinator(session))
	if w.Code != http.StatusOK {
		t.Fatalf("delete rejected: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if _, err := env.store.SubmissionByID(context.Background(), sub.ID); err == nil {
		t.Fatal("submission still present after delete")
	}
}

func TestAdminListSubmissionsFilters(t *testing.T) {
	env := newTestEnv(t)
	session := env.coordinatorSession(t)
	teamA, tokenA := env.seedTeam(t, "Red Foxes")
	_, tokenB := env.seedTeam(t, "Blue Owls")
	clue := env.seedClue(t, 1, "The fountain", hunt.AnswerText)

	subA := env.submitText(t, tokenA, clue, "a")
	env.submitText(t, tokenB, clue, "b")
	env.do(t, http.MethodPost, "/api/admin/submissions/"+subA.ID+"/approve", nil, asCoordinator(session))

	w := env.do(t, http.MethodGet, "/api/admin/submissions?status=pending", nil, asCoordinator(session))
	pending := decodeBody[[]hunt.Submission](t, w)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	w = env.do(t, http.MethodGet, "/api/admin/submissions?teamId="+teamA.ID, nil, asCoordinator(session))
	byTeam := decodeBody[[]hunt.Submission](t, w)
	if len(byTeam) != 1 || byTeam[0].TeamID != teamA.ID {
		t.Fatalf("byTeam = %+v", byTeam)
	}
}

func TestReviewRequiresCoordinator(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedTeam(t, "Red Foxes")
	clue := env.seedClue(t, 1, "The fountain", hunt.AnswerText)
	sub := env.submitText(t, token, clue, "guess")

	w := env.do(t, http.MethodPost, "/api/admin/submissions/"+sub.ID+"/approve", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
