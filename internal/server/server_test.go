package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/questline/huntapi/internal/database"
	"github.com/questline/huntapi/internal/hunt"
	"github.com/questline/huntapi/internal/media"
	"github.com/questline/huntapi/internal/migrations"
)

// fakeUploader is an in-memory media.Uploader. Set failures > 0 to make
// that many Upload calls fail before succeeding.
type fakeUploader struct {
	mu       sync.Mutex
	failures int
	uploads  int
	deleted  []string
}

func (f *fakeUploader) Upload(ctx context.Context, blob []byte) (media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.failures > 0 {
		f.failures--
		return media.Asset{}, errors.New("upload refused")
	}
	return media.Asset{
		URL:          "https://media.test/photo-" + newID() + ".jpg",
		DeleteHandle: "handle-" + newID(),
	}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, handle)
	return nil
}

func (f *fakeUploader) deletedHandles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type testEnv struct {
	store    *DocStore
	router   *chi.Mux
	broker   *Broker
	pipeline *Pipeline
	reviewer *Reviewer
	uploader *fakeUploader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// An in-memory database exists per connection; keep the pool at one so
	// every query sees the migrated schema.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := discardLogger()
	store := NewDocStore(db)
	broker := NewBroker()
	uploader := &fakeUploader{}
	leaderboard := NewLeaderboard(nil, logger)
	pipeline := NewPipeline(store, uploader, broker, logger)
	reviewer := NewReviewer(store, uploader, broker, leaderboard, logger)

	r := chi.NewRouter()
	addRoutes(r, Deps{
		Logger:   logger,
		DB:       db,
		Store:    store,
		Uploader: uploader,
	}, broker, pipeline, reviewer, leaderboard)

	return &testEnv{
		store:    store,
		router:   r,
		broker:   broker,
		pipeline: pipeline,
		reviewer: reviewer,
		uploader: uploader,
	}
}

// do runs a JSON request through the router.
func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, opt := range opts {
		opt(req)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func asPlayer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func asCoordinator(sessionID string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: coordinatorCookieName, Value: sessionID})
	}
}

// seedTeam creates a team and returns it with a player session token.
func (e *testEnv) seedTeam(t *testing.T, name string) (hunt.Team, string) {
	t.Helper()
	ctx := context.Background()

	code, err := generateJoinCode()
	if err != nil {
		t.Fatalf("join code: %v", err)
	}
	team, err := e.store.CreateTeam(ctx, name, code)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	token, err := e.store.CreatePlayerSession(ctx, team.ID, team.Name)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return team, token
}

func (e *testEnv) seedClue(t *testing.T, orderIndex int, title string, kind hunt.AnswerKind) hunt.Clue {
	t.Helper()
	clue, err := e.store.CreateClue(context.Background(), hunt.Clue{
		OrderIndex: orderIndex,
		Title:      title,
		Body:       "Find it.",
		AnswerKind: kind,
	})
	if err != nil {
		t.Fatalf("create clue: %v", err)
	}
	return clue
}

func (e *testEnv) coordinatorSession(t *testing.T) string {
	t.Helper()
	sessionID, err := e.store.CreateCoordinatorSession(context.Background(), "coord-1", "coordinator@test.local")
	if err != nil {
		t.Fatalf("create coordinator session: %v", err)
	}
	return sessionID
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}
