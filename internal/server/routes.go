package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, deps Deps, broker *Broker, pipeline *Pipeline, reviewer *Reviewer, leaderboard *Leaderboard) {
	store := deps.Store
	logger := deps.Logger

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Questline Hunt API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, deps.DB, deps.Redis))
	r.Get("/ws/events", handleEventsWS(logger, broker, store))

	// Public: a join code is the only credential a player ever holds.
	r.Get("/api/teams/{joinCode}", handleTeamLookup(store))
	r.Post("/api/join", handleJoin(store, broker))

	// Player routes, authenticated by the Bearer token from /api/join.
	r.Route("/api", func(r chi.Router) {
		r.Use(playerAuthMiddleware(store))
		r.Get("/state", handleState(store))
		r.Post("/submissions", handleSubmit(pipeline))
		r.Get("/submissions", handleListOwnSubmissions(store))
		r.Get("/notifications", handleListNotifications(store))
		r.Post("/notifications/{id}/read", handleMarkNotificationRead(store))
		r.Get("/announcements", handleListAnnouncements(store))
		r.Get("/leaderboard", handleLeaderboard(store, leaderboard))
		r.Get("/mystery", handleMysteryState(store))
		r.Post("/mystery/accuse", handleAccuse(store, broker))
		r.Get("/finale", handleFinaleState(store))
		r.Post("/finale/answer", handleFinaleAnswer(store, broker))
		r.Get("/events", handleEvents(broker))
	})

	// Coordinator auth uses cookie sessions.
	r.Post("/api/admin/login", handleCoordinatorLogin(store, logger))
	r.Post("/api/admin/logout", handleCoordinatorLogout(store))
	r.Get("/api/admin/me", handleCoordinatorMe(store))

	// Coordinator routes.
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(coordinatorAuthMiddleware(store))

		r.Get("/teams", handleAdminListTeams(store))
		r.Post("/teams", handleAdminCreateTeam(store))
		r.Put("/teams/{teamID}", handleAdminUpdateTeam(store))
		r.Delete("/teams/{teamID}", handleAdminDeleteTeam(store))
		r.Post("/teams/{teamID}/reset", handleAdminResetTeam(store, leaderboard))
		r.Post("/teams/{teamID}/finale-approval", handleAdminFinaleApproval(store, broker))

		r.Get("/clues", handleAdminListClues(store))
		r.Post("/clues", handleAdminCreateClue(store))
		r.Put("/clues/{clueID}", handleAdminUpdateClue(store))
		r.Delete("/clues/{clueID}", handleAdminDeleteClue(store))

		r.Get("/submissions", handleAdminListSubmissions(store))
		r.Post("/submissions/{id}/approve", handleApprove(reviewer))
		r.Post("/submissions/{id}/reject", handleReject(reviewer))
		r.Delete("/submissions/{id}", handleAdminDeleteSubmission(reviewer))

		r.Get("/announcements", handleListAnnouncements(store))
		r.Post("/announcements", handleAdminCreateAnnouncement(store, broker))
		r.Put("/announcements/{id}", handleAdminUpdateAnnouncement(store, broker))

		r.Get("/mystery", handleAdminGetMystery(store))
		r.Put("/mystery", handleAdminPutMystery(store))
		r.Post("/mystery/reveal", handleAdminRevealMystery(store, broker))
		r.Get("/accusations", handleAdminListAccusations(store))

		r.Get("/finale", handleAdminGetFinale(store))
		r.Put("/finale", handleAdminPutFinale(store))

		r.Get("/events", handleFirehose(broker))
	})
}
