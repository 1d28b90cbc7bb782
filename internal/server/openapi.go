package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/questline/huntapi/internal/hunt"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthCheck is one dependency's status inside the /healthz response.
type HealthCheck struct {
	Status string `json:"status"`
}

// Path parameter declarations. The reflector drops any operation whose
// path placeholders are not declared, so every parameterized route names
// its parameters through one of these.
type joinCodePathParams struct {
	JoinCode string `path:"joinCode"`
}

type idPathParams struct {
	ID string `path:"id"`
}

type teamIDPathParams struct {
	TeamID string `path:"teamID"`
}

type clueIDPathParams struct {
	ClueID string `path:"clueID"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Questline Hunt API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for live scavenger hunts: submissions, review, and progress-gated stages.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(map[string]HealthCheck{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]HealthCheck{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/teams/{joinCode}
	getTeam, _ := r.NewOperationContext(http.MethodGet, "/api/teams/{joinCode}")
	getTeam.SetSummary("Look up team")
	getTeam.SetDescription("Look up a team by its join code before joining.")
	getTeam.AddReqStructure(joinCodePathParams{})
	getTeam.AddRespStructure(TeamPreview{}, openapi.WithHTTPStatus(http.StatusOK))
	getTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getTeam)

	// POST /api/join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/api/join")
	postJoin.SetSummary("Join as a team")
	postJoin.SetDescription("Exchange a join code for a bearer session token.")
	postJoin.AddReqStructure(JoinRequest{})
	postJoin.AddRespStructure(JoinResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postJoin)

	// GET /api/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/state")
	getState.SetSummary("Hunt state")
	getState.SetDescription("Current clue, per-clue progress, and gate status for the player's team. Requires Bearer token.")
	getState.AddRespStructure(StateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getState)

	// POST /api/submissions
	postSubmit, _ := r.NewOperationContext(http.MethodPost, "/api/submissions")
	postSubmit.SetSummary("Submit an answer")
	postSubmit.SetDescription("Submit a text, scan, or photo answer for a clue. Photo content uploads asynchronously behind a pending placeholder. Requires Bearer token.")
	postSubmit.AddReqStructure(SubmitRequest{})
	postSubmit.AddRespStructure(hunt.Submission{}, openapi.WithHTTPStatus(http.StatusAccepted))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postSubmit)

	// GET /api/submissions
	listOwn, _ := r.NewOperationContext(http.MethodGet, "/api/submissions")
	listOwn.SetSummary("List own submissions")
	listOwn.SetDescription("Returns the team's submissions, newest first. Requires Bearer token.")
	listOwn.AddRespStructure([]hunt.Submission{}, openapi.WithHTTPStatus(http.StatusOK))
	listOwn.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listOwn)

	// GET /api/notifications
	listNotes, _ := r.NewOperationContext(http.MethodGet, "/api/notifications")
	listNotes.SetSummary("List notifications")
	listNotes.SetDescription("Returns the team's notifications. Pass unread=1 to filter. Requires Bearer token.")
	listNotes.AddRespStructure([]hunt.Notification{}, openapi.WithHTTPStatus(http.StatusOK))
	listNotes.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listNotes)

	// POST /api/notifications/{id}/read
	markRead, _ := r.NewOperationContext(http.MethodPost, "/api/notifications/{id}/read")
	markRead.SetSummary("Mark notification read")
	markRead.AddReqStructure(idPathParams{})
	markRead.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	markRead.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(markRead)

	// GET /api/announcements
	listAnns, _ := r.NewOperationContext(http.MethodGet, "/api/announcements")
	listAnns.SetSummary("List announcements")
	listAnns.AddRespStructure([]hunt.Announcement{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listAnns)

	// GET /api/leaderboard
	getBoard, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard")
	getBoard.SetSummary("Leaderboard")
	getBoard.SetDescription("Teams ranked by completed clues. Requires Bearer token.")
	getBoard.AddRespStructure([]LeaderboardEntry{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getBoard)

	// GET /api/mystery
	getMystery, _ := r.NewOperationContext(http.MethodGet, "/api/mystery")
	getMystery.SetSummary("Mystery state")
	getMystery.SetDescription("The side-quest as visible to the team: victim, suspects, unlocked evidence. Requires Bearer token.")
	getMystery.AddRespStructure(MysteryStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getMystery)

	// POST /api/mystery/accuse
	postAccuse, _ := r.NewOperationContext(http.MethodPost, "/api/mystery/accuse")
	postAccuse.SetSummary("Make an accusation")
	postAccuse.SetDescription("One accusation per team, ever. Requires Bearer token.")
	postAccuse.AddReqStructure(AccuseRequest{})
	postAccuse.AddRespStructure(AccuseResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postAccuse.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postAccuse.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postAccuse)

	// GET /api/finale
	getFinale, _ := r.NewOperationContext(http.MethodGet, "/api/finale")
	getFinale.SetSummary("Finale state")
	getFinale.SetDescription("Finale gate status; map and formula appear once open. Requires Bearer token.")
	getFinale.AddRespStructure(FinaleStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getFinale)

	// POST /api/finale/answer
	postFinale, _ := r.NewOperationContext(http.MethodPost, "/api/finale/answer")
	postFinale.SetSummary("Answer the finale formula")
	postFinale.AddReqStructure(FinaleAnswerRequest{})
	postFinale.AddRespStructure(FinaleAnswerResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postFinale.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postFinale)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of team and broadcast events. Pass token as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /ws/events
	getWS, _ := r.NewOperationContext(http.MethodGet, "/ws/events")
	getWS.SetSummary("WebSocket event stream")
	getWS.SetDescription("WebSocket twin of the SSE stream. Pass token as query parameter.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Coordinator login")
	postLogin.SetDescription("Authenticate with email and password. Sets coordinator_session cookie.")
	postLogin.AddReqStructure(CoordinatorLoginRequest{})
	postLogin.AddRespStructure(CoordinatorMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Coordinator logout")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getMe.SetSummary("Current coordinator")
	getMe.AddRespStructure(CoordinatorMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/admin/submissions
	listSubs, _ := r.NewOperationContext(http.MethodGet, "/api/admin/submissions")
	listSubs.SetSummary("List submissions")
	listSubs.SetDescription("All submissions, filterable by status and teamId query parameters. Requires coordinator_session cookie.")
	listSubs.AddRespStructure([]hunt.Submission{}, openapi.WithHTTPStatus(http.StatusOK))
	listSubs.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listSubs)

	// POST /api/admin/submissions/{id}/approve
	approveOp, _ := r.NewOperationContext(http.MethodPost, "/api/admin/submissions/{id}/approve")
	approveOp.SetSummary("Approve submission")
	approveOp.SetDescription("Credits the clue to the team. Idempotent on already-approved submissions.")
	approveOp.AddReqStructure(idPathParams{})
	approveOp.AddRespStructure(hunt.Submission{}, openapi.WithHTTPStatus(http.StatusOK))
	approveOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	approveOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(approveOp)

	// POST /api/admin/submissions/{id}/reject
	rejectOp, _ := r.NewOperationContext(http.MethodPost, "/api/admin/submissions/{id}/reject")
	rejectOp.SetSummary("Reject submission")
	rejectOp.SetDescription("Marks the submission rejected and notifies the team with the feedback text.")
	rejectOp.AddReqStructure(idPathParams{})
	rejectOp.AddReqStructure(RejectRequest{})
	rejectOp.AddRespStructure(hunt.Submission{}, openapi.WithHTTPStatus(http.StatusOK))
	rejectOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(rejectOp)

	// DELETE /api/admin/submissions/{id}
	deleteSub, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/submissions/{id}")
	deleteSub.SetSummary("Delete submission")
	deleteSub.SetDescription("Removes a rejected or failed submission and its media.")
	deleteSub.AddReqStructure(idPathParams{})
	deleteSub.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteSub.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(deleteSub)

	// Teams admin.
	listTeamsOp, _ := r.NewOperationContext(http.MethodGet, "/api/admin/teams")
	listTeamsOp.SetSummary("List teams")
	listTeamsOp.AddRespStructure([]hunt.Team{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listTeamsOp)

	createTeamOp, _ := r.NewOperationContext(http.MethodPost, "/api/admin/teams")
	createTeamOp.SetSummary("Create team")
	createTeamOp.SetDescription("Creates a team with a generated join code.")
	createTeamOp.AddReqStructure(TeamRequest{})
	createTeamOp.AddRespStructure(hunt.Team{}, openapi.WithHTTPStatus(http.StatusCreated))
	createTeamOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createTeamOp)

	updateTeamOp, _ := r.NewOperationContext(http.MethodPut, "/api/admin/teams/{teamID}")
	updateTeamOp.SetSummary("Rename team")
	updateTeamOp.AddReqStructure(teamIDPathParams{})
	updateTeamOp.AddReqStructure(TeamRequest{})
	updateTeamOp.AddRespStructure(hunt.Team{}, openapi.WithHTTPStatus(http.StatusOK))
	updateTeamOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateTeamOp)

	deleteTeamOp, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/teams/{teamID}")
	deleteTeamOp.SetSummary("Delete team")
	deleteTeamOp.AddReqStructure(teamIDPathParams{})
	deleteTeamOp.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteTeamOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteTeamOp)

	resetTeamOp, _ := r.NewOperationContext(http.MethodPost, "/api/admin/teams/{teamID}/reset")
	resetTeamOp.SetSummary("Reset team progress")
	resetTeamOp.AddReqStructure(teamIDPathParams{})
	resetTeamOp.AddRespStructure(hunt.Team{}, openapi.WithHTTPStatus(http.StatusOK))
	resetTeamOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(resetTeamOp)

	finaleApprovalOp, _ := r.NewOperationContext(http.MethodPost, "/api/admin/teams/{teamID}/finale-approval")
	finaleApprovalOp.SetSummary("Grant or revoke finale approval")
	finaleApprovalOp.AddReqStructure(teamIDPathParams{})
	finaleApprovalOp.AddReqStructure(FinaleApprovalRequest{})
	finaleApprovalOp.AddRespStructure(hunt.Team{}, openapi.WithHTTPStatus(http.StatusOK))
	finaleApprovalOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(finaleApprovalOp)

	// Clues admin.
	listCluesOp, _ := r.NewOperationContext(http.MethodGet, "/api/admin/clues")
	listCluesOp.SetSummary("List clues")
	listCluesOp.AddRespStructure([]hunt.Clue{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listCluesOp)

	createClueOp, _ := r.NewOperationContext(http.MethodPost, "/api/admin/clues")
	createClueOp.SetSummary("Create clue")
	createClueOp.AddReqStructure(ClueRequest{})
	createClueOp.AddRespStructure(hunt.Clue{}, openapi.WithHTTPStatus(http.StatusCreated))
	createClueOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createClueOp)

	updateClueOp, _ := r.NewOperationContext(http.MethodPut, "/api/admin/clues/{clueID}")
	updateClueOp.SetSummary("Update clue")
	updateClueOp.AddReqStructure(clueIDPathParams{})
	updateClueOp.AddReqStructure(ClueRequest{})
	updateClueOp.AddRespStructure(hunt.Clue{}, openapi.WithHTTPStatus(http.StatusOK))
	updateClueOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateClueOp)

	deleteClueOp, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/clues/{clueID}")
	deleteClueOp.SetSummary("Delete clue")
	deleteClueOp.AddReqStructure(clueIDPathParams{})
	deleteClueOp.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteClueOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteClueOp)

	// Announcements admin.
	createAnnOp, _ := r.NewOperationContext(http.MethodPost, "/api/admin/announcements")
	createAnnOp.SetSummary("Create announcement")
	createAnnOp.AddReqStructure(AnnouncementRequest{})
	createAnnOp.AddRespStructure(hunt.Announcement{}, openapi.WithHTTPStatus(http.StatusCreated))
	createAnnOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createAnnOp)

	updateAnnOp, _ := r.NewOperationContext(http.MethodPut, "/api/admin/announcements/{id}")
	updateAnnOp.SetSummary("Edit announcement")
	updateAnnOp.AddReqStructure(idPathParams{})
	updateAnnOp.AddReqStructure(AnnouncementRequest{})
	updateAnnOp.AddRespStructure(hunt.Announcement{}, openapi.WithHTTPStatus(http.StatusOK))
	updateAnnOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateAnnOp)

	// Mystery admin.
	putMysteryOp, _ := r.NewOperationContext(http.MethodPut, "/api/admin/mystery")
	putMysteryOp.SetSummary("Configure mystery")
	putMysteryOp.AddReqStructure(hunt.Mystery{})
	putMysteryOp.AddRespStructure(hunt.Mystery{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(putMysteryOp)

	revealOp, _ := r.NewOperationContext(http.MethodPost, "/api/admin/mystery/reveal")
	revealOp.SetSummary("Reveal the culprit")
	revealOp.AddRespStructure(hunt.Mystery{}, openapi.WithHTTPStatus(http.StatusOK))
	revealOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(revealOp)

	listAccOp, _ := r.NewOperationContext(http.MethodGet, "/api/admin/accusations")
	listAccOp.SetSummary("List accusations")
	listAccOp.AddRespStructure([]hunt.Accusation{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listAccOp)

	// Finale admin.
	putFinaleOp, _ := r.NewOperationContext(http.MethodPut, "/api/admin/finale")
	putFinaleOp.SetSummary("Configure finale")
	putFinaleOp.AddReqStructure(hunt.Finale{})
	putFinaleOp.AddRespStructure(hunt.Finale{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(putFinaleOp)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
