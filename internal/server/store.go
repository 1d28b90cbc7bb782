package server

import (
	"context"
	"errors"
	"time"

	"github.com/questline/huntapi/internal/hunt"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSubmission means a pending or approved submission already
	// exists for the (team, clue) pair.
	ErrDuplicateSubmission = errors.New("duplicate submission")

	// ErrInvalidTransition means the submission is not in a state that
	// permits the requested lifecycle change.
	ErrInvalidTransition = errors.New("invalid submission transition")
)

type playerSession struct {
	TeamID   string
	TeamName string
}

type coordinatorSession struct {
	CoordinatorID string
	Email         string
}

// SubmissionFilter narrows ListSubmissions. Zero values mean "any".
type SubmissionFilter struct {
	TeamID string
	Status hunt.SubmissionStatus
}

type Store interface {
	// Teams.
	TeamByID(ctx context.Context, id string) (hunt.Team, error)
	TeamByJoinCode(ctx context.Context, code string) (hunt.Team, error)
	ListTeams(ctx context.Context) ([]hunt.Team, error)
	CreateTeam(ctx context.Context, name, joinCode string) (hunt.Team, error)
	UpdateTeamName(ctx context.Context, id, name string) error
	DeleteTeam(ctx context.Context, id string) error
	ModifyTeam(ctx context.Context, id string, fn func(*hunt.Team) error) (hunt.Team, error)

	// Player sessions.
	CreatePlayerSession(ctx context.Context, teamID, teamName string) (token string, err error)
	PlayerFromToken(ctx context.Context, token string) (playerSession, error)

	// Clues.
	ClueByID(ctx context.Context, id string) (hunt.Clue, error)
	ListClues(ctx context.Context) ([]hunt.Clue, error)
	CreateClue(ctx context.Context, c hunt.Clue) (hunt.Clue, error)
	UpdateClue(ctx context.Context, c hunt.Clue) error
	DeleteClue(ctx context.Context, id string) error

	// Submissions.
	CreateSubmission(ctx context.Context, s hunt.Submission) error
	SubmissionByID(ctx context.Context, id string) (hunt.Submission, error)
	ListSubmissions(ctx context.Context, f SubmissionFilter) ([]hunt.Submission, error)
	BlockingSubmissionExists(ctx context.Context, teamID, clueID string) (bool, error)
	ModifySubmission(ctx context.Context, id string, fn func(*hunt.Submission) error) (hunt.Submission, error)
	DeleteSubmission(ctx context.Context, id string) error
	DeleteTeamSubmissions(ctx context.Context, teamID string) error
	StaleUploads(ctx context.Context, olderThan time.Time) ([]hunt.Submission, error)

	// Notifications.
	CreateNotification(ctx context.Context, teamID, message string) (hunt.Notification, error)
	ListNotifications(ctx context.Context, teamID string, unreadOnly bool) ([]hunt.Notification, error)
	MarkNotificationRead(ctx context.Context, id, teamID string) error

	// Announcements.
	CreateAnnouncement(ctx context.Context, title, message string, priority hunt.AnnouncementPriority) (hunt.Announcement, error)
	UpdateAnnouncement(ctx context.Context, id, title, message string, priority hunt.AnnouncementPriority) (hunt.Announcement, error)
	ListAnnouncements(ctx context.Context) ([]hunt.Announcement, error)

	// Mystery and accusations.
	Mystery(ctx context.Context) (hunt.Mystery, bool, error)
	PutMystery(ctx context.Context, m hunt.Mystery) error
	AccusationByTeam(ctx context.Context, teamID string) (hunt.Accusation, bool, error)
	CreateAccusation(ctx context.Context, a hunt.Accusation) error
	ListAccusations(ctx context.Context) ([]hunt.Accusation, error)

	// Finale.
	Finale(ctx context.Context) (hunt.Finale, bool, error)
	PutFinale(ctx context.Context, f hunt.Finale) error

	// Coordinator auth.
	CoordinatorByEmail(ctx context.Context, email string) (id, passwordHash string, err error)
	CreateCoordinator(ctx context.Context, email, passwordHash string) error
	CountCoordinators(ctx context.Context) (int, error)
	CreateCoordinatorSession(ctx context.Context, coordinatorID, email string) (sessionID string, err error)
	DeleteCoordinatorSession(ctx context.Context, sessionID string) error
	CoordinatorFromSession(ctx context.Context, sessionID string) (coordinatorSession, error)
}
