package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/questline/huntapi/internal/hunt"
)

// Document types stored as JSONB in per-collection tables.

type teamDoc struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	JoinCode       string                     `json:"joinCode"`
	CompletedClues []string                   `json:"completedClues"`
	PerClueStatus  map[string]clueProgressDoc `json:"perClueStatus,omitempty"`
	FinaleApproved bool                       `json:"finaleApproved,omitempty"`
	FormulaSolved  bool                       `json:"formulaSolved,omitempty"`
	FinaleSolvedAt *time.Time                 `json:"finaleSolvedAt,omitempty"`
	CreatedAt      time.Time                  `json:"createdAt"`
}

type clueProgressDoc struct {
	UnlockedAt  *time.Time            `json:"unlockedAt,omitempty"`
	SubmittedAt *time.Time            `json:"submittedAt,omitempty"`
	Status      hunt.SubmissionStatus `json:"status,omitempty"`
}

type clueDoc struct {
	ID             string          `json:"id"`
	OrderIndex     int             `json:"orderIndex"`
	Title          string          `json:"title"`
	Body           string          `json:"body"`
	AnswerKind     hunt.AnswerKind `json:"answerKind"`
	ExpectedAnswer string          `json:"expectedAnswer,omitempty"`
	ImageURL       string          `json:"imageUrl,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type submissionDoc struct {
	ID                string                `json:"id"`
	TeamID            string                `json:"teamId"`
	TeamName          string                `json:"teamName"`
	ClueID            string                `json:"clueId"`
	ClueTitle         string                `json:"clueTitle"`
	AnswerKind        hunt.AnswerKind       `json:"answerKind"`
	Content           string                `json:"content"`
	MediaDeleteHandle string                `json:"mediaDeleteHandle,omitempty"`
	Status            hunt.SubmissionStatus `json:"status"`
	Uploading         bool                  `json:"uploading,omitempty"`
	Feedback          string                `json:"feedback,omitempty"`
	SubmittedAt       time.Time             `json:"submittedAt"`
}

type notificationDoc struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"teamId"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type announcementDoc struct {
	ID        string                    `json:"id"`
	Title     string                    `json:"title,omitempty"`
	Message   string                    `json:"message"`
	Priority  hunt.AnnouncementPriority `json:"priority"`
	CreatedAt time.Time                 `json:"createdAt"`
	EditedAt  *time.Time                `json:"editedAt,omitempty"`
}

type accusationDoc struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"teamId"`
	TeamName    string    `json:"teamName"`
	SuspectID   string    `json:"suspectId"`
	SuspectName string    `json:"suspectName"`
	Reasoning   string    `json:"reasoning,omitempty"`
	Correct     bool      `json:"correct"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type playerSessionDoc struct {
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
}

type coordinatorDoc struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

type coordinatorSessionDoc struct {
	CoordinatorID string `json:"coordinatorId"`
	Email         string `json:"email"`
}

// singletonID keys the mystery and finale tables, which hold one document.
const singletonID = "current"

// timeColumnLayout is fixed-width so timestamp columns compare correctly
// as text. RFC3339Nano trims trailing zeros and breaks lexicographic
// ordering at sub-second granularity.
const timeColumnLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DocStore implements Store using per-collection tables with JSONB data
// columns. Columns beside data exist only to index the queries the engine
// actually runs.
type DocStore struct {
	db *sql.DB
}

func NewDocStore(db *sql.DB) *DocStore {
	return &DocStore{db: db}
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Generic helpers, same shape for every collection.

func (s *DocStore) get(ctx context.Context, table, id string, dest any) error {
	var data string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT json(data) FROM %s WHERE id = ?`, table), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (s *DocStore) del(ctx context.Context, table, id string) error {
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DocStore) putKV(ctx context.Context, table, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT OR REPLACE INTO %s (id, data) VALUES (?, jsonb(?))`, table),
		id, string(data),
	)
	return err
}

// Teams

func (d teamDoc) toDomain() hunt.Team {
	t := hunt.Team{
		ID:               d.ID,
		Name:             d.Name,
		JoinCode:         d.JoinCode,
		CompletedClueIDs: d.CompletedClues,
		FinaleApproved:   d.FinaleApproved,
		FormulaSolved:    d.FormulaSolved,
		FinaleSolvedAt:   d.FinaleSolvedAt,
		CreatedAt:        d.CreatedAt,
	}
	if len(d.PerClueStatus) > 0 {
		t.PerClueStatus = make(map[string]hunt.ClueProgress, len(d.PerClueStatus))
		for id, p := range d.PerClueStatus {
			t.PerClueStatus[id] = hunt.ClueProgress{
				UnlockedAt:  p.UnlockedAt,
				SubmittedAt: p.SubmittedAt,
				Status:      p.Status,
			}
		}
	}
	return t
}

func teamToDoc(t hunt.Team) teamDoc {
	d := teamDoc{
		ID:             t.ID,
		Name:           t.Name,
		JoinCode:       t.JoinCode,
		CompletedClues: t.CompletedClueIDs,
		FinaleApproved: t.FinaleApproved,
		FormulaSolved:  t.FormulaSolved,
		FinaleSolvedAt: t.FinaleSolvedAt,
		CreatedAt:      t.CreatedAt,
	}
	if d.CompletedClues == nil {
		d.CompletedClues = []string{}
	}
	if len(t.PerClueStatus) > 0 {
		d.PerClueStatus = make(map[string]clueProgressDoc, len(t.PerClueStatus))
		for id, p := range t.PerClueStatus {
			d.PerClueStatus[id] = clueProgressDoc{
				UnlockedAt:  p.UnlockedAt,
				SubmittedAt: p.SubmittedAt,
				Status:      p.Status,
			}
		}
	}
	return d
}

func (s *DocStore) putTeam(ctx context.Context, q queryer, d teamDoc) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO teams (id, join_code, data) VALUES (?, ?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET join_code = excluded.join_code, data = excluded.data`,
		d.ID, d.JoinCode, string(data),
	)
	return err
}

// queryer lets put helpers run inside or outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *DocStore) TeamByID(ctx context.Context, id string) (hunt.Team, error) {
	var d teamDoc
	if err := s.get(ctx, "teams", id, &d); err != nil {
		return hunt.Team{}, err
	}
	return d.toDomain(), nil
}

func (s *DocStore) TeamByJoinCode(ctx context.Context, code string) (hunt.Team, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM teams WHERE join_code = ?`, code,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return hunt.Team{}, ErrNotFound
	}
	if err != nil {
		return hunt.Team{}, err
	}
	var d teamDoc
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return hunt.Team{}, err
	}
	return d.toDomain(), nil
}

func (s *DocStore) ListTeams(ctx context.Context) ([]hunt.Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT json(data) FROM teams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []hunt.Team
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var d teamDoc
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, err
		}
		teams = append(teams, d.toDomain())
	}
	return teams, rows.Err()
}

func (s *DocStore) CreateTeam(ctx context.Context, name, joinCode string) (hunt.Team, error) {
	d := teamDoc{
		ID:             newID(),
		Name:           name,
		JoinCode:       joinCode,
		CompletedClues: []string{},
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.putTeam(ctx, s.db, d); err != nil {
		return hunt.Team{}, err
	}
	return d.toDomain(), nil
}

func (s *DocStore) UpdateTeamName(ctx context.Context, id, name string) error {
	_, err := s.ModifyTeam(ctx, id, func(t *hunt.Team) error {
		t.Name = name
		return nil
	})
	return err
}

func (s *DocStore) DeleteTeam(ctx context.Context, id string) error {
	return s.del(ctx, "teams", id)
}

// ModifyTeam loads a team, applies fn, and saves it in a transaction.
// This is the only write path for progress fields, so concurrent approvals
// serialize on the row rather than clobbering each other.
func (s *DocStore) ModifyTeam(ctx context.Context, id string, fn func(*hunt.Team) error) (hunt.Team, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return hunt.Team{}, err
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx, `SELECT json(data) FROM teams WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return hunt.Team{}, ErrNotFound
	}
	if err != nil {
		return hunt.Team{}, err
	}

	var d teamDoc
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return hunt.Team{}, err
	}

	t := d.toDomain()
	if err := fn(&t); err != nil {
		return hunt.Team{}, err
	}

	if err := s.putTeam(ctx, tx, teamToDoc(t)); err != nil {
		return hunt.Team{}, err
	}
	return t, tx.Commit()
}

// Player sessions

func (s *DocStore) CreatePlayerSession(ctx context.Context, teamID, teamName string) (string, error) {
	token := newID()
	err := s.putKV(ctx, "player_sessions", token, playerSessionDoc{
		TeamID:   teamID,
		TeamName: teamName,
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *DocStore) PlayerFromToken(ctx context.Context, token string) (playerSession, error) {
	var d playerSessionDoc
	err := s.get(ctx, "player_sessions", token, &d)
	if errors.Is(err, ErrNotFound) {
		return playerSession{}, errNoSession
	}
	if err != nil {
		return playerSession{}, err
	}
	return playerSession{TeamID: d.TeamID, TeamName: d.TeamName}, nil
}

// Clues

func (d clueDoc) toDomain() hunt.Clue {
	return hunt.Clue{
		ID:             d.ID,
		OrderIndex:     d.OrderIndex,
		Title:          d.Title,
		Body:           d.Body,
		AnswerKind:     d.AnswerKind,
		ExpectedAnswer: d.ExpectedAnswer,
		ImageURL:       d.ImageURL,
		CreatedAt:      d.CreatedAt,
	}
}

func (s *DocStore) putClue(ctx context.Context, d clueDoc) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO clues (id, order_index, data) VALUES (?, ?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET order_index = excluded.order_index, data = excluded.data`,
		d.ID, d.OrderIndex, string(data),
	)
	return err
}

func (s *DocStore) ClueByID(ctx context.Context, id string) (hunt.Clue, error) {
	var d clueDoc
	if err := s.get(ctx, "clues", id, &d); err != nil {
		return hunt.Clue{}, err
	}
	return d.toDomain(), nil
}

func (s *DocStore) ListClues(ctx context.Context) ([]hunt.Clue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM clues ORDER BY order_index ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clues []hunt.Clue
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var d clueDoc
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, err
		}
		clues = append(clues, d.toDomain())
	}
	return clues, rows.Err()
}

func (s *DocStore) CreateClue(ctx context.Context, c hunt.Clue) (hunt.Clue, error) {
	c.ID = newID()
	c.CreatedAt = time.Now().UTC()
	d := clueDoc{
		ID:             c.ID,
		OrderIndex:     c.OrderIndex,
		Title:          c.Title,
		Body:           c.Body,
		AnswerKind:     c.AnswerKind,
		ExpectedAnswer: c.ExpectedAnswer,
		ImageURL:       c.ImageURL,
		CreatedAt:      c.CreatedAt,
	}
	if err := s.putClue(ctx, d); err != nil {
		return hunt.Clue{}, err
	}
	return c, nil
}

func (s *DocStore) UpdateClue(ctx context.Context, c hunt.Clue) error {
	var existing clueDoc
	if err := s.get(ctx, "clues", c.ID, &existing); err != nil {
		return err
	}
	existing.OrderIndex = c.OrderIndex
	existing.Title = c.Title
	existing.Body = c.Body
	existing.AnswerKind = c.AnswerKind
	existing.ExpectedAnswer = c.ExpectedAnswer
	existing.ImageURL = c.ImageURL
	return s.putClue(ctx, existing)
}

func (s *DocStore) DeleteClue(ctx context.Context, id string) error {
	return s.del(ctx, "clues", id)
}

// Submissions

func (d submissionDoc) toDomain() hunt.Submission {
	return hunt.Submission{
		ID:                d.ID,
		TeamID:            d.TeamID,
		TeamName:          d.TeamName,
		ClueID:            d.ClueID,
		ClueTitle:         d.ClueTitle,
		AnswerKind:        d.AnswerKind,
		Content:           d.Content,
		MediaDeleteHandle: d.MediaDeleteHandle,
		Status:            d.Status,
		Uploading:         d.Uploading,
		Feedback:          d.Feedback,
		SubmittedAt:       d.SubmittedAt,
	}
}

func submissionToDoc(s hunt.Submission) submissionDoc {
	return submissionDoc{
		ID:                s.ID,
		TeamID:            s.TeamID,
		TeamName:          s.TeamName,
		ClueID:            s.ClueID,
		ClueTitle:         s.ClueTitle,
		AnswerKind:        s.AnswerKind,
		Content:           s.Content,
		MediaDeleteHandle: s.MediaDeleteHandle,
		Status:            s.Status,
		Uploading:         s.Uploading,
		Feedback:          s.Feedback,
		SubmittedAt:       s.SubmittedAt,
	}
}

func (s *DocStore) putSubmission(ctx context.Context, q queryer, d submissionDoc) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	uploading := 0
	if d.Uploading {
		uploading = 1
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO submissions (id, team_id, clue_id, status, uploading, submitted_at, data)
		 VALUES (?, ?, ?, ?, ?, ?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET
			status = excluded.status, uploading = excluded.uploading, data = excluded.data`,
		d.ID, d.TeamID, d.ClueID, string(d.Status), uploading,
		d.SubmittedAt.UTC().Format(timeColumnLayout), string(data),
	)
	return err
}

func (s *DocStore) CreateSubmission(ctx context.Context, sub hunt.Submission) error {
	return s.putSubmission(ctx, s.db, submissionToDoc(sub))
}

func (s *DocStore) SubmissionByID(ctx context.Context, id string) (hunt.Submission, error) {
	var d submissionDoc
	if err := s.get(ctx, "submissions", id, &d); err != nil {
		return hunt.Submission{}, err
	}
	return d.toDomain(), nil
}

func (s *DocStore) ListSubmissions(ctx context.Context, f SubmissionFilter) ([]hunt.Submission, error) {
	query := `SELECT json(data) FROM submissions`
	var conds []string
	var args []any
	if f.TeamID != "" {
		conds = append(conds, `team_id = ?`)
		args = append(args, f.TeamID)
	}
	if f.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, string(f.Status))
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY submitted_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []hunt.Submission
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var d submissionDoc
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, err
		}
		subs = append(subs, d.toDomain())
	}
	return subs, rows.Err()
}

// BlockingSubmissionExists is the duplicate guard's read: pending (which
// covers in-flight uploads) and approved submissions block a new attempt;
// rejected and upload_failed do not.
func (s *DocStore) BlockingSubmissionExists(ctx context.Context, teamID, clueID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions
		 WHERE team_id = ? AND clue_id = ? AND status IN ('pending', 'approved')`,
		teamID, clueID,
	).Scan(&n)
	return n > 0, err
}

// ModifySubmission loads a submission, applies fn, and saves it in a
// transaction. All lifecycle transitions go through here.
func (s *DocStore) ModifySubmission(ctx context.Context, id string, fn func(*hunt.Submission) error) (hunt.Submission, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return hunt.Submission{}, err
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx, `SELECT json(data) FROM submissions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return hunt.Submission{}, ErrNotFound
	}
	if err != nil {
		return hunt.Submission{}, err
	}

	var d submissionDoc
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return hunt.Submission{}, err
	}

	sub := d.toDomain()
	if err := fn(&sub); err != nil {
		return hunt.Submission{}, err
	}

	if err := s.putSubmission(ctx, tx, submissionToDoc(sub)); err != nil {
		return hunt.Submission{}, err
	}
	return sub, tx.Commit()
}

func (s *DocStore) DeleteSubmission(ctx context.Context, id string) error {
	return s.del(ctx, "submissions", id)
}

// DeleteTeamSubmissions wipes every submission a team has made. Used by the
// team reset so old approved rows do not trip the duplicate guard.
func (s *DocStore) DeleteTeamSubmissions(ctx context.Context, teamID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE team_id = ?`, teamID)
	return err
}

// StaleUploads returns submissions whose photo transfer started before
// olderThan and never resolved. The reconciliation sweep turns these into
// upload_failed.
func (s *DocStore) StaleUploads(ctx context.Context, olderThan time.Time) ([]hunt.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM submissions
		 WHERE uploading = 1 AND status = 'pending' AND submitted_at < ?`,
		olderThan.UTC().Format(timeColumnLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []hunt.Submission
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var d submissionDoc
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, err
		}
		subs = append(subs, d.toDomain())
	}
	return subs, rows.Err()
}

// Notifications

func (s *DocStore) CreateNotification(ctx context.Context, teamID, message string) (hunt.Notification, error) {
	d := notificationDoc{
		ID:        newID(),
		TeamID:    teamID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(d)
	if err != nil {
		return hunt.Notification{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, team_id, read, data) VALUES (?, ?, 0, jsonb(?))`,
		d.ID, d.TeamID, string(data),
	)
	if err != nil {
		return hunt.Notification{}, err
	}
	return hunt.Notification{ID: d.ID, TeamID: d.TeamID, Message: d.Message, CreatedAt: d.CreatedAt}, nil
}

func (s *DocStore) ListNotifications(ctx context.Context, teamID string, unreadOnly bool) ([]hunt.Notification, error) {
	query := `SELECT json(data) FROM notifications WHERE team_id = ?`
	if unreadOnly {
		query += ` AND read = 0`
	}
	rows, err := s.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hunt.Notification
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var d notificationDoc
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, err
		}
		out = append(out, hunt.Notification{
			ID: d.ID, TeamID: d.TeamID, Message: d.Message,
			Read: d.Read, CreatedAt: d.CreatedAt,
		})
	}
	return out, rows.Err()
}

// MarkNotificationRead flips the one-shot flag. The team filter stops one
// team consuming another team's notification.
func (s *DocStore) MarkNotificationRead(ctx context.Context, id, teamID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications
		 SET read = 1, data = jsonb_set(data, '$.read', json('true'))
		 WHERE id = ? AND team_id = ?`,
		id, teamID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Announcements

func (d announcementDoc) toDomain() hunt.Announcement {
	return hunt.Announcement{
		ID:        d.ID,
		Title:     d.Title,
		Message:   d.Message,
		Priority:  d.Priority,
		CreatedAt: d.CreatedAt,
		EditedAt:  d.EditedAt,
	}
}

func (s *DocStore) CreateAnnouncement(ctx context.Context, title, message string, priority hunt.AnnouncementPriority) (hunt.Announcement, error) {
	if priority == "" {
		priority = hunt.PriorityNormal
	}
	d := announcementDoc{
		ID:        newID(),
		Title:     title,
		Message:   message,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(d)
	if err != nil {
		return hunt.Announcement{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO announcements (id, created_at, data) VALUES (?, ?, jsonb(?))`,
		d.ID, d.CreatedAt.Format(timeColumnLayout), string(data),
	)
	if err != nil {
		return hunt.Announcement{}, err
	}
	return d.toDomain(), nil
}

func (s *DocStore) UpdateAnnouncement(ctx context.Context, id, title, message string, priority hunt.AnnouncementPriority) (hunt.Announcement, error) {
	var d announcementDoc
	if err := s.get(ctx, "announcements", id, &d); err != nil {
		return hunt.Announcement{}, err
	}
	now := time.Now().UTC()
	d.Title = title
	d.Message = message
	if priority != "" {
		d.Priority = priority
	}
	d.EditedAt = &now

	data, err := json.Marshal(d)
	if err != nil {
		return hunt.Announcement{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE announcements SET data = jsonb(?) WHERE id = ?`, string(data), id,
	)
	if err != nil {
		return hunt.Announcement{}, err
	}
	return d.toDomain(), nil
}

func (s *DocStore) ListAnnouncements(ctx context.Context) ([]hunt.Announcement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM announcements ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hunt.Announcement
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var d announcementDoc
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, err
		}
		out = append(out, d.toDomain())
	}
	return out, rows.Err()
}

// Mystery and accusations

func (s *DocStore) Mystery(ctx context.Context) (hunt.Mystery, bool, error) {
	var m hunt.Mystery
	err := s.get(ctx, "mystery", singletonID, &m)
	if errors.Is(err, ErrNotFound) {
		return hunt.Mystery{}, false, nil
	}
	if err != nil {
		return hunt.Mystery{}, false, err
	}
	return m, true, nil
}

func (s *DocStore) PutMystery(ctx context.Context, m hunt.Mystery) error {
	return s.putKV(ctx, "mystery", singletonID, m)
}

func (s *DocStore) AccusationByTeam(ctx context.Context, teamID string) (hunt.Accusation, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM accusations WHERE team_id = ? LIMIT 1`, teamID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return hunt.Accusation{}, false, nil
	}
	if err != nil {
		return hunt.Accusation{}, false, err
	}
	var d accusationDoc
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return hunt.Accusation{}, false, err
	}
	return d.toDomain(), true, nil
}

func (d accusationDoc) toDomain() hunt.Accusation {
	return hunt.Accusation{
		ID:          d.ID,
		TeamID:      d.TeamID,
		TeamName:    d.TeamName,
		SuspectID:   d.SuspectID,
		SuspectName: d.SuspectName,
		Reasoning:   d.Reasoning,
		Correct:     d.Correct,
		SubmittedAt: d.SubmittedAt,
	}
}

func (s *DocStore) CreateAccusation(ctx context.Context, a hunt.Accusation) error {
	d := accusationDoc{
		ID:          a.ID,
		TeamID:      a.TeamID,
		TeamName:    a.TeamName,
		SuspectID:   a.SuspectID,
		SuspectName: a.SuspectName,
		Reasoning:   a.Reasoning,
		Correct:     a.Correct,
		SubmittedAt: a.SubmittedAt,
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accusations (id, team_id, data) VALUES (?, ?, jsonb(?))`,
		d.ID, d.TeamID, string(data),
	)
	return err
}

func (s *DocStore) ListAccusations(ctx context.Context) ([]hunt.Accusation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT json(data) FROM accusations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hunt.Accusation
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var d accusationDoc
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, err
		}
		out = append(out, d.toDomain())
	}
	return out, rows.Err()
}

// Finale

func (s *DocStore) Finale(ctx context.Context) (hunt.Finale, bool, error) {
	var f hunt.Finale
	err := s.get(ctx, "finale", singletonID, &f)
	if errors.Is(err, ErrNotFound) {
		return hunt.Finale{}, false, nil
	}
	if err != nil {
		return hunt.Finale{}, false, err
	}
	return f, true, nil
}

func (s *DocStore) PutFinale(ctx context.Context, f hunt.Finale) error {
	return s.putKV(ctx, "finale", singletonID, f)
}

// Coordinator auth

func (s *DocStore) CoordinatorByEmail(ctx context.Context, email string) (string, string, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM coordinators WHERE email = ?`, email,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", err
	}
	var d coordinatorDoc
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return "", "", err
	}
	return d.ID, d.PasswordHash, nil
}

func (s *DocStore) CreateCoordinator(ctx context.Context, email, passwordHash string) error {
	d := coordinatorDoc{ID: newID(), Email: email, PasswordHash: passwordHash}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO coordinators (id, email, data) VALUES (?, ?, jsonb(?))`,
		d.ID, d.Email, string(data),
	)
	return err
}

func (s *DocStore) CountCoordinators(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM coordinators`).Scan(&n)
	return n, err
}

func (s *DocStore) CreateCoordinatorSession(ctx context.Context, coordinatorID, email string) (string, error) {
	sessionID := newID()
	err := s.putKV(ctx, "coordinator_sessions", sessionID, coordinatorSessionDoc{
		CoordinatorID: coordinatorID,
		Email:         email,
	})
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

func (s *DocStore) DeleteCoordinatorSession(ctx context.Context, sessionID string) error {
	err := s.del(ctx, "coordinator_sessions", sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (s *DocStore) CoordinatorFromSession(ctx context.Context, sessionID string) (coordinatorSession, error) {
	var d coordinatorSessionDoc
	err := s.get(ctx, "coordinator_sessions", sessionID, &d)
	if errors.Is(err, ErrNotFound) {
		return coordinatorSession{}, errNoCoordinatorSession
	}
	if err != nil {
		return coordinatorSession{}, err
	}
	return coordinatorSession{CoordinatorID: d.CoordinatorID, Email: d.Email}, nil
}

// Ensure DocStore implements Store at compile time.
var _ Store = (*DocStore)(nil)
