// Package hunt defines the core domain types and the progress and gate
// evaluators. It has no dependencies on the storage or HTTP layers.
package hunt

import "time"

type AnswerKind string

const (
	AnswerText  AnswerKind = "text"
	AnswerPhoto AnswerKind = "photo"
	AnswerScan  AnswerKind = "scan"
)

func (k AnswerKind) Valid() bool {
	switch k {
	case AnswerText, AnswerPhoto, AnswerScan:
		return true
	}
	return false
}

type SubmissionStatus string

const (
	StatusPending      SubmissionStatus = "pending"
	StatusApproved     SubmissionStatus = "approved"
	StatusRejected     SubmissionStatus = "rejected"
	StatusUploadFailed SubmissionStatus = "upload_failed"
)

type Team struct {
	ID               string                  `json:"id"`
	Name             string                  `json:"name"`
	JoinCode         string                  `json:"joinCode"`
	CompletedClueIDs []string                `json:"completedClueIds"`
	PerClueStatus    map[string]ClueProgress `json:"perClueStatus,omitempty"`
	FinaleApproved   bool                    `json:"finaleApproved,omitempty"`
	FormulaSolved    bool                    `json:"formulaSolved,omitempty"`
	FinaleSolvedAt   *time.Time              `json:"finaleSolvedAt,omitempty"`
	CreatedAt        time.Time               `json:"createdAt"`
}

// ClueProgress is the per-clue side channel used for duration tracking.
type ClueProgress struct {
	UnlockedAt  *time.Time       `json:"unlockedAt,omitempty"`
	SubmittedAt *time.Time       `json:"submittedAt,omitempty"`
	Status      SubmissionStatus `json:"status,omitempty"`
}

// HasCompleted reports whether clueID is in the team's completed set.
func (t Team) HasCompleted(clueID string) bool {
	for _, id := range t.CompletedClueIDs {
		if id == clueID {
			return true
		}
	}
	return false
}

type Clue struct {
	ID             string     `json:"id"`
	OrderIndex     int        `json:"orderIndex"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	AnswerKind     AnswerKind `json:"answerKind"`
	ExpectedAnswer string     `json:"expectedAnswer,omitempty"`
	ImageURL       string     `json:"imageUrl,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type Submission struct {
	ID                string           `json:"id"`
	TeamID            string           `json:"teamId"`
	TeamName          string           `json:"teamName"`
	ClueID            string           `json:"clueId"`
	ClueTitle         string           `json:"clueTitle"`
	AnswerKind        AnswerKind       `json:"answerKind"`
	Content           string           `json:"content"`
	MediaDeleteHandle string           `json:"mediaDeleteHandle,omitempty"`
	Status            SubmissionStatus `json:"status"`
	Uploading         bool             `json:"uploading,omitempty"`
	Feedback          string           `json:"feedback,omitempty"`
	SubmittedAt       time.Time        `json:"submittedAt"`
}

// Blocking reports whether this submission should count against the
// duplicate guard: pending (uploading included) and approved block a new
// attempt, rejected and upload_failed do not.
func (s Submission) Blocking() bool {
	return s.Status == StatusPending || s.Status == StatusApproved
}

type Notification struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"teamId"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type AnnouncementPriority string

const (
	PriorityNormal AnnouncementPriority = "normal"
	PriorityHigh   AnnouncementPriority = "high"
)

type Announcement struct {
	ID        string               `json:"id"`
	Title     string               `json:"title,omitempty"`
	Message   string               `json:"message"`
	Priority  AnnouncementPriority `json:"priority"`
	CreatedAt time.Time            `json:"createdAt"`
	EditedAt  *time.Time           `json:"editedAt,omitempty"`
}

type Victim struct {
	Name       string `json:"name"`
	Photo      string `json:"photo,omitempty"`
	Age        int    `json:"age,omitempty"`
	Occupation string `json:"occupation,omitempty"`
	Bio        string `json:"bio,omitempty"`
	LastSeen   string `json:"lastSeen,omitempty"`
}

type Suspect struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Photo        string `json:"photo,omitempty"`
	Age          int    `json:"age,omitempty"`
	Occupation   string `json:"occupation,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Alibi        string `json:"alibi,omitempty"`
	Motive       string `json:"motive,omitempty"`
	IsCulprit    bool   `json:"isCulprit,omitempty"`
}

type Evidence struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	Image            string `json:"image,omitempty"`
	FoundAt          string `json:"foundAt,omitempty"`
	UnlockClueID     string `json:"unlockClueId,omitempty"`
	RelatedSuspectID string `json:"relatedSuspectId,omitempty"`
}

// Mystery is the side-quest configuration, a singleton document.
type Mystery struct {
	Active      bool       `json:"active"`
	StartClueID string     `json:"startClueId,omitempty"`
	Revealed    bool       `json:"revealed,omitempty"`
	RevealedAt  *time.Time `json:"revealedAt,omitempty"`
	Victim      Victim     `json:"victim"`
	Suspects    []Suspect  `json:"suspects"`
	Evidence    []Evidence `json:"evidence"`
}

type Accusation struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"teamId"`
	TeamName    string    `json:"teamName"`
	SuspectID   string    `json:"suspectId"`
	SuspectName string    `json:"suspectName"`
	Reasoning   string    `json:"reasoning,omitempty"`
	Correct     bool      `json:"correct"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Finale is the treasure-finale configuration, a singleton document.
type Finale struct {
	MapImageURL    string `json:"mapImageUrl,omitempty"`
	MapDescription string `json:"mapDescription,omitempty"`
	FormulaText    string `json:"formulaText,omitempty"`
	MissingAnswer  string `json:"missingAnswer,omitempty"`
}

// CurrentClue returns the lowest-orderIndex clue the team has not yet
// completed, or nil once the sequence is done. Clues need not be sorted on
// input. A completed set that references deleted clues is treated as
// progress, never as an error.
func CurrentClue(team Team, clues []Clue) *Clue {
	var current *Clue
	for i := range clues {
		c := &clues[i]
		if team.HasCompleted(c.ID) {
			continue
		}
		if current == nil || c.OrderIndex < current.OrderIndex {
			current = c
		}
	}
	return current
}

// CompletedCount counts completed clues that still exist, capped at the
// live clue count so stale entries cannot push a team past 100%.
func CompletedCount(team Team, clues []Clue) int {
	n := 0
	for _, c := range clues {
		if team.HasCompleted(c.ID) {
			n++
		}
	}
	return n
}

// HuntComplete reports whether the team has finished every clue. An empty
// hunt is never complete.
func HuntComplete(team Team, clues []Clue) bool {
	return len(clues) > 0 && CompletedCount(team, clues) == len(clues)
}

// MysteryOpen evaluates the side-quest gate: the mystery must be switched
// on by staff, the trigger clue (if configured) completed, and the team
// must not have used its one accusation yet.
func MysteryOpen(m Mystery, team Team, hasAccused bool) bool {
	if !m.Active || hasAccused {
		return false
	}
	if m.StartClueID == "" {
		return true
	}
	return team.HasCompleted(m.StartClueID)
}

// FinaleOpen evaluates the two-step finale gate: automatic eligibility
// (all clues completed) plus the manual staff approval flag. With zero
// clues the gate is permanently closed.
func FinaleOpen(team Team, clues []Clue) bool {
	return HuntComplete(team, clues) && team.FinaleApproved
}

// UnlockedEvidence filters the mystery's evidence down to what the team's
// completed clues have unlocked. Evidence without an unlock condition is
// always visible while the mystery is active.
func UnlockedEvidence(m Mystery, team Team) []Evidence {
	if !m.Active {
		return nil
	}
	var out []Evidence
	for _, e := range m.Evidence {
		if e.UnlockClueID == "" || team.HasCompleted(e.UnlockClueID) {
			out = append(out, e)
		}
	}
	return out
}
