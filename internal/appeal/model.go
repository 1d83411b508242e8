package appeal

import (
	"time"

	"appealbot/internal/domain"
)

// Kind is the category of request a user can submit.
type Kind string

const (
	Unban        Kind = "unban"
	AdminRequest Kind = "admin_request"
)

// ParseKind maps raw user input onto a known kind.
func ParseKind(value string) (Kind, error) {
	switch Kind(value) {
	case Unban:
		return Unban, nil
	case AdminRequest:
		return AdminRequest, nil
	default:
		return "", domain.ErrInvalidKind
	}
}

// Label is the human readable form used in chat messages.
func (k Kind) Label() string {
	if k == AdminRequest {
		return "admin request"
	}

	return string(k)
}

// Status tracks an appeal through its lifecycle. An appeal starts pending
// and moves exactly once into one of the two terminal states.
type Status string

const (
	Pending  Status = "pending"
	Approved Status = "approved"
	Rejected Status = "rejected"
)

func (s Status) Terminal() bool {
	return s == Approved || s == Rejected
}

type Appeal struct {
	AppealID    int64     `json:"appeal_id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	Kind        Kind      `json:"kind"`
	Text        string    `json:"text"`
	Status      Status    `json:"status"`
	SubmittedOn time.Time `json:"submitted_on"`
	CreatedOn   time.Time `json:"created_on"`
}

// New creates an unsaved pending appeal. The id is assigned by the store.
func New(userID int64, username string, kind Kind, text string) Appeal {
	now := time.Now()

	return Appeal{
		UserID:      userID,
		Username:    username,
		Kind:        kind,
		Text:        text,
		Status:      Pending,
		SubmittedOn: now,
		CreatedOn:   now,
	}
}

type Stats struct {
	Total    int64          `json:"total"`
	Pending  int64          `json:"pending"`
	Approved int64          `json:"approved"`
	Rejected int64          `json:"rejected"`
	ByKind   map[Kind]int64 `json:"by_kind"`
	Last24h  int64          `json:"last_24h"`
	Last7d   int64          `json:"last_7d"`
	Admins   int64          `json:"admins"`
}
