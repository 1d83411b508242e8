package admin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"appealbot/internal/database"
	"appealbot/internal/domain"
)

// Admins resolves authorization for reviewer and owner actions and manages
// the roster. Roster membership grants reviewer rights; mutating the roster
// itself requires exact owner identity.
type Admins struct {
	roster  Roster
	ownerID int64
}

func NewAdmins(roster Roster, ownerID int64) *Admins {
	return &Admins{roster: roster, ownerID: ownerID}
}

func (a *Admins) IsOwner(userID int64) bool {
	return userID == a.ownerID
}

// IsAuthorized is true for the owner and any roster member. It gates every
// reviewer-only operation.
func (a *Admins) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	if a.IsOwner(userID) {
		return true, nil
	}

	return a.roster.Exists(ctx, userID)
}

// ReviewerIDs is the current fan-out recipient set: all roster members plus
// the owner.
func (a *Admins) ReviewerIDs(ctx context.Context) ([]int64, error) {
	entries, errList := a.roster.List(ctx)
	if errList != nil {
		return nil, errList
	}

	ids := make([]int64, 0, len(entries)+1)
	for _, entry := range entries {
		ids = append(ids, entry.UserID)
	}

	return append(ids, a.ownerID), nil
}

func (a *Admins) Add(ctx context.Context, actorID int64, userID int64) (Admin, error) {
	if !a.IsOwner(actorID) {
		return Admin{}, domain.ErrOwnerOnly
	}

	entry := Admin{UserID: userID, AddedBy: actorID, AddedOn: time.Now()}

	if errAdd := a.roster.Add(ctx, entry); errAdd != nil {
		if errors.Is(errAdd, database.ErrDuplicate) {
			return Admin{}, domain.ErrAlreadyAdmin
		}

		return Admin{}, errAdd
	}

	slog.Info("Admin added", slog.Int64("user_id", userID), slog.Int64("added_by", actorID))

	return entry, nil
}

func (a *Admins) Remove(ctx context.Context, actorID int64, userID int64) error {
	if !a.IsOwner(actorID) {
		return domain.ErrOwnerOnly
	}

	if errRemove := a.roster.Remove(ctx, userID); errRemove != nil {
		return errRemove
	}

	slog.Info("Admin removed", slog.Int64("user_id", userID), slog.Int64("removed_by", actorID))

	return nil
}

// List returns the roster, reviewer-gated like every other read.
func (a *Admins) List(ctx context.Context, actorID int64) ([]Admin, error) {
	authorized, errAuth := a.IsAuthorized(ctx, actorID)
	if errAuth != nil {
		return nil, errAuth
	}

	if !authorized {
		return nil, domain.ErrPermissionDenied
	}

	return a.roster.List(ctx)
}

func (a *Admins) OwnerID() int64 {
	return a.ownerID
}

// Seed populates an empty roster from the statically configured admin list.
func (a *Admins) Seed(ctx context.Context, initialIDs []int64) error {
	return a.roster.SeedIfEmpty(ctx, initialIDs, a.ownerID)
}
