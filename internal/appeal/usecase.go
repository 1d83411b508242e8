package appeal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"appealbot/internal/database"
	"appealbot/internal/domain"
	"appealbot/internal/notification"
	"appealbot/pkg/log"
)

// Authorizer gates reviewer actions and resolves the current recipient set
// for new-appeal fan-out.
type Authorizer interface {
	IsAuthorized(ctx context.Context, userID int64) (bool, error)
	ReviewerIDs(ctx context.Context) ([]int64, error)
}

type Notifier interface {
	Notify(ctx context.Context, recipient int64, message string) error
	NotifyAll(ctx context.Context, recipients []int64, message string) (notification.Results, error)
}

// ReviewResult reports a decided appeal. SubmitterNotified is false when the
// decision was stored but the submitter could not be reached; the decision
// itself is never rolled back for a failed notification.
type ReviewResult struct {
	Appeal            Appeal
	SubmitterNotified bool
}

// Appeals applies lifecycle transitions and triggers notification fan-out.
type Appeals struct {
	store    Store
	auth     Authorizer
	notifier Notifier
}

func NewAppeals(store Store, auth Authorizer, notifier Notifier) *Appeals {
	return &Appeals{store: store, auth: auth, notifier: notifier}
}

// Submit persists a new pending appeal and then notifies every current
// reviewer. The returned id does not depend on notification outcome;
// submission succeeded the moment the record is durable.
func (a *Appeals) Submit(ctx context.Context, userID int64, username string, kind Kind, text string) (int64, error) {
	if _, errKind := ParseKind(string(kind)); errKind != nil {
		return 0, errKind
	}

	if strings.TrimSpace(text) == "" {
		return 0, domain.ErrEmptyAppealText
	}

	submission := New(userID, username, kind, text)
	if errSave := a.store.Save(ctx, &submission); errSave != nil {
		return 0, errSave
	}

	slog.Info("Appeal submitted", slog.Int64("appeal_id", submission.AppealID),
		slog.Int64("user_id", userID), slog.String("kind", string(kind)))

	reviewers, errReviewers := a.auth.ReviewerIDs(ctx)
	if errReviewers != nil {
		slog.Error("Failed to resolve reviewers for new appeal notification",
			slog.Int64("appeal_id", submission.AppealID), log.ErrAttr(errReviewers))

		return submission.AppealID, nil
	}

	if _, errNotify := a.notifier.NotifyAll(ctx, reviewers, newAppealMessage(submission)); errNotify != nil {
		slog.Error("Failed to fan out new appeal notification",
			slog.Int64("appeal_id", submission.AppealID), log.ErrAttr(errNotify))
	}

	return submission.AppealID, nil
}

// Review applies a terminal decision. Exactly one concurrent review of the
// same appeal can win; everyone else gets ErrAppealNotPending, which also
// covers ids that never existed.
func (a *Appeals) Review(ctx context.Context, actorID int64, appealID int64, decision Status) (ReviewResult, error) {
	if !decision.Terminal() {
		return ReviewResult{}, domain.ErrInvalidParameter
	}

	authorized, errAuth := a.auth.IsAuthorized(ctx, actorID)
	if errAuth != nil {
		return ReviewResult{}, errAuth
	}

	if !authorized {
		slog.Warn("Unauthorized review attempt", slog.Int64("actor_id", actorID),
			slog.Int64("appeal_id", appealID))

		return ReviewResult{}, domain.ErrPermissionDenied
	}

	decided, applied, errTransition := a.store.Transition(ctx, appealID, decision)
	if errTransition != nil {
		if errors.Is(errTransition, database.ErrNoResult) {
			return ReviewResult{}, domain.ErrAppealNotPending
		}

		return ReviewResult{}, errTransition
	}

	if !applied {
		return ReviewResult{}, domain.ErrAppealNotPending
	}

	slog.Info("Appeal decided", slog.Int64("appeal_id", appealID),
		slog.String("decision", string(decision)), slog.Int64("actor_id", actorID))

	result := ReviewResult{Appeal: decided, SubmitterNotified: true}

	if errNotify := a.notifier.Notify(ctx, decided.UserID, decisionMessage(decided)); errNotify != nil {
		slog.Error("Failed to notify submitter of decision",
			slog.Int64("appeal_id", appealID), slog.Int64("user_id", decided.UserID), log.ErrAttr(errNotify))

		result.SubmitterNotified = false
	}

	return result, nil
}

func (a *Appeals) Pending(ctx context.Context, actorID int64) ([]Appeal, error) {
	if errAuth := a.requireReviewer(ctx, actorID); errAuth != nil {
		return nil, errAuth
	}

	return a.store.Pending(ctx)
}

func (a *Appeals) Get(ctx context.Context, actorID int64, appealID int64) (Appeal, error) {
	if errAuth := a.requireReviewer(ctx, actorID); errAuth != nil {
		return Appeal{}, errAuth
	}

	found, errGet := a.store.GetByID(ctx, appealID)
	if errGet != nil {
		if errors.Is(errGet, database.ErrNoResult) {
			return Appeal{}, domain.ErrAppealNotPending
		}

		return Appeal{}, errGet
	}

	return found, nil
}

func (a *Appeals) Stats(ctx context.Context, actorID int64) (Stats, error) {
	if errAuth := a.requireReviewer(ctx, actorID); errAuth != nil {
		return Stats{}, errAuth
	}

	return a.store.Stats(ctx)
}

func (a *Appeals) requireReviewer(ctx context.Context, actorID int64) error {
	authorized, errAuth := a.auth.IsAuthorized(ctx, actorID)
	if errAuth != nil {
		return errAuth
	}

	if !authorized {
		return domain.ErrPermissionDenied
	}

	return nil
}

func newAppealMessage(submission Appeal) string {
	username := submission.Username
	if username == "" {
		username = "No username"
	}

	return fmt.Sprintf("🚨 New Appeal #%d\n"+
		"User: @%s (ID: %d)\n"+
		"Type: %s\n"+
		"Time: %s\n\n"+
		"📝 Appeal Text:\n%s\n\n"+
		"Use /approve %d to approve\n"+
		"Use /reject %d to reject\n\n"+
		"Use /pending to view all pending appeals",
		submission.AppealID, username, submission.UserID, submission.Kind.Label(),
		submission.SubmittedOn.Format("15:04 02-01-2006"), submission.Text,
		submission.AppealID, submission.AppealID)
}

func decisionMessage(decided Appeal) string {
	if decided.Status == Approved {
		return fmt.Sprintf("🎉 Your %s appeal has been approved!\nAppeal ID: #%d\n\nYour appeal text:\n%s",
			decided.Kind.Label(), decided.AppealID, decided.Text)
	}

	return fmt.Sprintf("❌ Your %s appeal has been rejected.\nAppeal ID: #%d\n\nYour appeal text:\n%s\n\n"+
		"You may submit a new appeal if you wish.",
		decided.Kind.Label(), decided.AppealID, decided.Text)
}
