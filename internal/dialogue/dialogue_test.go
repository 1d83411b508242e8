package dialogue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"appealbot/internal/admin"
	"appealbot/internal/appeal"
	"appealbot/internal/dialogue"
	"appealbot/internal/domain"
	"appealbot/internal/notification"
	"appealbot/internal/tests"
)

const (
	ownerID = int64(1000)
	userID  = int64(4000)
)

type fixture struct {
	store    *tests.MemStore
	sender   *tests.RecordingSender
	appeals  *appeal.Appeals
	admins   *admin.Admins
	dialogue *dialogue.Dialogue
}

func newFixture(timeout time.Duration) *fixture {
	store := tests.NewMemStore()
	roster := tests.NewMemRoster()
	admins := admin.NewAdmins(roster, ownerID)
	sender := tests.NewRecordingSender()
	appeals := appeal.NewAppeals(store, admins, notification.New(sender, time.Second))

	return &fixture{
		store:    store,
		sender:   sender,
		appeals:  appeals,
		admins:   admins,
		dialogue: dialogue.New(appeals, timeout),
	}
}

func TestDialogueCompleteness(t *testing.T) {
	f := newFixture(15 * time.Minute)

	f.dialogue.Start(userID)

	state, active := f.dialogue.Active(userID)
	require.True(t, active)
	require.Equal(t, dialogue.AwaitingKind, state)

	guidance, errSelect := f.dialogue.SelectKind(userID, "unban")
	require.NoError(t, errSelect)
	require.Contains(t, guidance, "Why were you banned?")

	appealID, errSubmit := f.dialogue.SubmitText(t.Context(), userID, "someuser", "I learned my lesson")
	require.NoError(t, errSubmit)

	stored, errGet := f.store.GetByID(t.Context(), appealID)
	require.NoError(t, errGet)
	require.Equal(t, appeal.Unban, stored.Kind)
	require.Equal(t, appeal.Pending, stored.Status)
	require.Equal(t, "I learned my lesson", stored.Text)

	// Session is consumed by submission.
	_, active = f.dialogue.Active(userID)
	require.False(t, active)

	_, errAgain := f.dialogue.SubmitText(t.Context(), userID, "someuser", "again")
	require.ErrorIs(t, errAgain, domain.ErrNoSession)
}

func TestSelectKindInvalidTerminatesSession(t *testing.T) {
	f := newFixture(15 * time.Minute)

	f.dialogue.Start(userID)

	_, errSelect := f.dialogue.SelectKind(userID, "bogus")
	require.ErrorIs(t, errSelect, domain.ErrInvalidKind)

	_, active := f.dialogue.Active(userID)
	require.False(t, active)
}

func TestSelectKindWithoutSession(t *testing.T) {
	f := newFixture(15 * time.Minute)

	_, errSelect := f.dialogue.SelectKind(userID, "unban")
	require.ErrorIs(t, errSelect, domain.ErrNoSession)
}

func TestTextBeforeKindRejected(t *testing.T) {
	f := newFixture(15 * time.Minute)

	f.dialogue.Start(userID)

	_, errSubmit := f.dialogue.SubmitText(t.Context(), userID, "someuser", "too early")
	require.ErrorIs(t, errSubmit, domain.ErrNoSession)
}

func TestCancel(t *testing.T) {
	f := newFixture(15 * time.Minute)

	f.dialogue.Start(userID)
	require.True(t, f.dialogue.Cancel(userID))
	require.False(t, f.dialogue.Cancel(userID))

	_, active := f.dialogue.Active(userID)
	require.False(t, active)

	// Cancelled flows never create records.
	pending, errPending := f.store.Pending(t.Context())
	require.NoError(t, errPending)
	require.Empty(t, pending)
}

func TestRestartOverwritesSession(t *testing.T) {
	f := newFixture(15 * time.Minute)

	f.dialogue.Start(userID)

	_, errSelect := f.dialogue.SelectKind(userID, "unban")
	require.NoError(t, errSelect)

	// Re-entry drops the chosen kind; last write wins.
	f.dialogue.Start(userID)

	state, active := f.dialogue.Active(userID)
	require.True(t, active)
	require.Equal(t, dialogue.AwaitingKind, state)
}

func TestSweepEvictsAbandonedSessions(t *testing.T) {
	f := newFixture(10 * time.Millisecond)

	f.dialogue.Start(userID)
	time.Sleep(25 * time.Millisecond)

	require.Equal(t, 1, f.dialogue.Sweep())

	_, active := f.dialogue.Active(userID)
	require.False(t, active)
}

func TestEndToEndReviewFlow(t *testing.T) {
	f := newFixture(15 * time.Minute)

	adminID := int64(2000)
	_, errAdd := f.admins.Add(t.Context(), ownerID, adminID)
	require.NoError(t, errAdd)

	f.dialogue.Start(userID)

	_, errSelect := f.dialogue.SelectKind(userID, "admin_request")
	require.NoError(t, errSelect)

	appealID, errSubmit := f.dialogue.SubmitText(t.Context(), userID, "someuser", "T")
	require.NoError(t, errSubmit)
	require.Equal(t, int64(1), appealID)

	// All current admins plus the owner get the fan-out.
	require.Len(t, f.sender.SentTo(adminID), 1)
	require.Len(t, f.sender.SentTo(ownerID), 1)

	result, errReview := f.appeals.Review(t.Context(), ownerID, appealID, appeal.Approved)
	require.NoError(t, errReview)
	require.Equal(t, appeal.Approved, result.Appeal.Status)

	notices := f.sender.SentTo(userID)
	require.Len(t, notices, 1)
	require.Contains(t, notices[0].Text, "approved")
	require.Contains(t, notices[0].Text, "T")

	// Late conflicting decision hits the idempotency guard.
	_, errLate := f.appeals.Review(t.Context(), adminID, appealID, appeal.Rejected)
	require.ErrorIs(t, errLate, domain.ErrAppealNotPending)

	stored, errGet := f.store.GetByID(t.Context(), appealID)
	require.NoError(t, errGet)
	require.Equal(t, appeal.Approved, stored.Status)
}
