package appeal_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"appealbot/internal/admin"
	"appealbot/internal/appeal"
	"appealbot/internal/domain"
	"appealbot/internal/notification"
	"appealbot/internal/tests"
)

const (
	ownerID    = int64(1000)
	adminID    = int64(2000)
	strangerID = int64(3000)
	userID     = int64(4000)
)

type fixture struct {
	store   *tests.MemStore
	roster  *tests.MemRoster
	admins  *admin.Admins
	sender  *tests.RecordingSender
	appeals *appeal.Appeals
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := tests.NewMemStore()
	roster := tests.NewMemRoster()
	admins := admin.NewAdmins(roster, ownerID)
	sender := tests.NewRecordingSender()
	appeals := appeal.NewAppeals(store, admins, notification.New(sender, time.Second))

	_, errAdd := admins.Add(t.Context(), ownerID, adminID)
	require.NoError(t, errAdd)

	return &fixture{store: store, roster: roster, admins: admins, sender: sender, appeals: appeals}
}

func TestSubmitCreatesPendingAndNotifiesReviewers(t *testing.T) {
	f := newFixture(t)

	appealID, errSubmit := f.appeals.Submit(t.Context(), userID, "someuser", appeal.Unban, "I learned my lesson")
	require.NoError(t, errSubmit)
	require.Equal(t, int64(1), appealID)

	stored, errGet := f.store.GetByID(t.Context(), appealID)
	require.NoError(t, errGet)
	require.Equal(t, appeal.Pending, stored.Status)
	require.Equal(t, appeal.Unban, stored.Kind)
	require.Equal(t, "I learned my lesson", stored.Text)

	// Fan-out reaches the roster member and the owner.
	require.Len(t, f.sender.SentTo(adminID), 1)
	require.Len(t, f.sender.SentTo(ownerID), 1)
	require.Contains(t, f.sender.SentTo(ownerID)[0].Text, "I learned my lesson")
	require.Contains(t, f.sender.SentTo(ownerID)[0].Text, "/approve 1")
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)

	_, errKind := f.appeals.Submit(t.Context(), userID, "someuser", appeal.Kind("bogus"), "text")
	require.ErrorIs(t, errKind, domain.ErrInvalidKind)

	_, errText := f.appeals.Submit(t.Context(), userID, "someuser", appeal.Unban, "   ")
	require.ErrorIs(t, errText, domain.ErrEmptyAppealText)
}

func TestSubmitSucceedsWhenNotificationFails(t *testing.T) {
	f := newFixture(t)
	f.sender.FailFor[adminID] = errors.New("blocked bot")
	f.sender.FailFor[ownerID] = errors.New("blocked bot")

	appealID, errSubmit := f.appeals.Submit(t.Context(), userID, "someuser", appeal.Unban, "please")
	require.NoError(t, errSubmit)

	stored, errGet := f.store.GetByID(t.Context(), appealID)
	require.NoError(t, errGet)
	require.Equal(t, appeal.Pending, stored.Status)
}

func TestReviewConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)

	appealID, errSubmit := f.appeals.Submit(t.Context(), userID, "someuser", appeal.Unban, "race me")
	require.NoError(t, errSubmit)

	var (
		wg         sync.WaitGroup
		approveErr error
		rejectErr  error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()

		_, approveErr = f.appeals.Review(t.Context(), ownerID, appealID, appeal.Approved)
	}()

	go func() {
		defer wg.Done()

		_, rejectErr = f.appeals.Review(t.Context(), adminID, appealID, appeal.Rejected)
	}()

	wg.Wait()

	// Exactly one decision wins, the other sees the idempotency guard.
	if approveErr == nil {
		require.ErrorIs(t, rejectErr, domain.ErrAppealNotPending)
	} else {
		require.ErrorIs(t, approveErr, domain.ErrAppealNotPending)
		require.NoError(t, rejectErr)
	}

	stored, errGet := f.store.GetByID(t.Context(), appealID)
	require.NoError(t, errGet)
	require.True(t, stored.Status.Terminal())

	if approveErr == nil {
		require.Equal(t, appeal.Approved, stored.Status)
	} else {
		require.Equal(t, appeal.Rejected, stored.Status)
	}
}

func TestReviewIdempotent(t *testing.T) {
	f := newFixture(t)

	appealID, errSubmit := f.appeals.Submit(t.Context(), userID, "someuser", appeal.Unban, "once only")
	require.NoError(t, errSubmit)

	_, errFirst := f.appeals.Review(t.Context(), ownerID, appealID, appeal.Approved)
	require.NoError(t, errFirst)

	_, errSecond := f.appeals.Review(t.Context(), ownerID, appealID, appeal.Approved)
	require.ErrorIs(t, errSecond, domain.ErrAppealNotPending)
}

func TestReviewUnknownAppeal(t *testing.T) {
	f := newFixture(t)

	_, errReview := f.appeals.Review(t.Context(), ownerID, 999, appeal.Approved)
	require.ErrorIs(t, errReview, domain.ErrAppealNotPending)
}

func TestReviewAuthorization(t *testing.T) {
	f := newFixture(t)

	appealID, errSubmit := f.appeals.Submit(t.Context(), userID, "someuser", appeal.Unban, "gate me")
	require.NoError(t, errSubmit)

	_, errStranger := f.appeals.Review(t.Context(), strangerID, appealID, appeal.Approved)
	require.ErrorIs(t, errStranger, domain.ErrPermissionDenied)

	stored, errGet := f.store.GetByID(t.Context(), appealID)
	require.NoError(t, errGet)
	require.Equal(t, appeal.Pending, stored.Status)

	// Owner is always authorized regardless of roster membership.
	_, errOwner := f.appeals.Review(t.Context(), ownerID, appealID, appeal.Approved)
	require.NoError(t, errOwner)
}

func TestReviewNotifiesSubmitter(t *testing.T) {
	f := newFixture(t)

	appealID, errSubmit := f.appeals.Submit(t.Context(), userID, "someuser", appeal.AdminRequest, "T")
	require.NoError(t, errSubmit)

	result, errReview := f.appeals.Review(t.Context(), ownerID, appealID, appeal.Approved)
	require.NoError(t, errReview)
	require.True(t, result.SubmitterNotified)

	notices := f.sender.SentTo(userID)
	require.Len(t, notices, 1)
	require.Contains(t, notices[0].Text, "approved")
	require.Contains(t, notices[0].Text, "T")
}

func TestReviewSoftWarningOnDeliveryFailure(t *testing.T) {
	f := newFixture(t)

	appealID, errSubmit := f.appeals.Submit(t.Context(), userID, "someuser", appeal.Unban, "notify me")
	require.NoError(t, errSubmit)

	f.sender.FailFor[userID] = errors.New("deleted account")

	result, errReview := f.appeals.Review(t.Context(), ownerID, appealID, appeal.Rejected)
	require.NoError(t, errReview)
	require.False(t, result.SubmitterNotified)

	// The decision stays durable despite the failed notification.
	stored, errGet := f.store.GetByID(t.Context(), appealID)
	require.NoError(t, errGet)
	require.Equal(t, appeal.Rejected, stored.Status)
}

func TestPendingAndStatsGated(t *testing.T) {
	f := newFixture(t)

	_, errPending := f.appeals.Pending(t.Context(), strangerID)
	require.ErrorIs(t, errPending, domain.ErrPermissionDenied)

	_, errStats := f.appeals.Stats(t.Context(), strangerID)
	require.ErrorIs(t, errStats, domain.ErrPermissionDenied)

	_, errSubmit := f.appeals.Submit(t.Context(), userID, "someuser", appeal.Unban, "first")
	require.NoError(t, errSubmit)

	pending, errList := f.appeals.Pending(t.Context(), adminID)
	require.NoError(t, errList)
	require.Len(t, pending, 1)

	stats, errCounts := f.appeals.Stats(t.Context(), ownerID)
	require.NoError(t, errCounts)
	require.Equal(t, int64(1), stats.Total)
	require.Equal(t, int64(1), stats.Pending)
	require.Equal(t, int64(1), stats.ByKind[appeal.Unban])
}

func TestPendingOrderedNewestFirst(t *testing.T) {
	f := newFixture(t)

	first, errFirst := f.appeals.Submit(t.Context(), userID, "someuser", appeal.Unban, "first")
	require.NoError(t, errFirst)

	second, errSecond := f.appeals.Submit(t.Context(), userID, "someuser", appeal.AdminRequest, "second")
	require.NoError(t, errSecond)

	pending, errList := f.appeals.Pending(t.Context(), ownerID)
	require.NoError(t, errList)
	require.Len(t, pending, 2)
	require.Equal(t, second, pending[0].AppealID)
	require.Equal(t, first, pending[1].AppealID)
}
