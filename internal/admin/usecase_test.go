package admin_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"appealbot/internal/admin"
	"appealbot/internal/domain"
	"appealbot/internal/tests"
)

const ownerID = int64(1000)

func newAdmins() (*admin.Admins, *tests.MemRoster) {
	roster := tests.NewMemRoster()

	return admin.NewAdmins(roster, ownerID), roster
}

func TestSeedIdempotent(t *testing.T) {
	admins, _ := newAdmins()

	require.NoError(t, admins.Seed(t.Context(), []int64{10, 20, 20}))

	first, errList := admins.List(t.Context(), ownerID)
	require.NoError(t, errList)
	require.Len(t, first, 2)

	// Second seed is a no-op because the roster is no longer empty.
	require.NoError(t, admins.Seed(t.Context(), []int64{30, 40}))

	second, errAgain := admins.List(t.Context(), ownerID)
	require.NoError(t, errAgain)
	require.Len(t, second, 2)
}

func TestSeedEmptyListNoop(t *testing.T) {
	admins, _ := newAdmins()

	require.NoError(t, admins.Seed(t.Context(), nil))

	listed, errList := admins.List(t.Context(), ownerID)
	require.NoError(t, errList)
	require.Empty(t, listed)
}

func TestAddOwnerOnly(t *testing.T) {
	admins, _ := newAdmins()

	_, errAdd := admins.Add(t.Context(), ownerID, 10)
	require.NoError(t, errAdd)

	// Roster membership does not grant roster management rights.
	_, errByAdmin := admins.Add(t.Context(), 10, 20)
	require.ErrorIs(t, errByAdmin, domain.ErrOwnerOnly)

	_, errByStranger := admins.Add(t.Context(), 999, 20)
	require.ErrorIs(t, errByStranger, domain.ErrOwnerOnly)
}

func TestAddDuplicate(t *testing.T) {
	admins, _ := newAdmins()

	_, errAdd := admins.Add(t.Context(), ownerID, 10)
	require.NoError(t, errAdd)

	_, errDup := admins.Add(t.Context(), ownerID, 10)
	require.ErrorIs(t, errDup, domain.ErrAlreadyAdmin)
}

func TestRemove(t *testing.T) {
	admins, _ := newAdmins()

	_, errAdd := admins.Add(t.Context(), ownerID, 10)
	require.NoError(t, errAdd)

	require.ErrorIs(t, admins.Remove(t.Context(), 10, 10), domain.ErrOwnerOnly)
	require.NoError(t, admins.Remove(t.Context(), ownerID, 10))
	require.ErrorIs(t, admins.Remove(t.Context(), ownerID, 10), domain.ErrNotAdmin)
}

func TestIsAuthorized(t *testing.T) {
	admins, _ := newAdmins()

	owner, errOwner := admins.IsAuthorized(t.Context(), ownerID)
	require.NoError(t, errOwner)
	require.True(t, owner)

	stranger, errStranger := admins.IsAuthorized(t.Context(), 999)
	require.NoError(t, errStranger)
	require.False(t, stranger)

	_, errAdd := admins.Add(t.Context(), ownerID, 10)
	require.NoError(t, errAdd)

	member, errMember := admins.IsAuthorized(t.Context(), 10)
	require.NoError(t, errMember)
	require.True(t, member)
}

func TestReviewerIDsIncludesOwner(t *testing.T) {
	admins, _ := newAdmins()

	_, errAdd := admins.Add(t.Context(), ownerID, 10)
	require.NoError(t, errAdd)

	ids, errIDs := admins.ReviewerIDs(t.Context())
	require.NoError(t, errIDs)
	require.ElementsMatch(t, []int64{10, ownerID}, ids)
}

func TestListGated(t *testing.T) {
	admins, _ := newAdmins()

	_, errStranger := admins.List(t.Context(), 999)
	require.ErrorIs(t, errStranger, domain.ErrPermissionDenied)

	_, errAdd := admins.Add(t.Context(), ownerID, 10)
	require.NoError(t, errAdd)

	listed, errMember := admins.List(t.Context(), 10)
	require.NoError(t, errMember)
	require.Len(t, listed, 1)
}
