package notify

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusattend/internal/store"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := store.NewSQLite(filepath.Join(t.TempDir(), "notify.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return NewRepository(db.Client)
}

var baseTime = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func seedNotification(t *testing.T, r *Repository, id, recipient string, typ Type, read bool, at time.Time) {
	t.Helper()
	require.NoError(t, r.Create(context.Background(), Notification{
		ID: id, RecipientID: recipient, Title: "t-" + id, Message: "m-" + id,
		Type: typ, Read: read, CreatedAt: at,
	}))
}

func TestRepository_DeviceLifecycle(t *testing.T) {
	ctx := context.Background()
	r := openTestRepo(t)

	dev := Device{ID: "d1", UserID: "u1", RegistrationID: "reg-a", CreatedAt: baseTime}
	require.NoError(t, r.RegisterDevice(ctx, dev))
	require.NoError(t, r.RegisterDevice(ctx, Device{ID: "d2", UserID: "u1", RegistrationID: "reg-b", CreatedAt: baseTime.Add(time.Minute)}))

	devices, err := r.ActiveDevices(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "reg-a", devices[0].RegistrationID)

	require.NoError(t, r.DeactivateDevice(ctx, "u1", "reg-a"))
	devices, err = r.ActiveDevices(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "reg-b", devices[0].RegistrationID)

	dev.ID = "d3"
	require.NoError(t, r.RegisterDevice(ctx, dev), "re-registering must not conflict")
	devices, err = r.ActiveDevices(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, devices, 2)

	require.NoError(t, r.DeactivateDevice(ctx, "u1", "never-registered"))
}

func TestRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	r := openTestRepo(t)

	seedNotification(t, r, "n1", "u1", TypeAttendance, false, baseTime)
	seedNotification(t, r, "n2", "u1", TypeSession, true, baseTime.Add(time.Minute))
	seedNotification(t, r, "n3", "u1", TypeAttendance, true, baseTime.Add(2*time.Minute))
	seedNotification(t, r, "n4", "u2", TypeAttendance, false, baseTime)

	all, err := r.List(ctx, "u1", Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"n3", "n2", "n1"}, ids(all))

	unread := false
	got, err := r.List(ctx, "u1", Filter{Read: &unread})
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, ids(got))

	got, err = r.List(ctx, "u1", Filter{Type: TypeAttendance})
	require.NoError(t, err)
	assert.Equal(t, []string{"n3", "n1"}, ids(got))

	read := true
	got, err = r.List(ctx, "u1", Filter{Read: &read, Type: TypeSession})
	require.NoError(t, err)
	assert.Equal(t, []string{"n2"}, ids(got))
}

func TestRepository_MarkRead(t *testing.T) {
	ctx := context.Background()
	r := openTestRepo(t)
	seedNotification(t, r, "n1", "u1", TypeSystem, false, baseTime)
	seedNotification(t, r, "n2", "u1", TypeSystem, false, baseTime)
	seedNotification(t, r, "n3", "u2", TypeSystem, false, baseTime)

	assert.ErrorIs(t, r.MarkRead(ctx, "u2", "n1"), ErrNotFound)
	assert.ErrorIs(t, r.MarkRead(ctx, "u1", "missing"), ErrNotFound)

	require.NoError(t, r.MarkRead(ctx, "u1", "n1"))
	n, err := r.Get(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, n.Read)

	changed, err := r.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	other, err := r.Get(ctx, "n3")
	require.NoError(t, err)
	assert.False(t, other.Read)
}

func TestRepository_MarkSent(t *testing.T) {
	ctx := context.Background()
	r := openTestRepo(t)
	seedNotification(t, r, "n1", "u1", TypeSystem, false, baseTime)

	require.NoError(t, r.MarkSent(ctx, "n1"))
	n, err := r.Get(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, n.SentToDevice)

	_, err = r.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func ids(ns []Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.ID)
	}
	return out
}
