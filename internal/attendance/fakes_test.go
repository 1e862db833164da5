package attendance

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

type fakeRegistry struct {
	sessions map[string]Session
	err      error
}

func (f *fakeRegistry) GetSession(_ context.Context, id string) (Session, error) {
	if f.err != nil {
		return Session{}, f.err
	}
	s, ok := f.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

// fakeLedger enforces uniqueness with LoadOrStore, the in-process analogue of
// a unique constraint. blindExists makes Exists always miss so that races are
// decided by Insert alone.
type fakeLedger struct {
	records     sync.Map
	blindExists bool
	existsErr   error
	inserts     atomic.Int32
}

func ledgerKey(studentID, sessionID string) string { return studentID + "|" + sessionID }

func (f *fakeLedger) Exists(_ context.Context, studentID, sessionID string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	if f.blindExists {
		return false, nil
	}
	_, ok := f.records.Load(ledgerKey(studentID, sessionID))
	return ok, nil
}

func (f *fakeLedger) Insert(_ context.Context, rec Record) error {
	if _, loaded := f.records.LoadOrStore(ledgerKey(rec.StudentID, rec.SessionID), rec); loaded {
		return ErrDuplicate
	}
	f.inserts.Add(1)
	return nil
}

func (f *fakeLedger) count() int {
	n := 0
	f.records.Range(func(_, _ any) bool { n++; return true })
	return n
}

var errStoreDown = errors.New("store down")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
