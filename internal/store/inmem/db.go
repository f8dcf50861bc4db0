// Package inmem is an in-process backend holding the same invariants as the
// Postgres schema: unique roll numbers, subject names and usernames, one
// ledger record per (date, subject, student), referential integrity and
// cascading deletes. Service, report, handler and CLI tests run against it.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"rollbook/internal/attendance"
	"rollbook/internal/auth"
	"rollbook/internal/caldate"
	"rollbook/internal/roster"
)

type ledgerKey struct {
	date      caldate.Date
	subjectID int64
	studentID int64
}

type refreshToken struct {
	userID    int64
	expiresAt time.Time
	revoked   bool
}

// DB satisfies attendance.Store, roster.Store and auth.UserStore.
type DB struct {
	mu       sync.RWMutex
	seq      int64
	students map[int64]roster.Student
	subjects map[int64]roster.Subject
	ledger   map[ledgerKey]attendance.Status
	users    map[int64]auth.User
	tokens   map[string]refreshToken

	// Now is used for refresh token expiry.
	Now func() time.Time
}

var (
	_ attendance.Store = (*DB)(nil)
	_ roster.Store     = (*DB)(nil)
	_ auth.UserStore   = (*DB)(nil)
)

func New() *DB {
	return &DB{
		students: make(map[int64]roster.Student),
		subjects: make(map[int64]roster.Subject),
		ledger:   make(map[ledgerKey]attendance.Status),
		users:    make(map[int64]auth.User),
		tokens:   make(map[string]refreshToken),
		Now:      time.Now,
	}
}

func (db *DB) nextID() int64 {
	db.seq++
	return db.seq
}

// Len returns the number of ledger records.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.ledger)
}

// ---------- attendance.Store ----------

func (db *DB) Upsert(_ context.Context, rec attendance.Record) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, okSubject := db.subjects[rec.SubjectID]
	_, okStudent := db.students[rec.StudentID]
	if !okSubject || !okStudent {
		return &attendance.ReferentialError{SubjectID: rec.SubjectID, StudentID: rec.StudentID}
	}
	db.ledger[ledgerKey{rec.Date, rec.SubjectID, rec.StudentID}] = rec.Status
	return nil
}

func (db *DB) records() []attendance.Record {
	out := make([]attendance.Record, 0, len(db.ledger))
	for k, status := range db.ledger {
		out = append(out, attendance.Record{Date: k.date, SubjectID: k.subjectID, StudentID: k.studentID, Status: status})
	}
	return out
}

func (db *DB) CountSessionDates(_ context.Context, f attendance.Filter) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	dates := make(map[caldate.Date]struct{})
	for _, rec := range db.records() {
		if f.Match(rec) {
			dates[rec.Date] = struct{}{}
		}
	}
	return len(dates), nil
}

func (db *DB) PresentCounts(_ context.Context, f attendance.Filter) ([]attendance.Tally, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	present := make(map[int64]int)
	for _, rec := range db.records() {
		if rec.Status == attendance.StatusPresent && f.Match(rec) {
			present[rec.StudentID]++
		}
	}
	tallies := []attendance.Tally{}
	for _, st := range db.sortedStudents() {
		tallies = append(tallies, attendance.Tally{StudentID: st.ID, RollNo: st.RollNo, Name: st.Name, Present: present[st.ID]})
	}
	return tallies, nil
}

func (db *DB) Sheet(_ context.Context, subjectID int64, d caldate.Date, fallback attendance.Status) ([]attendance.SheetEntry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	entries := []attendance.SheetEntry{}
	for _, st := range db.sortedStudents() {
		status, ok := db.ledger[ledgerKey{d, subjectID, st.ID}]
		if !ok {
			status = fallback
		}
		entries = append(entries, attendance.SheetEntry{StudentID: st.ID, RollNo: st.RollNo, Name: st.Name, Status: status})
	}
	return entries, nil
}

func (db *DB) History(_ context.Context, f attendance.Filter) ([]attendance.HistoryRow, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows := []attendance.HistoryRow{}
	for _, rec := range db.records() {
		if !f.Match(rec) {
			continue
		}
		rows = append(rows, attendance.HistoryRow{Date: rec.Date, Subject: db.subjects[rec.SubjectID].Name, Status: rec.Status})
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Date.Compare(rows[j].Date); c != 0 {
			return c < 0
		}
		return rows[i].Subject < rows[j].Subject
	})
	return rows, nil
}

// ---------- roster.Store ----------

func (db *DB) sortedStudents() []roster.Student {
	out := make([]roster.Student, 0, len(db.students))
	for _, st := range db.students {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (db *DB) rollTaken(rollNo string, except int64) bool {
	for id, st := range db.students {
		if id != except && st.RollNo == rollNo {
			return true
		}
	}
	return false
}

func (db *DB) subjectTaken(name string, except int64) bool {
	for id, sub := range db.subjects {
		if id != except && sub.Name == name {
			return true
		}
	}
	return false
}

func (db *DB) ListStudents(context.Context) ([]roster.Student, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.sortedStudents(), nil
}

func (db *DB) CreateStudent(_ context.Context, rollNo, name string) (roster.Student, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.rollTaken(rollNo, 0) {
		return roster.Student{}, &roster.DuplicateError{Field: "Roll number", Value: rollNo}
	}
	st := roster.Student{ID: db.nextID(), RollNo: rollNo, Name: name}
	db.students[st.ID] = st
	return st, nil
}

func (db *DB) UpdateStudent(_ context.Context, st roster.Student) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.students[st.ID]; !ok {
		return roster.ErrNotFound
	}
	if db.rollTaken(st.RollNo, st.ID) {
		return &roster.DuplicateError{Field: "Roll number", Value: st.RollNo}
	}
	db.students[st.ID] = st
	return nil
}

func (db *DB) DeleteStudent(_ context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.students[id]; !ok {
		return roster.ErrNotFound
	}
	delete(db.students, id)
	for k := range db.ledger {
		if k.studentID == id {
			delete(db.ledger, k)
		}
	}
	return nil
}

func (db *DB) ListSubjects(context.Context) ([]roster.Subject, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]roster.Subject, 0, len(db.subjects))
	for _, sub := range db.subjects {
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (db *DB) CreateSubject(_ context.Context, name string) (roster.Subject, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.subjectTaken(name, 0) {
		return roster.Subject{}, &roster.DuplicateError{Field: "Subject", Value: name}
	}
	sub := roster.Subject{ID: db.nextID(), Name: name}
	db.subjects[sub.ID] = sub
	return sub, nil
}

func (db *DB) UpdateSubject(_ context.Context, sub roster.Subject) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.subjects[sub.ID]; !ok {
		return roster.ErrNotFound
	}
	if db.subjectTaken(sub.Name, sub.ID) {
		return &roster.DuplicateError{Field: "Subject", Value: sub.Name}
	}
	db.subjects[sub.ID] = sub
	return nil
}

func (db *DB) DeleteSubject(_ context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.subjects[id]; !ok {
		return roster.ErrNotFound
	}
	delete(db.subjects, id)
	for k := range db.ledger {
		if k.subjectID == id {
			delete(db.ledger, k)
		}
	}
	return nil
}

func (db *DB) FindStudent(_ context.Context, query string) (*roster.Student, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, st := range db.sortedStudents() {
		if roster.Matches(st, query) {
			found := st
			return &found, nil
		}
	}
	return nil, nil
}

// ---------- auth.UserStore ----------

func (db *DB) CreateUser(_ context.Context, username, passwordHash string) (auth.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return auth.User{}, auth.ErrUsernameTaken
		}
	}
	u := auth.User{ID: db.nextID(), Username: username, PasswordHash: passwordHash}
	db.users[u.ID] = u
	return u, nil
}

func (db *DB) UserByUsername(_ context.Context, username string) (*auth.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, u := range db.users {
		if u.Username == username {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (db *DB) SaveRefreshToken(_ context.Context, id string, userID int64, expiresAt time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.tokens[id] = refreshToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (db *DB) RevokeRefreshToken(_ context.Context, id string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tok, ok := db.tokens[id]
	if !ok || tok.revoked || !tok.expiresAt.After(db.Now()) {
		return false, nil
	}
	tok.revoked = true
	db.tokens[id] = tok
	return true, nil
}
