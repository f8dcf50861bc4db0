//go:build integration

package report_test

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollbook/internal/attendance"
	"rollbook/internal/caldate"
	"rollbook/internal/report"
	"rollbook/internal/roster"
	"rollbook/internal/store"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/report/
type pgSchool struct {
	tx     *sqlx.Tx
	ledger *attendance.Repository
	roster *roster.Repository
	engine *report.Engine
}

func newPgSchool(t *testing.T) pgSchool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := store.NewDB(ctx, url, store.PoolOptions{MaxOpen: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.MigrateUp(ctx, db))

	// everything runs in one transaction that is rolled back afterwards
	tx, err := db.Client.BeginTxx(ctx, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	_, err = tx.ExecContext(ctx, `TRUNCATE attendance, students, subjects RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	ledger := attendance.NewRepository(tx)
	dir := roster.NewRepository(tx)
	return pgSchool{tx: tx, ledger: ledger, roster: dir, engine: report.NewEngine(ledger, dir)}
}

func (s pgSchool) student(t *testing.T, rollNo, name string) roster.Student {
	t.Helper()
	st, err := s.roster.CreateStudent(context.Background(), rollNo, name)
	require.NoError(t, err)
	return st
}

func (s pgSchool) subject(t *testing.T, name string) roster.Subject {
	t.Helper()
	sub, err := s.roster.CreateSubject(context.Background(), name)
	require.NoError(t, err)
	return sub
}

func (s pgSchool) mark(t *testing.T, display string, sub roster.Subject, st roster.Student, status attendance.Status) {
	t.Helper()
	d, err := caldate.ParseDisplay(display)
	require.NoError(t, err)
	require.NoError(t, s.ledger.Upsert(context.Background(), attendance.Record{Date: d, SubjectID: sub.ID, StudentID: st.ID, Status: status}))
}

// savepoint runs fn so that a failing statement does not abort the test
// transaction.
func (s pgSchool) savepoint(t *testing.T, fn func() error) error {
	t.Helper()
	ctx := context.Background()
	_, err := s.tx.ExecContext(ctx, `SAVEPOINT guarded_write`)
	require.NoError(t, err)
	fnErr := fn()
	_, err = s.tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT guarded_write`)
	require.NoError(t, err)
	return fnErr
}

func TestPostgresClassReport(t *testing.T) {
	s := newPgSchool(t)
	ctx := context.Background()
	math := s.subject(t, "Math")
	alice := s.student(t, "A1", "Alice")
	bob := s.student(t, "B1", "Bob")

	s.mark(t, "10-01-2024", math, alice, attendance.StatusPresent)
	// February in display order sorts before 10-01-2024 but lies outside January
	s.mark(t, "01-02-2024", math, bob, attendance.StatusPresent)

	rows, err := s.engine.ClassReport(ctx, january(t), &math.ID)
	require.NoError(t, err)
	assert.Equal(t, []report.ClassRow{
		{RollNo: "A1", Name: "Alice", PresentCount: 1, TotalClasses: 1},
		{RollNo: "B1", Name: "Bob", PresentCount: 0, TotalClasses: 1},
	}, rows)

	march, err := caldate.NewRange("2024-03-01", "2024-03-31")
	require.NoError(t, err)
	rows, err = s.engine.ClassReport(ctx, march, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	total, rows, err := s.engine.ClassTally(ctx, march, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Len(t, rows, 2)
}

func TestPostgresUpsertReplacesStatus(t *testing.T) {
	s := newPgSchool(t)
	ctx := context.Background()
	math := s.subject(t, "Math")
	alice := s.student(t, "A1", "Alice")

	s.mark(t, "10-01-2024", math, alice, attendance.StatusPresent)
	s.mark(t, "10-01-2024", math, alice, attendance.StatusAbsentInformed)

	var n int
	require.NoError(t, sqlx.GetContext(ctx, s.tx, &n, `SELECT COUNT(*) FROM attendance`))
	assert.Equal(t, 1, n)

	d, _ := caldate.ParseDisplay("10-01-2024")
	sheet, err := s.ledger.Sheet(ctx, math.ID, d, attendance.StatusNone)
	require.NoError(t, err)
	require.Len(t, sheet, 1)
	assert.Equal(t, attendance.StatusAbsentInformed, sheet[0].Status)

	err = s.savepoint(t, func() error {
		return s.ledger.Upsert(ctx, attendance.Record{Date: d, SubjectID: math.ID, StudentID: 9999, Status: attendance.StatusPresent})
	})
	var refErr *attendance.ReferentialError
	assert.True(t, errors.As(err, &refErr))
}

func TestPostgresStudentReport(t *testing.T) {
	s := newPgSchool(t)
	ctx := context.Background()
	math := s.subject(t, "Math")
	physics := s.subject(t, "Physics")
	alice := s.student(t, "A1", "Alice")
	s.student(t, "X%1", "Percy")

	s.mark(t, "01-02-2024", math, alice, attendance.StatusPresent)
	s.mark(t, "05-01-2024", physics, alice, attendance.StatusAbsentInformed)
	s.mark(t, "05-01-2024", math, alice, attendance.StatusPresent)
	s.mark(t, "10-03-2023", math, alice, attendance.StatusPresent)

	rep, err := s.engine.StudentReport(ctx, report.StudentQuery{Text: "ALI"})
	require.NoError(t, err)
	require.NotNil(t, rep.Student)
	assert.Equal(t, alice.ID, rep.Student.ID)
	var got []string
	for _, r := range rep.Rows {
		got = append(got, r.Date.Display()+" "+r.Subject)
	}
	assert.Equal(t, []string{"10-03-2023 Math", "05-01-2024 Math", "05-01-2024 Physics", "01-02-2024 Math"}, got)
	assert.Equal(t, 3, rep.DaysPresent)

	period, err := report.ParsePeriod("month", "", "1", "")
	require.NoError(t, err)
	rep, err = s.engine.StudentReport(ctx, report.StudentQuery{Text: "a1", SubjectID: &math.ID, Period: period})
	require.NoError(t, err)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, "05-01-2024", rep.Rows[0].Date.Display())

	period, err = report.ParsePeriod("year", "2023", "", "")
	require.NoError(t, err)
	rep, err = s.engine.StudentReport(ctx, report.StudentQuery{Text: "alice", Period: period})
	require.NoError(t, err)
	require.Len(t, rep.Rows, 1)

	// wildcards in the query match literally
	st, err := s.roster.FindStudent(ctx, "%")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "Percy", st.Name)
	st, err = s.roster.FindStudent(ctx, "_1")
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestPostgresRosterConstraints(t *testing.T) {
	s := newPgSchool(t)
	ctx := context.Background()
	math := s.subject(t, "Math")
	alice := s.student(t, "A1", "Alice")
	s.mark(t, "10-01-2024", math, alice, attendance.StatusPresent)

	err := s.savepoint(t, func() error {
		_, err := s.roster.CreateStudent(ctx, "A1", "Another")
		return err
	})
	assert.True(t, errors.Is(err, roster.ErrDuplicate))

	err = s.roster.UpdateStudent(ctx, roster.Student{ID: 9999, RollNo: "Z9", Name: "Zed"})
	assert.True(t, errors.Is(err, roster.ErrNotFound))

	require.NoError(t, s.roster.DeleteSubject(ctx, math.ID))
	var n int
	require.NoError(t, sqlx.GetContext(ctx, s.tx, &n, `SELECT COUNT(*) FROM attendance`))
	assert.Equal(t, 0, n, "deleting a subject cascades to its records")
}
