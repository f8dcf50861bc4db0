package attendance

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"rollbook/internal/caldate"
	"rollbook/internal/store"
)

// Repository persists the ledger in Postgres. It runs every statement on the
// handle it was built with, normally the connection checked out for the
// current request.
type Repository struct {
	q store.Querier
}

var _ Store = (*Repository)(nil)

// NewRepository creates a repo.
func NewRepository(q store.Querier) *Repository {
	return &Repository{q: q}
}

// Upsert writes rec in a single INSERT ... ON CONFLICT statement, so two
// concurrent writers to the same key leave exactly one row with the last
// status.
func (r *Repository) Upsert(ctx context.Context, rec Record) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO attendance (date, subject_id, student_id, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (date, subject_id, student_id) DO UPDATE SET status = EXCLUDED.status
	`, rec.Date.Display(), rec.SubjectID, rec.StudentID, string(rec.Status))
	if store.IsForeignKeyViolation(err) {
		return &ReferentialError{SubjectID: rec.SubjectID, StudentID: rec.StudentID}
	}
	return errors.Wrap(err, "upsert attendance")
}

// CountSessionDates counts distinct dates among matching records.
func (r *Repository) CountSessionDates(ctx context.Context, f Filter) (int, error) {
	var args Args
	query := `SELECT COUNT(DISTINCT a.date) FROM attendance a` + f.Where("a", &args)
	var n int
	if err := sqlx.GetContext(ctx, r.q, &n, query, args.Values()...); err != nil {
		return 0, errors.Wrap(err, "count session dates")
	}
	return n, nil
}

// PresentCounts drives from the student roster so that students with no
// matching records still get a zero tally.
func (r *Repository) PresentCounts(ctx context.Context, f Filter) ([]Tally, error) {
	var args Args
	join := append([]string{
		"a.student_id = s.id",
		"a.status = " + args.Add(string(StatusPresent)),
	}, f.Conditions("a", &args)...)

	query := `
		SELECT s.id AS student_id, s.roll_no, s.name, COUNT(a.id) AS present
		FROM students s
		LEFT JOIN attendance a ON ` + strings.Join(join, " AND ") + `
		GROUP BY s.id, s.roll_no, s.name
		ORDER BY s.name, s.id`

	tallies := []Tally{}
	if err := sqlx.SelectContext(ctx, r.q, &tallies, query, args.Values()...); err != nil {
		return nil, errors.Wrap(err, "present counts")
	}
	return tallies, nil
}

// Sheet lists the roster with each student's status for one class session.
func (r *Repository) Sheet(ctx context.Context, subjectID int64, d caldate.Date, fallback Status) ([]SheetEntry, error) {
	entries := []SheetEntry{}
	err := sqlx.SelectContext(ctx, r.q, &entries, `
		SELECT st.id AS student_id, st.roll_no, st.name, COALESCE(a.status, $3) AS status
		FROM students st
		LEFT JOIN attendance a ON a.student_id = st.id AND a.subject_id = $1 AND a.date = $2
		ORDER BY st.name, st.id
	`, subjectID, d.Display(), string(fallback))
	if err != nil {
		return nil, errors.Wrap(err, "attendance sheet")
	}
	return entries, nil
}

type historyRow struct {
	Date    string `db:"date"`
	Subject string `db:"subject"`
	Status  string `db:"status"`
}

// History returns matching records joined with subject names, in calendar
// order. Ordering on the display text would put 05-01-2024 after 01-02-2024.
func (r *Repository) History(ctx context.Context, f Filter) ([]HistoryRow, error) {
	var args Args
	query := `
		SELECT a.date, s.name AS subject, a.status
		FROM attendance a
		JOIN subjects s ON s.id = a.subject_id` + f.Where("a", &args) + `
		ORDER BY ` + dateExpr("a") + ` ASC, s.name ASC`

	var raw []historyRow
	if err := sqlx.SelectContext(ctx, r.q, &raw, query, args.Values()...); err != nil {
		return nil, errors.Wrap(err, "student history")
	}
	rows := make([]HistoryRow, 0, len(raw))
	for _, hr := range raw {
		d, err := caldate.ParseDisplay(hr.Date)
		if err != nil {
			return nil, errors.Wrap(err, "stored attendance date")
		}
		rows = append(rows, HistoryRow{Date: d, Subject: hr.Subject, Status: Status(hr.Status)})
	}
	return rows, nil
}
