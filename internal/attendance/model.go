package attendance

import (
	"context"
	"fmt"

	"rollbook/internal/caldate"
)

// Status is the recorded state of one student in one class session.
type Status string

const (
	StatusPresent          Status = "Present"
	StatusAbsentInformed   Status = "Absent Informed"
	StatusAbsentUninformed Status = "Absent Uninformed"

	// StatusNone is never persisted. The marking UI receives it for students
	// that have no record yet, so it can leave their radio buttons blank.
	StatusNone Status = "none"
)

// Valid reports whether s may be persisted.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsentInformed, StatusAbsentUninformed:
		return true
	}
	return false
}

// Record is one row of the ledger, keyed by (Date, SubjectID, StudentID).
type Record struct {
	Date      caldate.Date
	SubjectID int64
	StudentID int64
	Status    Status
}

// Tally is a student's present count over some filter.
type Tally struct {
	StudentID int64  `db:"student_id"`
	RollNo    string `db:"roll_no"`
	Name      string `db:"name"`
	Present   int    `db:"present"`
}

// SheetEntry is a student's status on one (subject, date), defaulted when
// no record exists.
type SheetEntry struct {
	StudentID int64  `db:"student_id"`
	RollNo    string `db:"roll_no"`
	Name      string `db:"name"`
	Status    Status `db:"status"`
}

// HistoryRow is one line of a student's attendance history.
type HistoryRow struct {
	Date    caldate.Date
	Subject string
	Status  Status
}

// ReferentialError rejects a write naming a student or subject that does
// not exist.
type ReferentialError struct {
	SubjectID int64
	StudentID int64
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("attendance references missing subject %d or student %d", e.SubjectID, e.StudentID)
}

// Store is the attendance ledger.
type Store interface {
	// Upsert inserts rec or replaces the status of the existing record with
	// the same key, in one statement.
	Upsert(ctx context.Context, rec Record) error
	// CountSessionDates counts distinct dates among records matching f.
	CountSessionDates(ctx context.Context, f Filter) (int, error)
	// PresentCounts returns one tally per student on the roster, ordered by
	// name, counting Present records that match f. Students without any
	// matching record get zero.
	PresentCounts(ctx context.Context, f Filter) ([]Tally, error)
	// Sheet returns every student's status for subjectID on d, using
	// fallback for students with no record.
	Sheet(ctx context.Context, subjectID int64, d caldate.Date, fallback Status) ([]SheetEntry, error)
	// History returns records matching f in calendar order, then by subject
	// name.
	History(ctx context.Context, f Filter) ([]HistoryRow, error)
}
