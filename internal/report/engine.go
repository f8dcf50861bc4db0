// Package report aggregates the attendance ledger into class-level and
// student-level reports.
package report

import (
	"context"
	"strconv"
	"strings"
	"time"

	"rollbook/internal/attendance"
	"rollbook/internal/caldate"
	"rollbook/internal/roster"
)

// Ledger is the part of attendance.Store the engine reads.
type Ledger interface {
	CountSessionDates(ctx context.Context, f attendance.Filter) (int, error)
	PresentCounts(ctx context.Context, f attendance.Filter) ([]attendance.Tally, error)
	History(ctx context.Context, f attendance.Filter) ([]attendance.HistoryRow, error)
}

// Directory resolves free-text student searches.
type Directory interface {
	FindStudent(ctx context.Context, query string) (*roster.Student, error)
}

type Engine struct {
	ledger Ledger
	dir    Directory
}

func NewEngine(ledger Ledger, dir Directory) *Engine {
	return &Engine{ledger: ledger, dir: dir}
}

// ClassRow is one student's line in a class report.
type ClassRow struct {
	RollNo       string
	Name         string
	PresentCount int
	TotalClasses int
}

// Percentage is PresentCount over TotalClasses, or 0 when no class was held.
func (r ClassRow) Percentage() float64 {
	return Percentage(r.PresentCount, r.TotalClasses)
}

// ClassTally counts class sessions in r and each student's presences, with
// no shortcut when no session was held.
func (e *Engine) ClassTally(ctx context.Context, r caldate.Range, subjectID *int64) (int, []ClassRow, error) {
	f := attendance.SessionFilter(r, subjectID)
	total, err := e.ledger.CountSessionDates(ctx, f)
	if err != nil {
		return 0, nil, err
	}
	rows, err := e.rows(ctx, f, total)
	return total, rows, err
}

// ClassReport returns one row per student on the roster, or no rows at all
// when no class session falls in r.
func (e *Engine) ClassReport(ctx context.Context, r caldate.Range, subjectID *int64) ([]ClassRow, error) {
	f := attendance.SessionFilter(r, subjectID)
	total, err := e.ledger.CountSessionDates(ctx, f)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []ClassRow{}, nil
	}
	return e.rows(ctx, f, total)
}

func (e *Engine) rows(ctx context.Context, f attendance.Filter, total int) ([]ClassRow, error) {
	tallies, err := e.ledger.PresentCounts(ctx, f)
	if err != nil {
		return nil, err
	}
	rows := make([]ClassRow, 0, len(tallies))
	for _, t := range tallies {
		rows = append(rows, ClassRow{RollNo: t.RollNo, Name: t.Name, PresentCount: t.Present, TotalClasses: total})
	}
	return rows, nil
}

// PeriodKind selects which calendar filter a student report applies.
type PeriodKind string

const (
	PeriodAll   PeriodKind = ""
	PeriodYear  PeriodKind = "year"
	PeriodMonth PeriodKind = "month"
	PeriodDate  PeriodKind = "date"
)

// Period is at most one calendar restriction on a student report.
type Period struct {
	Kind  PeriodKind
	Year  int
	Month time.Month
	Day   caldate.Date
}

// ParsePeriod reads the dateType/year/month/date request fields. Only the
// field named by kind is read; an empty value or unknown kind means no
// restriction. Months may be given with or without a leading zero.
func ParsePeriod(kind, year, month, date string) (Period, error) {
	switch PeriodKind(kind) {
	case PeriodYear:
		year = strings.TrimSpace(year)
		if year == "" {
			return Period{}, nil
		}
		y, err := strconv.Atoi(year)
		if err != nil || y < 1 || y > 9999 {
			return Period{}, &caldate.InvalidDateError{Value: year, Format: "YYYY"}
		}
		return Period{Kind: PeriodYear, Year: y}, nil
	case PeriodMonth:
		month = strings.TrimSpace(month)
		if month == "" {
			return Period{}, nil
		}
		m, err := strconv.Atoi(month)
		if err != nil || m < 1 || m > 12 {
			return Period{}, &caldate.InvalidDateError{Value: month, Format: "MM"}
		}
		return Period{Kind: PeriodMonth, Month: time.Month(m)}, nil
	case PeriodDate:
		date = strings.TrimSpace(date)
		if date == "" {
			return Period{}, nil
		}
		d, err := caldate.ParseISO(date)
		if err != nil {
			return Period{}, err
		}
		return Period{Kind: PeriodDate, Day: d}, nil
	}
	return Period{}, nil
}

func (p Period) apply(f attendance.Filter) attendance.Filter {
	switch p.Kind {
	case PeriodYear:
		return f.Year(p.Year)
	case PeriodMonth:
		return f.Month(p.Month)
	case PeriodDate:
		return f.On(p.Day)
	}
	return f
}

// StudentQuery selects a student by free text plus optional filters.
type StudentQuery struct {
	Text      string
	SubjectID *int64
	Period    Period
}

// StudentReport is a student's history. Student is nil when the search
// matched nobody, which is not an error.
type StudentReport struct {
	Student     *roster.Student
	Rows        []attendance.HistoryRow
	DaysPresent int
}

// StudentReport resolves q.Text to the first matching student by name and
// returns that student's filtered history.
func (e *Engine) StudentReport(ctx context.Context, q StudentQuery) (StudentReport, error) {
	st, err := e.dir.FindStudent(ctx, strings.TrimSpace(q.Text))
	if err != nil {
		return StudentReport{}, err
	}
	if st == nil {
		return StudentReport{Rows: []attendance.HistoryRow{}}, nil
	}

	f := attendance.Filter{}.Student(st.ID)
	if q.SubjectID != nil {
		f = f.Subject(*q.SubjectID)
	}
	rows, err := e.ledger.History(ctx, q.Period.apply(f))
	if err != nil {
		return StudentReport{}, err
	}

	present := 0
	for _, r := range rows {
		if r.Status == attendance.StatusPresent {
			present++
		}
	}
	return StudentReport{Student: st, Rows: rows, DaysPresent: present}, nil
}
