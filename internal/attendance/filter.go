package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"rollbook/internal/caldate"
)

type clauseKind int

const (
	kindStudent clauseKind = iota
	kindSubject
	kindRange
	// Year, month and exact-day filters share one slot: applying one
	// replaces whichever was applied before.
	kindCalendar
)

type clause struct {
	kind  clauseKind
	sql   func(alias string, args *Args) string
	match func(rec Record) bool
}

// Filter is an immutable conjunction of optional ledger predicates. The same
// value renders SQL for the Postgres repository and matches records in
// memory, so both backends agree on semantics.
type Filter struct {
	clauses []clause
}

// SessionFilter selects records within r, optionally for one subject.
func SessionFilter(r caldate.Range, subjectID *int64) Filter {
	f := Filter{}.Between(r)
	if subjectID != nil {
		f = f.Subject(*subjectID)
	}
	return f
}

func (f Filter) with(c clause) Filter {
	out := make([]clause, 0, len(f.clauses)+1)
	for _, existing := range f.clauses {
		if existing.kind != c.kind {
			out = append(out, existing)
		}
	}
	return Filter{clauses: append(out, c)}
}

// Student restricts to one student.
func (f Filter) Student(id int64) Filter {
	return f.with(clause{
		kind: kindStudent,
		sql: func(alias string, args *Args) string {
			return alias + ".student_id = " + args.Add(id)
		},
		match: func(rec Record) bool { return rec.StudentID == id },
	})
}

// Subject restricts to one subject.
func (f Filter) Subject(id int64) Filter {
	return f.with(clause{
		kind: kindSubject,
		sql: func(alias string, args *Args) string {
			return alias + ".subject_id = " + args.Add(id)
		},
		match: func(rec Record) bool { return rec.SubjectID == id },
	})
}

// Between restricts to an inclusive calendar range.
func (f Filter) Between(r caldate.Range) Filter {
	return f.with(clause{
		kind: kindRange,
		sql: func(alias string, args *Args) string {
			return fmt.Sprintf("%s BETWEEN %s::date AND %s::date", dateExpr(alias), args.Add(r.Start.ISO()), args.Add(r.End.ISO()))
		},
		match: func(rec Record) bool { return r.Contains(rec.Date) },
	})
}

// Year restricts to one calendar year.
func (f Filter) Year(year int) Filter {
	return f.with(clause{
		kind: kindCalendar,
		sql: func(alias string, args *Args) string {
			return fmt.Sprintf("EXTRACT(YEAR FROM %s) = %s", dateExpr(alias), args.Add(year))
		},
		match: func(rec Record) bool { return rec.Date.Year == year },
	})
}

// Month restricts to one month of any year.
func (f Filter) Month(month time.Month) Filter {
	return f.with(clause{
		kind: kindCalendar,
		sql: func(alias string, args *Args) string {
			return fmt.Sprintf("EXTRACT(MONTH FROM %s) = %s", dateExpr(alias), args.Add(int(month)))
		},
		match: func(rec Record) bool { return rec.Date.Month == month },
	})
}

// On restricts to one exact date.
func (f Filter) On(d caldate.Date) Filter {
	return f.with(clause{
		kind: kindCalendar,
		sql: func(alias string, args *Args) string {
			return alias + ".date = " + args.Add(d.Display())
		},
		match: func(rec Record) bool { return rec.Date == d },
	})
}

// Match reports whether rec satisfies every clause.
func (f Filter) Match(rec Record) bool {
	for _, c := range f.clauses {
		if !c.match(rec) {
			return false
		}
	}
	return true
}

// Conditions renders each clause against the table alias, appending its
// arguments to args.
func (f Filter) Conditions(alias string, args *Args) []string {
	out := make([]string, 0, len(f.clauses))
	for _, c := range f.clauses {
		out = append(out, c.sql(alias, args))
	}
	return out
}

// Where renders the clauses as a WHERE clause, or "" when there are none.
func (f Filter) Where(alias string, args *Args) string {
	conds := f.Conditions(alias, args)
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func dateExpr(alias string) string {
	return "to_date(" + alias + ".date, 'DD-MM-YYYY')"
}

// Args collects positional query arguments.
type Args struct {
	values []any
}

// Add appends v and returns its placeholder.
func (a *Args) Add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

func (a *Args) Values() []any { return a.values }
