package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rollbook/internal/caldate"
)

func date(t *testing.T, display string) caldate.Date {
	t.Helper()
	d, err := caldate.ParseDisplay(display)
	if err != nil {
		t.Fatalf("date(%q) failed: %v", display, err)
	}
	return d
}

func TestFilterWhere(t *testing.T) {
	r := caldate.Range{Start: date(t, "01-01-2024"), End: date(t, "31-01-2024")}
	sub := int64(7)

	var args Args
	where := SessionFilter(r, &sub).Where("a", &args)
	assert.Equal(t, " WHERE to_date(a.date, 'DD-MM-YYYY') BETWEEN $1::date AND $2::date AND a.subject_id = $3", where)
	assert.Equal(t, []any{"2024-01-01", "2024-01-31", int64(7)}, args.Values())

	args = Args{}
	assert.Equal(t, "", Filter{}.Where("a", &args))
	assert.Empty(t, args.Values())
}

func TestFilterConditionsContinueNumbering(t *testing.T) {
	var args Args
	first := args.Add("Present")
	conds := Filter{}.Student(3).Month(time.March).Conditions("a", &args)

	assert.Equal(t, "$1", first)
	assert.Equal(t, []string{
		"a.student_id = $2",
		"EXTRACT(MONTH FROM to_date(a.date, 'DD-MM-YYYY')) = $3",
	}, conds)
	assert.Equal(t, []any{"Present", int64(3), 3}, args.Values())
}

func TestCalendarClausesAreExclusive(t *testing.T) {
	f := Filter{}.Student(1).Year(2023).Month(time.March).On(date(t, "05-01-2024"))

	var args Args
	assert.Equal(t, " WHERE a.student_id = $1 AND a.date = $2", f.Where("a", &args))
	assert.Equal(t, []any{int64(1), "05-01-2024"}, args.Values())

	f = Filter{}.On(date(t, "05-01-2024")).Year(2023)
	assert.True(t, f.Match(Record{Date: date(t, "01-06-2023")}))
	assert.False(t, f.Match(Record{Date: date(t, "05-01-2024")}))
}

func TestFilterIsImmutable(t *testing.T) {
	base := Filter{}.Student(1)
	withSubject := base.Subject(2)
	_ = base.Subject(3)

	assert.True(t, withSubject.Match(Record{StudentID: 1, SubjectID: 2}))
	assert.False(t, withSubject.Match(Record{StudentID: 1, SubjectID: 3}))
	assert.True(t, base.Match(Record{StudentID: 1, SubjectID: 3}))
}

func TestFilterMatch(t *testing.T) {
	rec := Record{Date: date(t, "10-03-2024"), SubjectID: 2, StudentID: 5, Status: StatusPresent}

	tests := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty", Filter{}, true},
		{"student", Filter{}.Student(5), true},
		{"other student", Filter{}.Student(6), false},
		{"subject", Filter{}.Subject(2), true},
		{"year", Filter{}.Year(2024), true},
		{"other year", Filter{}.Year(2023), false},
		{"month", Filter{}.Month(time.March), true},
		{"other month", Filter{}.Month(time.April), false},
		{"day", Filter{}.On(date(t, "10-03-2024")), true},
		{"range", Filter{}.Between(caldate.Range{Start: date(t, "10-03-2024"), End: date(t, "10-03-2024")}), true},
		{"range before", Filter{}.Between(caldate.Range{Start: date(t, "01-01-2024"), End: date(t, "09-03-2024")}), false},
		{"conjunction", Filter{}.Student(5).Subject(3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.f.Match(rec))
		})
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPresent.Valid())
	assert.True(t, StatusAbsentInformed.Valid())
	assert.True(t, StatusAbsentUninformed.Valid())
	assert.False(t, StatusNone.Valid())
	assert.False(t, Status("present").Valid())
	assert.False(t, Status("").Valid())
}
