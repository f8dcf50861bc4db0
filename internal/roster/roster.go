// Package roster owns the students and subjects that attendance records
// point at.
package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrDuplicate matches any *DuplicateError.
	ErrDuplicate = errors.New("already exists")
	ErrNotFound  = errors.New("not found")
)

// DuplicateError reports a unique roll number or subject name collision.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Field, e.Value)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

type Student struct {
	ID     int64  `db:"id" json:"id"`
	RollNo string `db:"roll_no" json:"rollNo"`
	Name   string `db:"name" json:"name"`
}

type Subject struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Store manages students and subjects. Deleting either removes its
// attendance records.
type Store interface {
	ListStudents(ctx context.Context) ([]Student, error)
	CreateStudent(ctx context.Context, rollNo, name string) (Student, error)
	UpdateStudent(ctx context.Context, st Student) error
	DeleteStudent(ctx context.Context, id int64) error

	ListSubjects(ctx context.Context) ([]Subject, error)
	CreateSubject(ctx context.Context, name string) (Subject, error)
	UpdateSubject(ctx context.Context, sub Subject) error
	DeleteSubject(ctx context.Context, id int64) error

	// FindStudent returns the first student by name whose roll number or
	// name contains query, ignoring case, or nil when none does.
	FindStudent(ctx context.Context, query string) (*Student, error)
}

// LikePattern turns a free-text query into a substring ILIKE pattern with
// the wildcard characters escaped.
func LikePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(query) + "%"
}

// Matches reports whether st would be returned by FindStudent(query).
func Matches(st Student, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(st.RollNo), q) || strings.Contains(strings.ToLower(st.Name), q)
}
