package roster

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"rollbook/internal/store"
)

// Repository stores the roster in Postgres.
type Repository struct {
	q store.Querier
}

var _ Store = (*Repository)(nil)

func NewRepository(q store.Querier) *Repository {
	return &Repository{q: q}
}

func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	students := []Student{}
	if err := sqlx.SelectContext(ctx, r.q, &students, `SELECT id, roll_no, name FROM students ORDER BY name, id`); err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	return students, nil
}

func (r *Repository) CreateStudent(ctx context.Context, rollNo, name string) (Student, error) {
	st := Student{RollNo: rollNo, Name: name}
	err := sqlx.GetContext(ctx, r.q, &st.ID, `INSERT INTO students (roll_no, name) VALUES ($1, $2) RETURNING id`, rollNo, name)
	if store.IsUniqueViolation(err) {
		return Student{}, &DuplicateError{Field: "Roll number", Value: rollNo}
	}
	if err != nil {
		return Student{}, errors.Wrap(err, "create student")
	}
	return st, nil
}

func (r *Repository) UpdateStudent(ctx context.Context, st Student) error {
	res, err := r.q.ExecContext(ctx, `UPDATE students SET roll_no = $1, name = $2 WHERE id = $3`, st.RollNo, st.Name, st.ID)
	if store.IsUniqueViolation(err) {
		return &DuplicateError{Field: "Roll number", Value: st.RollNo}
	}
	return affectedOne(res, err, "update student")
}

// DeleteStudent relies on ON DELETE CASCADE to drop the student's records.
func (r *Repository) DeleteStudent(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	return affectedOne(res, err, "delete student")
}

func (r *Repository) ListSubjects(ctx context.Context) ([]Subject, error) {
	subjects := []Subject{}
	if err := sqlx.SelectContext(ctx, r.q, &subjects, `SELECT id, name FROM subjects ORDER BY name, id`); err != nil {
		return nil, errors.Wrap(err, "list subjects")
	}
	return subjects, nil
}

func (r *Repository) CreateSubject(ctx context.Context, name string) (Subject, error) {
	sub := Subject{Name: name}
	err := sqlx.GetContext(ctx, r.q, &sub.ID, `INSERT INTO subjects (name) VALUES ($1) RETURNING id`, name)
	if store.IsUniqueViolation(err) {
		return Subject{}, &DuplicateError{Field: "Subject", Value: name}
	}
	if err != nil {
		return Subject{}, errors.Wrap(err, "create subject")
	}
	return sub, nil
}

func (r *Repository) UpdateSubject(ctx context.Context, sub Subject) error {
	res, err := r.q.ExecContext(ctx, `UPDATE subjects SET name = $1 WHERE id = $2`, sub.Name, sub.ID)
	if store.IsUniqueViolation(err) {
		return &DuplicateError{Field: "Subject", Value: sub.Name}
	}
	return affectedOne(res, err, "update subject")
}

func (r *Repository) DeleteSubject(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	return affectedOne(res, err, "delete subject")
}

func (r *Repository) FindStudent(ctx context.Context, query string) (*Student, error) {
	var st Student
	err := sqlx.GetContext(ctx, r.q, &st, `
		SELECT id, roll_no, name FROM students
		WHERE roll_no ILIKE $1 OR name ILIKE $1
		ORDER BY name, id
		LIMIT 1
	`, LikePattern(query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find student")
	}
	return &st, nil
}

func affectedOne(res sql.Result, err error, op string) error {
	if err != nil {
		return errors.Wrap(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if n == 0 {
		return errors.Wrap(ErrNotFound, op)
	}
	return nil
}
