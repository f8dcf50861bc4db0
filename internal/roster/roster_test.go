package roster

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%ali%", LikePattern("ali"))
	assert.Equal(t, `%50\%%`, LikePattern("50%"))
	assert.Equal(t, `%a\_b%`, LikePattern("a_b"))
	assert.Equal(t, `%c:\\x%`, LikePattern(`c:\x`))
	assert.Equal(t, "%%", LikePattern(""))
}

func TestMatches(t *testing.T) {
	alice := Student{RollNo: "A1", Name: "Alice"}
	assert.True(t, Matches(alice, "ali"))
	assert.True(t, Matches(alice, "a1"))
	assert.True(t, Matches(alice, ""))
	assert.False(t, Matches(alice, "bob"))
}

func TestDuplicateErrorMatchesSentinel(t *testing.T) {
	err := error(&DuplicateError{Field: "Roll number", Value: "A1"})
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.True(t, errors.Is(fmt.Errorf("wrap: %w", err), ErrDuplicate))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, `Roll number "A1" already exists`, err.Error())
}

type rowsAffected int64

func (rowsAffected) LastInsertId() (int64, error) { return 0, nil }
func (n rowsAffected) RowsAffected() (int64, error) { return int64(n), nil }

func TestAffectedOne(t *testing.T) {
	assert.NoError(t, affectedOne(rowsAffected(1), nil, "update student"))

	err := affectedOne(rowsAffected(0), nil, "update student")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "update student: not found", err.Error())

	boom := errors.New("connection reset")
	err = affectedOne(nil, boom, "delete subject")
	assert.True(t, errors.Is(err, boom))
	assert.False(t, errors.Is(err, ErrNotFound))
}
