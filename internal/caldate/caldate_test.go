package caldate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for _, iso := range []string{"2024-01-10", "2024-02-29", "1999-12-31", "0001-01-01", "2023-07-04"} {
		display, err := ToDisplay(iso)
		require.NoError(t, err, iso)
		back, err := ToISO(display)
		require.NoError(t, err, display)
		assert.Equal(t, iso, back)
	}
}

func TestToDisplay(t *testing.T) {
	got, err := ToDisplay("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, "05-03-2024", got)
}

func TestRejectsNonCalendarDates(t *testing.T) {
	tests := []string{"2024-02-30", "2024-13-01", "2023-02-29", "2024-1-05", "24-01-05", "", "2024-01-10 ", "yesterday"}
	for _, iso := range tests {
		_, err := ToDisplay(iso)
		var dateErr *InvalidDateError
		assert.ErrorAs(t, err, &dateErr, iso)
	}

	for _, display := range []string{"30-02-2024", "01-13-2024", "2024-01-10", "1-1-2024"} {
		_, err := ToISO(display)
		assert.Error(t, err, display)
	}
}

func TestParseAcceptsBothForms(t *testing.T) {
	want := Date{Year: 2024, Month: time.January, Day: 10}

	d, err := Parse("10-01-2024")
	require.NoError(t, err)
	assert.Equal(t, want, d)

	d, err = Parse("2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, want, d)

	_, err = Parse("10/01/2024")
	assert.Error(t, err)
}

func TestCalendarOrderDiffersFromDisplayOrder(t *testing.T) {
	a, _ := ParseDisplay("05-01-2024")
	b, _ := ParseDisplay("01-02-2024")

	assert.True(t, a.Before(b))
	assert.True(t, a.Display() > b.Display(), "display strings sort the other way")
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, 1, b.Compare(a))
}

func TestRange(t *testing.T) {
	r, err := NewRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)

	in, _ := ParseISO("2024-01-31")
	out, _ := ParseISO("2024-02-01")
	assert.True(t, r.Contains(r.Start))
	assert.True(t, r.Contains(in))
	assert.False(t, r.Contains(out))

	inverted := Range{Start: r.End, End: r.Start}
	assert.False(t, inverted.Contains(in))

	_, err = NewRange("2024-01-01", "31-01-2024")
	assert.Error(t, err)
}
