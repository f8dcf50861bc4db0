package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"rollbook/internal/attendance"
)

// Percentage returns present/total*100, or 0 when total is 0.
func Percentage(present, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(present) / float64(total) * 100
}

// FormatPercentage renders p with two decimals and a percent sign.
func FormatPercentage(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	return cw
}

// WriteClassCSV writes a class report.
func WriteClassCSV(w io.Writer, rows []ClassRow) error {
	cw := newWriter(w)
	if err := cw.Write([]string{"Roll No", "Name", "Classes Attended", "Total Classes", "Percentage"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.RollNo,
			r.Name,
			strconv.Itoa(r.PresentCount),
			strconv.Itoa(r.TotalClasses),
			FormatPercentage(r.Percentage()),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStudentCSV writes a student's history with display-format dates.
func WriteStudentCSV(w io.Writer, rows []attendance.HistoryRow) error {
	cw := newWriter(w)
	if err := cw.Write([]string{"Date", "Subject", "Status"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Date.Display(), r.Subject, string(r.Status)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
