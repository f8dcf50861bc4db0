package handler

import (
	"bytes"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollbook/internal/attendance"
	"rollbook/internal/caldate"
	"rollbook/internal/metrics"
	"rollbook/internal/report"
)

// ---------- Reports ----------

type classReportQuery struct {
	StartDate string `form:"startDate" binding:"required,isodate"`
	EndDate   string `form:"endDate" binding:"required,isodate"`
	SubjectID string `form:"subjectId" binding:"omitempty,number"`
}

func bindClassReport(c *gin.Context) (caldate.Range, *int64, bool) {
	var q classReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return caldate.Range{}, nil, false
	}
	r, err := caldate.NewRange(q.StartDate, q.EndDate)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid date format. Please use YYYY-MM-DD.")
		return caldate.Range{}, nil, false
	}
	subjectID, err := optionalID(q.SubjectID)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return caldate.Range{}, nil, false
	}
	return r, subjectID, true
}

type classRecord struct {
	RollNo       string `json:"rollNo"`
	Name         string `json:"name"`
	PresentCount int    `json:"presentCount"`
	TotalClasses int    `json:"totalClasses"`
}

// ClassReport returns each student's attendance over a date range.
func (h *Handler) ClassReport(c *gin.Context) {
	r, subjectID, ok := bindClassReport(c)
	if !ok {
		return
	}
	rp, ok := h.reposFor(c)
	if !ok {
		return
	}
	rows, err := report.NewEngine(rp.Attendance, rp.Roster).ClassReport(c.Request.Context(), r, subjectID)
	if err != nil {
		h.fault(c, err, "class report")
		return
	}
	metrics.Reports.WithLabelValues("class", "json").Inc()

	records := make([]classRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, classRecord{RollNo: row.RollNo, Name: row.Name, PresentCount: row.PresentCount, TotalClasses: row.TotalClasses})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "records": records})
}

// ExportClassReport renders the class report as CSV. Unlike the JSON form it
// lists every student even when no class was held.
func (h *Handler) ExportClassReport(c *gin.Context) {
	r, subjectID, ok := bindClassReport(c)
	if !ok {
		return
	}
	rp, ok := h.reposFor(c)
	if !ok {
		return
	}
	_, rows, err := report.NewEngine(rp.Attendance, rp.Roster).ClassTally(c.Request.Context(), r, subjectID)
	if err != nil {
		h.fault(c, err, "class report export")
		return
	}
	var buf bytes.Buffer
	if err := report.WriteClassCSV(&buf, rows); err != nil {
		h.fault(c, err, "write class csv")
		return
	}
	metrics.Reports.WithLabelValues("class", "csv").Inc()
	sendCSV(c, "class_report.csv", buf.Bytes())
}

type studentReportQuery struct {
	Query     string `form:"query"`
	SubjectID string `form:"subjectId" binding:"omitempty,number"`
	DateType  string `form:"dateType"`
	Year      string `form:"year"`
	Month     string `form:"month"`
	Date      string `form:"date"`
}

func (h *Handler) studentReport(c *gin.Context) (report.StudentReport, bool) {
	var q studentReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return report.StudentReport{}, false
	}
	subjectID, err := optionalID(q.SubjectID)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return report.StudentReport{}, false
	}
	period, err := report.ParsePeriod(q.DateType, q.Year, q.Month, q.Date)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return report.StudentReport{}, false
	}
	rp, ok := h.reposFor(c)
	if !ok {
		return report.StudentReport{}, false
	}
	rep, err := report.NewEngine(rp.Attendance, rp.Roster).StudentReport(c.Request.Context(), report.StudentQuery{
		Text:      q.Query,
		SubjectID: subjectID,
		Period:    period,
	})
	if err != nil {
		h.fault(c, err, "student report")
		return report.StudentReport{}, false
	}
	return rep, true
}

type historyRecord struct {
	Date    string            `json:"date"`
	Subject string            `json:"subject"`
	Status  attendance.Status `json:"status"`
}

// StudentReport finds a student by roll number or name and returns their
// history. No match is a normal response with a null student.
func (h *Handler) StudentReport(c *gin.Context) {
	rep, ok := h.studentReport(c)
	if !ok {
		return
	}
	metrics.Reports.WithLabelValues("student", "json").Inc()

	rows := make([]historyRecord, 0, len(rep.Rows))
	for _, r := range rep.Rows {
		rows = append(rows, historyRecord{Date: r.Date.Display(), Subject: r.Subject, Status: r.Status})
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"student":     rep.Student,
		"rows":        rows,
		"daysPresent": rep.DaysPresent,
	})
}

// ExportIndividualReport renders a student's history as CSV.
func (h *Handler) ExportIndividualReport(c *gin.Context) {
	rep, ok := h.studentReport(c)
	if !ok {
		return
	}
	if rep.Student == nil {
		c.String(http.StatusNotFound, "Student not found")
		return
	}
	var buf bytes.Buffer
	if err := report.WriteStudentCSV(&buf, rep.Rows); err != nil {
		h.fault(c, err, "write student csv")
		return
	}
	metrics.Reports.WithLabelValues("student", "csv").Inc()
	sendCSV(c, "report_"+rep.Student.RollNo+".csv", buf.Bytes())
}

func sendCSV(c *gin.Context, filename string, body []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}
