package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rollbook/internal/attendance"
	"rollbook/internal/caldate"
	"rollbook/internal/metrics"
)

// ---------- Marking ----------

type markRequest struct {
	StudentID int64  `json:"studentId"`
	Status    string `json:"status"`
}

type saveRequest struct {
	Date      string            `json:"date" binding:"required,anydate"`
	SubjectID int64             `json:"subjectId"`
	Marks     []json.RawMessage `json:"marks"`
}

// decodeMark reads one mark on its own so a mistyped entry only costs
// itself. Anything undecodable becomes the zero Mark, which SaveMarks skips.
func decodeMark(raw json.RawMessage) attendance.Mark {
	var m markRequest
	if err := json.Unmarshal(raw, &m); err != nil {
		return attendance.Mark{}
	}
	return attendance.Mark{StudentID: m.StudentID, Status: attendance.Status(m.Status)}
}

// SaveAttendance upserts a batch of marks for one class session. Malformed
// marks are dropped without failing the request.
func (h *Handler) SaveAttendance(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	date, err := caldate.Parse(req.Date)
	if err != nil {
		badRequest(c, err)
		return
	}
	rp, ok := h.reposFor(c)
	if !ok {
		return
	}

	marks := make([]attendance.Mark, 0, len(req.Marks))
	for _, raw := range req.Marks {
		marks = append(marks, decodeMark(raw))
	}
	svc := attendance.NewService(rp.Attendance, h.log)
	res, err := svc.SaveMarks(c.Request.Context(), date, req.SubjectID, marks)
	metrics.Marks.WithLabelValues("saved").Add(float64(res.Saved))
	metrics.Marks.WithLabelValues("skipped").Add(float64(res.Skipped))
	if err != nil {
		h.fault(c, err, "save attendance")
		return
	}
	h.log.Debug("attendance saved",
		zap.String("date", date.Display()), zap.Int64("subject_id", req.SubjectID),
		zap.Int("saved", res.Saved), zap.Int("skipped", res.Skipped))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// sheetQuery leaves both fields optional; a blank one matches no record, so
// the whole roster comes back with the fallback status.
type sheetQuery struct {
	SubjectID string `form:"subjectId" binding:"omitempty,number"`
	Date      string `form:"date" binding:"omitempty,anydate"`
}

func (h *Handler) sheet(c *gin.Context, fallback attendance.Status) ([]attendance.SheetEntry, bool) {
	var q sheetQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return nil, false
	}
	var date caldate.Date
	if q.Date != "" {
		d, err := caldate.Parse(q.Date)
		if err != nil {
			badRequest(c, err)
			return nil, false
		}
		date = d
	}
	var subjectID int64
	if id, err := optionalID(q.SubjectID); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return nil, false
	} else if id != nil {
		subjectID = *id
	}
	rp, ok := h.reposFor(c)
	if !ok {
		return nil, false
	}
	entries, err := attendance.NewService(rp.Attendance, h.log).Sheet(c.Request.Context(), subjectID, date, fallback)
	if err != nil {
		h.fault(c, err, "load attendance sheet")
		return nil, false
	}
	return entries, true
}

type viewRecord struct {
	RollNo string            `json:"rollNo"`
	Name   string            `json:"name"`
	Status attendance.Status `json:"status"`
}

// GetAttendance lists the roster's statuses for a session, treating
// unmarked students as absent without notice.
func (h *Handler) GetAttendance(c *gin.Context) {
	entries, ok := h.sheet(c, attendance.StatusAbsentUninformed)
	if !ok {
		return
	}
	records := make([]viewRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, viewRecord{RollNo: e.RollNo, Name: e.Name, Status: e.Status})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "records": records})
}

type storeRecord struct {
	StudentID int64             `json:"studentId"`
	Status    attendance.Status `json:"status"`
}

// GetAttendanceForStore feeds the marking form; unmarked students come back
// as "none".
func (h *Handler) GetAttendanceForStore(c *gin.Context) {
	entries, ok := h.sheet(c, attendance.StatusNone)
	if !ok {
		return
	}
	records := make([]storeRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, storeRecord{StudentID: e.StudentID, Status: e.Status})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "records": records})
}
