package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"rollbook/internal/roster"
)

// ---------- Students & subjects ----------

type studentRequest struct {
	RollNo string `json:"rollNo" form:"rollNo" binding:"required"`
	Name   string `json:"name" form:"name" binding:"required"`
}

type subjectRequest struct {
	Name string `json:"name" form:"name" binding:"required"`
}

// writeFailed maps roster errors. Duplicates are a user mistake, reported
// with the same wording the management pages show.
func (h *Handler) writeFailed(c *gin.Context, err error, op string) {
	var dup *roster.DuplicateError
	switch {
	case errors.As(err, &dup):
		fail(c, http.StatusConflict, "Error: "+dup.Error()+".")
	case errors.Is(err, roster.ErrNotFound):
		fail(c, http.StatusNotFound, "not found")
	default:
		h.fault(c, err, op)
	}
}

func (h *Handler) ListStudents(c *gin.Context) {
	rp, ok := h.reposFor(c)
	if !ok {
		return
	}
	students, err := rp.Roster.ListStudents(c.Request.Context())
	if err != nil {
		h.fault(c, err, "list students")
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	rp, ok := h.reposFor(c)
	if !ok {
		return
	}
	st, err := rp.Roster.CreateStudent(c.Request.Context(), strings.TrimSpace(req.RollNo), strings.TrimSpace(req.Name))
	if err != nil {
		h.writeFailed(c, err, "create student")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "student": st})
}

func (h *Handler) UpdateStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req studentRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	rp, ok := h.reposFor(c)
	if !ok {
		return
	}
	st := roster.Student{ID: id, RollNo: strings.TrimSpace(req.RollNo), Name: strings.TrimSpace(req.Name)}
	if err := rp.Roster.UpdateStudent(c.Request.Context(), st); err != nil {
		h.writeFailed(c, err, "update student")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "student": st})
}

// DeleteStudent removes a student along with their attendance.
func (h *Handler) DeleteStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rp, ok := h.reposFor(c)
	if !ok {
		return
	}
	if err := rp.Roster.DeleteStudent(c.Request.Context(), id); err != nil {
		h.writeFailed(c, err, "delete student")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) ListSubjects(c *gin.Context) {
	rp, ok := h.reposFor(c)
	if !ok {
		return
	}
	subjects, err := rp.Roster.ListSubjects(c.Request.Context())
	if err != nil {
		h.fault(c, err, "list subjects")
		return
	}
	c.JSON(http.StatusOK, subjects)
}

func (h *Handler) CreateSubject(c *gin.Context) {
	var req subjectRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	rp, ok := h.reposFor(c)
	if !ok {
		return
	}
	sub, err := rp.Roster.CreateSubject(c.Request.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		h.writeFailed(c, err, "create subject")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "subject": sub})
}

func (h *Handler) UpdateSubject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req subjectRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	rp, ok := h.reposFor(c)
	if !ok {
		return
	}
	sub := roster.Subject{ID: id, Name: strings.TrimSpace(req.Name)}
	if err := rp.Roster.UpdateSubject(c.Request.Context(), sub); err != nil {
		h.writeFailed(c, err, "update subject")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "subject": sub})
}

// DeleteSubject removes a subject along with its attendance.
func (h *Handler) DeleteSubject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rp, ok := h.reposFor(c)
	if !ok {
		return
	}
	if err := rp.Roster.DeleteSubject(c.Request.Context(), id); err != nil {
		h.writeFailed(c, err, "delete subject")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
