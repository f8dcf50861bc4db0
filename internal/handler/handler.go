package handler

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"rollbook/internal/attendance"
	"rollbook/internal/auth"
	"rollbook/internal/caldate"
	"rollbook/internal/httpmiddleware"
	"rollbook/internal/roster"
)

// Repos are the stores one request works against.
type Repos struct {
	Attendance attendance.Store
	Roster     roster.Store
	Users      auth.UserStore
}

// RepoFactory resolves the stores for the current request.
type RepoFactory func(c *gin.Context) (Repos, error)

// PostgresRepos builds repositories on the connection ConnScope checked out
// for the request.
func PostgresRepos(c *gin.Context) (Repos, error) {
	q, ok := httpmiddleware.Conn(c)
	if !ok {
		return Repos{}, errors.New("no database connection in request scope")
	}
	return Repos{
		Attendance: attendance.NewRepository(q),
		Roster:     roster.NewRepository(q),
		Users:      auth.NewRepository(q),
	}, nil
}

// Fixed serves the same stores to every request.
func Fixed(r Repos) RepoFactory {
	return func(*gin.Context) (Repos, error) { return r, nil }
}

type Handler struct {
	repos  RepoFactory
	tokens auth.TokenConfig
	cost   int
	log    *zap.Logger
}

// New creates a handler. cost is the bcrypt cost for new passwords.
func New(repos RepoFactory, tokens auth.TokenConfig, cost int, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	registerValidations()
	return &Handler{repos: repos, tokens: tokens, cost: cost, log: log}
}

// Routes mounts every endpoint on r. scope wraps each handler that touches
// storage; nil means no wrapping.
func (h *Handler) Routes(r gin.IRouter, scope gin.HandlerFunc) {
	if scope == nil {
		scope = func(c *gin.Context) { c.Next() }
	}
	guard := auth.RequireLogin(h.tokens)

	api := r.Group("/api")
	api.POST("/register", scope, h.Register)
	api.POST("/login", scope, h.Login)
	api.POST("/token/refresh", scope, h.RefreshToken)
	api.POST("/logout", scope, h.Logout)

	private := api.Group("", guard, scope)
	private.GET("/class_report", h.ClassReport)
	private.GET("/student_report", h.StudentReport)
	private.POST("/save_attendance", h.SaveAttendance)
	private.GET("/get_attendance", h.GetAttendance)
	private.GET("/get_attendance_for_store", h.GetAttendanceForStore)

	private.GET("/students", h.ListStudents)
	private.POST("/students", h.CreateStudent)
	private.PUT("/students/:id", h.UpdateStudent)
	private.DELETE("/students/:id", h.DeleteStudent)
	private.GET("/subjects", h.ListSubjects)
	private.POST("/subjects", h.CreateSubject)
	private.PUT("/subjects/:id", h.UpdateSubject)
	private.DELETE("/subjects/:id", h.DeleteSubject)

	export := r.Group("/export", guard, scope)
	export.GET("/class_report", h.ExportClassReport)
	export.GET("/individual_report", h.ExportIndividualReport)
}

// ---------- helpers ----------

func (h *Handler) reposFor(c *gin.Context) (Repos, bool) {
	rp, err := h.repos(c)
	if err != nil {
		h.fault(c, err, "resolve repositories")
		return Repos{}, false
	}
	return rp, true
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": msg})
}

// fault logs a storage or internal error and answers 500 without leaking it.
func (h *Handler) fault(c *gin.Context, err error, msg string) {
	h.log.Error(msg, zap.Error(err), zap.String("request_id", httpmiddleware.GetRequestID(c)))
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, "internal error")
}

// badRequest turns a binding error into a readable 400.
func badRequest(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, bindMessage(err))
}

func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		var dateErr *caldate.InvalidDateError
		if errors.As(err, &dateErr) {
			return dateErr.Error()
		}
		return "malformed request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "isodate":
		return "Invalid date format. Please use YYYY-MM-DD."
	case "anydate":
		return "Invalid date format. Please use DD-MM-YYYY or YYYY-MM-DD."
	case "required":
		return fe.Field() + " is required"
	case "number", "gt":
		return fe.Field() + " must be a positive number"
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// optionalID reads an id that may be left blank to mean "any".
func optionalID(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.Errorf("invalid id %q", s)
	}
	return &id, nil
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

var registerOnce sync.Once

func registerValidations() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := caldate.ParseISO(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("anydate", func(fl validator.FieldLevel) bool {
			_, err := caldate.Parse(fl.Field().String())
			return err == nil
		})
	})
}
