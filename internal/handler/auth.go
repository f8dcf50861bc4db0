package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"rollbook/internal/auth"
)

// ---------- Auth ----------

type credentials struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type tokenResponse struct {
	OK           bool      `json:"ok"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func newTokenResponse(p auth.TokenPair) tokenResponse {
	return tokenResponse{OK: true, AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, ExpiresAt: p.AccessExp}
}

func (h *Handler) authService(c *gin.Context) (*auth.Service, bool) {
	rp, ok := h.reposFor(c)
	if !ok {
		return nil, false
	}
	return auth.NewService(rp.Users, h.tokens, h.cost), true
}

// Register creates an account.
func (h *Handler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	svc, ok := h.authService(c)
	if !ok {
		return
	}
	u, err := svc.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		fail(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, auth.ErrUsernameTaken):
		fail(c, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.fault(c, err, "register user")
		return
	}
	h.log.Info("user registered", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	c.JSON(http.StatusCreated, gin.H{"ok": true, "user": gin.H{"id": u.ID, "username": u.Username}})
}

// Login checks credentials, opens a browser session and issues API tokens.
func (h *Handler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	svc, ok := h.authService(c)
	if !ok {
		return
	}
	u, pair, err := svc.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		h.fault(c, err, "login")
		return
	}
	if err := auth.StartSession(c, u); err != nil {
		h.fault(c, err, "save session")
		return
	}
	c.JSON(http.StatusOK, newTokenResponse(pair))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken" binding:"required"`
}

// RefreshToken exchanges a refresh token for a new pair.
func (h *Handler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	svc, ok := h.authService(c)
	if !ok {
		return
	}
	pair, err := svc.Refresh(c.Request.Context(), req.RefreshToken)
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		fail(c, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		h.fault(c, err, "refresh token")
		return
	}
	c.JSON(http.StatusOK, newTokenResponse(pair))
}

// Logout ends the browser session and revokes a presented refresh token.
func (h *Handler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" form:"refreshToken"`
	}
	// an empty body is a plain session logout
	_ = c.ShouldBind(&req)

	if err := auth.EndSession(c); err != nil {
		h.fault(c, err, "clear session")
		return
	}
	if req.RefreshToken != "" {
		svc, ok := h.authService(c)
		if !ok {
			return
		}
		if err := svc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
			h.fault(c, err, "revoke refresh token")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
