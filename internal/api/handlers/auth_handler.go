package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/resumerank/internal/api/middleware"
	"github.com/yoockh/resumerank/internal/services"
	"github.com/yoockh/resumerank/internal/utils"
)

type AuthHandler struct {
	auth   services.AuthService
	guests services.GuestService
	logger *logrus.Logger
}

func NewAuthHandler(auth services.AuthService, guests services.GuestService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, guests: guests, logger: logger}
}

type SignupRequest struct {
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required"`
	FullName *string `json:"fullName"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type UpdateMeRequest struct {
	FullName *string `json:"fullName"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.Signup", "invalid request body", err))
		return
	}

	res, err := h.auth.Register(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeError(c, err)
		return
	}

	h.migrateGuest(c, res.User.ID)
	c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.Login", "invalid request body", err))
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.migrateGuest(c, res.User.ID)
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.Refresh", "invalid request body", err))
		return
	}

	access, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	u, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.UpdateMe", "invalid request body", err))
		return
	}

	u, err := h.auth.UpdateProfile(c.Request.Context(), userID, req.FullName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// migrateGuest links the caller's guest session, if any. Failures never fail the login.
func (h *AuthHandler) migrateGuest(c *gin.Context, userID string) {
	if h.guests == nil {
		return
	}
	tok := middleware.GuestToken(c)
	if tok == "" {
		return
	}
	if err := h.guests.Migrate(c.Request.Context(), tok, userID); err != nil && h.logger != nil {
		h.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"code":    utils.CodeOf(err),
		}).WithError(err).Warn("guest session migration failed")
	}
}
