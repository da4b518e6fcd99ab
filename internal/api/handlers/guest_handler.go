package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/resumerank/internal/services"
	"github.com/yoockh/resumerank/internal/utils"
)

// maxGuestPayload caps PUT /guest-session/:token bodies.
const maxGuestPayload = 1 << 20

type GuestHandler struct {
	svc services.GuestService
}

func NewGuestHandler(svc services.GuestService) *GuestHandler {
	return &GuestHandler{svc: svc}
}

func (h *GuestHandler) Create(c *gin.Context) {
	sess, err := h.svc.Create(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"sessionToken": sess.SessionToken,
		"expiresAt":    sess.ExpiresAt,
	})
}

func (h *GuestHandler) Get(c *gin.Context) {
	sess, err := h.svc.Get(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionToken": sess.SessionToken,
		"data":         json.RawMessage(sess.Data),
		"expiresAt":    sess.ExpiresAt,
	})
}

func (h *GuestHandler) Update(c *gin.Context) {
	const op = "GuestHandler.Update"

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxGuestPayload+1))
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "failed to read body", err))
		return
	}
	if len(body) > maxGuestPayload {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "payload too large", nil))
		return
	}

	if err := h.svc.UpdateData(c.Request.Context(), c.Param("token"), json.RawMessage(body)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *GuestHandler) Migrate(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Migrate(c.Request.Context(), c.Param("token"), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
