package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/agri-backoffice/internal/dto"
	"github.com/flicky/agri-backoffice/internal/middleware"
	"github.com/flicky/agri-backoffice/internal/service"
)

type SessionHandler struct {
	gate *service.SessionGate
}

func NewSessionHandler(gate *service.SessionGate) *SessionHandler {
	return &SessionHandler{gate: gate}
}

func (h *SessionHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.gate.SignIn(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *SessionHandler) SignOut(c *gin.Context) {
	if err := h.gate.SignOut(c.Request.Context(), middleware.GetToken(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Current returns the view decision for the caller's token. It is mounted
// without the auth middleware so an anonymous caller gets the login view.
func (h *SessionHandler) Current(c *gin.Context) {
	c.JSON(http.StatusOK, h.gate.Resolve(c.Request.Context(), middleware.BearerToken(c)))
}
