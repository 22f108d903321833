package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lifecal/lifecal-api/internal/service"
	appErrors "github.com/lifecal/lifecal-api/pkg/errors"
	"github.com/lifecal/lifecal-api/pkg/response"
)

// LifeHandler exposes the life timeline endpoint.
type LifeHandler struct {
	life *service.LifeService
}

// NewLifeHandler constructs LifeHandler.
func NewLifeHandler(life *service.LifeService) *LifeHandler {
	return &LifeHandler{life: life}
}

// Timeline godoc
// @Summary Life timeline in weeks
// @Description Weeks elapsed and remaining for the configured lifespan
// @Tags Life
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /life/timeline [get]
func (h *LifeHandler) Timeline(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	timeline, err := h.life.Timeline(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, timeline, nil)
}
