package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lifecal/lifecal-api/internal/service"
	appErrors "github.com/lifecal/lifecal-api/pkg/errors"
	"github.com/lifecal/lifecal-api/pkg/response"
)

// AssistantHandler exposes the AI suggestion endpoints.
type AssistantHandler struct {
	assistant *service.AssistantService
}

// NewAssistantHandler constructs AssistantHandler.
func NewAssistantHandler(assistant *service.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

// SuggestRequest carries the free-form notes to analyse.
type SuggestRequest struct {
	Text string `json:"text" binding:"required"`
}

// Suggest godoc
// @Summary Turn notes into event drafts
// @Description Ask the assistant to rewrite free-form notes as parseable event entries; nothing is persisted
// @Tags Assistant
// @Accept json
// @Produce json
// @Param payload body handler.SuggestRequest true "Notes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Security BearerAuth
// @Router /assistant/suggest [post]
func (h *AssistantHandler) Suggest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid suggest payload"))
		return
	}

	suggestion, err := h.assistant.Suggest(c.Request.Context(), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, suggestion, nil)
}

// AnalyzeEvent godoc
// @Summary Analyse one event description
// @Description Ask the assistant for a single event draft with a suggested category; nothing is persisted
// @Tags Assistant
// @Accept json
// @Produce json
// @Param payload body handler.SuggestRequest true "Event description"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Security BearerAuth
// @Router /assistant/analyze-event [post]
func (h *AssistantHandler) AnalyzeEvent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid analyze payload"))
		return
	}

	analysis, err := h.assistant.Analyze(c.Request.Context(), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, analysis, nil)
}
