package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lifecal/lifecal-api/internal/models"
	"github.com/lifecal/lifecal-api/internal/notifier"
	"github.com/lifecal/lifecal-api/internal/service"
	appErrors "github.com/lifecal/lifecal-api/pkg/errors"
	"github.com/lifecal/lifecal-api/pkg/response"
)

// EventHandler exposes event endpoints.
type EventHandler struct {
	events *service.EventService
	hub    *notifier.Hub
}

// NewEventHandler constructs EventHandler. hub may be nil when live
// streaming is disabled.
func NewEventHandler(events *service.EventService, hub *notifier.Hub) *EventHandler {
	return &EventHandler{events: events, hub: hub}
}

// List godoc
// @Summary List events
// @Description List every event owned by the current user
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	events, err := h.events.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, events, nil)
}

// Get godoc
// @Summary Get one event
// @Tags Events
// @Produce json
// @Param id path int true "Event id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := parseEventID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	event, err := h.events.Get(c.Request.Context(), claims.UserID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create an event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body service.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	event, err := h.events.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, event)
}

// CreateBatch godoc
// @Summary Create events from free text
// @Description Parse a semicolon-separated submission like "Gym 6:00 pm-7:00 pm; Dinner 7:30 pm-9:00 pm" and create every entry atomically
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body handler.BatchCreateRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /events/batch [post]
func (h *EventHandler) CreateBatch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req BatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}

	events, err := h.events.CreateBatch(c.Request.Context(), claims.UserID, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, events)
}

// Update godoc
// @Summary Update an event
// @Description Partial update; absent fields keep their stored values
// @Tags Events
// @Accept json
// @Produce json
// @Param id path int true "Event id"
// @Param payload body models.EventPatch true "Patch payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id} [patch]
func (h *EventHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := parseEventID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var patch models.EventPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid patch payload"))
		return
	}

	event, err := h.events.Update(c.Request.Context(), claims.UserID, id, patch)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete an event
// @Tags Events
// @Produce json
// @Param id path int true "Event id"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := parseEventID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.events.Delete(c.Request.Context(), claims.UserID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Export godoc
// @Summary Export events
// @Description Download the full event list as CSV or iCalendar
// @Tags Events
// @Produce text/csv
// @Param format query string false "csv or ics" default(csv)
// @Success 200 {string} string "file"
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /events/export [get]
func (h *EventHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.events.Export(c.Request.Context(), claims.UserID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("events-%s.%s", time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// Stream godoc
// @Summary Stream event list changes
// @Description Server-sent events; every mutation to the owner's calendar pushes the full updated list
// @Tags Events
// @Produce text/event-stream
// @Success 200 {string} string "stream"
// @Security BearerAuth
// @Router /events/stream [get]
func (h *EventHandler) Stream(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if h.hub == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "live updates are not enabled"))
		return
	}

	sub := h.hub.Subscribe(claims.UserID)
	defer h.hub.Unsubscribe(sub)

	// Initial snapshot so the client renders without waiting for a change.
	events, err := h.events.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("events", events)
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot, ok := <-sub.Updates():
			if !ok {
				return false
			}
			c.SSEvent("events", snapshot)
			return true
		case <-clientGone:
			return false
		}
	})
}

// BatchCreateRequest carries the raw text for batch event creation.
type BatchCreateRequest struct {
	Text string `json:"text" binding:"required"`
}

func parseEventID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "event id must be a positive integer")
	}
	return id, nil
}
