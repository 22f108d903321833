package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/lifecal/lifecal-api/internal/models"
	"github.com/lifecal/lifecal-api/internal/parser"
	appErrors "github.com/lifecal/lifecal-api/pkg/errors"
	"github.com/lifecal/lifecal-api/pkg/export"
)

type eventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	CreateBatch(ctx context.Context, events []*models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	ListByOwner(ctx context.Context, userID int64) ([]models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id int64) error
}

// EventCache is the snapshot cache contract the event service needs.
type EventCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type changeBroadcaster interface {
	Broadcast(userID int64)
}

// EventService owns the event CRUD contract: ownership checks, interval
// validation, batch creation from free text, cache upkeep and the
// publish step that feeds live sessions.
type EventService struct {
	repo        eventRepository
	cache       EventCache
	cacheTTL    time.Duration
	broadcaster changeBroadcaster
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewEventService constructs the service. cache and broadcaster may be
// nil; both concerns degrade gracefully.
func NewEventService(repo eventRepository, cache EventCache, cacheTTL time.Duration, broadcaster changeBroadcaster, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		repo:        repo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		broadcaster: broadcaster,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateEventRequest describes a single-event create payload.
type CreateEventRequest struct {
	Title             string    `json:"title" validate:"required"`
	Start             time.Time `json:"start" validate:"required"`
	End               time.Time `json:"end" validate:"required"`
	Color             *string   `json:"color" validate:"omitempty,hexcolor"`
	Recurring         bool      `json:"recurring"`
	RecurrencePattern *string   `json:"recurrence_pattern"`
	Category          *string   `json:"category"`
	SharedWith        []string  `json:"shared_with"`
}

// List returns every event belonging to the user, serving the cached
// snapshot when one is fresh.
func (s *EventService) List(ctx context.Context, userID int64) ([]models.Event, error) {
	key := eventListCacheKey(userID)
	if s.cache != nil {
		var cached []models.Event
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return cached, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

	events, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, events, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache event list", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	return events, nil
}

// Get returns one event owned by the user. Events belonging to someone
// else come back as not found so ids don't leak across accounts.
func (s *EventService) Get(ctx context.Context, userID, id int64) (*models.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("event %d not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if event.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("event %d not found", id))
	}
	return event, nil
}

// Create validates and persists one event for the user.
func (s *EventService) Create(ctx context.Context, userID int64, req CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if !req.End.After(req.Start) {
		return nil, appErrors.Clone(appErrors.ErrInvalidInterval, "event must end after it starts")
	}
	if err := validateRecurrencePattern(req.RecurrencePattern); err != nil {
		return nil, err
	}

	color := models.DefaultEventColor
	if req.Color != nil && *req.Color != "" {
		color = *req.Color
	}
	shared := req.SharedWith
	if shared == nil {
		shared = []string{}
	}

	event := &models.Event{
		UserID:            userID,
		Title:             req.Title,
		Start:             req.Start,
		End:               req.End,
		Color:             color,
		Recurring:         req.Recurring,
		RecurrencePattern: req.RecurrencePattern,
		Category:          req.Category,
		SharedWith:        shared,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	s.afterMutation(ctx, userID)
	return event, nil
}

// CreateBatch parses a semicolon-separated submission and commits every
// draft in one transaction. Parsing is all-or-nothing: the first bad
// fragment rejects the whole submission and nothing reaches the store.
// Repeating an identical submission creates a fresh, independent set of
// events; nothing is deduplicated.
func (s *EventService) CreateBatch(ctx context.Context, userID int64, text string) ([]models.Event, error) {
	drafts, err := parser.ParseBatch(text, s.now())
	if err != nil {
		return nil, s.mapParseError(err)
	}
	if len(drafts) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no events found in input")
	}

	events := make([]*models.Event, len(drafts))
	for i, draft := range drafts {
		events[i] = &models.Event{
			UserID:     userID,
			Title:      draft.Title,
			Start:      draft.Start,
			End:        draft.End,
			Color:      draft.Color,
			Recurring:  draft.Recurring,
			Category:   draft.Category,
			SharedWith: draft.SharedWith,
		}
	}

	if err := s.repo.CreateBatch(ctx, events); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create events")
	}

	s.afterMutation(ctx, userID)

	created := make([]models.Event, len(events))
	for i, event := range events {
		created[i] = *event
	}
	return created, nil
}

// Update merges a partial patch over the stored record. The id and owner
// are immutable; a merge that would leave end at or before start is
// rejected and the stored record stays unchanged.
func (s *EventService) Update(ctx context.Context, userID, id int64, patch models.EventPatch) (*models.Event, error) {
	event, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "title must not be empty")
		}
		event.Title = *patch.Title
	}
	if patch.Start != nil {
		event.Start = *patch.Start
	}
	if patch.End != nil {
		event.End = *patch.End
	}
	if patch.Color != nil {
		event.Color = *patch.Color
	}
	if patch.Recurring != nil {
		event.Recurring = *patch.Recurring
	}
	if patch.RecurrencePattern != nil {
		if err := validateRecurrencePattern(patch.RecurrencePattern); err != nil {
			return nil, err
		}
		event.RecurrencePattern = patch.RecurrencePattern
	}
	if patch.Category != nil {
		event.Category = patch.Category
	}
	if patch.SharedWith != nil {
		event.SharedWith = patch.SharedWith
	}

	if !event.End.After(event.Start) {
		return nil, appErrors.Clone(appErrors.ErrInvalidInterval, "update would make the event end at or before it starts")
	}

	if err := s.repo.Update(ctx, event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("event %d not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}

	s.afterMutation(ctx, userID)
	return event, nil
}

// Delete permanently removes an event owned by the user.
func (s *EventService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("event %d not found", id))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}

	s.afterMutation(ctx, userID)
	return nil
}

// Export renders the user's events as CSV or iCalendar.
func (s *EventService) Export(ctx context.Context, userID int64, format string) ([]byte, string, error) {
	events, err := s.List(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	switch format {
	case "csv":
		dataset := export.Dataset{
			Headers: []string{"id", "title", "start", "end", "color", "category"},
			Rows:    make([]map[string]string, 0, len(events)),
		}
		for _, event := range events {
			category := ""
			if event.Category != nil {
				category = *event.Category
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"id":       strconv.FormatInt(event.ID, 10),
				"title":    event.Title,
				"start":    event.Start.Format(time.RFC3339),
				"end":      event.End.Format(time.RFC3339),
				"color":    event.Color,
				"category": category,
			})
		}
		payload, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "ics":
		entries := make([]export.CalendarEntry, 0, len(events))
		for _, event := range events {
			category := ""
			if event.Category != nil {
				category = *event.Category
			}
			entries = append(entries, export.CalendarEntry{
				UID:      fmt.Sprintf("event-%d@lifecal", event.ID),
				Summary:  event.Title,
				Category: category,
				Start:    event.Start,
				End:      event.End,
			})
		}
		payload, err := export.NewICalExporter("").Render(entries)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render ics")
		}
		return payload, "text/calendar", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrUnsupportedExportFmt, fmt.Sprintf("unsupported export format %q", format))
	}
}

// afterMutation invalidates the cached list and schedules the live push.
// Neither step may fail the mutation that triggered it.
func (s *EventService) afterMutation(ctx context.Context, userID int64) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, eventListCacheKey(userID)); err != nil {
			s.logger.Warn("failed to invalidate event list cache", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(userID)
	}
}

func (s *EventService) mapParseError(err error) error {
	var malformed *parser.MalformedTimeTokenError
	if errors.As(err, &malformed) {
		s.metrics.RecordParseFailure("malformed_time_token")
		return appErrors.Clone(appErrors.ErrMalformedTimeToken, err.Error())
	}
	var nonPositive *parser.NonPositiveDurationError
	if errors.As(err, &nonPositive) {
		s.metrics.RecordParseFailure("non_positive_duration")
		return appErrors.Clone(appErrors.ErrNonPositiveDuration, err.Error())
	}
	var unparseable *parser.UnparseableFragmentError
	if errors.As(err, &unparseable) {
		s.metrics.RecordParseFailure("unparseable_fragment")
		return appErrors.Clone(appErrors.ErrUnparseableFragment, err.Error())
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to parse events")
}

// validateRecurrencePattern rejects patterns RFC 5545 cannot express.
// The pattern is stored as given; expansion into occurrences is the
// client's job.
func validateRecurrencePattern(pattern *string) error {
	if pattern == nil || *pattern == "" {
		return nil
	}
	if _, err := rrule.StrToRRule(*pattern); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid recurrence pattern %q", *pattern))
	}
	return nil
}

func eventListCacheKey(userID int64) string {
	return fmt.Sprintf("events:user:%d", userID)
}
