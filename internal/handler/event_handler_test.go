package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifecal/lifecal-api/internal/middleware"
	"github.com/lifecal/lifecal-api/internal/models"
	"github.com/lifecal/lifecal-api/internal/service"
)

type fakeEventRepo struct {
	events map[int64]*models.Event
	nextID int64
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[int64]*models.Event), nextID: 1}
}

func (f *fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	event.ID = f.nextID
	f.nextID++
	copied := *event
	f.events[event.ID] = &copied
	return nil
}

func (f *fakeEventRepo) CreateBatch(ctx context.Context, events []*models.Event) error {
	for _, event := range events {
		if err := f.Create(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *event
	return &copied, nil
}

func (f *fakeEventRepo) ListByOwner(ctx context.Context, userID int64) ([]models.Event, error) {
	var out []models.Event
	for id := int64(1); id < f.nextID; id++ {
		if event, ok := f.events[id]; ok && event.UserID == userID {
			out = append(out, *event)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, event *models.Event) error {
	if _, ok := f.events[event.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *event
	f.events[event.ID] = &copied
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.events[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.events, id)
	return nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newEventTestHandler(repo *fakeEventRepo) *EventHandler {
	svc := service.NewEventService(repo, nil, 0, nil, nil, nil, nil)
	return NewEventHandler(svc, nil)
}

func authedContext(t *testing.T, method, target string, body string, userID int64) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, Username: "mira"})
	}
	return c, rec
}

func TestEventHandlerListRequiresAuth(t *testing.T) {
	handler := newEventTestHandler(newFakeEventRepo())

	c, rec := authedContext(t, http.MethodGet, "/events", "", 0)
	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEventHandlerCreate(t *testing.T) {
	repo := newFakeEventRepo()
	handler := newEventTestHandler(repo)

	body := `{"title":"Standup","start":"2024-03-18T09:00:00Z","end":"2024-03-18T09:30:00Z"}`
	c, rec := authedContext(t, http.MethodPost, "/events", body, 7)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var created models.Event
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Standup", created.Title)
	assert.Equal(t, models.DefaultEventColor, created.Color)
	assert.Len(t, repo.events, 1)
}

func TestEventHandlerCreateInvalidInterval(t *testing.T) {
	handler := newEventTestHandler(newFakeEventRepo())

	body := `{"title":"Backwards","start":"2024-03-18T10:00:00Z","end":"2024-03-18T09:00:00Z"}`
	c, rec := authedContext(t, http.MethodPost, "/events", body, 7)
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_INTERVAL", env.Error.Code)
}

func TestEventHandlerCreateBatch(t *testing.T) {
	repo := newFakeEventRepo()
	handler := newEventTestHandler(repo)

	body := `{"text":"Gym 6:00 pm-7:00 pm; Dinner 7:30 pm-9:00 pm"}`
	c, rec := authedContext(t, http.MethodPost, "/events/batch", body, 7)
	handler.CreateBatch(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var created []models.Event
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Len(t, created, 2)
	assert.Equal(t, "Gym", created[0].Title)
	assert.Len(t, repo.events, 2)
}

func TestEventHandlerCreateBatchBadFragment(t *testing.T) {
	repo := newFakeEventRepo()
	handler := newEventTestHandler(repo)

	body := `{"text":"Gym 6:00 pm-7:00 pm; just vibes"}`
	c, rec := authedContext(t, http.MethodPost, "/events/batch", body, 7)
	handler.CreateBatch(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNPARSEABLE_FRAGMENT", env.Error.Code)
	assert.Contains(t, env.Error.Message, "just vibes")
	assert.Empty(t, repo.events)
}

func TestEventHandlerGetNotFound(t *testing.T) {
	handler := newEventTestHandler(newFakeEventRepo())

	c, rec := authedContext(t, http.MethodGet, "/events/42", "", 7)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventHandlerGetRejectsBadID(t *testing.T) {
	handler := newEventTestHandler(newFakeEventRepo())

	c, rec := authedContext(t, http.MethodGet, "/events/abc", "", 7)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.Get(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventHandlerUpdate(t *testing.T) {
	repo := newFakeEventRepo()
	handler := newEventTestHandler(repo)
	seed := &models.Event{
		UserID: 7,
		Title:  "Before",
		Start:  time.Date(2024, time.March, 18, 9, 0, 0, 0, time.UTC),
		End:    time.Date(2024, time.March, 18, 10, 0, 0, 0, time.UTC),
		Color:  models.DefaultEventColor,
	}
	require.NoError(t, repo.Create(context.Background(), seed))

	c, rec := authedContext(t, http.MethodPatch, "/events/1", `{"title":"After"}`, 7)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	handler.Update(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "After", repo.events[1].Title)
	assert.Equal(t, seed.End, repo.events[1].End)
}

func TestEventHandlerDelete(t *testing.T) {
	repo := newFakeEventRepo()
	handler := newEventTestHandler(repo)
	require.NoError(t, repo.Create(context.Background(), &models.Event{
		UserID: 7,
		Title:  "Gone",
		Start:  time.Date(2024, time.March, 18, 9, 0, 0, 0, time.UTC),
		End:    time.Date(2024, time.March, 18, 10, 0, 0, 0, time.UTC),
	}))

	c, rec := authedContext(t, http.MethodDelete, "/events/1", "", 7)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	handler.Delete(c)
	// Status-only responses aren't flushed until something writes.
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.events)
}

func TestEventHandlerExportCSV(t *testing.T) {
	repo := newFakeEventRepo()
	handler := newEventTestHandler(repo)
	require.NoError(t, repo.Create(context.Background(), &models.Event{
		UserID: 7,
		Title:  "Exported",
		Start:  time.Date(2024, time.March, 18, 9, 0, 0, 0, time.UTC),
		End:    time.Date(2024, time.March, 18, 10, 0, 0, 0, time.UTC),
	}))

	c, rec := authedContext(t, http.MethodGet, "/events/export?format=csv", "", 7)
	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "Exported")
}
