package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifecal/lifecal-api/internal/ai"
	appErrors "github.com/lifecal/lifecal-api/pkg/errors"
)

type stubCompleter struct {
	reply string
	err   error
	seen  []ai.Message
}

func (s *stubCompleter) Complete(ctx context.Context, messages []ai.Message) (string, error) {
	s.seen = messages
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newAssistant(completer chatCompleter) *AssistantService {
	svc := NewAssistantService(completer, nil)
	svc.now = func() time.Time {
		return time.Date(2024, time.March, 18, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestAssistantSuggest(t *testing.T) {
	completer := &stubCompleter{reply: "Gym 6:00 pm-7:00 pm; Dinner 7:30 pm-9:00 pm"}
	svc := newAssistant(completer)

	suggestion, err := svc.Suggest(context.Background(), "gym after work then dinner")
	require.NoError(t, err)
	require.Len(t, suggestion.Drafts, 2)
	assert.Equal(t, "Gym", suggestion.Drafts[0].Title)
	assert.Equal(t, "Dinner", suggestion.Drafts[1].Title)
	require.Len(t, completer.seen, 2)
	assert.Equal(t, "system", completer.seen[0].Role)
	assert.Equal(t, "gym after work then dinner", completer.seen[1].Content)
}

func TestAssistantSuggestBackendFailure(t *testing.T) {
	svc := newAssistant(&stubCompleter{err: errors.New("upstream 500")})

	_, err := svc.Suggest(context.Background(), "gym tonight")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAIUnavailable.Code, appErrors.FromError(err).Code)
}

func TestAssistantSuggestUnparseableReply(t *testing.T) {
	svc := newAssistant(&stubCompleter{reply: "Sure! Here is your schedule."})

	_, err := svc.Suggest(context.Background(), "gym tonight")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAIUnavailable.Code, appErrors.FromError(err).Code)
}

func TestAssistantDisabled(t *testing.T) {
	svc := NewAssistantService(nil, nil)
	assert.False(t, svc.Enabled())

	_, err := svc.Suggest(context.Background(), "gym tonight")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAIUnavailable.Code, appErrors.FromError(err).Code)

	_, err = svc.Analyze(context.Background(), "gym tonight")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAIUnavailable.Code, appErrors.FromError(err).Code)
}

func TestAssistantAnalyze(t *testing.T) {
	completer := &stubCompleter{reply: "Gym 6:00 pm-7:00 pm | health"}
	svc := newAssistant(completer)

	analysis, err := svc.Analyze(context.Background(), "gym after work")
	require.NoError(t, err)
	assert.Equal(t, "Gym", analysis.Draft.Title)
	assert.Equal(t, 18, analysis.Draft.Start.Hour())
	require.NotNil(t, analysis.Draft.Category)
	assert.Equal(t, "health", *analysis.Draft.Category)
	require.Len(t, completer.seen, 2)
	assert.Equal(t, "system", completer.seen[0].Role)
	assert.Equal(t, "gym after work", completer.seen[1].Content)
}

func TestAssistantAnalyzeNoCategory(t *testing.T) {
	svc := newAssistant(&stubCompleter{reply: "Errands 9:00 am-10:00 am | none"})

	analysis, err := svc.Analyze(context.Background(), "run errands in the morning")
	require.NoError(t, err)
	assert.Equal(t, "Errands", analysis.Draft.Title)
	assert.Nil(t, analysis.Draft.Category)
}

func TestAssistantAnalyzeUnusableReply(t *testing.T) {
	cases := map[string]string{
		"no entry at all": "I could not work that out.",
		"multiple drafts": "Gym 6:00 pm-7:00 pm; Dinner 7:30 pm-9:00 pm | social",
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			svc := newAssistant(&stubCompleter{reply: reply})

			_, err := svc.Analyze(context.Background(), "gym tonight")
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrAIUnavailable.Code, appErrors.FromError(err).Code)
		})
	}
}
