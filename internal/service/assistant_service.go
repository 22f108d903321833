package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lifecal/lifecal-api/internal/ai"
	"github.com/lifecal/lifecal-api/internal/parser"
	appErrors "github.com/lifecal/lifecal-api/pkg/errors"
)

const assistantSystemPrompt = `You turn free-form scheduling notes into a calendar submission.
Reply with ONE line: semicolon-separated entries, each ending with a
12-hour time range like "Team standup 9:30 am-10:00 am". Do not add
commentary, markdown or any other text.`

const assistantAnalyzePrompt = `You analyse ONE calendar event described in free text.
Reply with exactly one line in the form
"Title H:MM am-H:MM pm | category"
where category is one lowercase word such as work, health, social,
family, errand or personal, or "none" when nothing fits. Do not add
commentary, markdown or any other text.`

type chatCompleter interface {
	Complete(ctx context.Context, messages []ai.Message) (string, error)
}

// AssistantSuggestion carries the model's normalised submission and the
// drafts parsed from it. Nothing is persisted; the caller decides what
// to do with the drafts.
type AssistantSuggestion struct {
	Normalized string         `json:"normalized"`
	Drafts     []parser.Draft `json:"drafts"`
}

// AssistantService rewrites natural-language notes into the batch entry
// format and pre-parses the result.
type AssistantService struct {
	client chatCompleter
	logger *zap.Logger
	now    func() time.Time
}

// NewAssistantService constructs the service. A nil client disables the
// feature; every call then fails with a service-unavailable error.
func NewAssistantService(client chatCompleter, logger *zap.Logger) *AssistantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantService{client: client, logger: logger, now: time.Now}
}

// Enabled reports whether a chat backend is configured.
func (s *AssistantService) Enabled() bool {
	return s.client != nil
}

// Suggest asks the model to normalise the text, then parses the reply.
// A reply the parser rejects is surfaced as an upstream failure rather
// than a caller error; the caller's input was never the problem.
func (s *AssistantService) Suggest(ctx context.Context, text string) (*AssistantSuggestion, error) {
	if s.client == nil {
		return nil, appErrors.Clone(appErrors.ErrAIUnavailable, "assistant is not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "text must not be empty")
	}

	reply, err := s.client.Complete(ctx, []ai.Message{
		{Role: "system", Content: assistantSystemPrompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		s.logger.Warn("assistant completion failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrAIUnavailable.Code, appErrors.ErrAIUnavailable.Status, "assistant is unavailable")
	}

	normalized := strings.TrimSpace(reply)
	drafts, err := parser.ParseBatch(normalized, s.now())
	if err != nil {
		s.logger.Warn("assistant reply did not parse", zap.String("reply", normalized), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrAIUnavailable.Code, appErrors.ErrAIUnavailable.Status, "assistant produced an unusable suggestion")
	}

	return &AssistantSuggestion{Normalized: normalized, Drafts: drafts}, nil
}

// AssistantAnalysis is the model's reading of one free-text event: a
// single draft with a suggested category. Nothing is persisted.
type AssistantAnalysis struct {
	Normalized string       `json:"normalized"`
	Draft      parser.Draft `json:"draft"`
}

// Analyze asks the model for one event plus a category suggestion.
func (s *AssistantService) Analyze(ctx context.Context, text string) (*AssistantAnalysis, error) {
	if s.client == nil {
		return nil, appErrors.Clone(appErrors.ErrAIUnavailable, "assistant is not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "text must not be empty")
	}

	reply, err := s.client.Complete(ctx, []ai.Message{
		{Role: "system", Content: assistantAnalyzePrompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		s.logger.Warn("assistant completion failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrAIUnavailable.Code, appErrors.ErrAIUnavailable.Status, "assistant is unavailable")
	}

	normalized := strings.TrimSpace(reply)
	entry, category := splitAnalyzeReply(normalized)

	drafts, err := parser.ParseBatch(entry, s.now())
	if err != nil || len(drafts) != 1 {
		s.logger.Warn("assistant reply did not parse", zap.String("reply", normalized), zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrAIUnavailable, "assistant produced an unusable suggestion")
	}

	draft := drafts[0]
	if category != "" && category != "none" {
		draft.Category = &category
	}

	return &AssistantAnalysis{Normalized: normalized, Draft: draft}, nil
}

// splitAnalyzeReply pulls the trailing "| category" marker off the
// entry line, if the model supplied one.
func splitAnalyzeReply(reply string) (string, string) {
	entry, category, found := strings.Cut(reply, "|")
	if !found {
		return strings.TrimSpace(reply), ""
	}
	return strings.TrimSpace(entry), strings.ToLower(strings.TrimSpace(category))
}
