// internal/assistant/assistant.go
//
// Chat service.
//
// Context
// -------
// Every tenant shares one Service.  When an API key is configured the call
// goes to the model with the tenant's knowledge in the system prompt; a
// placeholder or missing key answers from the Mock instead of failing at
// boot, and a failed live call falls back to the Mock rather than erroring
// the visitor.  The reply's Source field says which path answered.
package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/mosaic-cms/mosaic/internal/config"
	"github.com/mosaic-cms/mosaic/internal/metrics"
)

// Only the last turns of a long conversation are forwarded.
const maxHistoryTurns = 10

const (
	SourceGenAI        = "genai"
	SourceMock         = "mock"
	SourceMockFallback = "mock_fallback"
)

var ErrEmptyMessage = errors.New("assistant: message is required")

// Turn is one prior message of the conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply is the answer plus which path produced it.
type Reply struct {
	Message string `json:"message"`
	Source  string `json:"source"`
}

// Service answers chat messages for every tenant.
type Service struct {
	db     *sqlx.DB
	log    *zap.SugaredLogger
	cfg    config.Assistant
	client *genai.Client
}

// NewService builds the service.  A placeholder API key selects mock mode.
func NewService(ctx context.Context, db *sqlx.DB, log *zap.SugaredLogger, cfg config.Assistant) (*Service, error) {
	s := &Service{db: db, log: log, cfg: cfg}
	if config.IsPlaceholder(cfg.APIKey) {
		log.Warnw("assistant running in mock mode, no api key configured")
		return s, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, err
	}
	s.client = client
	log.Infow("assistant model client ready", "model", cfg.Model)
	return s, nil
}

// Live reports whether a model client is configured.
func (s *Service) Live() bool { return s.client != nil }

// Chat answers one visitor message for a tenant.
func (s *Service) Chat(ctx context.Context, siteID int64, siteName, siteHost, message string, history []Turn) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	know, err := LoadKnowledge(ctx, s.db, siteID)
	if err != nil {
		s.log.Errorw("assistant knowledge load failed",
			"site", siteID, "err", err)
		know = &Knowledge{}
	}
	mock := &Mock{SiteName: siteName, Website: "https://" + siteHost}

	if s.client == nil {
		metrics.AssistantRequestsTotal.WithLabelValues(SourceMock).Inc()
		return &Reply{Message: mock.Respond(message, know), Source: SourceMock}, nil
	}

	text, err := s.generate(ctx, message, know, history)
	if err != nil {
		s.log.Errorw("assistant model call failed, answering from mock",
			"site", siteID,
			"model", s.cfg.Model,
			"err", err)
		metrics.AssistantRequestsTotal.WithLabelValues(SourceMockFallback).Inc()
		return &Reply{Message: mock.Respond(message, know), Source: SourceMockFallback}, nil
	}

	metrics.AssistantRequestsTotal.WithLabelValues(SourceGenAI).Inc()
	return &Reply{Message: text, Source: SourceGenAI}, nil
}

func (s *Service) generate(ctx context.Context, message string, know *Knowledge, history []Turn) (string, error) {
	system := know.Prompt(s.cfg.SystemPrompt, DetectLanguage(message))

	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.RoleUser
		if turn.Role == "assistant" || turn.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	resp, err := s.client.Models.GenerateContent(ctx, s.cfg.Model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(float32(s.cfg.Temperature)),
		TopP:              genai.Ptr(float32(s.cfg.TopP)),
		MaxOutputTokens:   int32(s.cfg.MaxOutputTokens),
	})
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}
