package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/config"
)

func mockModeService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	svc, err := NewService(context.Background(), db, zap.NewNop().Sugar(), config.Assistant{
		APIKey:       "your-api-key",
		Model:        "gemini-2.0-flash",
		SystemPrompt: "You are the site assistant.",
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, mock
}

func TestPlaceholderKeySelectsMockMode(t *testing.T) {
	svc, _ := mockModeService(t)
	if svc.Live() {
		t.Fatal("placeholder key produced a live client")
	}
}

func TestChatAnswersFromMock(t *testing.T) {
	svc, mock := mockModeService(t)

	pages := sqlmock.NewRows([]string{"title", "path", "meta_description", "body_html"}).
		AddRow("Consulting", "/consulting", "", "")
	expectKnowledge(mock, 3, pages, emptyTrainingRows())

	reply, err := svc.Chat(context.Background(), 3, "Acme", "acme.example.com",
		"what services do you offer", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.Source != SourceMock {
		t.Fatalf("source = %q, want %q", reply.Source, SourceMock)
	}
	if !strings.Contains(reply.Message, "Consulting") {
		t.Fatalf("reply %q misses knowledge title", reply.Message)
	}
}

func TestChatSurvivesKnowledgeFailure(t *testing.T) {
	svc, mock := mockModeService(t)
	mock.ExpectQuery(knowledgePagesRx).WithArgs(int64(3)).
		WillReturnError(errors.New("server has gone away"))

	reply, err := svc.Chat(context.Background(), 3, "Acme", "acme.example.com", "hello", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.Source != SourceMock || reply.Message == "" {
		t.Fatalf("reply = %+v", reply)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	svc, _ := mockModeService(t)

	_, err := svc.Chat(context.Background(), 3, "Acme", "acme.example.com", "   ", nil)
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
}
