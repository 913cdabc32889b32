// Package storage provides a local archive of finished games.
package storage

import (
	"time"

	"github.com/GuilermoT/BlackStory2/internal/core"
)

// Store defines the interface for the game archive.
type Store interface {
	// Initialize sets up the storage (creates tables, etc.)
	Initialize() error

	// Close closes the storage connection.
	Close() error

	SaveConversation(conv *core.Conversation) error
	GetConversation(id string) (*core.Conversation, error)
	ListGames(limit, offset int) ([]*GameSummary, error)
	DeleteGame(id string) error
}

// GameSummary is a lightweight representation for listing archived games.
type GameSummary struct {
	ID            string       `json:"id"`
	Model1        string       `json:"model1"`
	Model2        string       `json:"model2"`
	Result        core.Outcome `json:"result"`
	QuestionsUsed int          `json:"questions_used"`
	MaxQuestions  int          `json:"max_questions"`
	StartedAt     time.Time    `json:"started_at"`
}
