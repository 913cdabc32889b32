package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/GuilermoT/BlackStory2/internal/core"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// DefaultDBPath returns the default archive database path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "blackstory.db"
	}
	return filepath.Join(home, ".blackstory", "blackstory.db")
}

// NewSQLiteStore creates a new SQLite archive at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Initialize creates the database schema.
func (s *SQLiteStore) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		model1_name TEXT NOT NULL,
		model1_provider TEXT NOT NULL,
		model2_name TEXT NOT NULL,
		model2_provider TEXT NOT NULL,
		max_questions INTEGER NOT NULL,
		questions_used INTEGER NOT NULL,
		result TEXT NOT NULL DEFAULT '',
		full_solution TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		role TEXT NOT NULL,
		model_name TEXT NOT NULL,
		provider TEXT NOT NULL,
		content TEXT NOT NULL,
		response_time_ms INTEGER NOT NULL DEFAULT 0,
		tokens INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_turns_game_id ON turns(game_id);
	CREATE INDEX IF NOT EXISTS idx_games_started_at ON games(started_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveConversation archives a finished game and all its turns atomically.
func (s *SQLiteStore) SaveConversation(conv *core.Conversation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Re-archiving the same game replaces it wholesale.
	if _, err := tx.Exec(`DELETE FROM turns WHERE game_id = ?`, conv.ID); err != nil {
		return fmt.Errorf("failed to clear previous turns: %w", err)
	}

	_, err = tx.Exec(`
	INSERT OR REPLACE INTO games (id, model1_name, model1_provider, model2_name, model2_provider, max_questions, questions_used, result, full_solution, started_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conv.ID,
		conv.Model1Name,
		conv.Model1Provider,
		conv.Model2Name,
		conv.Model2Provider,
		conv.MaxQuestions,
		conv.QuestionsUsed,
		string(conv.Result),
		conv.FullSolution,
		conv.StartTime,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}

	for seq, msg := range conv.Messages {
		id := msg.ID
		if id == "" {
			id = core.GenerateID()
		}
		_, err = tx.Exec(`
		INSERT INTO turns (id, game_id, seq, role, model_name, provider, content, response_time_ms, tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id,
			conv.ID,
			seq,
			string(msg.Role),
			msg.ModelName,
			msg.Provider,
			msg.Content,
			msg.ResponseTime.Milliseconds(),
			msg.Tokens,
			msg.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert turn %d: %w", seq, err)
		}
	}

	return tx.Commit()
}

// GetConversation loads an archived game with its turns in order.
func (s *SQLiteStore) GetConversation(id string) (*core.Conversation, error) {
	conv := &core.Conversation{}
	var result string
	err := s.db.QueryRow(`
	SELECT id, model1_name, model1_provider, model2_name, model2_provider, max_questions, questions_used, result, full_solution, started_at
	FROM games WHERE id = ?`, id).Scan(
		&conv.ID,
		&conv.Model1Name,
		&conv.Model1Provider,
		&conv.Model2Name,
		&conv.Model2Provider,
		&conv.MaxQuestions,
		&conv.QuestionsUsed,
		&result,
		&conv.FullSolution,
		&conv.StartTime,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	conv.Result = core.Outcome(result)

	rows, err := s.db.Query(`
	SELECT id, role, model_name, provider, content, response_time_ms, tokens, created_at
	FROM turns WHERE game_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		msg := &core.Message{}
		var role string
		var responseMs int64
		if err := rows.Scan(&msg.ID, &role, &msg.ModelName, &msg.Provider, &msg.Content, &responseMs, &msg.Tokens, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		msg.Role = core.Role(role)
		msg.ResponseTime = time.Duration(responseMs) * time.Millisecond
		conv.AddMessage(msg)
	}
	return conv, rows.Err()
}

// ListGames returns archived game summaries, newest first.
func (s *SQLiteStore) ListGames(limit, offset int) ([]*GameSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
	SELECT id, model1_name, model2_name, result, questions_used, max_questions, started_at
	FROM games ORDER BY started_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var summaries []*GameSummary
	for rows.Next() {
		sum := &GameSummary{}
		var result string
		if err := rows.Scan(&sum.ID, &sum.Model1, &sum.Model2, &result, &sum.QuestionsUsed, &sum.MaxQuestions, &sum.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game summary: %w", err)
		}
		sum.Result = core.Outcome(result)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// DeleteGame removes an archived game and its turns.
func (s *SQLiteStore) DeleteGame(id string) error {
	result, err := s.db.Exec(`DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("game not found: %s", id)
	}
	return nil
}
