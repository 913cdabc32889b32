// Package core contains the core domain types for blackstory.
package core

import (
	"time"
)

// Role identifies who authored a message in the transcript.
type Role string

const (
	RoleStoryMaster Role = "Story Master"
	RoleDetective   Role = "Detective"
	RoleModerator   Role = "Moderator"
)

// Outcome is the final result of a game.
type Outcome string

const (
	OutcomeUnset Outcome = ""
	OutcomeWin   Outcome = "win"
	OutcomeLoss  Outcome = "loss"
)

// Message is a single turn in the conversation. Once appended to a
// Conversation it is never mutated; observers receive it read-only.
type Message struct {
	ID           string        `json:"id"`
	Role         Role          `json:"role"`
	ModelName    string        `json:"model_name"`
	Provider     string        `json:"provider"`
	Content      string        `json:"content"`
	Timestamp    time.Time     `json:"timestamp"`
	ResponseTime time.Duration `json:"response_time"`
	Tokens       int           `json:"tokens,omitempty"`
}

// Conversation is the full ordered record of one game: participants, turn
// budget, the secret solution, every turn in order and the final outcome.
// Index 0 is always the opening story turn.
type Conversation struct {
	ID             string     `json:"id"`
	Model1Name     string     `json:"model1_name"`
	Model1Provider string     `json:"model1_provider"`
	Model2Name     string     `json:"model2_name"`
	Model2Provider string     `json:"model2_provider"`
	MaxQuestions   int        `json:"max_questions"`
	FullSolution   string     `json:"full_solution"`
	StartTime      time.Time  `json:"start_time"`
	Messages       []*Message `json:"messages"`
	QuestionsUsed  int        `json:"questions_used"`
	Result         Outcome    `json:"result"`
}

// NewConversation creates an empty conversation for the given participants.
func NewConversation(model1Name, model1Provider, model2Name, model2Provider string, maxQuestions int) *Conversation {
	return &Conversation{
		ID:             GenerateID(),
		Model1Name:     model1Name,
		Model1Provider: model1Provider,
		Model2Name:     model2Name,
		Model2Provider: model2Provider,
		MaxQuestions:   maxQuestions,
		StartTime:      time.Now(),
	}
}

// AddMessage appends a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
}

// Situation returns the detective-facing story text, i.e. the content of the
// opening turn. Empty until the story has been generated.
func (c *Conversation) Situation() string {
	if len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[0].Content
}

// LastMessage returns the most recent message, or nil for an empty transcript.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// Finished reports whether the game reached a terminal outcome.
func (c *Conversation) Finished() bool {
	return c.Result != OutcomeUnset
}
