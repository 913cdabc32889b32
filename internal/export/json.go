package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/GuilermoT/BlackStory2/internal/core"
)

// JSONExporter exports conversations to JSON.
type JSONExporter struct{}

// Document is the JSON export shape: run metadata plus turns in transcript
// order, timestamps as RFC 3339 text.
type Document struct {
	Metadata Metadata          `json:"metadata"`
	Messages []DocumentMessage `json:"messages"`
}

// Metadata describes one game run.
type Metadata struct {
	Date          time.Time   `json:"date"`
	Model1        Participant `json:"model1"`
	Model2        Participant `json:"model2"`
	Result        string      `json:"result"`
	QuestionsUsed int         `json:"questions_used"`
	MaxQuestions  int         `json:"max_questions"`
}

// Participant identifies one side of the game.
type Participant struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Role     string `json:"role"`
}

// DocumentMessage is one serialized turn.
type DocumentMessage struct {
	Role            string    `json:"role"`
	ModelName       string    `json:"model_name"`
	Provider        string    `json:"provider"`
	Content         string    `json:"content"`
	Timestamp       time.Time `json:"timestamp"`
	ResponseSeconds float64   `json:"response_time"`
	Tokens          int       `json:"tokens,omitempty"`
}

// Export writes the conversation as an indented JSON document.
func (e *JSONExporter) Export(conv *core.Conversation, w io.Writer) error {
	doc := Document{
		Metadata: Metadata{
			Date:          conv.StartTime,
			Model1:        Participant{Name: conv.Model1Name, Provider: conv.Model1Provider, Role: string(core.RoleStoryMaster)},
			Model2:        Participant{Name: conv.Model2Name, Provider: conv.Model2Provider, Role: string(core.RoleDetective)},
			Result:        string(conv.Result),
			QuestionsUsed: conv.QuestionsUsed,
			MaxQuestions:  conv.MaxQuestions,
		},
		Messages: make([]DocumentMessage, 0, len(conv.Messages)),
	}

	for _, msg := range conv.Messages {
		doc.Messages = append(doc.Messages, DocumentMessage{
			Role:            string(msg.Role),
			ModelName:       msg.ModelName,
			Provider:        msg.Provider,
			Content:         msg.Content,
			Timestamp:       msg.Timestamp,
			ResponseSeconds: msg.ResponseTime.Seconds(),
			Tokens:          msg.Tokens,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return "json"
}

// ReadJSON decodes a JSON export back into a conversation. Participant
// names, turn order and contents, and the final outcome round-trip exactly.
func ReadJSON(r io.Reader) (*core.Conversation, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode conversation document: %w", err)
	}

	conv := &core.Conversation{
		Model1Name:     doc.Metadata.Model1.Name,
		Model1Provider: doc.Metadata.Model1.Provider,
		Model2Name:     doc.Metadata.Model2.Name,
		Model2Provider: doc.Metadata.Model2.Provider,
		MaxQuestions:   doc.Metadata.MaxQuestions,
		QuestionsUsed:  doc.Metadata.QuestionsUsed,
		StartTime:      doc.Metadata.Date,
		Result:         core.Outcome(doc.Metadata.Result),
	}
	for _, msg := range doc.Messages {
		conv.AddMessage(&core.Message{
			Role:         core.Role(msg.Role),
			ModelName:    msg.ModelName,
			Provider:     msg.Provider,
			Content:      msg.Content,
			Timestamp:    msg.Timestamp,
			ResponseTime: time.Duration(msg.ResponseSeconds * float64(time.Second)),
			Tokens:       msg.Tokens,
		})
	}
	return conv, nil
}
