package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/GuilermoT/BlackStory2/internal/core"
)

// TextExporter exports conversations to plain text.
type TextExporter struct{}

// Export writes the conversation as plain text.
func (e *TextExporter) Export(conv *core.Conversation, w io.Writer) error {
	var sb strings.Builder

	sb.WriteString("=== BLACK STORY GAME ===\n")
	sb.WriteString(fmt.Sprintf("Date: %s\n", conv.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Model 1: %s (%s, Story Master)\n", conv.Model1Name, conv.Model1Provider))
	sb.WriteString(fmt.Sprintf("Model 2: %s (%s, Detective)\n", conv.Model2Name, conv.Model2Provider))
	sb.WriteString(fmt.Sprintf("Result: %s\n", formatResult(conv.Result)))
	sb.WriteString(fmt.Sprintf("Questions: %d/%d\n\n---\n\n", conv.QuestionsUsed, conv.MaxQuestions))

	for _, msg := range conv.Messages {
		meta := fmt.Sprintf("(%.2fs", msg.ResponseTime.Seconds())
		if msg.Tokens > 0 {
			meta += fmt.Sprintf(", %d tokens", msg.Tokens)
		}
		meta += ")"

		sb.WriteString(fmt.Sprintf("[%s] %s %s:\n", msg.Timestamp.Format("15:04:05"), strings.ToUpper(string(msg.Role)), meta))
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// FileExtension returns the file extension for plain text.
func (e *TextExporter) FileExtension() string {
	return "txt"
}
