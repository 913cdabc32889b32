package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/GuilermoT/BlackStory2/internal/core"
)

// MarkdownExporter exports conversations to Markdown.
type MarkdownExporter struct{}

// Export writes the conversation as Markdown.
func (e *MarkdownExporter) Export(conv *core.Conversation, w io.Writer) error {
	var sb strings.Builder

	sb.WriteString("# Black Story Game\n\n")
	sb.WriteString(fmt.Sprintf("**Date:** %s\n", conv.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("**Model 1:** %s (%s, Story Master)\n", conv.Model1Name, conv.Model1Provider))
	sb.WriteString(fmt.Sprintf("**Model 2:** %s (%s, Detective)\n", conv.Model2Name, conv.Model2Provider))
	sb.WriteString(fmt.Sprintf("**Result:** %s\n", formatResult(conv.Result)))
	sb.WriteString(fmt.Sprintf("**Questions used:** %d/%d\n\n---\n\n", conv.QuestionsUsed, conv.MaxQuestions))

	for _, msg := range conv.Messages {
		emoji := "🎭"
		switch msg.Role {
		case core.RoleDetective:
			emoji = "🔍"
		case core.RoleModerator:
			emoji = "🧑‍⚖️"
		}
		sb.WriteString(fmt.Sprintf("## %s %s [%s] ⚡%.2fs\n",
			emoji, msg.Role, msg.Timestamp.Format("15:04:05"), msg.ResponseTime.Seconds()))
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}
