// Package export renders finished conversations to external file formats.
package export

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/GuilermoT/BlackStory2/internal/core"
)

// Format represents an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatText     Format = "text"
	FormatPDF      Format = "pdf"
)

// ParseFormat maps a user-supplied tag to a Format, accepting the common
// extension spellings.
func ParseFormat(tag string) (Format, error) {
	switch tag {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", tag)
	}
}

// Exporter renders a conversation to a writer.
type Exporter interface {
	Export(conv *core.Conversation, w io.Writer) error
	FileExtension() string
}

// GetExporter returns an exporter for the given format.
func GetExporter(format Format) (Exporter, error) {
	switch format {
	case FormatMarkdown:
		return &MarkdownExporter{}, nil
	case FormatJSON:
		return &JSONExporter{}, nil
	case FormatText:
		return &TextExporter{}, nil
	case FormatPDF:
		return &PDFExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// Saver writes rendered conversations into an output directory.
type Saver struct {
	outputDir string
}

// NewSaver creates a saver targeting the given directory.
func NewSaver(outputDir string) *Saver {
	return &Saver{outputDir: outputDir}
}

// Save renders the conversation in the requested format and writes it to
// <output_dir>/blackstory_<timestamp>.<ext>, creating the directory if
// absent. An unsupported format is a logged no-op, not a fault; I/O errors
// are returned for the caller to log.
func (s *Saver) Save(conv *core.Conversation, format Format) (string, error) {
	exporter, err := GetExporter(format)
	if err != nil {
		slog.Error("Unsupported save format, skipping export", "format", format)
		return "", nil
	}

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", s.outputDir, err)
	}

	filename := fmt.Sprintf("blackstory_%s.%s", time.Now().Format("20060102_150405"), exporter.FileExtension())
	path := filepath.Join(s.outputDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := exporter.Export(conv, f); err != nil {
		return "", fmt.Errorf("export to %s: %w", path, err)
	}
	return path, nil
}

func formatResult(result core.Outcome) string {
	switch result {
	case core.OutcomeWin:
		return "Victory (detective)"
	case core.OutcomeLoss:
		return "Defeat (detective)"
	default:
		return "Unfinished"
	}
}
