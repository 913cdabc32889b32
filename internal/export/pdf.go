package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/GuilermoT/BlackStory2/internal/core"
)

// PDFExporter exports conversations to PDF.
type PDFExporter struct{}

// Export writes the conversation as PDF.
func (e *PDFExporter) Export(conv *core.Conversation, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, "Black Story Game", "", "C", false)
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 10)
	e.addMetadataRow(pdf, "Date:", conv.StartTime.Format("2006-01-02 15:04:05"))
	e.addMetadataRow(pdf, "Model 1:", fmt.Sprintf("%s (%s, Story Master)", conv.Model1Name, conv.Model1Provider))
	e.addMetadataRow(pdf, "Model 2:", fmt.Sprintf("%s (%s, Detective)", conv.Model2Name, conv.Model2Provider))
	e.addMetadataRow(pdf, "Result:", formatResult(conv.Result))
	e.addMetadataRow(pdf, "Questions:", fmt.Sprintf("%d/%d", conv.QuestionsUsed, conv.MaxQuestions))
	pdf.Ln(5)

	for _, msg := range conv.Messages {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}

		if msg.Role == core.RoleDetective {
			pdf.SetFillColor(200, 230, 255)
		} else {
			pdf.SetFillColor(230, 230, 230)
		}
		pdf.SetFont("Arial", "B", 10)
		header := fmt.Sprintf("%s [%s] %.2fs", msg.Role, msg.Timestamp.Format("15:04:05"), msg.ResponseTime.Seconds())
		pdf.CellFormat(0, 7, tr(header), "", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr(msg.Content), "", "L", false)
		pdf.Ln(3)
	}

	return pdf.Output(w)
}

func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}
