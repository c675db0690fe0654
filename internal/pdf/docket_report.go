package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"lexflow/internal/models"
)

// Generator renders reports; an interface so handlers can be tested with
// a stub.
type Generator interface {
	GenerateDeadlineDocket(data DocketData) ([]byte, error)
}

type DocketData struct {
	GeneratedAt time.Time
	Horizon     string // e.g. "next 7 days"
	Deadlines   []models.Deadline
}

type ReportGenerator struct{}

func NewReportGenerator() *ReportGenerator {
	return &ReportGenerator{}
}

// GenerateDeadlineDocket renders the critical-deadline docket as a PDF.
func (g *ReportGenerator) GenerateDeadlineDocket(data DocketData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Deadline docket", false)
	pdf.SetAuthor("LexFlow", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, "DEADLINE DOCKET", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	sub := fmt.Sprintf("%s, generated %s", data.Horizon, data.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	if len(data.Deadlines) == 0 {
		pdf.SetFont("Arial", "I", 12)
		pdf.CellFormat(0, 8, "No deadlines in this window.", "", 1, "L", false, 0, "")
	}

	for _, d := range data.Deadlines {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 7, fmt.Sprintf("%s - %s", d.Date.Format("Mon Jan 2, 2006"), d.Title), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		g.kvLine(pdf, "Case", fmt.Sprintf("#%d", d.CaseID))
		g.kvLine(pdf, "Type", string(d.Type))
		g.kvLine(pdf, "Priority", string(d.Priority))
		g.kvLine(pdf, "Status", string(d.Status))
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render docket pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	x, y := pdf.GetXY()
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	pdf.Line(left, y, pageW-right, y)
	pdf.SetXY(x, y+1)
}

func (g *ReportGenerator) kvLine(pdf *gofpdf.Fpdf, key, value string) {
	pdf.CellFormat(35, 6, key+":", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}
