package printing

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/schoolerp/backend/internal/domain/printing"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

type rgb struct{ R, G, B int }

var (
	headerBlue = rgb{31, 58, 95}
	borderGray = rgb{210, 210, 210}
	totalFill  = rgb{238, 243, 250}
	toneColors = map[printing.Tone]rgb{
		printing.ToneSuccess: {30, 123, 52},
		printing.ToneWarning: {138, 97, 0},
		printing.ToneDanger:  {161, 33, 33},
		printing.ToneNeutral: {68, 68, 68},
	}
)

// FPDFRenderer lays the document out directly with gofpdf. It needs no
// browser and serves as the PDF renderer when Chrome is not configured.
type FPDFRenderer struct {
	paper   printing.PaperSize
	margins printing.Margins
	logger  *zap.Logger
}

// NewFPDFRenderer creates an A4 gofpdf renderer.
func NewFPDFRenderer(logger *zap.Logger) *FPDFRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FPDFRenderer{paper: printing.PaperSizeA4, margins: printing.DefaultMargins(), logger: logger}
}

// Format implements printing.Renderer.
func (r *FPDFRenderer) Format() printing.Format { return printing.FormatPDF }

// ContentType implements printing.Renderer.
func (r *FPDFRenderer) ContentType() string { return pdfContentType }

// Render implements printing.Renderer.
func (r *FPDFRenderer) Render(ctx context.Context, doc *printing.Document) (*printing.RenderResult, error) {
	if doc == nil {
		return nil, NewRenderError(ErrCodeInvalidInput, "document is nil", nil)
	}
	if err := doc.Validate(); err != nil {
		return nil, NewRenderError(ErrCodeInvalidInput, "document is not printable", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
	}
	start := time.Now()

	pdf := gofpdf.New("P", "mm", string(r.paper), "")
	m := r.margins
	pdf.SetMargins(float64(m.Left), float64(m.Top), float64(m.Right))
	pdf.SetAutoPageBreak(true, float64(m.Bottom))
	pdf.SetTitle(doc.Title+" "+doc.Reference(), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	width, _ := r.paper.Dimensions()
	contentWidth := float64(width - m.Left - m.Right)

	// Header
	pdf.SetTextColor(headerBlue.R, headerBlue.G, headerBlue.B)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentWidth*0.6, 9, tr(doc.School.Name), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentWidth*0.4, 9, tr(doc.Title), "", 1, "R", false, 0, "")

	pdf.SetTextColor(85, 85, 85)
	pdf.SetFont("Helvetica", "", 9)
	contact := []string{doc.School.Address, doc.School.Phone, doc.School.Email}
	right := []string{"No. " + doc.Reference(), "Issued " + doc.IssuedAt.Format("02 Jan 2006")}
	for i := 0; i < len(contact) || i < len(right); i++ {
		var l, rt string
		if i < len(contact) {
			l = contact[i]
		}
		if i < len(right) {
			rt = right[i]
		}
		pdf.CellFormat(contentWidth*0.6, 5, tr(l), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentWidth*0.4, 5, tr(rt), "", 1, "R", false, 0, "")
	}

	tone := toneColors[doc.Tone()]
	pdf.SetTextColor(tone.R, tone.G, tone.B)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentWidth, 6, tr(printing.TitleCase(doc.Status)), "", 1, "R", false, 0, "")

	pdf.SetDrawColor(headerBlue.R, headerBlue.G, headerBlue.B)
	pdf.SetLineWidth(0.6)
	y := pdf.GetY() + 1
	pdf.Line(float64(m.Left), y, float64(m.Left)+contentWidth, y)
	pdf.Ln(5)

	// Metadata, two columns
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	for i, f := range doc.Fields {
		ln := 0
		if i%2 == 1 || i == len(doc.Fields)-1 {
			ln = 1
		}
		pdf.CellFormat(contentWidth/2, 6, tr(f.Label+": "+f.Value), "", ln, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Line items
	widths := []float64{12, contentWidth - 12 - 45, 45}
	pdf.SetLineWidth(0.2)
	pdf.SetFillColor(headerBlue.R, headerBlue.G, headerBlue.B)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetDrawColor(borderGray.R, borderGray.G, borderGray.B)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range []string{"#", "Description", "Amount"} {
		align := "L"
		if i == 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	for i, it := range doc.Items {
		pdf.CellFormat(widths[0], 7, fmt.Sprint(i+1), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(it.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, tr(FormatMoney(doc.School.Currency, it.Amount)), "1", 1, "R", false, 0, "")
	}
	pdf.SetFillColor(totalFill.R, totalFill.G, totalFill.B)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1], 8, "Total", "1", 0, "L", true, 0, "")
	pdf.CellFormat(widths[2], 8, tr(FormatMoney(doc.School.Currency, doc.Total)), "1", 1, "R", true, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(contentWidth, 5, tr("Amount in words: "+doc.AmountInWords), "", "L", false)
	if doc.Notes != "" {
		pdf.MultiCell(contentWidth, 5, tr("Remarks: "+doc.Notes), "", "L", false)
	}

	if doc.VerifyURL != "" {
		if png, err := qrcode.Encode(doc.VerifyURL, qrcode.Medium, qrSize); err != nil {
			r.logger.Warn("QR code generation failed", zap.String("url", doc.VerifyURL), zap.Error(err))
		} else {
			opts := gofpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader("verify-qr", opts, bytes.NewReader(png))
			pdf.ImageOptions("verify-qr", float64(m.Left)+contentWidth-28, pdf.GetY()+4, 28, 28, false, opts, 0, "")
		}
	}
	pdf.SetY(pdf.GetY() + 6)
	pdf.SetTextColor(102, 102, 102)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentWidth-30, 5, "This is a computer generated document.", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "gofpdf output failed", err)
	}

	return &printing.RenderResult{
		Data:        buf.Bytes(),
		ContentType: pdfContentType,
		Format:      printing.FormatPDF,
		Pages:       pdf.PageNo(),
		Duration:    time.Since(start),
	}, nil
}

// estimatePageCount counts "/Type /Page" objects, excluding the parent
// "/Type /Pages" node.
func estimatePageCount(pdfData []byte) int {
	count := bytes.Count(pdfData, []byte("/Type /Page")) - bytes.Count(pdfData, []byte("/Type /Pages"))
	return max(count, 1)
}

var _ printing.Renderer = (*FPDFRenderer)(nil)
