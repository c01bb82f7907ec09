package printing

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/schoolerp/backend/internal/domain/printing"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

//go:embed templates/document.html
var documentTemplate string

const (
	htmlContentType = "text/html; charset=utf-8"
	qrSize          = 128
)

// HTMLConfig configures the HTML renderer
type HTMLConfig struct {
	// AutoPrint adds the window.print() retry script
	AutoPrint bool
	Logger    *zap.Logger
}

// HTMLRenderer renders a document as one standalone HTML page
type HTMLRenderer struct {
	tmpl      *template.Template
	autoPrint bool
	logger    *zap.Logger
}

type pageData struct {
	Doc       *printing.Document
	Issued    string
	Status    string
	Tone      printing.Tone
	QR        template.URL
	AutoPrint bool
}

// NewHTMLRenderer parses the document template.
func NewHTMLRenderer(cfg HTMLConfig) (*HTMLRenderer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tmpl, err := template.New("document").Funcs(template.FuncMap{
		"inc":   func(i int) int { return i + 1 },
		"money": FormatMoney,
	}).Parse(documentTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse document template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl, autoPrint: cfg.AutoPrint, logger: logger}, nil
}

// Format implements printing.Renderer.
func (r *HTMLRenderer) Format() printing.Format { return printing.FormatHTML }

// ContentType implements printing.Renderer.
func (r *HTMLRenderer) ContentType() string { return htmlContentType }

// Render implements printing.Renderer.
func (r *HTMLRenderer) Render(ctx context.Context, doc *printing.Document) (*printing.RenderResult, error) {
	start := time.Now()
	html, err := r.Page(doc, r.autoPrint)
	if err != nil {
		return nil, err
	}
	return &printing.RenderResult{
		Data:        html,
		ContentType: htmlContentType,
		Format:      printing.FormatHTML,
		Pages:       1,
		Duration:    time.Since(start),
	}, nil
}

// Page executes the template. autoPrint controls the print retry script.
func (r *HTMLRenderer) Page(doc *printing.Document, autoPrint bool) ([]byte, error) {
	if doc == nil {
		return nil, NewRenderError(ErrCodeInvalidInput, "document is nil", nil)
	}
	if err := doc.Validate(); err != nil {
		return nil, NewRenderError(ErrCodeInvalidInput, "document is not printable", err)
	}

	data := pageData{
		Doc:       doc,
		Issued:    doc.IssuedAt.Format("02 Jan 2006"),
		Status:    printing.TitleCase(doc.Status),
		Tone:      doc.Tone(),
		AutoPrint: autoPrint,
	}
	if doc.VerifyURL != "" {
		qr, err := qrDataURI(doc.VerifyURL)
		if err != nil {
			r.logger.Warn("QR code generation failed", zap.String("url", doc.VerifyURL), zap.Error(err))
		} else {
			data.QR = qr
		}
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "execute document template", err)
	}
	return buf.Bytes(), nil
}

func qrDataURI(content string) (template.URL, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}

// FormatMoney formats an amount with thousands separators and two
// decimals, prefixed by the currency symbol when set.
// Example: 1234.5 -> "Rs. 1,234.50"
func FormatMoney(currency string, d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	parts := strings.Split(d.StringFixed(2), ".")
	intPart := parts[0]
	decPart := "00"
	if len(parts) > 1 {
		decPart = parts[1]
	}

	var result strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}

	out := sign + result.String() + "." + decPart
	if currency != "" {
		out = currency + " " + out
	}
	return out
}

var _ printing.Renderer = (*HTMLRenderer)(nil)
