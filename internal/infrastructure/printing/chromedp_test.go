package printing

import (
	"testing"
	"time"

	"github.com/schoolerp/backend/internal/domain/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTMLRenderer(t *testing.T) *HTMLRenderer {
	t.Helper()
	r, err := NewHTMLRenderer(HTMLConfig{AutoPrint: true})
	require.NoError(t, err)
	return r
}

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r, err := NewChromedpRenderer(newTestHTMLRenderer(t), nil)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, defaultChromeTimeout, r.config.DefaultTimeout)
	assert.Equal(t, printing.PaperSizeA4, r.config.PaperSize)
	assert.Equal(t, printing.DefaultMargins(), r.config.Margins)
	assert.Equal(t, printing.FormatPDF, r.Format())
	assert.Equal(t, "application/pdf", r.ContentType())
}

func TestNewChromedpRenderer_RequiresHTML(t *testing.T) {
	_, err := NewChromedpRenderer(nil, &ChromedpConfig{})
	assert.Error(t, err)
}

func TestPrintParams_A4(t *testing.T) {
	r, err := NewChromedpRenderer(newTestHTMLRenderer(t), &ChromedpConfig{DefaultTimeout: time.Second})
	require.NoError(t, err)
	defer r.Close()

	params := r.printParams()

	// A4 is 210mm x 297mm
	assert.InDelta(t, mmToInches(210), params.paperWidth, 0.01)
	assert.InDelta(t, mmToInches(297), params.paperHeight, 0.01)
	assert.InDelta(t, mmToInches(12), params.marginTop, 0.01)
	assert.InDelta(t, mmToInches(12), params.marginLeft, 0.01)
}

func TestPrintParams_A5CustomMargins(t *testing.T) {
	margins, err := printing.NewMargins(5, 10, 15, 20)
	require.NoError(t, err)

	r, err := NewChromedpRenderer(newTestHTMLRenderer(t), &ChromedpConfig{
		PaperSize: printing.PaperSizeA5,
		Margins:   margins,
	})
	require.NoError(t, err)
	defer r.Close()

	params := r.printParams()

	assert.InDelta(t, mmToInches(148), params.paperWidth, 0.01)
	assert.InDelta(t, mmToInches(210), params.paperHeight, 0.01)
	assert.InDelta(t, mmToInches(5), params.marginTop, 0.01)
	assert.InDelta(t, mmToInches(10), params.marginRight, 0.01)
	assert.InDelta(t, mmToInches(15), params.marginBottom, 0.01)
	assert.InDelta(t, mmToInches(20), params.marginLeft, 0.01)
}

func TestMmToInches(t *testing.T) {
	tests := []struct {
		mm       float64
		expected float64
	}{
		{25.4, 1.0},
		{0, 0},
		{210, 8.267716535433071},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, mmToInches(tt.mm), 0.0001)
	}
}

func TestEstimatePageCount(t *testing.T) {
	assert.Equal(t, 1, estimatePageCount(nil))
	assert.Equal(t, 1, estimatePageCount([]byte("%PDF-1.4 /Type /Page")))
	assert.Equal(t, 2, estimatePageCount([]byte("/Type /Pages /Type /Page x /Type /Page")))
}
