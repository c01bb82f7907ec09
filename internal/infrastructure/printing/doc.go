// Package printing renders printable documents and archives them.
//
// This package contains:
//   - HTMLRenderer: a standalone page with inline CSS, a QR code, a manual
//     print button and an auto-print retry script
//   - ChromedpRenderer: headless Chrome HTML to PDF
//   - FPDFRenderer: pure-Go PDF for hosts without Chrome
//   - Registry: picks a renderer per format, or ErrRendererUnavailable
//   - FileSystemStorage: local archive laid out as {kind}/{yyyy}/{mm}/{id}.{ext}
//
// Example usage:
//
//	html, err := NewHTMLRenderer(HTMLConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	registry := NewRegistry(html, nil)
//	r, err := registry.For(printing.FormatPDF) // ErrRendererUnavailable
package printing
