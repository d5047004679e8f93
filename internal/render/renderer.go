package render

import (
	"context"

	"github.com/diewo77/invoice-api/internal/models"
)

// Renderer lays out invoices with fixed brand assets and options and hands
// the Document to the HTML template or the configured PDF backend.
type Renderer struct {
	html   *HTMLRenderer
	pdf    PDFRenderer
	assets Assets
	opts   Options
}

func New(html *HTMLRenderer, pdf PDFRenderer, assets Assets, opts Options) *Renderer {
	return &Renderer{html: html, pdf: pdf, assets: assets, opts: opts}
}

// Engine names the PDF backend.
func (r *Renderer) Engine() string { return r.pdf.Engine() }

func (r *Renderer) Document(inv *models.Invoice) Document {
	return Layout(inv, r.assets, r.opts)
}

// PDF renders inv and returns the bytes with the download file name.
func (r *Renderer) PDF(ctx context.Context, inv *models.Invoice) ([]byte, string, error) {
	doc := r.Document(inv)
	out, err := r.pdf.RenderPDF(ctx, doc)
	if err != nil {
		return nil, "", err
	}
	return out, doc.FileName, nil
}

// HTML renders the preview page of inv.
func (r *Renderer) HTML(inv *models.Invoice) ([]byte, error) {
	return r.html.RenderHTML(r.Document(inv))
}
