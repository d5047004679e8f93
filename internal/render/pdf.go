package render

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer produces PDF bytes for a Document.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, doc Document) ([]byte, error)
	Engine() string
}

// A4 in millimetres.
const (
	pageW   = 210.0
	pageH   = 297.0
	marginX = 16.0
	marginY = 16.0
	lineH   = 5.0
)

//go:embed fonts/DejaVuSansCondensed.ttf
var dejaVuRegular []byte

//go:embed fonts/DejaVuSansCondensed-Bold.ttf
var dejaVuBold []byte

//go:embed fonts/DejaVuSansCondensed-Oblique.ttf
var dejaVuOblique []byte

const fontFamily = "Body"

// Fonts holds the TrueType faces the native renderer embeds. Text is written
// as UTF-8, so any script the faces cover prints as-is.
type Fonts struct {
	Regular []byte
	Bold    []byte
	Italic  []byte
}

// DefaultFonts are the bundled DejaVu Sans Condensed faces (Latin, Greek,
// Cyrillic and more; no CJK).
func DefaultFonts() Fonts {
	return Fonts{Regular: dejaVuRegular, Bold: dejaVuBold, Italic: dejaVuOblique}
}

// SingleFont uses one face for every style, e.g. a CJK font shipped without
// bold or italic variants.
func SingleFont(ttf []byte) Fonts {
	return Fonts{Regular: ttf, Bold: ttf, Italic: ttf}
}

// NativePDFRenderer draws the Document with gofpdf and embedded UTF-8 fonts.
// It needs no external browser. SVG card icons are printed as text labels.
type NativePDFRenderer struct {
	fonts Fonts
}

func NewNativePDFRenderer() *NativePDFRenderer { return NewNativePDFRendererWithFonts(DefaultFonts()) }

// NewNativePDFRendererWithFonts falls back to the bundled face for any style left empty.
func NewNativePDFRendererWithFonts(f Fonts) *NativePDFRenderer {
	def := DefaultFonts()
	if len(f.Regular) == 0 {
		f.Regular = def.Regular
	}
	if len(f.Bold) == 0 {
		f.Bold = def.Bold
	}
	if len(f.Italic) == 0 {
		f.Italic = def.Italic
	}
	return &NativePDFRenderer{fonts: f}
}

func (*NativePDFRenderer) Engine() string { return "native" }

// newPDF starts an A4 document with the body font family registered.
func (r *NativePDFRenderer) newPDF() (*gofpdf.Fpdf, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(fontFamily, "", r.fonts.Regular)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", r.fonts.Bold)
	pdf.AddUTF8FontFromBytes(fontFamily, "I", r.fonts.Italic)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("gofpdf fonts: %w", err)
	}
	return pdf, nil
}

func (r *NativePDFRenderer) RenderPDF(ctx context.Context, doc Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pdf, err := r.newPDF()
	if err != nil {
		return nil, err
	}
	pdf.SetTitle(doc.Title+" "+doc.Number, true)
	pdf.SetCreator("invoice-api", true)
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)
	pdf.AddPage()
	contentW := pageW - 2*marginX
	colW := contentW / 3

	// Header: title and bill-to, logo and meta, company block.
	top := pdf.GetY()
	pdf.SetFont(fontFamily, "B", 24)
	pdf.CellFormat(colW, 12, doc.Title, "", 2, "L", false, 0, "")
	pdf.Ln(2)
	writeParty(pdf, marginX, colW, doc.BillTo)
	leftBottom := pdf.GetY()

	x := marginX + colW
	pdf.SetXY(x, top)
	if logo := doc.Assets.Logo; logo != nil && logo.MIME == "image/png" {
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(logo.Data))
		if pdf.Ok() {
			pdf.ImageOptions("logo", x, top, 35, 0, true, opts, 0, "")
		} else {
			// unreadable logo: print without it
			pdf.ClearError()
		}
		pdf.SetX(x)
	}
	for _, f := range doc.Meta {
		pdf.SetX(x)
		pdf.SetFont(fontFamily, "B", 9)
		pdf.CellFormat(colW, lineH, f.Label, "", 2, "L", false, 0, "")
		pdf.SetFont(fontFamily, "", 10)
		pdf.CellFormat(colW, lineH, f.Value, "", 2, "L", false, 0, "")
		pdf.Ln(1)
	}
	midBottom := pdf.GetY()

	pdf.SetXY(marginX+2*colW, top)
	writeParty(pdf, marginX+2*colW, colW, doc.Company)
	pdf.SetY(max(leftBottom, midBottom, pdf.GetY()) + 8)

	// Items.
	widths := [4]float64{contentW * 0.46, contentW * 0.14, contentW * 0.18, contentW * 0.22}
	pdf.SetFont(fontFamily, "B", 10)
	for i, c := range doc.Columns {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 7, c, "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont(fontFamily, "", 10)
	for _, r := range doc.Rows {
		pdf.CellFormat(widths[0], 7, r.Description, "B", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, r.Quantity, "B", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, r.UnitPrice, "B", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, r.Amount, "B", 1, "R", false, 0, "")
	}
	pdf.Ln(2)
	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, doc.TotalLabel, "T", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, doc.Total, "T", 1, "R", false, 0, "")
	pdf.Ln(8)

	// Payment.
	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(contentW, 7, "Due Date: "+doc.Payment.DueDate, "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(contentW, lineH, doc.Payment.Note, "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont(fontFamily, "B", 10)
	pdf.CellFormat(contentW, lineH, "Bank Details", "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	for _, f := range doc.Payment.Bank {
		pdf.CellFormat(contentW, lineH, f.Label+": "+f.Value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	pdf.CellFormat(contentW, lineH, doc.Payment.QuoteNote, "", 1, "L", false, 0, "")
	if len(doc.Assets.Cards) > 0 {
		pdf.SetFont(fontFamily, "B", 8)
		for _, c := range doc.Assets.Cards {
			pdf.CellFormat(pdf.GetStringWidth(c.Label())+6, 6, c.Label(), "1", 0, "C", false, 0, "")
			pdf.SetX(pdf.GetX() + 2)
		}
		pdf.Ln(8)
	}
	if doc.Payment.PayLink != "" {
		pdf.SetFont(fontFamily, "BU", 10)
		pdf.SetTextColor(11, 87, 208)
		pdf.CellFormat(pdf.GetStringWidth(doc.Payment.PayLinkText)+2, lineH, doc.Payment.PayLinkText, "", 1, "L", false, 0, doc.Payment.PayLink)
		pdf.SetTextColor(0, 0, 0)
	}

	// Payment advice slip, pinned to the bottom of the page when it fits.
	slipH := 58.0
	slipTop := pageH - marginY - slipH
	if pdf.GetY()+6 > slipTop {
		pdf.AddPage()
		slipTop = marginY
	}
	pdf.SetDrawColor(136, 136, 136)
	pdf.SetDashPattern([]float64{2, 1.5}, 0)
	pdf.Line(marginX, slipTop, pageW-marginX, slipTop)
	pdf.SetDashPattern([]float64{}, 0)
	pdf.SetDrawColor(0, 0, 0)

	pdf.SetXY(marginX, slipTop+4)
	pdf.SetFont(fontFamily, "B", 14)
	pdf.CellFormat(contentW, 8, doc.Slip.Title, "", 1, "L", false, 0, "")
	half := contentW / 2
	rowTop := pdf.GetY() + 2

	pdf.SetXY(marginX, rowTop)
	pdf.SetFont(fontFamily, "B", 10)
	pdf.CellFormat(half, lineH, "To:", "", 2, "L", false, 0, "")
	writeParty(pdf, marginX, half, doc.Slip.To)

	x = marginX + half
	pdf.SetXY(x, rowTop)
	labelW := 38.0
	for _, f := range doc.Slip.Rows {
		pdf.SetX(x)
		pdf.SetFont(fontFamily, "B", 10)
		pdf.CellFormat(labelW, 6, f.Label, "", 0, "L", false, 0, "")
		pdf.SetFont(fontFamily, "", 10)
		pdf.CellFormat(half-labelW, 6, f.Value, "", 1, "L", false, 0, "")
	}
	pdf.SetX(x)
	pdf.SetFont(fontFamily, "B", 10)
	pdf.CellFormat(labelW, 7, doc.Slip.AmountEnclosed, "", 0, "L", false, 0, "")
	pdf.CellFormat(half-labelW, 7, "", "B", 1, "L", false, 0, "")
	pdf.SetX(x)
	pdf.SetFont(fontFamily, "I", 8)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(half, lineH, doc.Slip.Hint, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("gofpdf output: %w", err)
	}
	return buf.Bytes(), nil
}

func writeParty(pdf *gofpdf.Fpdf, x, w float64, p Party) {
	pdf.SetX(x)
	pdf.SetFont(fontFamily, "B", 10)
	pdf.CellFormat(w, lineH, p.Name, "", 2, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	for _, l := range p.Lines {
		pdf.SetX(x)
		pdf.CellFormat(w, lineH, l, "", 2, "L", false, 0, "")
	}
}
