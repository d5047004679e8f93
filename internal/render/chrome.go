package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ErrRenderTimeout is returned when the browser does not finish in time.
var ErrRenderTimeout = errors.New("pdf render timed out")

// A4 in inches, as the DevTools print API expects.
const (
	a4WidthIn  = 8.27
	a4HeightIn = 11.69
	printScale = 0.8
)

// ChromePDFRenderer prints the HTML page through headless Chrome: A4, no
// margins, backgrounds on, scaled to 0.8. A fresh browser runs per document
// and is torn down on every exit path.
type ChromePDFRenderer struct {
	html     *HTMLRenderer
	timeout  time.Duration
	execPath string
}

func NewChromePDFRenderer(html *HTMLRenderer, timeout time.Duration, execPath string) *ChromePDFRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromePDFRenderer{html: html, timeout: timeout, execPath: execPath}
}

func (*ChromePDFRenderer) Engine() string { return "chrome" }

func (c *ChromePDFRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.NoSandbox, chromedp.DisableGPU)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}
	return opts
}

func (c *ChromePDFRenderer) RenderPDF(ctx context.Context, doc Document) ([]byte, error) {
	html, err := c.html.RenderHTML(doc)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, c.allocatorOptions()...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var out []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithScale(printScale).
				WithPaperWidth(a4WidthIn).
				WithPaperHeight(a4HeightIn).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			out = buf
			return err
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrRenderTimeout, c.timeout)
		}
		return nil, fmt.Errorf("chrome print: %w", err)
	}
	return out, nil
}
