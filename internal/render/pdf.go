package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ledongthuc/pdf"
)

// PDFRenderer is the external layout/rasterization collaborator: it accepts
// a full HTML document and returns paginated bytes plus the page count.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) (data []byte, pages int, err error)
}

// ChromiumRenderer prints HTML through a headless Chromium instance.
type ChromiumRenderer struct {
	timeout time.Duration
}

// NewChromiumRenderer builds the renderer. timeout bounds a single print run.
func NewChromiumRenderer(timeout time.Duration) *ChromiumRenderer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChromiumRenderer{timeout: timeout}
}

// RenderPDF loads the document into a fresh page and prints it to A4 PDF.
func (r *ChromiumRenderer) RenderPDF(ctx context.Context, html string) (_ []byte, _ int, err error) {
	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	defer func() {
		if err != nil {
			launch.Cleanup()
		}
	}()

	if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, 0, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(browserURL).Context(ctx).Timeout(r.timeout)
	if err := browser.Connect(); err != nil {
		return nil, 0, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
		launch.Cleanup()
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, 0, fmt.Errorf("open blank page: %w", err)
	}
	defer func() { _ = page.Close() }()

	if err := page.SetDocumentContent(html); err != nil {
		return nil, 0, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, 0, fmt.Errorf("wait document load: %w", err)
	}

	data, err := exportPDF(page)
	if err != nil {
		return nil, 0, err
	}

	pages, err := CountPages(data)
	if err != nil {
		return nil, 0, err
	}
	return data, pages, nil
}

func exportPDF(page *rod.Page) ([]byte, error) {
	params := &proto.PagePrintToPDF{
		PrintBackground:   true,
		PaperWidth:        float64Ptr(8.27),
		PaperHeight:       float64Ptr(11.69),
		MarginTop:         float64Ptr(0.4),
		MarginBottom:      float64Ptr(0.4),
		MarginLeft:        float64Ptr(0.4),
		MarginRight:       float64Ptr(0.4),
		PreferCSSPageSize: true,
	}
	reader, err := page.PDF(params)
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}
	return data, nil
}

// CountPages parses the produced PDF and returns its page count.
func CountPages(data []byte) (int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pdf: %w", err)
	}
	return r.NumPage(), nil
}

func float64Ptr(value float64) *float64 {
	return &value
}
