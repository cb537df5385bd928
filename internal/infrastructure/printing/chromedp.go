package printing

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultRenderTimeout = 30 * time.Second
	defaultMaxTabs       = 4
)

// ChromedpConfig configures the headless Chrome used to print labels
type ChromedpConfig struct {
	// Timeout bounds one render, including the wait for a free tab
	Timeout time.Duration
	// RemoteURL points at a running Chrome's DevTools endpoint. Empty launches
	// a local headless Chrome on first use.
	RemoteURL string
	// NoSandbox is needed when Chrome runs as root inside a container
	NoSandbox bool
	// MaxTabs caps concurrent renders; a print burst from several lines queues
	MaxTabs int
	Logger  *zap.Logger
}

// ChromedpRenderer prints HTML to PDF in tabs of one shared browser
type ChromedpRenderer struct {
	config ChromedpConfig
	logger *zap.Logger
	tabs   chan struct{}

	mu            sync.Mutex
	browser       context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

// NewChromedpRenderer creates a renderer. Chrome is not started until the
// first label is printed.
func NewChromedpRenderer(config *ChromedpConfig) (*ChromedpRenderer, error) {
	cfg := ChromedpConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRenderTimeout
	}
	if cfg.MaxTabs <= 0 {
		cfg.MaxTabs = defaultMaxTabs
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &ChromedpRenderer{
		config: cfg,
		logger: log.Named("printing"),
		tabs:   make(chan struct{}, cfg.MaxTabs),
	}, nil
}

func (r *ChromedpRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if r.config.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	return opts
}

// browserContext starts the shared browser once and returns its context
func (r *ChromedpRenderer) browserContext() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	var alloc context.Context
	if r.config.RemoteURL != "" {
		alloc, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.config.RemoteURL)
	} else {
		alloc, r.allocCancel = chromedp.NewExecAllocator(context.Background(), r.allocatorOptions()...)
	}
	browser, cancel := chromedp.NewContext(alloc, chromedp.WithLogf(func(format string, args ...any) {
		r.logger.Debug(fmt.Sprintf(format, args...))
	}))
	// Run with no actions starts the browser
	if err := chromedp.Run(browser); err != nil {
		cancel()
		r.allocCancel()
		r.allocCancel = nil
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to start chrome", err)
	}
	r.browser, r.browserCancel = browser, cancel
	r.logger.Info("Label browser started", zap.String("remote_url", r.config.RemoteURL), zap.Int("max_tabs", r.config.MaxTabs))
	return browser, nil
}

// Render prints req to PDF. Labels size their pages with CSS @page; the
// request's paper size is the fallback for documents that do not.
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if ctx.Err() != nil {
		return nil, renderContextError(ctx, timeout, ctx.Err())
	}

	select {
	case r.tabs <- struct{}{}:
		defer func() { <-r.tabs }()
	case <-ctx.Done():
		return nil, renderContextError(ctx, timeout, ctx.Err())
	}

	browser, err := r.browserContext()
	if err != nil {
		return nil, err
	}
	tab, closeTab := chromedp.NewContext(browser)
	defer closeTab()
	// the tab must die with the request
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	start := time.Now()
	var pdf []byte
	err = chromedp.Run(tab,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, document(req)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = printParams(req).Do(ctx)
			return err
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, renderContextError(ctx, timeout, err)
		}
		r.logger.Error("Label rendering failed", zap.String("title", req.Title), zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chrome failed to print", err)
	}
	if len(pdf) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "chrome returned an empty PDF", nil)
	}

	res := &RenderResult{PDFData: pdf, PageCount: countPages(pdf), RenderDuration: time.Since(start)}
	r.logger.Debug("Labels rendered",
		zap.String("title", req.Title),
		zap.Int("pages", res.PageCount),
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", res.RenderDuration))
	return res, nil
}

// Close shuts the shared browser down
func (r *ChromedpRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browserCancel != nil {
		r.browserCancel()
		r.browserCancel = nil
	}
	if r.allocCancel != nil {
		r.allocCancel()
		r.allocCancel = nil
	}
	r.browser = nil
	return nil
}

func validateRequest(req *RenderRequest) error {
	if req == nil {
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	}
	if strings.TrimSpace(req.HTML) == "" {
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	if !req.PaperSize.IsValid() {
		return NewRenderError(ErrCodeInvalidPaperSize,
			fmt.Sprintf("invalid paper size: %vx%v", req.PaperSize.WidthMM, req.PaperSize.HeightMM), nil)
	}
	return nil
}

func renderContextError(ctx context.Context, timeout time.Duration, cause error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewRenderError(ErrCodeRenderTimeout, fmt.Sprintf("label rendering timed out after %v", timeout), cause)
	}
	return NewRenderError(ErrCodeRenderTimeout, "label rendering was cancelled", cause)
}

// printParams maps the request onto Chrome's print settings, which take inches
func printParams(req *RenderRequest) *page.PrintToPDFParams {
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithPreferCSSPageSize(true).
		WithPaperWidth(mmToInches(req.PaperSize.WidthMM)).
		WithPaperHeight(mmToInches(req.PaperSize.HeightMM)).
		WithMarginTop(mmToInches(req.Margins.Top)).
		WithMarginRight(mmToInches(req.Margins.Right)).
		WithMarginBottom(mmToInches(req.Margins.Bottom)).
		WithMarginLeft(mmToInches(req.Margins.Left)).
		WithLandscape(req.Landscape)
}

// document returns req.HTML as a full document, wrapping a bare fragment
func document(req *RenderRequest) string {
	lower := strings.ToLower(req.HTML)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return req.HTML
	}
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8">`)
	if req.Title != "" {
		b.WriteString("<title>" + html.EscapeString(req.Title) + "</title>")
	}
	b.WriteString("</head><body>")
	b.WriteString(req.HTML)
	b.WriteString("</body></html>")
	return b.String()
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}

// countPages counts page objects in the PDF, leaving out the page tree nodes
func countPages(pdf []byte) int {
	s := string(pdf)
	n := strings.Count(s, "/Type /Page") - strings.Count(s, "/Type /Pages")
	return max(n, 1)
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)
