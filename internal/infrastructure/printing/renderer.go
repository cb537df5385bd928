package printing

import (
	"context"
	"time"
)

// PaperSize is a page size in millimeters
type PaperSize struct {
	WidthMM  float64
	HeightMM float64
}

// Common label and sheet sizes
var (
	PaperA4       = PaperSize{WidthMM: 210, HeightMM: 297}
	PaperLabel100 = PaperSize{WidthMM: 100, HeightMM: 50}
	PaperLabel60  = PaperSize{WidthMM: 60, HeightMM: 40}
)

// IsValid reports whether both dimensions are positive
func (p PaperSize) IsValid() bool {
	return p.WidthMM > 0 && p.HeightMM > 0
}

// Margins in millimeters
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// RenderRequest is one HTML document to print
type RenderRequest struct {
	HTML      string
	PaperSize PaperSize
	Landscape bool
	Margins   Margins
	// Title for the PDF document metadata
	Title string
	// Timeout overrides the default rendering timeout
	Timeout time.Duration
}

// RenderResult is the printed PDF
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer prints HTML to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError is a failed render; Code is one of the ErrCode constants
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Temporary reports whether printing the same sheet again may succeed:
// Chrome was busy, slow or had crashed.
func (e *RenderError) Temporary() bool {
	return e.Code == ErrCodeRenderTimeout || e.Code == ErrCodeRenderFailed
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeTemplateFailed   = "TEMPLATE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
