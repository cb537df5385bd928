package printing

import (
	"bytes"
	"context"
	"html/template"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Label is one printed label: a scannable code plus free text lines
type Label struct {
	Code  string
	Lines []string
}

// LabelSheet is a batch of labels printed together
type LabelSheet struct {
	Title  string
	Labels []Label
}

// LabelLayout sets the page each label is printed on
type LabelLayout struct {
	Paper   PaperSize
	Margins Margins
	// FontFamily defaults to a monospace stack
	FontFamily string
}

func (l LabelLayout) withDefaults() LabelLayout {
	if !l.Paper.IsValid() {
		l.Paper = PaperLabel100
	}
	if l.FontFamily == "" {
		l.FontFamily = "'DejaVu Sans Mono', 'Noto Sans Mono CJK KR', monospace"
	}
	return l
}

var labelFuncs = template.FuncMap{
	"title": cases.Title(language.Und).String,
	"upper": cases.Upper(language.Und).String,
	"mm": func(v float64) template.CSS {
		return template.CSS(strconv.FormatFloat(v, 'f', -1, 64) + "mm")
	},
}

const labelTemplate = `<!DOCTYPE html>
<html><head><meta charset="UTF-8"><title>{{.Title | title}}</title>
<style>
@page { size: {{mm .Layout.Paper.WidthMM}} {{mm .Layout.Paper.HeightMM}}; margin: 0; }
body { margin: 0; font-family: {{.Font}}; }
.label { box-sizing: border-box; width: {{mm .Layout.Paper.WidthMM}}; height: {{mm .Layout.Paper.HeightMM}}; padding: 2mm; page-break-after: always; overflow: hidden; }
.label:last-child { page-break-after: auto; }
.code { font-size: 14pt; font-weight: bold; letter-spacing: 1px; border: 1px solid #000; padding: 1mm; text-align: center; }
.line { font-size: 9pt; white-space: nowrap; overflow: hidden; text-overflow: ellipsis; }
</style></head><body>
{{range .Labels}}<div class="label"><div class="code">{{upper .Code}}</div>{{range .Lines}}<div class="line">{{.}}</div>{{end}}</div>
{{end}}</body></html>`

var labelTmpl = template.Must(template.New("labels").Funcs(labelFuncs).Parse(labelTemplate))

// LabelPrinter lays label sheets out as HTML and renders them through a PDFRenderer
type LabelPrinter struct {
	renderer PDFRenderer
	layout   LabelLayout
}

// NewLabelPrinter creates a new LabelPrinter
func NewLabelPrinter(renderer PDFRenderer, layout LabelLayout) *LabelPrinter {
	return &LabelPrinter{renderer: renderer, layout: layout.withDefaults()}
}

// HTML renders the sheet to an HTML document, one page per label
func (p *LabelPrinter) HTML(sheet LabelSheet) (string, error) {
	var buf bytes.Buffer
	err := labelTmpl.Execute(&buf, struct {
		Title  string
		Labels []Label
		Layout LabelLayout
		Font   template.CSS
	}{sheet.Title, sheet.Labels, p.layout, template.CSS(p.layout.FontFamily)})
	if err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "label template failed", err)
	}
	return buf.String(), nil
}

// RenderLabels renders the sheet to PDF
func (p *LabelPrinter) RenderLabels(ctx context.Context, sheet LabelSheet) ([]byte, error) {
	if len(sheet.Labels) == 0 {
		return nil, NewRenderError(ErrCodeInvalidHTML, "label sheet is empty", nil)
	}
	doc, err := p.HTML(sheet)
	if err != nil {
		return nil, err
	}
	res, err := p.renderer.Render(ctx, &RenderRequest{
		HTML:      doc,
		PaperSize: p.layout.Paper,
		Margins:   p.layout.Margins,
		Title:     sheet.Title,
	})
	if err != nil {
		return nil, err
	}
	return res.PDFData, nil
}
