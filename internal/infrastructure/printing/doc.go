// Package printing renders label sheets to PDF through a headless Chrome.
//
// Labels are laid out with html/template and printed with chromedp:
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{NoSandbox: true})
//	if err != nil {
//	    return err
//	}
//	defer renderer.Close()
//
//	printer := NewLabelPrinter(renderer, LabelLayout{})
//	pdf, err := printer.RenderLabels(ctx, LabelSheet{Title: "MAT UID", Labels: labels})
package printing
