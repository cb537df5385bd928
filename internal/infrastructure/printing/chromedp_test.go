package printing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r, err := NewChromedpRenderer(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultRenderTimeout, r.config.Timeout)
	assert.Equal(t, defaultMaxTabs, cap(r.tabs))
	assert.Nil(t, r.browser, "chrome starts on first render")

	r, err = NewChromedpRenderer(&ChromedpConfig{Timeout: time.Second, MaxTabs: 1})
	require.NoError(t, err)
	assert.Equal(t, time.Second, r.config.Timeout)
	assert.Equal(t, 1, cap(r.tabs))
}

func TestPrintParams(t *testing.T) {
	p := printParams(&RenderRequest{
		HTML:      "<html>test</html>",
		PaperSize: PaperLabel100,
		Margins:   Margins{Top: 1, Right: 2, Bottom: 3, Left: 4},
	})

	assert.InDelta(t, mmToInches(100), p.PaperWidth, 0.001)
	assert.InDelta(t, mmToInches(50), p.PaperHeight, 0.001)
	assert.InDelta(t, mmToInches(1), p.MarginTop, 0.001)
	assert.InDelta(t, mmToInches(2), p.MarginRight, 0.001)
	assert.InDelta(t, mmToInches(3), p.MarginBottom, 0.001)
	assert.InDelta(t, mmToInches(4), p.MarginLeft, 0.001)
	assert.True(t, p.PreferCSSPageSize)
	assert.True(t, p.PrintBackground)
	assert.False(t, p.Landscape)

	assert.True(t, printParams(&RenderRequest{HTML: "x", PaperSize: PaperA4, Landscape: true}).Landscape)
}

func TestDocument(t *testing.T) {
	t.Run("full document is kept", func(t *testing.T) {
		doc := "<!DOCTYPE html><html><body>test</body></html>"
		assert.Equal(t, doc, document(&RenderRequest{HTML: doc}))
	})

	t.Run("fragment is wrapped", func(t *testing.T) {
		out := document(&RenderRequest{HTML: "<div>L1</div>", Title: "A<B"})
		assert.Contains(t, out, "<!DOCTYPE html>")
		assert.Contains(t, out, `<meta charset="UTF-8">`)
		assert.Contains(t, out, "<title>A&lt;B</title>")
		assert.Contains(t, out, "<body><div>L1</div></body>")
	})
}

func TestChromedpRenderer_RejectsBadRequests(t *testing.T) {
	r, err := NewChromedpRenderer(nil)
	require.NoError(t, err)

	var rerr *RenderError
	_, err = r.Render(context.Background(), nil)
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidHTML, rerr.Code)

	_, err = r.Render(context.Background(), &RenderRequest{HTML: "  \n", PaperSize: PaperA4})
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidHTML, rerr.Code)

	_, err = r.Render(context.Background(), &RenderRequest{HTML: "<p>x</p>"})
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidPaperSize, rerr.Code)
	assert.Nil(t, r.browser)
}

// With every tab busy a render gives up when its deadline passes, before
// Chrome is touched
func TestChromedpRenderer_WaitsForFreeTab(t *testing.T) {
	r, err := NewChromedpRenderer(&ChromedpConfig{MaxTabs: 1})
	require.NoError(t, err)
	r.tabs <- struct{}{}

	_, err = r.Render(context.Background(), &RenderRequest{HTML: "<p>x</p>", PaperSize: PaperLabel60, Timeout: 20 * time.Millisecond})
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeRenderTimeout, rerr.Code)
	assert.Contains(t, rerr.Message, "timed out")
	assert.Nil(t, r.browser)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Render(ctx, &RenderRequest{HTML: "<p>x</p>", PaperSize: PaperLabel60})
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "cancelled")
}

func TestCountPages(t *testing.T) {
	pdf := []byte("/Type /Pages /Type /Page /Type /Page /Type /Page")
	assert.Equal(t, 3, countPages(pdf))
	assert.Equal(t, 1, countPages([]byte("%PDF")))
}

func TestMmToInches(t *testing.T) {
	assert.InDelta(t, 1.0, mmToInches(25.4), 0.001)
	assert.InDelta(t, 8.2677, mmToInches(210), 0.001)
}

func TestChromedpRenderer_CloseBeforeStart(t *testing.T) {
	r, err := NewChromedpRenderer(nil)
	require.NoError(t, err)
	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close())
}
