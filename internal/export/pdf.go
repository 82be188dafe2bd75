// Package export renders room history into printable documents.
package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/vovakirdan/wireboard-server/internal/core"
)

const (
	pageMargin = 10.0        // mm
	pxToMM     = 25.4 / 96.0 // CSS pixel at 96 dpi
	minLineMM  = 0.1
)

// PDF writes the strokes of room as line segments on a single A4 page, scaled
// down to fit when the drawing is larger than the page.
func PDF(w io.Writer, room string, history []core.Stroke) error {
	p := gofpdf.New("P", "mm", "A4", "")
	p.SetTitle("wireboard room "+room, true)
	p.SetCreator("wireboard-server", true)
	p.AddPage()

	p.SetFont("Helvetica", "", 8)
	p.SetTextColor(128, 128, 128)
	p.Text(pageMargin, pageMargin-3, fmt.Sprintf("room %s, %d strokes", room, len(history)))

	pageW, pageH := p.GetPageSize()
	fit := fitBox(history, pageW-2*pageMargin, pageH-2*pageMargin)

	p.SetLineCapStyle("round")
	for _, s := range history {
		r, g, b := parseColor(s.Style.Color)
		p.SetDrawColor(r, g, b)
		p.SetLineWidth(math.Max(s.Style.Width*fit.scale, minLineMM))

		x1, y1 := fit.apply(s.Start)
		x2, y2 := fit.apply(s.End)
		p.Line(x1, y1, x2, y2)
	}

	if err := p.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type transform struct {
	minX, minY float64
	scale      float64
}

func (t transform) apply(pt core.Point) (float64, float64) {
	return pageMargin + (pt.X-t.minX)*t.scale, pageMargin + (pt.Y-t.minY)*t.scale
}

// fitBox maps the bounding box of history into a width x height area.
// Drawings that already fit keep their physical size.
func fitBox(history []core.Stroke, width, height float64) transform {
	if len(history) == 0 {
		return transform{scale: pxToMM}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range history {
		for _, pt := range []core.Point{s.Start, s.End} {
			minX = math.Min(minX, pt.X)
			minY = math.Min(minY, pt.Y)
			maxX = math.Max(maxX, pt.X)
			maxY = math.Max(maxY, pt.Y)
		}
	}

	scale := pxToMM
	if spanX := maxX - minX; spanX > 0 {
		scale = math.Min(scale, width/spanX)
	}
	if spanY := maxY - minY; spanY > 0 {
		scale = math.Min(scale, height/spanY)
	}
	return transform{minX: minX, minY: minY, scale: scale}
}

// parseColor accepts #rgb and #rrggbb. Anything else renders black.
func parseColor(s string) (int, int, int) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
