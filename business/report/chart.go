package report

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const (
	chartWidth  = 900
	chartHeight = 520
	marginLeft  = 90.0
	marginRight = 30.0
	marginTop   = 50.0
	marginBot   = 90.0
	maxXLabels  = 15
)

var (
	barColor  = color.NRGBA{R: 0x4c, G: 0x72, B: 0xb0, A: 0xff}
	axisColor = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	gridColor = color.NRGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
)

// RenderBarChart draws bars as a PNG into w.
func RenderBarChart(w io.Writer, title, xLabel, yLabel string, bars []Bar) error {
	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(color.White)
	dc.Clear()

	dc.SetColor(axisColor)
	dc.DrawStringAnchored(title, chartWidth/2, marginTop/2, 0.5, 0.5)

	plotW := chartWidth - marginLeft - marginRight
	plotH := chartHeight - marginTop - marginBot
	x0, y0 := marginLeft, marginTop+plotH

	maxV := 0.0
	for _, b := range bars {
		maxV = math.Max(maxV, b.Value)
	}
	if maxV == 0 {
		maxV = 1
	}

	// Horizontal grid with value ticks
	const ticks = 5
	for i := 0; i <= ticks; i++ {
		v := maxV * float64(i) / ticks
		y := y0 - plotH*float64(i)/ticks
		dc.SetColor(gridColor)
		dc.DrawLine(x0, y, x0+plotW, y)
		dc.Stroke()
		dc.SetColor(axisColor)
		dc.DrawStringAnchored(compact(v), x0-8, y, 1, 0.5)
	}

	if n := len(bars); n > 0 {
		slot := plotW / float64(n)
		step := (n + maxXLabels - 1) / maxXLabels
		for i, b := range bars {
			h := plotH * b.Value / maxV
			x := x0 + slot*float64(i) + slot*0.1
			dc.SetColor(barColor)
			dc.DrawRectangle(x, y0-h, slot*0.8, h)
			dc.Fill()

			if i%step == 0 {
				dc.SetColor(axisColor)
				dc.DrawStringAnchored(b.Label, x+slot*0.4, y0+14, 0.5, 0.5)
			}
		}
	}

	dc.SetColor(axisColor)
	dc.SetLineWidth(1.5)
	dc.DrawLine(x0, marginTop, x0, y0)
	dc.DrawLine(x0, y0, x0+plotW, y0)
	dc.Stroke()

	dc.DrawStringAnchored(xLabel, x0+plotW/2, chartHeight-marginBot/3, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), 18, y0-plotH/2)
	dc.DrawStringAnchored(yLabel, 18, y0-plotH/2, 0.5, 0.5)
	dc.Pop()

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func compact(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
