// Package render draws match render snapshots as images.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/fogleman/gg"

	"soccer-arena/internal/match"
)

// Minimum on-screen radii; real sizes are far below a pixel at small scales.
const (
	minPlayerRadius = 6.0
	minBallRadius   = 3.0
)

var (
	pitchColor = color.RGBA{34, 120, 50, 255}
	lineColor  = color.RGBA{235, 245, 235, 255}
	textColor  = color.RGBA{255, 255, 255, 255}
)

// Renderer maps field-space meters onto a fixed canvas.
type Renderer struct {
	Width, Height int
	Margin        float64 // pixels around the pitch
}

// New returns a renderer for a width x height canvas.
func New(width, height int) *Renderer {
	return &Renderer{Width: width, Height: height, Margin: 24}
}

// transform returns the scale (pixels per meter) and the canvas position of
// the field origin.
func (r *Renderer) transform(f match.Field) (scale, ox, oy float64) {
	length := f.Length + 2*f.GoalDepth
	sx := (float64(r.Width) - 2*r.Margin) / length
	sy := (float64(r.Height) - 2*r.Margin) / f.Width
	scale = math.Min(sx, sy)
	return scale, float64(r.Width) / 2, float64(r.Height) / 2
}

// Render draws snap. +y in field space points up on screen.
func (r *Renderer) Render(snap match.Snapshot) image.Image {
	dc := gg.NewContext(r.Width, r.Height)
	dc.SetColor(pitchColor)
	dc.DrawRectangle(0, 0, float64(r.Width), float64(r.Height))
	dc.Fill()

	f := snap.Field
	if f.Length <= 0 || f.Width <= 0 {
		return dc.Image()
	}
	scale, ox, oy := r.transform(f)
	px := func(x float64) float64 { return ox + x*scale }
	py := func(y float64) float64 { return oy - y*scale }

	r.drawPitch(dc, f, scale, px, py)

	for _, e := range snap.Entities {
		x, y := px(e.X), py(e.Y)
		switch e.Type {
		case "ball":
			rad := math.Max(e.Radius*scale, minBallRadius)
			dc.SetColor(parseHexColor(e.Color))
			dc.DrawCircle(x, y, rad)
			dc.Fill()
			dc.SetColor(color.Black)
			dc.SetLineWidth(1)
			dc.DrawCircle(x, y, rad)
			dc.Stroke()
		default:
			rad := math.Max(e.Radius*scale, minPlayerRadius)
			dc.SetColor(color.RGBA{0, 0, 0, 80})
			dc.DrawCircle(x+1, y+2, rad)
			dc.Fill()
			dc.SetColor(parseHexColor(e.Color))
			dc.DrawCircle(x, y, rad)
			dc.Fill()
			if e.Kickable {
				dc.SetColor(color.RGBA{255, 230, 0, 255})
				dc.SetLineWidth(2)
				dc.DrawCircle(x, y, rad+2)
				dc.Stroke()
			}
			// Facing marker.
			dc.SetColor(color.White)
			dc.SetLineWidth(2)
			dc.DrawLine(x, y, x+math.Cos(e.Facing)*rad, y-math.Sin(e.Facing)*rad)
			dc.Stroke()
			if e.Jersey > 0 {
				dc.DrawStringAnchored(fmt.Sprint(e.Jersey), x, y-rad-6, 0.5, 0.5)
			}
		}
	}

	dc.SetColor(textColor)
	dc.DrawStringAnchored(
		fmt.Sprintf("%d - %d   %d/%d", snap.Score.Left, snap.Score.Right, snap.Frame, snap.TotalFrames),
		float64(r.Width)/2, r.Margin/2, 0.5, 0.5)
	return dc.Image()
}

func (r *Renderer) drawPitch(dc *gg.Context, f match.Field, scale float64, px, py func(float64) float64) {
	hl, hw := f.Length/2, f.Width/2
	dc.SetColor(lineColor)
	dc.SetLineWidth(2)

	dc.DrawRectangle(px(-hl), py(hw), f.Length*scale, f.Width*scale)
	dc.Stroke()
	dc.DrawLine(px(0), py(hw), px(0), py(-hw))
	dc.Stroke()
	dc.DrawCircle(px(0), py(0), 9.15*scale)
	dc.Stroke()
	dc.DrawCircle(px(0), py(0), 2)
	dc.Fill()

	// Goals sit outside the end lines.
	gw := f.GoalWidth / 2
	for _, side := range []float64{-1, 1} {
		x0 := px(side * hl)
		x1 := px(side * (hl + f.GoalDepth))
		dc.DrawRectangle(math.Min(x0, x1), py(gw), math.Abs(x1-x0), f.GoalWidth*scale)
		dc.Stroke()
	}
}

// EncodePNG renders snap and writes it as PNG.
func (r *Renderer) EncodePNG(w io.Writer, snap match.Snapshot) error {
	if err := png.Encode(w, r.Render(snap)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func parseHexColor(hex string) color.RGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return color.RGBA{255, 255, 255, 255}
	}
	var r, g, b uint8
	fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b)
	return color.RGBA{r, g, b, 255}
}
