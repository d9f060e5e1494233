package display

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	black uint8 = 0
	white uint8 = 1
)

var palette = color.Palette{color.Black, color.White}

var face = basicfont.Face7x13

// canvas is a two-colour drawing surface. Every primitive clips to the canvas bounds.
type canvas struct {
	img *image.Paletted
}

func newCanvas(width, height int) *canvas {
	img := image.NewPaletted(image.Rect(0, 0, width, height), palette)
	for i := range img.Pix {
		img.Pix[i] = white
	}
	return &canvas{img: img}
}

func (c *canvas) fillRect(r image.Rectangle, idx uint8) {
	r = r.Canon().Intersect(c.img.Rect)
	if r.Empty() {
		return
	}
	draw.Draw(c.img, r, image.NewUniform(palette[idx]), image.Point{}, draw.Src)
}

// strokeRect draws an outline of the given thickness inside r.
func (c *canvas) strokeRect(r image.Rectangle, thickness int, idx uint8) {
	r = r.Canon()
	if thickness < 1 {
		thickness = 1
	}
	c.fillRect(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), idx)
	c.fillRect(image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), idx)
	c.fillRect(image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), idx)
	c.fillRect(image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), idx)
}

// text draws s with its top-left corner at (x, y), each font pixel enlarged to scale x scale.
func (c *canvas) text(x, y int, s string, scale int, idx uint8) {
	if s == "" {
		return
	}
	if scale < 1 {
		scale = 1
	}
	w := font.MeasureString(face, s).Ceil()
	if w <= 0 {
		return
	}
	mask := image.NewAlpha(image.Rect(0, 0, w, face.Height))
	d := font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(s)

	for my := 0; my < face.Height; my++ {
		for mx := 0; mx < w; mx++ {
			if mask.AlphaAt(mx, my).A < 0x80 {
				continue
			}
			px, py := x+mx*scale, y+my*scale
			if scale == 1 {
				if (image.Point{X: px, Y: py}).In(c.img.Rect) {
					c.img.SetColorIndex(px, py, idx)
				}
				continue
			}
			c.fillRect(image.Rect(px, py, px+scale, py+scale), idx)
		}
	}
}

func charWidth(scale int) int {
	return face.Advance * scale
}

func lineHeight(scale int) int {
	return face.Height * scale
}

// fit truncates s so it occupies at most maxWidth pixels at scale.
func fit(s string, maxWidth, scale int) string {
	n := maxWidth / charWidth(scale)
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

// wrap breaks s on spaces into lines of at most maxChars characters. Words longer than a line are split.
func wrap(s string, maxChars int) []string {
	if maxChars <= 0 {
		return nil
	}
	var lines []string
	line := ""
	flush := func() {
		if line != "" {
			lines = append(lines, line)
			line = ""
		}
	}
	for _, word := range strings.Fields(s) {
		for len(word) > maxChars {
			flush()
			lines = append(lines, word[:maxChars])
			word = word[maxChars:]
		}
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= maxChars:
			line += " " + word
		default:
			flush()
			line = word
		}
	}
	flush()
	return lines
}
