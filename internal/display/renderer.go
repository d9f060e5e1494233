package display

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/bbernstein/shiptracker/internal/format"
	"github.com/bbernstein/shiptracker/internal/models"
)

const (
	// ContentType of every image produced by the renderer.
	ContentType = "image/bmp"

	// MaxDimension bounds either side of the display.
	MaxDimension = 4096

	// layout coordinates are authored for this size and scaled to the configured one
	refWidth  = 800
	refHeight = 480

	maxFieldLen = 64
)

var ErrNoRecord = errors.New("no position record to render")

// RenderResult is an encoded image of exactly Width x Height pixels.
type RenderResult struct {
	ImageBytes []byte
	Width      int
	Height     int
}

// Renderer turns position records and error conditions into display images.
// It holds only its dimensions, so one Renderer can serve concurrent requests.
type Renderer struct {
	width  int
	height int
}

func NewRenderer(width, height int) (*Renderer, error) {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("invalid display size %dx%d (each side must be 1..%d)", width, height, MaxDimension)
	}
	return &Renderer{width: width, height: height}, nil
}

func (r *Renderer) Width() int  { return r.width }
func (r *Renderer) Height() int { return r.height }

// Render draws the data layout for rec.
func (r *Renderer) Render(rec *models.PositionRecord) (RenderResult, error) {
	if rec == nil {
		return RenderResult{}, ErrNoRecord
	}
	l := r.layout()
	c := newCanvas(r.width, r.height)
	r.drawRecord(c, l, rec)
	r.drawStatusBar(c, l, "Last Update: "+format.FormatTimestamp(rec.ObservedAt))
	return r.result(c), nil
}

// RenderStale draws rec like Render but marks it as out of date in the status bar.
func (r *Renderer) RenderStale(rec *models.PositionRecord, reason Reason) (RenderResult, error) {
	if rec == nil {
		return RenderResult{}, ErrNoRecord
	}
	l := r.layout()
	c := newCanvas(r.width, r.height)
	r.drawRecord(c, l, rec)
	r.drawStatusBar(c, l, fmt.Sprintf("STALE (%s) Last Update: %s", reason.Title(), format.FormatTimestamp(rec.ObservedAt)))
	return r.result(c), nil
}

// RenderError draws the error layout. It needs no record and always succeeds.
// detail may contain newlines; each line is wrapped to the display width.
func (r *Renderer) RenderError(reason Reason, detail string) RenderResult {
	l := r.layout()
	c := newCanvas(r.width, r.height)

	c.strokeRect(image.Rect(l.x(10), l.y(10), r.width-l.x(10), r.height-l.y(10)), 2*l.border, black)
	c.strokeRect(image.Rect(l.x(18), l.y(18), r.width-l.x(18), r.height-l.y(18)), l.border, black)

	banner := image.Rect(l.x(30), l.y(30), r.width-l.x(30), l.y(80))
	c.fillRect(banner, black)
	title := fit(reason.Title(), banner.Dx()-l.x(20), l.titleScale)
	c.text(l.x(40), centreY(banner, l.titleScale), title, l.titleScale, white)

	if strings.TrimSpace(detail) == "" {
		detail = reason.DefaultDetail()
	}
	maxChars := (r.width - 2*l.x(40)) / charWidth(l.bodyScale)
	y := l.y(100)
	bottom := r.height - l.y(30)
	for _, paragraph := range strings.Split(detail, "\n") {
		for _, line := range wrap(format.Sanitize(paragraph, 0), maxChars) {
			if y+lineHeight(l.bodyScale) > bottom {
				return r.result(c)
			}
			c.text(l.x(40), y, line, l.bodyScale, black)
			y += lineHeight(l.bodyScale) + l.y(8)
		}
	}
	return r.result(c)
}

func (r *Renderer) drawRecord(c *canvas, l layout, rec *models.PositionRecord) {
	w := r.width

	c.strokeRect(image.Rect(l.x(10), l.y(10), w-l.x(10), r.height-l.y(10)), l.border, black)

	header := image.Rect(l.x(30), l.y(30), w-l.x(30), l.y(80))
	c.fillRect(header, black)
	name := fit(format.Sanitize(format.OrUnknown(rec.ShipName), maxFieldLen), header.Dx()-l.x(20), l.titleScale)
	c.text(l.x(40), centreY(header, l.titleScale), name, l.titleScale, white)

	mmsi, _ := format.FormatMMSI(rec.VesselID)
	ident := "MMSI: " + mmsi
	if rec.IMO != "" && rec.IMO != "0" {
		ident += "   IMO: " + format.Sanitize(rec.IMO, maxFieldLen)
	}
	voyage := "Destination: " + format.Sanitize(format.OrUnknown(rec.Destination), maxFieldLen)
	if rec.ETA != "" {
		voyage += "   ETA: " + format.Sanitize(rec.ETA, maxFieldLen)
	}
	textWidth := w - 2*l.x(40)
	c.text(l.x(40), l.y(90), fit(ident, textWidth, l.bodyScale), l.bodyScale, black)
	c.text(l.x(40), l.y(120), fit(voyage, textWidth, l.bodyScale), l.bodyScale, black)

	lat, lon := format.FormatCoordinates(rec.Latitude, rec.Longitude)
	r.drawSection(c, l, l.y(156), "Current Position", "Lat: "+lat, "Lon: "+lon)
	r.drawSection(c, l, l.y(236), "Navigation Data", "Speed: "+format.FormatSpeed(rec.SpeedKnots), "Course: "+format.FormatCourse(rec.CourseDegrees))

	var extras []string
	if rec.Heading != nil {
		extras = append(extras, fmt.Sprintf("Heading: %d deg", *rec.Heading))
	}
	if rec.Draught != nil {
		extras = append(extras, fmt.Sprintf("Draught: %.1f m", *rec.Draught))
	}
	if rec.Zone != "" {
		extras = append(extras, "Zone: "+format.Sanitize(rec.Zone, maxFieldLen))
	}
	if len(extras) > 0 {
		c.text(l.x(40), l.y(318), fit(strings.Join(extras, "   "), textWidth, l.smallScale), l.smallScale, black)
	}
}

// drawSection draws a caption followed by two outlined value boxes side by side.
func (r *Renderer) drawSection(c *canvas, l layout, top int, caption, left, right string) {
	w := r.width
	c.text(l.x(40), top, caption, l.smallScale, black)

	boxTop := top + l.y(18)
	boxBottom := boxTop + l.y(46)
	leftBox := image.Rect(l.x(40), boxTop, w/2-l.x(20), boxBottom)
	rightBox := image.Rect(w/2+l.x(20), boxTop, w-l.x(40), boxBottom)

	for _, box := range []struct {
		rect image.Rectangle
		text string
	}{{leftBox, left}, {rightBox, right}} {
		c.strokeRect(box.rect, l.border, black)
		c.text(box.rect.Min.X+l.x(10), centreY(box.rect, l.bodyScale), fit(box.text, box.rect.Dx()-l.x(20), l.bodyScale), l.bodyScale, black)
	}
}

func (r *Renderer) drawStatusBar(c *canvas, l layout, status string) {
	bar := image.Rect(l.x(10), r.height-l.y(40), r.width-l.x(10), r.height-l.y(10))
	c.fillRect(bar, black)
	status = format.Sanitize(status, 0)
	scale := l.bodyScale
	if len(status)*charWidth(scale) > bar.Dx()-l.x(20) || lineHeight(scale) > bar.Dy() {
		scale = l.smallScale
	}
	c.text(l.x(20), centreY(bar, scale), fit(status, bar.Dx()-l.x(20), scale), scale, white)
}

func (r *Renderer) result(c *canvas) RenderResult {
	return RenderResult{
		ImageBytes: encode(c.img),
		Width:      r.width,
		Height:     r.height,
	}
}

// layout scales reference coordinates and picks text sizes for the configured display.
type layout struct {
	width, height int
	titleScale    int
	bodyScale     int
	smallScale    int
	border        int
}

func (r *Renderer) layout() layout {
	unit := max(1, min(r.width/(refWidth/2), r.height/(refHeight/2)))
	return layout{
		width:      r.width,
		height:     r.height,
		titleScale: unit + unit/2,
		bodyScale:  unit,
		smallScale: max(unit/2, 1),
		border:     unit,
	}
}

func (l layout) x(v int) int { return v * l.width / refWidth }
func (l layout) y(v int) int { return v * l.height / refHeight }

// centreY returns the top of a line of text vertically centred in r.
func centreY(r image.Rectangle, scale int) int {
	return r.Min.Y + (r.Dy()-lineHeight(scale))/2
}
