package viewport

import (
	"fmt"
	"image"
	"math"

	"github.com/samber/lo"
)

const (
	// ZoomStep is added or removed by one zoom key press
	ZoomStep = 0.1
	// MinZoom keeps the visible rectangle from collapsing or inverting
	MinZoom = 0.1
	// PanStep is the origin shift in source pixels for one pan key press
	PanStep = 10
)

// Key is a key code as reported by the display, or NoKey
type Key int

const (
	NoKey    Key = -1
	KeyEnter Key = 13
	KeyLF    Key = 10
	KeyEsc   Key = 27
)

func (k Key) String() string {
	switch k {
	case NoKey:
		return "none"
	case KeyEnter, KeyLF:
		return "Enter"
	case KeyEsc:
		return "Esc"
	}
	if k >= 0x20 && k < 0x7f {
		return string(rune(k))
	}
	return fmt.Sprintf("0x%02x", int(k))
}

// Action tells the loop what to do after a key press
type Action int

const (
	ActionNone Action = iota
	ActionSubmit
	ActionAbort
)

// State is the zoom/pan position of the viewport over an image of Size
type State struct {
	Zoom   float64
	Origin image.Point
	Size   image.Point
}

// New returns the initial state for an image of the given size:
// zoom 1 with the origin at the image center
func New(size image.Point) State {
	return State{
		Zoom:   1,
		Origin: image.Pt(size.X/2, size.Y/2),
		Size:   size,
	}
}

// Apply is the key transition function. It never mutates s.
func Apply(s State, key Key) (State, Action) {
	switch key {
	case '=':
		s.Zoom = roundZoom(s.Zoom + ZoomStep)
	case '-':
		s.Zoom = max(MinZoom, roundZoom(s.Zoom-ZoomStep))
	case 'w':
		s = s.pan(0, -PanStep)
	case 'a':
		s = s.pan(-PanStep, 0)
	case 's':
		s = s.pan(0, PanStep)
	case 'd':
		s = s.pan(PanStep, 0)
	case 'r':
		s = New(s.Size)
	case KeyEnter, KeyLF:
		return s, ActionSubmit
	case KeyEsc:
		return s, ActionAbort
	}
	return s, ActionNone
}

// roundZoom keeps zoom on one decimal so repeated steps do not drift
func roundZoom(z float64) float64 {
	return math.Round(z*10) / 10
}

// pan moves the origin. The origin may leave the image; Visible clamps the
// rectangle, which can then be empty.
func (s State) pan(dx, dy int) State {
	s.Origin = s.Origin.Add(image.Pt(dx, dy))
	return s
}

// Visible returns the part of the image shown at this zoom and origin,
// clamped to [0, width] x [0, height]
func (s State) Visible() image.Rectangle {
	halfW := float64(s.Size.X) / (2 * s.Zoom)
	halfH := float64(s.Size.Y) / (2 * s.Zoom)

	return image.Rect(
		lo.Clamp(int(float64(s.Origin.X)-halfW), 0, s.Size.X),
		lo.Clamp(int(float64(s.Origin.Y)-halfH), 0, s.Size.Y),
		lo.Clamp(int(float64(s.Origin.X)+halfW), 0, s.Size.X),
		lo.Clamp(int(float64(s.Origin.Y)+halfH), 0, s.Size.Y),
	)
}

func (s State) String() string {
	return fmt.Sprintf("zoom=%.1f origin=(%d,%d)", s.Zoom, s.Origin.X, s.Origin.Y)
}
