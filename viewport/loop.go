package viewport

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"imgtools/common"
)

// PollInterval is how long each iteration waits for a key
const PollInterval = time.Millisecond

// ErrAborted is returned when the user leaves with Escape
var ErrAborted = errors.New("aborted by user")

// Display is the windowing backend the viewport draws on
type Display interface {
	// Show draws img in the window, scaled to fit
	Show(img image.Image) error
	// PollKey waits up to timeout for a key press and returns NoKey if none came
	PollKey(timeout time.Duration) Key
	// SelectRegion lets the user drag a box over img and returns it in img's coordinates
	SelectRegion(img image.Image) (image.Rectangle, error)
	Close() error
}

// Controls lists the key bindings shown to the user before the loop starts
var Controls = []string{
	"'=' - Zoom in",
	"'-' - Zoom out",
	"'w' - Pan up",
	"'a' - Pan left",
	"'s' - Pan down",
	"'d' - Pan right",
	"'r' - Reset zoom and pan",
	"'Enter' - Submit",
	"'Esc' - Exit program",
}

// Run shows img on d and lets the user zoom and pan until Enter or Escape.
// On Enter it returns the visible part of the image, cropped to start at (0, 0).
// On Escape it returns ErrAborted.
func Run(d Display, img image.Image, log logrus.FieldLogger) (image.Image, error) {
	state := New(img.Bounds().Size())
	view := image.Image(common.Crop(img, image.Rectangle{Max: state.Size}))

	log.Info("Zoom and pan the image using the following controls:")
	for _, c := range Controls {
		log.Info("  " + c)
	}

	for {
		// Very small images can round to an empty rectangle at high zoom;
		// the last non-empty view stays on screen then
		if rect := state.Visible(); !rect.Empty() {
			view = common.Crop(img, rect)
		}
		if err := d.Show(view); err != nil {
			return nil, fmt.Errorf("failed to show image: %w", err)
		}

		key := d.PollKey(PollInterval)
		if key == NoKey {
			continue
		}
		log.WithField("key", key.String()).Debug("Key pressed")

		next, action := Apply(state, key)
		switch action {
		case ActionSubmit:
			log.Info("Submitted zoom and pan")
			return view, nil
		case ActionAbort:
			log.Info("Exiting program")
			return nil, ErrAborted
		}

		if next != state {
			log.WithField("state", next.String()).Debug("Viewport changed")
		}
		state = next
	}
}
