package cutout

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/sirupsen/logrus"

	"imgtools/common"
	"imgtools/viewport"
)

// ErrNoSelection is returned when the region selection was cancelled or empty
var ErrNoSelection = errors.New("no region selected")

// Tool cuts a user-selected region out of an image
type Tool struct {
	display viewport.Display
	log     logrus.FieldLogger
	save    common.SaveOptions
	exists  func(string) bool
}

// NewTool creates a cutout tool drawing on display
func NewTool(display viewport.Display, log logrus.FieldLogger, save common.SaveOptions) *Tool {
	return &Tool{
		display: display,
		log:     log,
		save:    save,
		exists:  fileExists,
	}
}

// Run loads the image at path and hands it to Cut.
func (t *Tool) Run(path string) (string, error) {
	img, err := common.LoadImage(path)
	if err != nil {
		return "", err
	}
	t.log.WithField("path", path).Info("Image loaded")

	return t.Cut(path, img)
}

// Cut lets the user zoom, pan and select a region of img, and saves that
// region next to path. It returns the save path. path is only used to name
// the output; img is never re-read from disk.
//
// The selection is made on the zoomed view, so its coordinates address the
// zoomed image, not the original.
func (t *Tool) Cut(path string, img image.Image) (string, error) {
	zoomed, err := viewport.Run(t.display, img, t.log)
	if err != nil {
		return "", err
	}

	box, err := t.display.SelectRegion(zoomed)
	if err != nil {
		return "", fmt.Errorf("failed to select region: %w", err)
	}

	cut, err := CutRegion(zoomed, box)
	if err != nil {
		return "", err
	}
	t.log.WithField("region", box.String()).Info("Cutting out region")

	savePath := common.CutoutPath(path, t.exists)
	t.log.WithField("path", savePath).Info("Saving cutout image")
	if err := common.SaveImage(savePath, cut, t.save); err != nil {
		return "", err
	}

	return savePath, nil
}

// CutRegion crops box out of img. box is relative to img's top-left corner
// and is clipped to the image.
func CutRegion(img image.Image, box image.Rectangle) (image.Image, error) {
	box = box.Canon().Intersect(image.Rectangle{Max: img.Bounds().Size()})
	if box.Empty() {
		return nil, ErrNoSelection
	}
	return common.Crop(img, box), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
