package display

import (
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"

	"imgtools/common"
	"imgtools/viewport"
)

var _ viewport.Display = (*Window)(nil)

// Window is an OpenCV highgui window used as the viewport display
type Window struct {
	window *gocv.Window
}

// NewWindow opens a resizable window sized to fit an image of the given size
func NewWindow(title string, size image.Point) *Window {
	w := gocv.NewWindow(title)
	w.ResizeWindow(size.X, size.Y)
	return &Window{window: w}
}

// Show draws img, letting the window scale it to its current size
func (w *Window) Show(img image.Image) error {
	mat, err := toMat(img)
	if err != nil {
		return err
	}
	defer mat.Close()

	w.window.IMShow(mat)
	return nil
}

// PollKey pumps window events for up to timeout and returns the low byte
// of the pressed key, or viewport.NoKey
func (w *Window) PollKey(timeout time.Duration) viewport.Key {
	ms := max(1, int(timeout/time.Millisecond))
	key := w.window.WaitKey(ms)
	if key < 0 || key&0xFF == 0xFF {
		return viewport.NoKey
	}
	return viewport.Key(key & 0xFF)
}

// SelectRegion runs OpenCV's drag-a-box selection over img
func (w *Window) SelectRegion(img image.Image) (image.Rectangle, error) {
	mat, err := toMat(img)
	if err != nil {
		return image.Rectangle{}, err
	}
	defer mat.Close()

	return w.window.SelectROI(mat), nil
}

func (w *Window) Close() error {
	return w.window.Close()
}

// toMat converts img to a BGR(A) Mat, keeping alpha only when the image has it
func toMat(img image.Image) (gocv.Mat, error) {
	var (
		mat gocv.Mat
		err error
	)
	if common.HasAlpha(img) {
		mat, err = gocv.ImageToMatRGBA(img)
	} else {
		mat, err = gocv.ImageToMatRGB(img)
	}
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to convert image for display: %w", err)
	}
	return mat, nil
}
