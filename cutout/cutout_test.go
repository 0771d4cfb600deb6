package cutout

import (
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"imgtools/common"
	"imgtools/viewport"
)

// scriptedDisplay presses the given keys and then answers the region selection
type scriptedDisplay struct {
	keys     []viewport.Key
	region   image.Rectangle
	selected image.Rectangle
}

func (d *scriptedDisplay) Show(image.Image) error { return nil }

func (d *scriptedDisplay) PollKey(time.Duration) viewport.Key {
	if len(d.keys) == 0 {
		return viewport.KeyEsc
	}
	k := d.keys[0]
	d.keys = d.keys[1:]
	return k
}

func (d *scriptedDisplay) SelectRegion(img image.Image) (image.Rectangle, error) {
	d.selected = img.Bounds()
	return d.region, nil
}

func (d *scriptedDisplay) Close() error { return nil }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// writeSource saves a 200x100 PNG where pixel (x, y) has R=x, G=y
func writeSource(t *testing.T, dir string) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), A: 0xff})
		}
	}

	path := filepath.Join(dir, "X.png")
	if err := common.SaveImage(path, img, common.SaveOptions{}); err != nil {
		t.Fatalf("Failed to create source image: %v", err)
	}
	return path
}

func TestRunCutsFromZoomedView(t *testing.T) {
	src := writeSource(t, t.TempDir())

	// Zoom 2 shows (50,25)-(150,75); the selection is relative to that view
	d := &scriptedDisplay{
		keys:   []viewport.Key{'=', '=', '=', '=', '=', '=', '=', '=', '=', '=', viewport.KeyEnter},
		region: image.Rect(10, 5, 30, 15),
	}

	tool := NewTool(d, quietLogger(), common.SaveOptions{})
	savePath, err := tool.Run(src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if d.selected != image.Rect(0, 0, 100, 50) {
		t.Errorf("Selection should be made on the zoomed view, got %v", d.selected)
	}
	if want := filepath.Join(filepath.Dir(src), "X_cutout.png"); savePath != want {
		t.Errorf("Expected save path %s, got %s", want, savePath)
	}

	out, err := common.LoadImage(savePath)
	if err != nil {
		t.Fatalf("Failed to load cutout: %v", err)
	}
	if out.Bounds().Dx() != 20 || out.Bounds().Dy() != 10 {
		t.Fatalf("Expected 20x10 cutout, got %v", out.Bounds())
	}

	// View (10,5) is source (60,30)
	r, g, _, _ := out.At(0, 0).RGBA()
	if r>>8 != 60 || g>>8 != 30 {
		t.Errorf("Expected source pixel (60,30), got r=%d g=%d", r>>8, g>>8)
	}
}

func TestRunDoesNotOverwritePreviousCutout(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)

	first := filepath.Join(dir, "X_cutout.png")
	if err := os.WriteFile(first, []byte("previous result"), 0644); err != nil {
		t.Fatalf("Failed to create previous cutout: %v", err)
	}

	d := &scriptedDisplay{
		keys:   []viewport.Key{viewport.KeyEnter},
		region: image.Rect(0, 0, 10, 10),
	}

	savePath, err := NewTool(d, quietLogger(), common.SaveOptions{}).Run(src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if savePath != filepath.Join(dir, "X_cutout_1.png") {
		t.Errorf("Expected X_cutout_1.png, got %s", savePath)
	}

	data, err := os.ReadFile(first)
	if err != nil || string(data) != "previous result" {
		t.Errorf("Previous cutout was modified")
	}
}

func TestRunEscapeAborts(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)

	d := &scriptedDisplay{keys: []viewport.Key{'w', viewport.KeyEsc}}

	_, err := NewTool(d, quietLogger(), common.SaveOptions{}).Run(src)
	if !errors.Is(err, viewport.ErrAborted) {
		t.Fatalf("Expected ErrAborted, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "X_cutout.png")); !os.IsNotExist(err) {
		t.Errorf("Nothing should be saved after abort")
	}
}

func TestRunEmptySelection(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)

	d := &scriptedDisplay{keys: []viewport.Key{viewport.KeyEnter}}

	_, err := NewTool(d, quietLogger(), common.SaveOptions{}).Run(src)
	if !errors.Is(err, ErrNoSelection) {
		t.Fatalf("Expected ErrNoSelection, got %v", err)
	}
}

func TestRunLoadError(t *testing.T) {
	d := &scriptedDisplay{}

	_, err := NewTool(d, quietLogger(), common.SaveOptions{}).Run(filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, common.ErrLoad) {
		t.Fatalf("Expected load error, got %v", err)
	}
}

func TestCutUsesLoadedImage(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)

	img, err := common.LoadImage(src)
	if err != nil {
		t.Fatalf("Failed to load source: %v", err)
	}

	// Cut must not go back to disk for the pixels
	if err := os.Remove(src); err != nil {
		t.Fatalf("Failed to remove source: %v", err)
	}

	d := &scriptedDisplay{
		keys:   []viewport.Key{viewport.KeyEnter},
		region: image.Rect(5, 6, 15, 16),
	}

	savePath, err := NewTool(d, quietLogger(), common.SaveOptions{}).Cut(src, img)
	if err != nil {
		t.Fatalf("Cut failed: %v", err)
	}
	if savePath != filepath.Join(dir, "X_cutout.png") {
		t.Errorf("Expected X_cutout.png, got %s", savePath)
	}

	out, err := common.LoadImage(savePath)
	if err != nil {
		t.Fatalf("Failed to load cutout: %v", err)
	}
	if r, g, _, _ := out.At(0, 0).RGBA(); r>>8 != 5 || g>>8 != 6 {
		t.Errorf("Expected source pixel (5,6), got r=%d g=%d", r>>8, g>>8)
	}
}

func TestCutRegionClipsToImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))

	cut, err := CutRegion(img, image.Rect(30, 20, 60, 50))
	if err != nil {
		t.Fatalf("CutRegion failed: %v", err)
	}
	if cut.Bounds() != image.Rect(0, 0, 10, 10) {
		t.Errorf("Expected clipped 10x10 region, got %v", cut.Bounds())
	}

	if _, err := CutRegion(img, image.Rect(50, 50, 60, 60)); !errors.Is(err, ErrNoSelection) {
		t.Errorf("Expected ErrNoSelection for region outside image, got %v", err)
	}
}
