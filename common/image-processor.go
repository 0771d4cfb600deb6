package common

// Image processor shared by the converter, cutout and resize tools
//
// Responsibilities:
// 1. Decode images (JPEG, PNG, GIF, BMP, TIFF, WebP) and report LoadError on failure
// 2. Encode images with the codec implied by the file extension (WebP lossless)
// 3. Crop relative to the image origin
// 4. Center crop + constant-border pad to an exact target size

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	_ "golang.org/x/image/webp"
)

// ErrLoad matches every LoadError via errors.Is
var ErrLoad = errors.New("failed to load image")

// LoadError reports an image that could not be decoded
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load image %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// SaveOptions tunes the encoders used by SaveImage
type SaveOptions struct {
	JPEGQuality int
}

// LoadImage decodes the image at path, keeping its alpha channel if it has one
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return img, nil
}

// SaveImage encodes img to path using the format named by the path's extension
func SaveImage(path string, img image.Image, opts SaveOptions) error {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return saveWebP(path, img)
	}

	var encodeOpts []imaging.EncodeOption
	if opts.JPEGQuality > 0 {
		encodeOpts = append(encodeOpts, imaging.JPEGQuality(opts.JPEGQuality))
	}

	if err := imaging.Save(img, path, encodeOpts...); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// saveWebP writes img as lossless WebP
func saveWebP(path string, img image.Image) error {
	options, err := encoder.NewLosslessEncoderOptions(encoder.PresetDefault, 6)
	if err != nil {
		return fmt.Errorf("failed to configure webp encoder: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}

	// The encoder only takes RGBA/NRGBA buffers
	if err := webp.Encode(file, imaging.Clone(img), options); err != nil {
		file.Close()
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// opaquer is implemented by every image type in the standard library that can
// hold alpha
type opaquer interface {
	Opaque() bool
}

// HasAlpha reports whether the image carries an alpha channel with at least one
// non-opaque pixel. Opaque RGB files decode as *image.RGBA, so the type alone
// says nothing.
func HasAlpha(img image.Image) bool {
	switch m := img.(type) {
	case *image.NRGBA, *image.RGBA, *image.NRGBA64, *image.RGBA64, *image.Alpha, *image.Alpha16:
		return !m.(opaquer).Opaque()
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Channels returns 4 for images with alpha and 3 otherwise
func Channels(img image.Image) int {
	if HasAlpha(img) {
		return 4
	}
	return 3
}

// Crop returns the part of img inside rect, where rect is relative to the
// image's top-left corner. The result always starts at (0, 0).
func Crop(img image.Image, rect image.Rectangle) *image.NRGBA {
	return imaging.Crop(img, rect.Add(img.Bounds().Min))
}

// BorderColor is the constant padding color: opaque black, or transparent black
// when the image has an alpha channel
func BorderColor(img image.Image) color.NRGBA {
	if HasAlpha(img) {
		return color.NRGBA{}
	}
	return color.NRGBA{A: 0xff}
}

// CenterCropPad fits img into exactly width x height pixels without scaling.
// Each axis larger than the target is cropped around its center (width first),
// then any remaining shortfall is padded with BorderColor, giving the odd pixel
// to the right and bottom.
func CenterCropPad(img image.Image, width, height int) *image.NRGBA {
	border := BorderColor(img)
	out := Crop(img, image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))

	// Crop horizontally
	if w := out.Bounds().Dx(); w > width {
		offsetX := (w - width) / 2
		out = Crop(out, image.Rect(offsetX, 0, offsetX+width, out.Bounds().Dy()))
	}

	// Crop vertically, using the height after the horizontal crop
	if h := out.Bounds().Dy(); h > height {
		offsetY := (h - height) / 2
		out = Crop(out, image.Rect(0, offsetY, out.Bounds().Dx(), offsetY+height))
	}

	padX := max(0, width-out.Bounds().Dx())
	padY := max(0, height-out.Bounds().Dy())
	if padX == 0 && padY == 0 {
		return out
	}

	left, top := padX/2, padY/2
	canvas := imaging.New(width, height, border)
	return imaging.Paste(canvas, out, image.Pt(left, top))
}
