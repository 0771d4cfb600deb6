package resizer

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"imgtools/common"
	"imgtools/config"
)

// Result describes what happened to one input file
type Result struct {
	Path     string
	SavePath string
	Skipped  bool
}

// Summary counts the outcome of a batch
type Summary struct {
	Resized int
	Skipped int
	Failed  int
}

// Resizer center-crops and pads images to the configured target size
type Resizer struct {
	width     int
	height    int
	directory string
	path      string
	save      common.SaveOptions
	log       logrus.FieldLogger
}

// NewResizer creates a resizer from the resize section of cfg
func NewResizer(cfg *config.Config, log logrus.FieldLogger) (*Resizer, error) {
	if err := cfg.ValidateResize(); err != nil {
		return nil, err
	}

	return &Resizer{
		width:     cfg.Resize.Width,
		height:    cfg.Resize.Height,
		directory: cfg.Resize.Directory,
		path:      cfg.Image.Path,
		save:      common.SaveOptions{JPEGQuality: cfg.Image.JPEGQuality},
		log:       log,
	}, nil
}

// Run resizes every file directly inside the configured directory, or the
// single configured image path when the directory does not exist.
// In directory mode undecodable files are logged and skipped; in single-file
// mode a load failure is returned.
func (r *Resizer) Run() (Summary, error) {
	if r.directory != "" && isDir(r.directory) {
		r.log.WithField("directory", r.directory).Info("Image directory found")
		return r.ResizeDirectory(r.directory)
	}

	r.log.Info("Image directory not found, attempting to use image path")

	var summary Summary
	res, err := r.ResizeFile(r.path)
	if err != nil {
		return summary, err
	}
	summary.add(res)
	return summary, nil
}

// ResizeDirectory processes the direct entries of dir in order
func (r *Resizer) ResizeDirectory(dir string) (Summary, error) {
	var summary Summary

	entries, err := os.ReadDir(dir)
	if err != nil {
		return summary, fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		res, err := r.ResizeFile(path)
		if errors.Is(err, common.ErrLoad) {
			r.log.WithField("path", path).WithError(err).Error("Invalid image path")
			summary.Failed++
			continue
		}
		if err != nil {
			return summary, err
		}
		summary.add(res)
	}

	return summary, nil
}

// ResizeFile loads, resizes and saves one image
func (r *Resizer) ResizeFile(path string) (Result, error) {
	img, err := common.LoadImage(path)
	if err != nil {
		return Result{Path: path}, err
	}
	r.log.WithField("path", path).Info("Image loaded")

	resized := common.CenterCropPad(img, r.width, r.height)
	r.log.WithFields(logrus.Fields{
		"path":     path,
		"channels": common.Channels(img),
	}).Infof("Image resized (center-cropped/padded) to %dx%d", r.width, r.height)

	return r.saveResized(path, resized)
}

// saveResized writes the resized copy unless path is already resizer output
func (r *Resizer) saveResized(path string, img *image.NRGBA) (Result, error) {
	savePath, ok := common.ResizedPath(path, r.width, r.height)
	if !ok {
		r.log.WithField("path", path).Info("Skipping already resized image")
		return Result{Path: path, Skipped: true}, nil
	}

	r.log.WithField("path", savePath).Info("Saving resized image")
	if err := common.SaveImage(savePath, img, r.save); err != nil {
		return Result{Path: path}, err
	}

	return Result{Path: path, SavePath: savePath}, nil
}

func (s *Summary) add(res Result) {
	if res.Skipped {
		s.Skipped++
	} else {
		s.Resized++
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
