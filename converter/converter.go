package converter

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"imgtools/common"
)

// Converter re-encodes images under a different file extension
type Converter struct {
	save common.SaveOptions
	log  logrus.FieldLogger
}

// NewConverter creates a converter
func NewConverter(save common.SaveOptions, log logrus.FieldLogger) *Converter {
	return &Converter{save: save, log: log}
}

// Convert decodes the image at path and writes it next to the source with
// extension ext. Pixels are not touched. It returns the output path.
func (c *Converter) Convert(path, ext string) (string, error) {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return "", fmt.Errorf("no target type given")
	}

	img, err := common.LoadImage(path)
	if err != nil {
		return "", err
	}
	c.log.WithField("path", path).Info("Image loaded")

	outPath := common.ConvertPath(path, ext)
	c.log.WithField("type", ext).Info("Converting image")
	if err := common.SaveImage(outPath, img, c.save); err != nil {
		return "", err
	}
	c.log.WithField("path", outPath).Infof("Image converted to %s", ext)

	return outPath, nil
}
