package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"imgtools/common"
	"imgtools/config"
	"imgtools/converter"
	"imgtools/cutout"
	"imgtools/display"
	"imgtools/logging"
	"imgtools/resizer"
	"imgtools/viewport"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error to the process status.
// Leaving with Escape or cancelling the selection is a normal exit.
func exitCode(err error) int {
	if errors.Is(err, viewport.ErrAborted) || errors.Is(err, cutout.ErrNoSelection) {
		return 0
	}
	return 1
}

type app struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "imgtools",
		Short:         "Convert, cut out and resize images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to load config: %v\n", err)
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "imgtools.yaml", "optional YAML config file")

	root.AddCommand(a.convertCmd(), a.cutoutCmd(), a.resizeCmd())
	return root
}

// logger builds the tool logger; the caller closes the returned closer
func (a *app) logger(cmd *cobra.Command, name string) (*logrus.Logger, io.Closer, error) {
	log, closer, err := logging.New(name, logging.Options{
		Debug:   a.cfg.Log.Enabled,
		Dir:     a.cfg.Log.Dir,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Failed to set up logging: %v\n", err)
		return nil, nil, err
	}
	for _, w := range a.cfg.Warnings {
		log.Warn(w)
	}
	return log, closer, nil
}

func (a *app) saveOptions() common.SaveOptions {
	return common.SaveOptions{JPEGQuality: a.cfg.Image.JPEGQuality}
}

func (a *app) convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert [image-path] [type]",
		Short: "Re-encode an image under another file extension",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closer, err := a.logger(cmd, "image_convert")
			if err != nil {
				return err
			}
			defer closer.Close()

			in := bufio.NewReader(cmd.InOrStdin())
			path := argOr(args, 0, a.cfg.Image.Path)
			if path == "" {
				if path, err = prompt(in, cmd.OutOrStdout(), "Enter the path of the image: "); err != nil {
					return err
				}
			}
			convertType := argOr(args, 1, a.cfg.Image.ConvertType)
			if convertType == "" {
				if convertType, err = prompt(in, cmd.OutOrStdout(), "Enter type of file to convert to: "); err != nil {
					return err
				}
			}

			if _, err := converter.NewConverter(a.saveOptions(), log).Convert(path, convertType); err != nil {
				return logFailure(log, err)
			}
			return nil
		},
	}
}

func (a *app) cutoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cutout [image-path]",
		Short: "Zoom, pan and cut a region out of an image",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closer, err := a.logger(cmd, "image_cutout")
			if err != nil {
				return err
			}
			defer closer.Close()

			path := argOr(args, 0, a.cfg.Image.Path)
			if path == "" {
				in := bufio.NewReader(cmd.InOrStdin())
				if path, err = prompt(in, cmd.OutOrStdout(), "Enter the path of the image: "); err != nil {
					return err
				}
			}

			// Loaded once here so the window opens at the image's size
			img, err := common.LoadImage(path)
			if err != nil {
				return logFailure(log, err)
			}
			log.WithField("path", path).Info("Image loaded")

			window := display.NewWindow("Image", img.Bounds().Size())
			defer window.Close()

			if _, err := cutout.NewTool(window, log, a.saveOptions()).Cut(path, img); err != nil {
				return logFailure(log, err)
			}
			return nil
		},
	}
}

func (a *app) resizeCmd() *cobra.Command {
	var (
		watch     bool
		overrides config.ResizeConfig
		path      string
	)

	cmd := &cobra.Command{
		Use:   "resize",
		Short: "Center-crop and pad images to an exact size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closer, err := a.logger(cmd, "image_resize")
			if err != nil {
				return err
			}
			defer closer.Close()

			// Flags win over the config file and environment
			flags := cmd.Flags()
			if flags.Changed("width") {
				a.cfg.Resize.Width = overrides.Width
			}
			if flags.Changed("height") {
				a.cfg.Resize.Height = overrides.Height
			}
			if flags.Changed("dir") {
				a.cfg.Resize.Directory = overrides.Directory
			}
			if flags.Changed("path") {
				a.cfg.Image.Path = path
			}

			r, err := resizer.NewResizer(a.cfg, log)
			if err != nil {
				return logFailure(log, err)
			}

			summary, err := r.Run()
			if err != nil {
				return logFailure(log, err)
			}
			log.WithFields(logrus.Fields{
				"resized": summary.Resized,
				"skipped": summary.Skipped,
				"failed":  summary.Failed,
			}).Info("Resize finished")

			if !watch {
				return nil
			}
			return watchDirectory(r, a.cfg.Resize.Directory, log)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&overrides.Width, "width", 0, "target width in pixels (RESIZE_WIDTH)")
	flags.IntVar(&overrides.Height, "height", 0, "target height in pixels (RESIZE_HEIGHT)")
	flags.StringVar(&overrides.Directory, "dir", "", "directory to resize (IMAGE_DIRECTORY)")
	flags.StringVar(&path, "path", "", "single image to resize when no directory is set (IMAGE_PATH)")
	flags.BoolVar(&watch, "watch", false, "keep resizing new images in the directory until interrupted")

	return cmd
}

// watchDirectory resizes new files in dir until SIGINT or SIGTERM
func watchDirectory(r *resizer.Resizer, dir string, log logrus.FieldLogger) error {
	if dir == "" {
		return logFailure(log, errors.New("--watch needs an image directory"))
	}

	w, err := resizer.NewWatcher(r, dir, resizer.DefaultDebounce)
	if err != nil {
		return logFailure(log, err)
	}
	if err := w.Start(); err != nil {
		return logFailure(log, err)
	}
	log.Info("Press Ctrl+C to stop")

	go func() {
		for res := range w.Results() {
			log.WithField("path", res.SavePath).Debug("Watched image resized")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down...")
	return w.Stop()
}

// logFailure reports err at error level and hands it back
func logFailure(log logrus.FieldLogger, err error) error {
	switch {
	case errors.Is(err, viewport.ErrAborted):
	case errors.Is(err, cutout.ErrNoSelection):
		log.Info("No region selected, nothing saved")
	case errors.Is(err, common.ErrLoad):
		log.WithError(err).Error("Invalid image path")
	default:
		log.WithError(err).Error("Command failed")
	}
	return err
}

// argOr returns args[i] when present, otherwise fallback
func argOr(args []string, i int, fallback string) string {
	if i < len(args) && args[i] != "" {
		return args[i]
	}
	return fallback
}

// prompt asks a question on out and reads one line of input
func prompt(in *bufio.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
