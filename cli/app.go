// Package cli contains the pathsteer command line application.
package cli

import (
	"fmt"
	"io"

	"github.com/edaniels/golog"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/whizz-mobility/pathsteer/config"
	"github.com/whizz-mobility/pathsteer/logging"
)

const (
	// Flags.
	generalFlagConfig = "config"
	generalFlagDebug  = "debug"

	runFlagFrames        = "frames"
	runFlagOverlayDir    = "overlay-dir"
	runFlagRate          = "rate"
	runFlagWatch         = "watch"
	runFlagManual        = "manual"
	runFlagLoop          = "loop"
	runFlagPrintCommands = "print-commands"
	runFlagPlot          = "plot"

	geometryFlagWidth  = "width"
	geometryFlagHeight = "height"

	colorizeFlagIn  = "in"
	colorizeFlagOut = "out"
)

type pathsteerApp struct {
	logger golog.Logger
}

// NewApp returns a new app with Writer set to out and ErrWriter set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	a := &pathsteerApp{}
	return &cli.App{
		Name:            "pathsteer",
		Usage:           "steer a vehicle along the ridable path in segmented camera frames",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    generalFlagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(generalFlagDebug) {
				a.logger = logging.NewDebugLogger("pathsteer")
			} else {
				a.logger = logging.NewLogger("pathsteer")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "steer through a directory of frames",
				UsageText: "pathsteer --config FILE run --frames DIR [options]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     runFlagFrames,
						Usage:    "play back the images in `DIR`",
						Required: true,
					},
					&cli.StringFlag{
						Name:  runFlagOverlayDir,
						Usage: "write a diagnostic overlay per frame to `DIR`",
					},
					&cli.Float64Flag{
						Name:  runFlagRate,
						Usage: "frames per second, overriding rate_hz",
					},
					&cli.BoolFlag{
						Name:  runFlagWatch,
						Usage: "reload the config file when it changes",
					},
					&cli.BoolFlag{
						Name:  runFlagManual,
						Usage: "start the controller in manual mode",
					},
					&cli.BoolFlag{
						Name:  runFlagLoop,
						Usage: "restart from the first frame instead of stopping",
					},
					&cli.BoolFlag{
						Name:  runFlagPrintCommands,
						Usage: "print every steering command",
					},
					&cli.StringFlag{
						Name:  runFlagPlot,
						Usage: "chart bearing and command over the run to `FILE`",
					},
				},
				Action: a.runAction,
			},
			{
				Name:  "geometry",
				Usage: "print the frame geometry derived for a frame size",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     geometryFlagWidth,
						Usage:    "frame width in pixels",
						Required: true,
					},
					&cli.IntFlag{
						Name:     geometryFlagHeight,
						Usage:    "frame height in pixels",
						Required: true,
					},
				},
				Action: a.geometryAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the config file",
				Action: a.schemaAction,
			},
			{
				Name:  "colorize",
				Usage: "draw a label image with the segmenter's palette",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     colorizeFlagIn,
						Usage:    "label image to read",
						Required: true,
					},
					&cli.StringFlag{
						Name:     colorizeFlagOut,
						Usage:    "where to write the colored image",
						Required: true,
					},
				},
				Action: a.colorizeAction,
			},
		},
	}
}

// loadConfig reads the config named by --config, or the defaults when required is
// false and none is given.
func (a *pathsteerApp) loadConfig(c *cli.Context, required bool) (*config.Config, error) {
	path := c.String(generalFlagConfig)
	if path == "" {
		if required {
			return nil, errors.Errorf("%s needs --%s", c.Command.Name, generalFlagConfig)
		}
		return config.Default(), nil
	}
	return config.Read(path, a.logger)
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a yellow warning line to w.
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	color.New(color.FgYellow).Fprintf(w, "Warning: "+format+"\n", a...)
}
