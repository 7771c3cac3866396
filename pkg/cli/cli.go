// Package cli provides the command-line interface for visual-mapper.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"s"},
		Usage:   "Device serial to target (default: first connected device)",
		EnvVars: []string{"VISUAL_MAPPER_DEVICE"},
	},
	&cli.StringFlag{
		Name:    "adb",
		Usage:   "Path to the adb binary (default: found in PATH)",
		EnvVars: []string{"VISUAL_MAPPER_ADB"},
	},
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config.yaml with capture tuning knobs",
		EnvVars: []string{"VISUAL_MAPPER_CONFIG"},
	},
	&cli.StringFlag{
		Name:  "log-file",
		Usage: "Log file path",
		Value: "visual-mapper.log",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Echo log lines to stderr",
		EnvVars: []string{"VISUAL_MAPPER_VERBOSE"},
	},
}

// Execute runs the CLI.
func Execute() {
	app := &cli.App{
		Name:    "visual-mapper",
		Usage:   "Scrolling screenshot capture for Android devices",
		Version: Version,
		Description: `Visual Mapper scrolls the current page on a connected Android device
and stitches the captures into one tall screenshot.

Examples:
  visual-mapper stitch
  visual-mapper stitch -o page.png --debug-dir captures/
  visual-mapper --device emulator-5554 elements`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			stitchCommand,
			devicesCommand,
			elementsCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
