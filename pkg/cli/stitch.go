package cli

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/botts7/visual-mapper-sub000/pkg/capture"
	"github.com/botts7/visual-mapper-sub000/pkg/config"
	"github.com/botts7/visual-mapper-sub000/pkg/core"
	"github.com/botts7/visual-mapper-sub000/pkg/devicelock"
	"github.com/botts7/visual-mapper-sub000/pkg/driver/adb"
	"github.com/botts7/visual-mapper-sub000/pkg/imaging"
	"github.com/botts7/visual-mapper-sub000/pkg/logger"
)

var stitchCommand = &cli.Command{
	Name:  "stitch",
	Usage: "Capture a scrolling screenshot of the current page",
	Description: `Scroll through the page shown on the device and stitch the captures
into a single tall PNG.

Examples:
  visual-mapper stitch
  visual-mapper stitch -o settings.png
  visual-mapper stitch --debug-dir captures/ --timeout 3m`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output PNG path",
			Value:   "stitched.png",
		},
		&cli.StringFlag{
			Name:  "debug-dir",
			Usage: "Directory to write the raw per-step captures into",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Overall capture timeout",
			Value: 5 * time.Minute,
		},
	},
	Action: runStitch,
}

func runStitch(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := initLogger(c); err != nil {
		return err
	}
	defer logger.Close()

	device, err := adb.Find(c.String("adb"), c.String("device"))
	if err != nil {
		return err
	}

	release := devicelock.Acquire(device.Serial())
	defer release()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	logger.Info("starting capture on %s", device.Serial())
	res, err := capture.CaptureScrollingScreenshot(ctx, device, cfg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = core.ErrStepTimeout.WithCause(err)
		}
		return fmt.Errorf("capture failed: %w", err)
	}

	output := c.String("output")
	if err := writePNG(output, res.Image); err != nil {
		return err
	}

	if dir := c.String("debug-dir"); dir != "" {
		if err := writeDebugCaptures(dir, res); err != nil {
			return err
		}
	}

	m := res.Metadata
	fmt.Printf("Stitched %s: %dx%d px\n", output, res.Image.Bounds().Dx(), res.Image.Bounds().Dy())
	fmt.Printf("  strategy=%s captures=%d scrolls=%d duration=%s\n",
		m.Strategy, m.CaptureCount, m.ScrollCount, m.Duration.Round(time.Millisecond))
	if m.Partial {
		fmt.Println("  note: scroll cap reached, result covers the page partially")
	}
	return nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.LoadFromDir(".")
}

func initLogger(c *cli.Context) error {
	if err := logger.Init(c.String("log-file")); err != nil {
		return err
	}
	logger.SetVerbose(c.Bool("verbose"))
	return nil
}

func writePNG(path string, img image.Image) error {
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeDebugCaptures dumps every raw capture next to the stitched result
// so misaligned seams can be diagnosed offline.
func writeDebugCaptures(dir string, res *core.StitchResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create debug dir: %w", err)
	}
	for i, img := range res.DebugCaptures {
		path := filepath.Join(dir, fmt.Sprintf("capture_%02d.png", i))
		if err := writePNG(path, img); err != nil {
			return err
		}
	}
	logger.Info("wrote %d debug captures to %s", len(res.DebugCaptures), dir)
	return nil
}
