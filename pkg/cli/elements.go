package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/botts7/visual-mapper-sub000/pkg/driver/adb"
)

var elementsCommand = &cli.Command{
	Name:  "elements",
	Usage: "Dump the visible UI elements of the connected device",
	Description: `Print the flattened accessibility hierarchy, the same element list
the stitcher uses for overlap detection.

Examples:
  visual-mapper elements
  visual-mapper elements --json`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output as JSON",
		},
	},
	Action: runElements,
}

func runElements(c *cli.Context) error {
	device, err := adb.Find(c.String("adb"), c.String("device"))
	if err != nil {
		return err
	}

	elements, err := device.UIElements(c.Context)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(elements)
	}

	for _, e := range elements {
		fmt.Printf("%-48s id=%q text=%q bounds=[%d,%d %dx%d]\n",
			e.ClassName, e.ResourceID, e.Text,
			e.Bounds.X, e.Bounds.Y, e.Bounds.Width, e.Bounds.Height)
	}
	return nil
}
