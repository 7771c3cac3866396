package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/botts7/visual-mapper-sub000/pkg/driver/adb"
)

var devicesCommand = &cli.Command{
	Name:   "devices",
	Usage:  "List connected Android devices",
	Action: runDevices,
}

func runDevices(c *cli.Context) error {
	serials, err := adb.ListDevices(c.String("adb"))
	if err != nil {
		return err
	}
	if len(serials) == 0 {
		fmt.Println("No connected devices")
		return nil
	}
	for _, s := range serials {
		fmt.Println(s)
	}
	return nil
}
