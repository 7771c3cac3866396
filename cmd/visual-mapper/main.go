package main

import "github.com/botts7/visual-mapper-sub000/pkg/cli"

func main() {
	cli.Execute()
}
