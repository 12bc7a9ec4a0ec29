package main

import (
	"github.com/atfloor/floorcli/internal/cli"
)

func main() {
	cli.Run()
}
