package main

import (
	"os"

	"github.com/mmynk/streamsplit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
