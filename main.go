package main

import (
	"os"

	"github.com/azizbek/lektor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
