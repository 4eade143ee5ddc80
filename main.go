package main

import (
	"os"

	"github.com/voltpath/vlink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
