package main

import (
	"os"

	"github.com/yaahc/scdoall-rewrite/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
