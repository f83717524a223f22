package main

import (
	"os"

	"github.com/tabiya-tech/elicit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
