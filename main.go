package main

import (
	"os"

	"github.com/OliariVictor/FEMcomparison/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
