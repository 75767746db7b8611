package main

import (
	"os"

	"github.com/dealerhub/dealerhub/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
