package main

import (
	"os"

	"github.com/aseptiq/fillsched/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
