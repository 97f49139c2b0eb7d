package main

import (
	"fmt"
	"os"

	"livequiz/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "livequiz:", err)
		os.Exit(1)
	}
}
