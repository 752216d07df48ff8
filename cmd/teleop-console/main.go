package main

import (
	"fmt"
	"os"

	"github.com/open-teleop/teleop-console/pkg/commands"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error during command execution: %v\n", err)
		os.Exit(1)
	}
}
