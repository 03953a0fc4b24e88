package main

import (
	"fmt"
	"os"

	"lovault/cmd/lov/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
