package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(&environment{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
