package main

import (
	"os"

	"github.com/supportdesk/supportdesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
