package main

import (
	"os"

	"github.com/spec-kit/monitor-report/cmd/reportctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
