package main

import (
	"fmt"
	"os"

	"github.com/suteetoe/tenant-onboarding/internal/cli"
	"github.com/suteetoe/tenant-onboarding/pkg/logger"
)

func main() {
	err := cli.NewRootCommand().Execute()
	_ = logger.GetLogger().Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
