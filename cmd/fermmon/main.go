package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"fermmon/internal/di"
	"fermmon/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	pflag.StringVarP(&flags.ConfigPath, "config", "c", "config.yml", "path to the yaml config file")
	pflag.BoolVarP(&flags.DebugMode, "debug", "d", false, "force debug logging")
	pflag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		fmt.Fprintf(os.Stderr, "fermmon: %s\n", err)
		os.Exit(1)
	}
}
