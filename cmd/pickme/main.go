package main

import (
	"context"
	"fmt"
	"os"
	"pickme/internal/di"
	"pickme/internal/structures"

	"github.com/spf13/pflag"
)

func main() {
	flags := &structures.CliFlags{}
	pflag.StringVarP(&flags.ConfigPath, "config", "c", "config.yml", "Path to the configuration file")
	pflag.BoolVarP(&flags.DebugMode, "debug", "d", false, "Enable debug logging")
	pflag.StringVar(&flags.InitialStatePath, "initial-state", "", "JSON state document loaded when no mirrored state exists")
	pflag.Parse()

	app, err := di.InitApp(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pickme: %s\n", err)
		os.Exit(1)
	}
	if err = app.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "pickme: %s\n", err)
		os.Exit(1)
	}
}
