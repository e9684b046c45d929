package main

import (
	"flag"
	"log/slog"
	"os"

	"capboard/internal/app"
	"capboard/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to config.yaml or configs/config.yaml when present)")
	flag.Parse()

	if *configPath == "" {
		*configPath = config.FindConfigFile()
	}

	application, err := app.NewApplication(*configPath)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
