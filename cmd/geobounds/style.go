package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

func runStyle(args []string) error {
	var (
		configPath string
		country    string
		level      int
		width      int
		height     int
	)

	fs := flag.NewFlagSet("style", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Config file")
	fs.StringVar(&country, "country", "", "Country id to select (e.g. FRA)")
	fs.IntVar(&level, "level", -1, "Admin level to display (-1: none)")
	fs.IntVar(&width, "width", 1024, "Viewport width in CSS pixels (4 per braille dot)")
	fs.IntVar(&height, "height", 768, "Viewport height in CSS pixels (4 per braille dot)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: geobounds style [flags]\n\nPrint the map style document (sources, layers, camera) as JSON.\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  geobounds style\n")
		fmt.Fprintf(os.Stderr, "  geobounds style -country FRA -level 2 > fra.json\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if level >= 0 && country == "" {
		return fmt.Errorf("-level requires -country")
	}

	e, err := setup(configPath)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()

	x, err := e.openExplorer(ctx, width, height, country, level)
	if err != nil {
		return err
	}
	defer x.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(x.engine.Document())
}
