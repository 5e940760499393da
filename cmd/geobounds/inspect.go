package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/paulmach/orb"
)

func runInspect(args []string) error {
	var (
		configPath string
		country    string
		level      int
		lon, lat   float64
	)

	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Config file")
	fs.StringVar(&country, "country", "", "Country id (required)")
	fs.IntVar(&level, "level", 0, "Admin level")
	fs.Float64Var(&lon, "lon", 0, "Longitude of the point")
	fs.Float64Var(&lat, "lat", 0, "Latitude of the point")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: geobounds inspect -country ID [flags]\n\nPrint the admin unit under a point, as the explorer's feature panel shows it.\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  geobounds inspect -country FRA -level 1 -lon 2.35 -lat 48.85\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if country == "" {
		fs.Usage()
		return fmt.Errorf("-country is required")
	}
	if level < 0 {
		return fmt.Errorf("-level must be >= 0")
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return fmt.Errorf("point %.4f,%.4f out of range", lon, lat)
	}

	e, err := setup(configPath)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()

	x, err := e.openExplorer(ctx, 1024, 768, country, level)
	if err != nil {
		return err
	}
	defer x.Close()

	if !x.ctl.ClickMap(orb.Point{lon, lat}) {
		return fmt.Errorf("no admin unit at %.4f,%.4f", lon, lat)
	}

	panel := x.surface.Panel
	fmt.Println(panel.Title)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, r := range panel.Rows {
		fmt.Fprintf(w, "  %s\t%s\n", r.Label, r.Value)
	}
	return w.Flush()
}
