package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"railmap/internal/config"
	"railmap/internal/railmap"
	"railmap/internal/store"
	"railmap/internal/surface/raster"
)

type renderOptions struct {
	out        string
	configPath string
	width      int
	height     int
	routeID    string
	zoom       float64
	source     sourceOptions
}

func renderCmd() *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the map to a PNG file",
		Long: `Load map data from a source and write one frame as PNG.

  railmap render --file network.yaml --out map.png
  railmap render --sqlite railmap.db --route commute --width 2048 --height 1536`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.out, "out", "o", "railmap.png", "output PNG path")
	f.StringVar(&opts.configPath, "config", envOr("CONFIG_PATH", ""), "renderer options file")
	f.IntVar(&opts.width, "width", 1024, "image width in pixels")
	f.IntVar(&opts.height, "height", 768, "image height in pixels")
	f.StringVar(&opts.routeID, "route", "", "stored route to highlight")
	f.Float64Var(&opts.zoom, "zoom", 1, "viewport scale")
	addSourceFlags(cmd, &opts.source)
	return cmd
}

type renderResult struct {
	ingest      railmap.IngestStats
	frame       railmap.FrameStats
	diagnostics []railmap.Diagnostic
	surface     *raster.Surface
}

// renderSnapshot draws snap once, centred on the world origin.
func renderSnapshot(snap store.Snapshot, steps []railmap.RouteStep, cfg railmap.Config, width, height int, zoom float64) (renderResult, error) {
	if width <= 0 || height <= 0 {
		return renderResult{}, fmt.Errorf("invalid size %dx%d", width, height)
	}
	res := renderResult{surface: raster.New(width, height)}
	r, err := railmap.New(res.surface, cfg, railmap.WithDiagnostics(func(d railmap.Diagnostic) {
		res.diagnostics = append(res.diagnostics, d)
	}))
	if err != nil {
		return renderResult{}, err
	}
	if zoom > 0 && zoom != 1 {
		r.Viewport().Zoom(1 - zoom)
	}
	res.ingest = r.SetData(snap.Stations, snap.Connections)
	if len(steps) > 0 {
		r.SetRoute(steps)
	}
	res.frame, err = r.Draw()
	if err != nil {
		return renderResult{}, err
	}
	return res, nil
}

func runRender(ctx context.Context, opts renderOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	src, pool, err := openSource(ctx, zerolog.Nop(), opts.source)
	if err != nil {
		return err
	}
	defer src.Close()
	if pool != nil {
		defer pool.Close()
	}

	snap, err := src.Load(ctx)
	if err != nil {
		return err
	}
	var steps []railmap.RouteStep
	if opts.routeID != "" {
		if steps, err = src.Route(ctx, opts.routeID); err != nil {
			return err
		}
	}

	res, err := renderSnapshot(snap, steps, cfg, opts.width, opts.height, opts.zoom)
	if err != nil {
		return err
	}
	if err := res.surface.SavePNG(opts.out); err != nil {
		return err
	}

	fmt.Printf("%s wrote %s (%dx%d)\n\n", statusIcon(true), brand.Sprint(opts.out), opts.width, opts.height)
	table([]string{"STATIONS", "GROUPS", "CONNECTIONS", "SKIPPED", "DRAWN", "CULLED"}, [][]string{{
		strconv.Itoa(res.ingest.Stations),
		strconv.Itoa(res.ingest.Groups),
		strconv.Itoa(res.ingest.Connections),
		strconv.Itoa(res.ingest.Skipped),
		strconv.Itoa(res.frame.Stations),
		strconv.Itoa(res.frame.Culled),
	}})
	if len(res.diagnostics) > 0 {
		fmt.Println()
		for _, d := range res.diagnostics {
			warn.Fprintf(os.Stderr, "  ! %s: %v\n", d.Kind, d.Err)
		}
	}
	return nil
}
