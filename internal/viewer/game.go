// Package viewer runs the map in a desktop window with ebiten.
package viewer

import (
	"context"
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/rs/zerolog"

	"railmap/internal/railmap"
	"railmap/internal/store"
)

// Game adapts a railmap.Renderer to ebiten.Game. Every renderer call happens
// on the ebiten update goroutine; other goroutines hand data over through
// Apply.
type Game struct {
	log      zerolog.Logger
	renderer *railmap.Renderer
	surface  *Surface
	pump     inputPump
	updates  chan store.Snapshot
	routes   chan []railmap.RouteStep
	status   string
	width    int
	height   int
}

func New(log zerolog.Logger, cfg railmap.Config, opts ...railmap.Option) (*Game, error) {
	g := &Game{
		log:     log,
		surface: NewSurface(1, 1),
		updates: make(chan store.Snapshot, 1),
		routes:  make(chan []railmap.RouteStep, 1),
		status:  "drag to pan, scroll to zoom, R resets, D toggles hit regions, C clears the route",
	}
	r, err := railmap.New(g.surface, cfg, append([]railmap.Option{railmap.WithLogger(log)}, opts...)...)
	if err != nil {
		return nil, err
	}
	r.OnStationClicked = g.stationClicked
	r.OnConnectionClicked = g.connectionClicked
	g.renderer = r
	return g, nil
}

func (g *Game) Renderer() *railmap.Renderer { return g.renderer }

// Apply queues a snapshot for the next Update. A snapshot still waiting is
// replaced. It is safe to call from any goroutine.
func (g *Game) Apply(ctx context.Context, snap store.Snapshot) error {
	for {
		select {
		case g.updates <- snap:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		select {
		case <-g.updates:
		default:
		}
	}
}

// ShowRoute queues route steps for the next Update, replacing any still
// waiting. It is safe to call from any goroutine.
func (g *Game) ShowRoute(ctx context.Context, steps []railmap.RouteStep) error {
	for {
		select {
		case g.routes <- steps:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		select {
		case <-g.routes:
		default:
		}
	}
}

func (g *Game) Update() error {
	select {
	case snap := <-g.updates:
		g.renderer.SetData(snap.Stations, snap.Connections)
	default:
	}
	select {
	case steps := <-g.routes:
		g.renderer.SetRoute(steps)
	default:
	}

	for _, ev := range g.pump.poll() {
		g.renderer.HandleInput(ev)
	}

	switch {
	case isKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	case isKeyJustPressed(ebiten.KeyR):
		g.renderer.Viewport().Reset()
		g.renderer.Resize()
	case isKeyJustPressed(ebiten.KeyC):
		g.renderer.ClearRoute()
	case isKeyJustPressed(ebiten.KeyD):
		cfg := g.renderer.Config()
		cfg.DebugOverlay = !cfg.DebugOverlay
		if err := g.renderer.SetConfig(cfg); err != nil {
			g.log.Warn().Err(err).Msg("toggle debug overlay")
		}
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.DrawImage(g.surface.Image(), nil)
	v := g.renderer.Viewport()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("%s\nscale %.2f  (%.0f, %.0f)", g.status, v.Scale, v.X, v.Y))
}

// Layout resizes the offscreen surface to the window and redraws.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.surface.resize(outsideWidth, outsideHeight)
		g.renderer.Resize()
	}
	return outsideWidth, outsideHeight
}

func (g *Game) stationClicked(ev railmap.StationClickedEvent) {
	names := make([]string, 0, len(ev.Groups))
	for _, grp := range ev.Groups {
		names = append(names, grp.Name)
	}
	g.status = fmt.Sprintf("%s (%s): %s", ev.Name, ev.Label, strings.Join(names, ", "))
	g.log.Info().Str("label", ev.Label).Strs("groups", names).Msg("station clicked")
}

func (g *Game) connectionClicked(ev railmap.ConnectionClickedEvent) {
	arrow := "->"
	if ev.TwoWay {
		arrow = "<->"
	}
	g.status = fmt.Sprintf("%s %s %s on %s (line %d)", ev.FromName, arrow, ev.ToName, ev.Group.Name, ev.LineID)
	g.log.Info().Str("from", ev.FromLabel).Str("to", ev.ToLabel).Int64("group", ev.Group.ID).Msg("connection clicked")
}

// Run opens the window and blocks until it is closed.
func Run(g *Game, title string, width, height int) error {
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}
