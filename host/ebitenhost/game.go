// Package ebitenhost drives a Scheduler from the ebiten game loop.
package ebitenhost

import (
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/oliverbestmann/cadence"
	"go.uber.org/zap"
)

// ErrExit can be passed to Game.Exit to stop the game without reporting an error.
var ErrExit = errors.New("exit requested")

type WindowConfig struct {
	Title         string
	Width         int
	Height        int
	DisableResize bool
}

// Game implements ebiten.Game. Every ebiten update ticks the scheduler with the
// measured wall delta. Draw listeners of the scheduler render into Screen.
type Game struct {
	scheduler *cadence.Scheduler
	stats     *cadence.TimingStats
	log       *zap.Logger

	previous time.Time
	screen   *ebiten.Image

	showTimings bool
	timings     *ebiten.Image
	frames      int

	// set to a non nil value to exit the app
	appExit error
}

// NewGame creates a game driving the scheduler. Timing stats are optional
// and can be toggled on screen using the D key.
func NewGame(scheduler *cadence.Scheduler, stats *cadence.TimingStats, log *zap.Logger) *Game {
	if log == nil {
		log = zap.NewNop()
	}

	return &Game{scheduler: scheduler, stats: stats, log: log}
}

// Screen returns the image to draw into during the draw phase of the scheduler.
func (g *Game) Screen() *ebiten.Image {
	return g.screen
}

// Exit stops the game loop after the current update.
func (g *Game) Exit(err error) {
	if err == nil {
		err = ErrExit
	}

	g.appExit = err
}

func (g *Game) Update() error {
	now := time.Now()
	if g.previous.IsZero() {
		g.previous = now
	}

	g.scheduler.Tick(now.Sub(g.previous).Seconds())
	g.previous = now

	if g.stats != nil && inpututil.IsKeyJustPressed(ebiten.KeyD) {
		g.showTimings = !g.showTimings
	}

	return g.appExit
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.screen = screen
	defer func() { g.screen = nil }()

	g.scheduler.Draw()

	if g.showTimings {
		g.drawTimings(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return outsideWidth, outsideHeight
}

func (g *Game) drawTimings(screen *ebiten.Image) {
	g.frames += 1
	if g.frames%30 != 0 && g.timings != nil {
		screen.DrawImage(g.timings, nil)
		return
	}

	if g.timings == nil || g.timings.Bounds() != screen.Bounds() {
		b := screen.Bounds()
		g.timings = ebiten.NewImage(b.Dx(), b.Dy())
	}

	g.timings.Clear()

	phases := []cadence.Phase{
		cadence.PhaseVariable,
		cadence.PhaseFixed,
		cadence.PhaseLateFixed,
		cadence.PhaseEndOfTick,
		cadence.PhaseDraw,
	}

	for row, phase := range phases {
		t := g.stats.Phase(phase)

		text := fmt.Sprintf("%-9s runs=%5d, latest=%4.2fms, min=%4.2fms, max=%4.2fms, avg=%4.2fms",
			phase,
			t.Count,
			t.Latest.Seconds()*1000,
			t.Min.Seconds()*1000,
			t.Max.Seconds()*1000,
			t.MovingAverage.Seconds()*1000,
		)

		ebitenutil.DebugPrintAt(g.timings, text, 16, 16+16*row)
	}

	count, dropped := g.scheduler.Runaways()
	text := fmt.Sprintf("runaways=%d, dropped=%.2fs", count, dropped)
	ebitenutil.DebugPrintAt(g.timings, text, 16, 16+16*len(phases))

	// draw the now cached text
	screen.DrawImage(g.timings, nil)
}

// Run opens a window and runs the game until it exits.
func Run(win WindowConfig, game *Game) error {
	ebiten.SetWindowTitle(win.Title)
	ebiten.SetWindowSize(win.Width, win.Height)

	if !win.DisableResize {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}

	var options ebiten.RunGameOptions
	options.SingleThread = true

	game.log.Info("Starting ebiten host", zap.String("title", win.Title))

	err := ebiten.RunGameWithOptions(game, &options)
	if errors.Is(err, ErrExit) {
		return nil
	}

	return err
}
