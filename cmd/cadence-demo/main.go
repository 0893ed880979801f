package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/oliverbestmann/cadence"
	"github.com/oliverbestmann/cadence/config"
	"github.com/oliverbestmann/cadence/host"
	"github.com/oliverbestmann/cadence/host/ebitenhost"
	"github.com/oliverbestmann/cadence/internal/logging"
	"github.com/oliverbestmann/cadence/motion"
	"github.com/oliverbestmann/cadence/physics"
	"github.com/oliverbestmann/cadence/scene"
	"github.com/oliverbestmann/cadence/scripting"
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := "cadence.toml"
	if p := os.Getenv("CADENCE_CONFIG"); p != "" {
		path = p
	}

	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) && os.Getenv("CADENCE_CONFIG") == "" {
		return config.Defaults(), nil
	}

	return cfg, err
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	defer log.Sync()

	zap.ReplaceGlobals(log)

	switch cfg.Profile.Mode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.Profile.Path), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(cfg.Profile.Path), profile.Quiet).Stop()
	}

	var stats cadence.TimingStats

	scheduler := cadence.NewScheduler(cadence.SchedulerOptions{
		FixedStep:     cfg.Scheduler.FixedStep,
		RunawayFactor: cfg.Scheduler.RunawayFactor,
		FixedDraw:     cfg.Scheduler.FixedDraw,
		DrawStep:      cfg.Scheduler.DrawStep,
		CallbackSlots: cfg.Scheduler.CallbackSlots,
		Logger:        log.Named("scheduler"),
		Stats:         &stats,
	})

	pool := cadence.NewEntityPool(cadence.PoolOptions{
		Initial: cfg.Pool.Initial,
		Slack:   cfg.Pool.Slack,
		Logger:  log.Named("pool"),
	})

	defer pool.Close()

	world := pool.NewWorld("main", scheduler)

	motion.AddSystems(world)
	phys := cadence.AddSystem[physics.System](world)

	if cfg.Scene.Path != "" {
		manifest, err := scene.Load(cfg.Scene.Path)
		if err != nil {
			return fmt.Errorf("scene: %w", err)
		}

		spawned := manifest.Spawn(world)
		log.Info("Scene spawned",
			zap.String("scene", manifest.Name),
			zap.Int("groups", len(spawned)),
			zap.Int("entities", world.Len()),
		)
	}

	if len(cfg.Scene.Scripts) > 0 {
		scripts := cadence.AddSystem[scripting.System](world)
		if err := scripts.LoadFiles(cfg.Scene.Scripts...); err != nil {
			return fmt.Errorf("scripts: %w", err)
		}
	}

	switch cfg.Host.Driver {
	case "ebiten":
		game := ebitenhost.NewGame(scheduler, &stats, log.Named("ebiten"))

		world.On(cadence.PhaseDraw, nil, func(float64) {
			screen := game.Screen()

			var geoM ebiten.GeoM
			geoM.Scale(20, -20)
			geoM.Translate(float64(screen.Bounds().Dx())/2, float64(screen.Bounds().Dy())/2)

			phys.DebugDraw(screen, geoM)
		})

		return ebitenhost.Run(ebitenhost.WindowConfig{
			Title:  cfg.Host.Title,
			Width:  cfg.Host.Width,
			Height: cfg.Host.Height,
		}, game)

	default:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return host.Run(ctx, scheduler, host.Options{
			TickRate: cfg.Host.TickRate,
			Duration: cfg.Host.Duration,
			Logger:   log.Named("host"),
		})
	}
}
