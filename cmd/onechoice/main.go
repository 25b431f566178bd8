package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/DaanHessen/one-choice/assets"
	"github.com/DaanHessen/one-choice/internal/ads"
	"github.com/DaanHessen/one-choice/internal/engine"
	"github.com/DaanHessen/one-choice/internal/game"
	"github.com/DaanHessen/one-choice/internal/i18n"
	"github.com/DaanHessen/one-choice/internal/store"
	"github.com/DaanHessen/one-choice/internal/ui"
	"github.com/DaanHessen/one-choice/internal/util"
	"github.com/joho/godotenv"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := util.LoadConfig()
	cfg.Version = version
	flag.StringVar(&cfg.DSN, "dsn", cfg.DSN, "PostgreSQL DSN (file store when empty)")
	flag.StringVar(&cfg.DataDir, "data", cfg.DataDir, "File store directory")
	flag.StringVar(&cfg.ScenesDir, "scenes", cfg.ScenesDir, "Directory with scenes_<tier>.json overriding the built-in pools")
	flag.StringVar(&cfg.Language, "lang", cfg.Language, "Language: en|ru")
	flag.StringVar(&cfg.Theme, "theme", cfg.Theme, "Theme: ink|paper|ember")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "onechoice [--dsn DSN] [--data DIR] [--scenes DIR] [--lang en|ru] [--theme NAME] | migrate up|down|version | sim [-runs N] | version\n")
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := flag.Args()
	if len(args) > 0 {
		switch args[0] {
		case "version":
			fmt.Println("onechoice", version)
			return
		case "migrate":
			if len(args) < 2 {
				log.Fatal("migrate requires 'up', 'down' or 'version'")
			}
			if err := runMigrate(ctx, cfg, args[1]); err != nil {
				log.Fatal(err)
			}
			return
		case "sim":
			cfg.Headless = true
			if err := runSim(ctx, cfg, args[1:]); err != nil {
				log.Fatal(err)
			}
			return
		default:
			flag.Usage()
			os.Exit(2)
		}
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("open log: %v", err)
	}
	defer closeLog()

	ctrl, kv, err := boot(ctx, cfg, logger, game.WithSound(game.NewBell(os.Stdout)))
	if err != nil {
		log.Fatal(err)
	}
	defer kv.Close()

	if err := ui.Run(ctx, ctrl, cfg.Theme, logger); err != nil {
		log.Fatal(err)
	}
}

func runMigrate(ctx context.Context, cfg util.Config, action string) error {
	if !cfg.UsePostgres() {
		return fmt.Errorf("migrate needs --dsn or DATABASE_URL")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	migrator, err := store.NewMigrator(cfg.DSN)
	if err != nil {
		return err
	}
	switch action {
	case "up":
		if err := migrator.Up(ctx); err != nil && err != store.ErrNoChange {
			return err
		}
		fmt.Println("Migrations applied")
	case "down":
		if err := migrator.Down(ctx); err != nil && err != store.ErrNoChange {
			return err
		}
		fmt.Println("Migrations rolled back")
	case "version":
		v, dirty, err := migrator.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Schema version %d (dirty=%t)\n", v, dirty)
	default:
		return fmt.Errorf("unknown migrate action %q; use up|down|version", action)
	}
	return nil
}

func runSim(ctx context.Context, cfg util.Config, args []string) error {
	fset := flag.NewFlagSet("sim", flag.ContinueOnError)
	runs := fset.Int("runs", 20, "Runs to play")
	maxChoices := fset.Int("max", 500, "Abandon a run after this many choices")
	seed := fset.Uint64("seed", 1, "Policy seed")
	cautious := fset.Bool("cautious", false, "Pick the choice that keeps the lowest meter highest instead of choosing at random")
	if err := fset.Parse(args); err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	standalone := ads.NewStandalone(logger)
	standalone.Delay = 0
	standalone.Cooldown = 0
	ctrl, kv, err := boot(ctx, cfg, logger, game.WithAds(standalone))
	if err != nil {
		return err
	}
	defer kv.Close()

	policy := game.RandomPolicy
	if *cautious {
		policy = game.CautiousPolicy
	}
	sums, err := game.Autoplay(ctx, ctrl, *runs, *maxChoices, policy, engine.NewStream(*seed))
	if err != nil {
		return err
	}
	total := 0
	for _, s := range sums {
		total += s.ChoicesMade
		fmt.Printf("%s  %-6s %4d choices  score %5d  insight +%d\n", s.RunID, s.ZeroMeter, s.ChoicesMade, s.Score, s.InsightEarned)
	}
	if len(sums) > 0 {
		fmt.Printf("collapsed %d/%d runs, mean %.1f choices, insight %d\n", len(sums), *runs, float64(total)/float64(len(sums)), ctrl.Insight())
	}
	return nil
}

// boot opens the store and brings a controller to the idle state. A scene
// load failure is logged; the controller then plays the fallback scene.
func boot(ctx context.Context, cfg util.Config, logger *slog.Logger, opts ...game.Option) (*game.Controller, store.KV, error) {
	kv, err := store.OpenKV(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	texts, err := i18n.New()
	if err != nil {
		kv.Close()
		return nil, nil, err
	}
	var scenes fs.FS = assets.Scenes()
	if cfg.ScenesDir != "" {
		scenes = os.DirFS(cfg.ScenesDir)
	}
	ctrl := game.New(kv, texts, append([]game.Option{game.WithLogger(logger)}, opts...)...)
	if err := ctrl.Init(ctx, scenes); err != nil {
		logger.Warn("scene pools unavailable, using fallback", "error", err)
	}
	if cfg.Language != "" && !ctrl.SetLanguage(ctx, cfg.Language) {
		logger.Warn("unknown language", "lang", cfg.Language)
	}
	return ctrl, kv, nil
}

// newLogger writes text logs to stderr in headless mode and to a file under
// the data directory while the TUI owns the terminal.
func newLogger(cfg util.Config) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	closeFn := func() {}
	if !cfg.Headless {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(filepath.Join(cfg.DataDir, "onechoice.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}
