package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"evosculpt/internal/export"
	"evosculpt/internal/genotype"
	"evosculpt/internal/model"
	"evosculpt/internal/nn"
	"evosculpt/internal/phenotype"
	"evosculpt/internal/sculpt"
	"evosculpt/internal/stats"
	"evosculpt/internal/storage"
	"evosculpt/internal/studio"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "render":
		return runRender(ctx, args[1:])
	case "sculpt":
		return runSculpt(ctx, args[1:])
	case "session":
		return runSession(ctx, args[1:])
	case "sessions":
		return runSessions(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRender(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	seed := fs.Int64("seed", 1, "genome seed")
	size := fs.Int("size", phenotype.DefaultSize, "image width and height")
	out := fs.String("out", "phenotype.png", "output image (.png, .bmp, .tga)")
	upscale := fs.Int("upscale", 1, "integer upscale factor")
	if err := fs.Parse(args); err != nil {
		return err
	}

	img, err := renderSeed(*seed, *size)
	if err != nil {
		return err
	}
	if err := export.WriteImage(*out, img, *upscale); err != nil {
		return err
	}
	fmt.Printf("rendered seed=%d size=%dx%d out=%s bytes=%s\n", *seed, img.Width, img.Height, filepath.Clean(*out), fileSize(*out))
	return nil
}

func runSculpt(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("sculpt", flag.ContinueOnError)
	seed := fs.Int64("seed", 1, "genome seed")
	size := fs.Int("size", phenotype.DefaultSize, "sculpt map width and height")
	modeName := fs.String("mode", model.StitchPlane.String(), "stitching: plane|cylinder|sphere|torus")
	polesName := fs.String("poles", sculpt.PoleRimFan.String(), "sphere caps: rim|synthesized")
	scale := fs.Float64("scale", sculpt.DefaultScale, "mesh scale")
	out := fs.String("out", "sculpt.obj", "output Wavefront OBJ")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mode, err := model.ParseStitchingMode(*modeName)
	if err != nil {
		return err
	}
	poles, err := sculpt.ParsePoleMode(*polesName)
	if err != nil {
		return err
	}
	img, err := renderSeed(*seed, *size)
	if err != nil {
		return err
	}
	mesh, err := sculpt.SynthesizeWith(img, sculpt.Options{Scale: *scale, Mode: mode, Poles: poles})
	if err != nil {
		return err
	}
	if err := export.WriteOBJFile(*out, mesh, fmt.Sprintf("seed_%d", *seed)); err != nil {
		return err
	}
	fmt.Printf("sculpted seed=%d mode=%s vertices=%d triangles=%d out=%s bytes=%s\n",
		*seed, mode, len(mesh.Vertices), mesh.TriangleCount(), filepath.Clean(*out), fileSize(*out))
	return nil
}

func runSession(ctx context.Context, args []string) error {
	defaults := defaultSessionConfig()
	fs := flag.NewFlagSet("session", flag.ContinueOnError)
	configPath := fs.String("config", "", "session config file (.json, .yaml, .yml)")
	scriptPath := fs.String("script", "", "read commands from a file instead of stdin")
	grid := fs.Int("grid", defaults.GridSize, "grid side length")
	maxGrid := fs.Int("max-grid", defaults.MaxGridSize, "largest grid side a resize may request")
	size := fs.Int("size", defaults.ImageSize, "phenotype width and height")
	scale := fs.Float64("scale", defaults.Scale, "mesh scale")
	modeName := fs.String("mode", defaults.Stitching, "stitching: plane|cylinder|sphere|torus")
	polesName := fs.String("poles", defaults.Poles, "sphere caps: rim|synthesized")
	seed := fs.Int64("seed", defaults.Seed, "population seed")
	fallback := fs.String("fallback", defaults.Fallback, "evolve with no champions: population|reseed")
	workers := fs.Int("workers", defaults.Workers, "regeneration workers (0 = GOMAXPROCS)")
	storeKind := fs.String("store", defaults.Store, "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaults.DBPath, "sqlite database path")
	logLevel := fs.String("log-level", defaults.LogLevel, "log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg := defaults
	if *configPath != "" {
		loaded, err := loadSessionConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	overrideFromFlags(&cfg, setFlags, map[string]any{
		"grid":      *grid,
		"max-grid":  *maxGrid,
		"size":      *size,
		"scale":     *scale,
		"mode":      *modeName,
		"poles":     *polesName,
		"seed":      *seed,
		"fallback":  *fallback,
		"workers":   *workers,
		"store":     *storeKind,
		"db-path":   *dbPath,
		"log-level": *logLevel,
	})

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg.Store, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	scfg, err := cfg.studioConfig(store, logger)
	if err != nil {
		return err
	}
	session, err := studio.NewSession(ctx, scfg)
	if err != nil {
		return err
	}

	in := os.Stdin
	interactive := *scriptPath == "" && isTerminal(os.Stdin)
	if *scriptPath != "" {
		f, err := os.Open(*scriptPath)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	fmt.Printf("session id=%s grid=%d image=%d stitching=%s store=%s\n",
		session.ID(), session.GridSize(), session.ImageSize(), session.Stitching(), cfg.Store)
	r := newREPL(session, os.Stdout)
	r.prompt = interactive
	r.color = isTerminal(os.Stdout)
	return r.run(ctx, in)
}

func runSessions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evosculpt.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit sessions as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions found")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("id=%s created=%s grid=%d image=%d stitching=%s seed=%d\n",
			s.ID, humanize.Time(s.CreatedAt), s.GridSize, s.ImageSize, s.Stitching, s.Seed)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	sessionID := fs.String("session", "", "session id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evosculpt.db", "sqlite database path")
	plotPath := fs.String("plot", "", "write a champions-per-generation plot (.png, .svg, .pdf)")
	csvPath := fs.String("csv", "", "write the generation table as CSV")
	jsonOut := fs.Bool("json", false, "emit summary and generations as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sessionID == "" {
		return errors.New("session is required")
	}

	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	records, err := store.ListGenerations(ctx, *sessionID)
	if err != nil {
		return err
	}
	summary := stats.SummarizeHistory(records)

	if *plotPath != "" && len(records) > 0 {
		if err := stats.PlotHistory(records, "session "+*sessionID, *plotPath); err != nil {
			return err
		}
	}
	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			return err
		}
		if err := stats.WriteHistoryCSV(f, records); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Summary     stats.HistorySummary     `json:"summary"`
			Generations []model.GenerationRecord `json:"generations"`
		}{summary, records})
	}
	if len(records) == 0 {
		fmt.Println("no generation history")
		return nil
	}
	for _, r := range records {
		fmt.Printf("generation=%d population=%d champions=%d fallback=%t created=%s\n",
			r.Generation, r.PopulationSize, len(r.Champions), r.Fallback, humanize.Time(r.CreatedAt))
	}
	fmt.Printf("generations=%d mean_champions=%.2f max_champions=%d fallbacks=%d distinct_children=%d\n",
		summary.Generations, summary.MeanChampions, summary.MaxChampions, summary.FallbackCount, summary.DistinctChildren)
	if *plotPath != "" && len(records) > 0 {
		fmt.Printf("plot=%s bytes=%s\n", filepath.Clean(*plotPath), fileSize(*plotPath))
	}
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: evosculptctl <render|sculpt|session|sessions|history> [flags]", msg)
}

// renderSeed breeds one genome the way a fresh population slot is filled and
// renders it.
func renderSeed(seed int64, size int) (model.Image, error) {
	registry := nn.DefaultRegistry()
	breeder, err := genotype.NewBreeder(registry, genotype.DefaultConfig())
	if err != nil {
		return model.Image{}, err
	}
	rng := rand.New(rand.NewSource(seed))
	genome, err := breeder.NewGenome(rng)
	if err != nil {
		return model.Image{}, err
	}
	genome, err = breeder.Diversify(genome, rng)
	if err != nil {
		return model.Image{}, err
	}
	renderer, err := phenotype.NewRenderer(registry)
	if err != nil {
		return model.Image{}, err
	}
	return renderer.Render(genome, size, size)
}

func openStore(ctx context.Context, kind, dbPath string) (storage.Store, error) {
	store, err := storage.NewStore(kind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, err
	}
	return store, nil
}

func newLogger(levelName string) (*slog.Logger, error) {
	level, err := parseLogLevel(strings.TrimSpace(levelName))
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "?"
	}
	return humanize.Bytes(uint64(info.Size()))
}
