// Package studio is the boundary the viewer talks to. A Session owns the
// evolution engine and keeps every genome's phenotype image and sculpt mesh
// cached until the population or the stitching mode changes.
package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"

	"evosculpt/internal/evo"
	"evosculpt/internal/genotype"
	"evosculpt/internal/model"
	"evosculpt/internal/nn"
	"evosculpt/internal/phenotype"
	"evosculpt/internal/sculpt"
	"evosculpt/internal/stats"
	"evosculpt/internal/storage"
)

type Config struct {
	ID          string
	GridSize    int
	MaxGridSize int
	Seed        int64
	Fallback    evo.FallbackPolicy
	ImageSize   int
	Scale       float64
	Stitching   model.StitchingMode
	Poles       sculpt.PoleMode
	Workers     int
	Registry    *nn.Registry
	Genotype    genotype.Config
	// Store is optional; without it nothing is journaled.
	Store  storage.Store
	Now    func() time.Time
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.ImageSize == 0 {
		c.ImageSize = phenotype.DefaultSize
	}
	if c.Scale == 0 {
		c.Scale = sculpt.DefaultScale
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Registry == nil {
		c.Registry = nn.DefaultRegistry()
	}
	if len(c.Genotype.OutputActivations) == 0 {
		c.Genotype = genotype.DefaultConfig()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Session is driven from a single loop. Regeneration fans out to a worker
// pool internally but never touches the engine from a worker.
type Session struct {
	id        string
	engine    *evo.Engine
	renderer  *phenotype.Renderer
	store     storage.Store
	logger    *slog.Logger
	now       func() time.Time
	imageSize int
	scale     float64
	stitching model.StitchingMode
	poles     sculpt.PoleMode
	workers   int

	images      []model.Image
	meshes      []model.Mesh
	imagesStale bool
	meshesStale bool
}

func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	if !cfg.Stitching.Valid() {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownStitching, cfg.Stitching)
	}
	if cfg.ImageSize < 2 {
		return nil, fmt.Errorf("%w: image size %d", phenotype.ErrGridTooSmall, cfg.ImageSize)
	}

	breeder, err := genotype.NewBreeder(cfg.Registry, cfg.Genotype)
	if err != nil {
		return nil, err
	}
	renderer, err := phenotype.NewRenderer(cfg.Registry)
	if err != nil {
		return nil, err
	}
	engine, err := evo.NewEngine(evo.Config{
		GridSize:    cfg.GridSize,
		MaxGridSize: cfg.MaxGridSize,
		Seed:        cfg.Seed,
		Breeder:     breeder,
		Fallback:    cfg.Fallback,
		Logger:      cfg.Logger.With("session", cfg.ID),
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:          cfg.ID,
		engine:      engine,
		renderer:    renderer,
		store:       cfg.Store,
		logger:      cfg.Logger.With("session", cfg.ID),
		now:         cfg.Now,
		imageSize:   cfg.ImageSize,
		scale:       cfg.Scale,
		stitching:   cfg.Stitching,
		poles:       cfg.Poles,
		workers:     cfg.Workers,
		imagesStale: true,
		meshesStale: true,
	}
	if s.store != nil {
		record := model.SessionRecord{
			VersionedRecord: storage.CurrentVersion(),
			ID:              s.id,
			CreatedAt:       s.now().UTC(),
			GridSize:        engine.GridSize(),
			ImageSize:       s.imageSize,
			Stitching:       s.stitching.String(),
			Seed:            cfg.Seed,
		}
		if err := s.store.SaveSession(ctx, record); err != nil {
			return nil, fmt.Errorf("journal session %s: %w", s.id, err)
		}
	}
	s.logger.Info("session started", "grid_size", engine.GridSize(), "stitching", s.stitching.String(), "workers", s.workers)
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

// Tick services pending requests, journals a serviced evolve and refreshes
// the caches. Engine errors are returned after whatever did apply has been
// cached.
func (s *Session) Tick(ctx context.Context) (evo.TickResult, error) {
	result, tickErr := s.engine.Tick()
	if result.Serviced != 0 {
		s.imagesStale = true
		s.meshesStale = true
	}
	if result.Serviced.Has(evo.CommandEvolve) {
		s.logger.Info("generation bred",
			"generation", result.Generation,
			"population", result.PopulationSize,
			"champions", len(result.Champions),
			"fallback", result.Fallback,
		)
		if err := s.journal(ctx, result); err != nil {
			return result, err
		}
	}
	if err := s.Regenerate(ctx); err != nil {
		return result, errors.Join(tickErr, err)
	}
	return result, tickErr
}

func (s *Session) journal(ctx context.Context, result evo.TickResult) error {
	if s.store == nil {
		return nil
	}
	record := model.GenerationRecord{
		VersionedRecord:    storage.CurrentVersion(),
		SessionID:          s.id,
		Generation:         result.Generation,
		PopulationSize:     result.PopulationSize,
		Champions:          result.Champions,
		Fallback:           result.Fallback,
		ParentFingerprints: result.ParentFingerprints,
		ChildFingerprints:  result.ChildFingerprints,
		CreatedAt:          s.now().UTC(),
	}
	if err := s.store.AppendGeneration(ctx, record); err != nil {
		return fmt.Errorf("journal generation %d: %w", result.Generation, err)
	}
	return nil
}

// CurrentImage returns the phenotype of genome i. The second result is
// false for an index outside the current population.
func (s *Session) CurrentImage(i int) (model.Image, bool) {
	if i < 0 || i >= s.engine.Len() {
		return model.Image{}, false
	}
	if err := s.Regenerate(context.Background()); err != nil {
		s.logger.Error("regenerate phenotypes", "error", err)
		return model.Image{}, false
	}
	return s.images[i], true
}

// CurrentMesh returns the sculpt mesh of genome i under the current
// stitching mode.
func (s *Session) CurrentMesh(i int) (model.Mesh, bool) {
	if i < 0 || i >= s.engine.Len() {
		return model.Mesh{}, false
	}
	if err := s.Regenerate(context.Background()); err != nil {
		s.logger.Error("regenerate meshes", "error", err)
		return model.Mesh{}, false
	}
	return s.meshes[i], true
}

func (s *Session) Genome(i int) (model.Genome, bool) {
	return s.engine.Genome(i)
}

func (s *Session) SetFitness(i int, value float64) bool {
	return s.engine.SetFitness(i, value)
}

func (s *Session) ToggleSelection(i int) bool {
	return s.engine.ToggleSelection(i)
}

func (s *Session) Fitness(i int) (float64, bool) {
	return s.engine.Fitness(i)
}

func (s *Session) Champions() []int {
	return s.engine.Champions()
}

func (s *Session) RequestEvolve() {
	s.engine.RequestEvolve()
}

func (s *Session) RequestResize(g int) error {
	return s.engine.RequestResize(g)
}

func (s *Session) RequestReset() {
	s.engine.RequestReset()
}

// SetStitching switches every mesh to mode. Images stay cached.
func (s *Session) SetStitching(mode model.StitchingMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %s", model.ErrUnknownStitching, mode)
	}
	if mode == s.stitching {
		return nil
	}
	s.stitching = mode
	s.meshesStale = true
	s.engine.MarkDirty()
	s.logger.Info("stitching changed", "stitching", mode.String())
	return nil
}

func (s *Session) Stitching() model.StitchingMode {
	return s.stitching
}

func (s *Session) CurrentGeneration() int {
	return s.engine.Generation()
}

func (s *Session) GridSize() int {
	return s.engine.GridSize()
}

func (s *Session) Len() int {
	return s.engine.Len()
}

func (s *Session) ImageSize() int {
	return s.imageSize
}

// IsDirty reports whether the viewer should re-upload images and meshes.
func (s *Session) IsDirty() bool {
	return s.engine.IsDirty()
}

func (s *Session) ClearDirty() {
	s.engine.ClearDirty()
}

// ActivationDistribution counts neurons per activation function over the
// whole population, input neurons excluded.
func (s *Session) ActivationDistribution() map[string]int {
	return stats.ActivationDistribution(s.engine.Genomes())
}

// LogActivationDistribution reports the distribution at info level.
func (s *Session) LogActivationDistribution() {
	attrs := make([]any, 0, 8)
	for _, c := range stats.SortedDistribution(s.ActivationDistribution()) {
		attrs = append(attrs, slog.Int(c.Name, c.Count))
	}
	s.logger.Info("activation distribution", slog.Group("neurons", attrs...))
}
