package studio

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"evosculpt/internal/model"
	"evosculpt/internal/sculpt"
)

// Regenerate rebuilds stale caches. Images are rendered only when the
// population changed; a stitching change alone re-synthesizes meshes from
// the cached images.
func (s *Session) Regenerate(ctx context.Context) error {
	if !s.imagesStale && !s.meshesStale && len(s.images) == s.engine.Len() {
		return nil
	}
	started := time.Now()
	genomes := s.engine.Genomes()
	rerender := s.imagesStale || len(s.images) != len(genomes)

	images := s.images
	if rerender {
		images = make([]model.Image, len(genomes))
	}
	meshes := make([]model.Mesh, len(genomes))
	opts := sculpt.Options{Scale: s.scale, Mode: s.stitching, Poles: s.poles}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(s.workers).WithCancelOnError()
	for i := range genomes {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if rerender {
				img, err := s.renderer.Render(genomes[i], s.imageSize, s.imageSize)
				if err != nil {
					return fmt.Errorf("render genome %d: %w", i, err)
				}
				images[i] = img
			}
			mesh, err := sculpt.SynthesizeWith(images[i], opts)
			if err != nil {
				return fmt.Errorf("sculpt genome %d: %w", i, err)
			}
			meshes[i] = mesh
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	s.images = images
	s.meshes = meshes
	s.imagesStale = false
	s.meshesStale = false
	s.logger.Debug("population regenerated",
		"population", len(genomes),
		"rendered", rerender,
		"stitching", s.stitching.String(),
		"duration", time.Since(started),
	)
	return nil
}
