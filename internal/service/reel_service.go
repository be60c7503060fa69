package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Beliver-247/photoBooth-server/internal/domain"
	"github.com/Beliver-247/photoBooth-server/pkg/assetstore"
	"github.com/Beliver-247/photoBooth-server/pkg/metrics"
)

// ReelGenerator produces a reel from exactly three photo asset ids.
type ReelGenerator interface {
	Generate(ctx context.Context, photoAssetIDs []string) (domain.GeneratedReel, error)
}

// Composer stacks raw photos into one encoded image.
type Composer interface {
	Compose(ctx context.Context, photos [][]byte) ([]byte, error)
}

// ReelConfig configures the reel generator
type ReelConfig struct {
	Layout  domain.Layout
	Folder  string        // upload folder for locally composed reels
	Timeout time.Duration // bound for each network call
}

type reelStrategy struct {
	name domain.Strategy
	run  func(ctx context.Context, ids []string) (domain.GeneratedReel, error)
}

// ReelService tries its strategies in order and returns the first success.
type ReelService struct {
	store      assetstore.Store
	composer   Composer
	cfg        ReelConfig
	logger     *zap.Logger
	strategies []reelStrategy
}

// NewReelService creates a reel generator with the remote transform first
// and local compositing as the fallback.
func NewReelService(store assetstore.Store, composer Composer, cfg ReelConfig, logger *zap.Logger) *ReelService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	s := &ReelService{
		store:    store,
		composer: composer,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "reel")),
	}
	s.strategies = []reelStrategy{
		{name: domain.StrategyRemoteTransform, run: s.remoteTransform},
		{name: domain.StrategyLocalComposite, run: s.localComposite},
	}
	return s
}

// Generate returns the first reel any strategy produces. When all of them
// fail the error wraps the last strategy's cause.
func (s *ReelService) Generate(ctx context.Context, photoAssetIDs []string) (domain.GeneratedReel, error) {
	if len(photoAssetIDs) != domain.PhotosPerReel {
		return domain.GeneratedReel{}, domain.InvalidInput("reel.generate",
			fmt.Sprintf("expected %d photos, got %d", domain.PhotosPerReel, len(photoAssetIDs)))
	}

	var lastErr error
	for i, strategy := range s.strategies {
		start := time.Now()
		reel, err := strategy.run(ctx, photoAssetIDs)
		if err == nil {
			metrics.ReelGenerationsTotal.WithLabelValues(string(strategy.name), "success").Inc()
			metrics.ReelGenerationDuration.WithLabelValues(string(strategy.name)).Observe(time.Since(start).Seconds())
			s.logger.Info("reel generated",
				zap.String("strategy", string(strategy.name)),
				zap.String("reel_asset_id", reel.AssetID),
				zap.Duration("elapsed", time.Since(start)),
			)
			return reel, nil
		}

		metrics.ReelGenerationsTotal.WithLabelValues(string(strategy.name), "failure").Inc()
		fields := []zap.Field{zap.String("strategy", string(strategy.name)), zap.Error(err)}
		if i < len(s.strategies)-1 {
			s.logger.Info("reel strategy failed, falling back", fields...)
		} else {
			s.logger.Error("reel strategy failed", fields...)
		}
		lastErr = err
	}

	return domain.GeneratedReel{}, domain.ReelGenerationFailed("reel.generate", lastErr)
}

func (s *ReelService) remoteTransform(ctx context.Context, ids []string) (domain.GeneratedReel, error) {
	url, err := s.store.BuildTransformURL(ids[0], RemoteTransformSteps(s.cfg.Layout, ids))
	if err != nil {
		return domain.GeneratedReel{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := s.store.Resolve(ctx, url); err != nil {
		return domain.GeneratedReel{}, fmt.Errorf("remote transform rejected: %w", err)
	}

	return domain.GeneratedReel{
		AssetID:  domain.RemoteReelAssetID(ids[0]),
		URL:      url,
		Strategy: domain.StrategyRemoteTransform,
	}, nil
}

func (s *ReelService) localComposite(ctx context.Context, ids []string) (domain.GeneratedReel, error) {
	photos := make([][]byte, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, s.cfg.Timeout)
			defer cancel()
			data, err := s.store.FetchBytes(fctx, id)
			if err != nil {
				return fmt.Errorf("failed to fetch photo %d (%s): %w", i, id, err)
			}
			photos[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.GeneratedReel{}, err
	}

	composed, err := s.composer.Compose(ctx, photos)
	if err != nil {
		return domain.GeneratedReel{}, fmt.Errorf("failed to compose reel: %w", err)
	}

	uctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	assetID, err := s.store.Upload(uctx, composed, "reel_"+uuid.NewString(), s.cfg.Folder)
	if err != nil {
		return domain.GeneratedReel{}, fmt.Errorf("failed to upload reel: %w", err)
	}

	url, err := s.store.PublicURL(assetID)
	if err != nil {
		return domain.GeneratedReel{}, err
	}

	return domain.GeneratedReel{
		AssetID:  assetID,
		URL:      url,
		Strategy: domain.StrategyLocalComposite,
	}, nil
}

// RemoteTransformSteps is the transformation chain that renders a reel from
// ids[0] with ids[1] and ids[2] overlaid below it.
func RemoteTransformSteps(layout domain.Layout, ids []string) []assetstore.TransformStep {
	steps := []assetstore.TransformStep{
		{
			Width:      layout.FinalWidth(),
			Height:     layout.FinalHeight(),
			Crop:       "lpad",
			Background: "white",
			Gravity:    "north",
			Y:          layout.Margin,
		},
		{
			Width:  layout.PhotoWidth,
			Height: layout.PhotoHeight,
			Crop:   "fill",
		},
	}
	for i := 1; i < len(ids); i++ {
		steps = append(steps, assetstore.TransformStep{
			Overlay: ids[i],
			Width:   layout.PhotoWidth,
			Height:  layout.PhotoHeight,
			Crop:    "fill",
			Gravity: "north",
			Y:       layout.OffsetY(i),
		})
	}
	return append(steps, assetstore.TransformStep{Format: "jpg"})
}
