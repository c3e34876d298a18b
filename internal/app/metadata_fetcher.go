package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/yourusername/cyberstream-go/internal/domain"
	"go.uber.org/zap"
)

// MetadataFetcher resolves video metadata, trying each client persona in
// order until one succeeds
type MetadataFetcher struct {
	extractor domain.Extractor
	personas  []domain.ClientPersona
	config    domain.MetadataConfig
	logger    *zap.Logger
}

// NewMetadataFetcher creates a new metadata fetcher. An empty persona
// list falls back to the default order.
func NewMetadataFetcher(
	extractor domain.Extractor,
	personas []domain.ClientPersona,
	config domain.MetadataConfig,
	logger *zap.Logger,
) *MetadataFetcher {
	if len(personas) == 0 {
		personas, _ = domain.PersonaSequence(nil)
	}
	return &MetadataFetcher{
		extractor: extractor,
		personas:  personas,
		config:    config,
		logger:    logger,
	}
}

// Fetch returns metadata for url. When every persona fails the degraded
// placeholder record is returned instead of an error; only an empty URL
// or a cancelled ctx produce one.
func (f *MetadataFetcher) Fetch(ctx context.Context, url string) (*domain.VideoMetadata, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, domain.ErrURLRequired
	}

	var (
		result  *domain.VideoMetadata
		lastErr error
		attempt int
	)

	err := retry.Do(
		func() error {
			persona := f.personas[attempt]
			attempt++

			md, err := f.inspect(ctx, url, persona)
			if err != nil {
				if ctx.Err() != nil {
					return retry.Unrecoverable(ctx.Err())
				}
				lastErr = err
				f.logger.Warn("Metadata attempt failed",
					zap.String("url", url),
					zap.String("persona", string(persona.ID)),
					zap.Int("attempt", attempt),
					zap.Error(err))
				return err
			}

			f.logger.Info("Metadata fetched",
				zap.String("url", url),
				zap.String("persona", string(persona.ID)),
				zap.Int("attempt", attempt))
			result = md
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(len(f.personas))),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(f.config.AttemptDelay),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("metadata fetch aborted: %w", ctxErr)
	}

	f.logger.Error("Returning degraded metadata",
		zap.String("url", url),
		zap.Int("attempts", attempt),
		zap.Error(fmt.Errorf("%w: %v", domain.ErrAllPersonasFailed, lastErr)))

	return domain.NewDegradedMetadata(url, lastErr), nil
}

// inspect runs a single attempt bounded by the per-attempt timeout
func (f *MetadataFetcher) inspect(ctx context.Context, url string, persona domain.ClientPersona) (*domain.VideoMetadata, error) {
	if f.config.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.AttemptTimeout)
		defer cancel()
	}
	return f.extractor.Inspect(ctx, url, persona)
}
