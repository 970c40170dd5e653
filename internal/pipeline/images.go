package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"quiz-forge/internal/cache"
	"quiz-forge/internal/domain"
	"quiz-forge/internal/metrics"
	"quiz-forge/internal/placeholder"
	"quiz-forge/internal/provider"
	"quiz-forge/internal/rotation"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc is called after each image completes with the number done so
// far and the total. Calls are serialized and done is strictly increasing.
type ProgressFunc func(done, total int)

// GenerateImageForQuestion returns an image for prompt as a data URI or URL.
// It never fails: any error, including total credential exhaustion, yields
// a placeholder.
func (p *Pipeline) GenerateImageForQuestion(ctx context.Context, prompt string, userKeys []string) (uri string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Recovered from panic during image generation", zap.Any("panic", r))
			metrics.ImageResults.WithLabelValues("placeholder").Inc()
			uri = placeholder.SVGDataURI(prompt)
		}
	}()

	if strings.TrimSpace(prompt) == "" {
		metrics.ImageResults.WithLabelValues("placeholder").Inc()
		return placeholder.SVGDataURI(prompt)
	}

	cfg := p.providerConfig(ctx)
	adapter := p.primary
	phases := p.phases(userKeys)
	if cfg.IsCompatible() {
		adapter = p.newCompatible(*cfg.Compatible)
		phases = compatiblePhases(cfg.Compatible)
	}

	key := imageCacheKey(adapter.Name(), prompt)
	if cached, ok := p.cachedImage(ctx, key); ok {
		metrics.ImageResults.WithLabelValues("cache").Inc()
		return cached
	}

	v, err, _ := p.inflight.Do(key, func() (any, error) {
		return rotation.Execute(ctx, p.executor, phases,
			func(ctx context.Context, cred domain.Credential) (string, error) {
				return adapter.GenerateImage(ctx, cred, prompt)
			})
	})
	image, _ := v.(string)
	if err == nil && image == "" {
		err = errors.New("provider returned no image")
	}
	if err != nil {
		p.logger.Warn("Image generation unavailable, using placeholder",
			zap.String("provider", adapter.Name()),
			zap.Bool("exhausted", rotation.IsExhausted(err)),
			zap.Bool("rejected", provider.IsRequest(err)),
			zap.Error(err),
		)
		metrics.ImageResults.WithLabelValues("placeholder").Inc()
		return placeholder.SVGDataURI(prompt)
	}

	p.storeImage(ctx, key, image)
	metrics.ImageResults.WithLabelValues("generated").Inc()
	return image
}

// GenerateImages fills ImageURL for every question that has an image prompt.
// Images are generated sequentially unless ImageConcurrency allows more.
func (p *Pipeline) GenerateImages(ctx context.Context, questions []domain.Question, userKeys []string, progress ProgressFunc) {
	var targets []int
	for i, q := range questions {
		if q.HasImage && q.ImagePrompt != "" {
			targets = append(targets, i)
		}
	}
	total := len(targets)
	if total == 0 {
		return
	}

	var mu sync.Mutex
	done := 0
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		if progress != nil {
			progress(done, total)
		}
	}

	if p.cfg.ImageConcurrency <= 1 {
		for _, i := range targets {
			questions[i].ImageURL = p.GenerateImageForQuestion(ctx, questions[i].ImagePrompt, userKeys)
			report()
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(p.cfg.ImageConcurrency)
	for _, i := range targets {
		g.Go(func() error {
			questions[i].ImageURL = p.GenerateImageForQuestion(ctx, questions[i].ImagePrompt, userKeys)
			report()
			return nil
		})
	}
	_ = g.Wait()
}

func imageCacheKey(providerName, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return cache.GenerateCacheKey("pipeline", "image", providerName, hex.EncodeToString(sum[:]))
}

func (p *Pipeline) cachedImage(ctx context.Context, key string) (string, bool) {
	if p.cache == nil {
		return "", false
	}
	v, err := p.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			p.logger.Warn("Image cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return v, v != ""
}

func (p *Pipeline) storeImage(ctx context.Context, key, image string) {
	if p.cache == nil || placeholder.IsPlaceholder(image) {
		return
	}
	if err := p.cache.Set(ctx, key, image, p.cfg.ImageCacheTTL); err != nil {
		p.logger.Warn("Failed to cache generated image", zap.String("key", key), zap.Error(fmt.Errorf("cache set: %w", err)))
	}
}
