package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dealerhub/dealerhub/internal/config"
	"github.com/dealerhub/dealerhub/pkg/sentiment"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/eko/gocache/lib/v4/store"
)

// SentimentCachePrefix is prepended to every cached sentiment label key.
const SentimentCachePrefix = "sentiment-"

// SentimentCache memoizes the labels returned by a sentiment classifier.
// Only successful classifications are stored.
type SentimentCache struct {
	next   sentiment.Classifier
	labels *PrefixedCache[string]
	ttl    time.Duration
}

var _ sentiment.Classifier = (*SentimentCache)(nil)

// NewSentimentCache wraps next with a cache built from cfg.
func NewSentimentCache(cfg *config.CacheConfig, next sentiment.Classifier) *SentimentCache {
	return &SentimentCache{
		next:   next,
		labels: NewPrefixedCache[string](newCacheInstanceByType(cfg), cfg.Type, SentimentCachePrefix),
		ttl:    cfg.TTL,
	}
}

// NewClassifier returns next wrapped in a SentimentCache, or next itself when caching is disabled.
func NewClassifier(cfg *config.CacheConfig, next sentiment.Classifier) sentiment.Classifier {
	if cfg == nil || !cfg.Enabled {
		return next
	}
	return NewSentimentCache(cfg, next)
}

func textKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Classify returns the cached label for text or asks the wrapped classifier.
func (s *SentimentCache) Classify(ctx context.Context, text string) (string, error) {
	key := textKey(text)

	label, err := s.labels.Get(ctx, key)
	if err == nil && label != "" {
		return label, nil
	}
	if err != nil && !errors.Is(err, store.NotFound{}) {
		log.Debug("sentiment cache lookup failed", "error", err)
	}

	label, err = s.next.Classify(ctx, text)
	if err != nil {
		return "", err
	}

	var opts []store.Option
	if s.ttl > 0 {
		opts = append(opts, store.WithExpiration(s.ttl))
	}
	if err := s.labels.Set(ctx, key, label, opts...); err != nil {
		log.Warn("failed to cache sentiment label", "error", err)
	}
	return label, nil
}

// Stats returns hit and miss counters of the label cache.
func (s *SentimentCache) Stats() *Stats {
	return &Stats{
		Stats:     s.labels.GetStats(),
		CacheName: "sentiment",
	}
}

// Stats carries the counters of a named cache.
type Stats struct {
	*codec.Stats
	CacheName string `json:"cacheName"`
}
