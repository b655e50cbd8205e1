package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/farmastock/internal/config"
	"github.com/andresuchdata/farmastock/internal/domain"
)

const (
	analysisKeyPrefix     = "analysis"
	analysisScanBatchSize = 100
)

// AnalysisKey identifies one run: the uploaded content, the parameters and the family table.
type AnalysisKey struct {
	ContentHash       string
	Config            domain.AnalysisConfig
	FamilyFingerprint string
}

// String renders the key as it is stored in redis.
func (k AnalysisKey) String() string {
	parts := []string{
		"content=" + k.ContentHash,
		"families=" + k.FamilyFingerprint,
	}
	for name, value := range k.Config.CacheKeyParts() {
		parts = append(parts, name+"="+value)
	}

	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%s:%s", analysisKeyPrefix, hex.EncodeToString(sum[:]))
}

// ContentHash returns the sha1 hex digest used to identify uploaded content.
func ContentHash(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

type AnalysisCache interface {
	Get(ctx context.Context, key AnalysisKey) (*domain.Analysis, bool, error)
	Set(ctx context.Context, key AnalysisKey, analysis *domain.Analysis) error
	Invalidate(ctx context.Context, key AnalysisKey) error
	InvalidateAll(ctx context.Context) error
}

type redisAnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopAnalysisCache struct{}

func NewAnalysisCache(cfg config.CacheConfig) (AnalysisCache, error) {
	if !cfg.Enabled {
		return &noopAnalysisCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisAnalysisCache(client, ttl), nil
}

// NewRedisAnalysisCache wraps an existing client.
func NewRedisAnalysisCache(client *redis.Client, ttl time.Duration) AnalysisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &redisAnalysisCache{client: client, ttl: ttl}
}

func NewNoopAnalysisCache() AnalysisCache {
	return &noopAnalysisCache{}
}

func (c *redisAnalysisCache) Get(ctx context.Context, key AnalysisKey) (*domain.Analysis, bool, error) {
	payload, err := c.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var analysis domain.Analysis
	if err := json.Unmarshal(payload, &analysis); err != nil {
		return nil, false, fmt.Errorf("decode analysis cache: %w", err)
	}

	return &analysis, true, nil
}

func (c *redisAnalysisCache) Set(ctx context.Context, key AnalysisKey, analysis *domain.Analysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis cache: %w", err)
	}

	if err := c.client.Set(ctx, key.String(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisAnalysisCache) Invalidate(ctx context.Context, key AnalysisKey) error {
	return c.client.Del(ctx, key.String()).Err()
}

func (c *redisAnalysisCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, analysisKeyPrefix+":", analysisScanBatchSize)
}

func (n *noopAnalysisCache) Get(ctx context.Context, key AnalysisKey) (*domain.Analysis, bool, error) {
	return nil, false, nil
}

func (n *noopAnalysisCache) Set(ctx context.Context, key AnalysisKey, analysis *domain.Analysis) error {
	return nil
}

func (n *noopAnalysisCache) Invalidate(ctx context.Context, key AnalysisKey) error {
	return nil
}

func (n *noopAnalysisCache) InvalidateAll(ctx context.Context) error {
	return nil
}
