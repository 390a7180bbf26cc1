package repository

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/config"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader reads the questions of a category from the backing store.
type QuestionLoader interface {
	ListByCategory(ctx context.Context, category string) ([]model.Question, error)
}

// QuestionCache keeps each category's question list as one JSON value in
// Redis and loads misses through a singleflight group, so a burst of
// session starts for one category hits Postgres once.
type QuestionCache struct {
	rdb    *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	log    zerolog.Logger
}

// NewQuestionCache creates a QuestionCache. A ttl of 0 disables expiry.
func NewQuestionCache(rdb *redis.Client, loader QuestionLoader, ttl time.Duration, log zerolog.Logger) *QuestionCache {
	return &QuestionCache{
		rdb:    rdb,
		loader: loader,
		ttl:    ttl,
		log:    log.With().Str("component", "question_cache").Logger(),
	}
}

// ListByCategory returns the cached questions of category, loading them on a miss.
func (c *QuestionCache) ListByCategory(ctx context.Context, category string) ([]model.Question, error) {
	if qs, ok := c.cached(ctx, category); ok {
		return qs, nil
	}

	v, err, _ := c.sf.Do(category, func() (interface{}, error) {
		// Another caller may have filled the cache while we waited.
		if qs, ok := c.cached(ctx, category); ok {
			return qs, nil
		}

		qs, err := c.loader.ListByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		if qs == nil {
			qs = []model.Question{}
		}

		raw, err := json.Marshal(qs)
		if err != nil {
			return nil, err
		}
		if err := c.rdb.Set(ctx, config.CacheKey.CategoryQuestionsKey(category), raw, c.ttlWithJitter()).Err(); err != nil {
			c.log.Warn().Err(err).Str("category", category).Msg("Failed to cache questions")
		}
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Question), nil
}

// Invalidate drops the cached list of each category.
func (c *QuestionCache) Invalidate(ctx context.Context, categories ...string) error {
	if len(categories) == 0 {
		return nil
	}
	keys := make([]string, len(categories))
	for i, cat := range categories {
		keys[i] = config.CacheKey.CategoryQuestionsKey(cat)
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *QuestionCache) cached(ctx context.Context, category string) ([]model.Question, bool) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.CategoryQuestionsKey(category)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("category", category).Msg("Question cache read failed")
		}
		return nil, false
	}

	var qs []model.Question
	if err := json.Unmarshal(raw, &qs); err != nil {
		c.log.Warn().Err(err).Str("category", category).Msg("Dropping unreadable question cache entry")
		_ = c.rdb.Del(ctx, config.CacheKey.CategoryQuestionsKey(category)).Err()
		return nil, false
	}
	return qs, true
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	return c.ttl + time.Duration(rand.Int64N(int64(c.ttl)/10+1))
}
