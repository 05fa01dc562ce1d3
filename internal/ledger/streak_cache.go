package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/calispro/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
)

const (
	streakKeyPrefix           = "calispro-streak||"
	streakGenerationKeyPrefix = "calispro-streak-gen||"
	// outlives any stats entry, which expires at the latest one day after it was written
	streakGenerationTTL = 48 * time.Hour
)

// StreakCache keeps computed streak stats per user until the next UTC midnight,
// after which today/yesterday shift and the stats must be recomputed.
//
// Entries are keyed by a per-user generation that every history write bumps. A reader
// passes the generation it saw before loading history back to Set, so stats computed
// from history that changed in the meantime land under a key nobody reads anymore.
type StreakCache struct {
	redisClient *redis.Client
	// injectable for tests
	Now func() time.Time
}

func NewStreakCache(redisClient *redis.Client) *StreakCache {
	return &StreakCache{
		redisClient: redisClient,
		Now:         time.Now,
	}
}

func streakKey(userID string, generation int64) string {
	return fmt.Sprintf("%s%s||%d", streakKeyPrefix, userID, generation)
}

func streakGenerationKey(userID string) string {
	return streakGenerationKeyPrefix + userID
}

// untilNextUTCMidnight is never zero, so a value written at 23:59:59.999 still expires.
func untilNextUTCMidnight(now time.Time) time.Duration {
	ttl := utcDayStart(now).Add(day).Sub(now.UTC())
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}

// Get returns the current generation along with the cached stats. A miss is (nil, generation, nil).
func (c *StreakCache) Get(ctx context.Context, userID string) (_ *StreakStats, _ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "cache.ledger.streak.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	generation, err := c.redisClient.Get(ctx, streakGenerationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		generation = 0
	} else if err != nil {
		return nil, 0, fmt.Errorf("redis get generation: %w", err)
	}

	raw, err := c.redisClient.Get(ctx, streakKey(userID, generation)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, generation, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("redis get: %w", err)
	}

	var stats StreakStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, 0, fmt.Errorf("unmarshal cached stats: %w", err)
	}
	return &stats, generation, nil
}

func (c *StreakCache) Set(ctx context.Context, userID string, generation int64, stats StreakStats) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "cache.ledger.streak.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	statsJson, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	return c.redisClient.Set(ctx, streakKey(userID, generation), statsJson, untilNextUTCMidnight(c.Now())).Err()
}

// Invalidate bumps the generation; entries of older generations just expire.
func (c *StreakCache) Invalidate(ctx context.Context, userID string) error {
	key := streakGenerationKey(userID)
	if err := c.redisClient.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis incr generation: %w", err)
	}
	return c.redisClient.Expire(ctx, key, streakGenerationTTL).Err()
}
