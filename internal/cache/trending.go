package cache

import (
	"context"
	"fmt"
	"time"
)

const trendingTTL = 48 * time.Hour

// TrendingHashtag is one entry of the trending list
type TrendingHashtag struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// trendingKey buckets hashtag counters by day so stale tags age out
func trendingKey(day time.Time) string {
	return fmt.Sprintf("trending:hashtags:%s", day.UTC().Format("2006-01-02"))
}

// RecordHashtags bumps today's counter for each hashtag of a new post
func (rc *RedisClient) RecordHashtags(ctx context.Context, hashtags []string) error {
	if rc == nil || len(hashtags) == 0 {
		return nil
	}

	key := trendingKey(time.Now())
	for _, tag := range hashtags {
		if tag == "" {
			continue
		}
		if err := rc.ZIncrBy(ctx, key, 1, tag); err != nil {
			return err
		}
	}

	return rc.Expire(ctx, key, trendingTTL)
}

// TopHashtags returns today's most used hashtags, highest count first
func (rc *RedisClient) TopHashtags(ctx context.Context, limit int) ([]TrendingHashtag, error) {
	if limit <= 0 {
		limit = 10
	}

	entries, err := rc.ZRevRangeWithScores(ctx, trendingKey(time.Now()), 0, int64(limit-1))
	if err != nil {
		return nil, err
	}

	top := make([]TrendingHashtag, 0, len(entries))
	for _, entry := range entries {
		tag, ok := entry.Member.(string)
		if !ok {
			continue
		}
		top = append(top, TrendingHashtag{Tag: tag, Count: int64(entry.Score)})
	}

	return top, nil
}
