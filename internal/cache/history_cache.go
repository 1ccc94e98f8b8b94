package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"notewise/internal/model"
)

// HistoryCache keeps a short-lived copy of a subject's message log. A dirty
// marker is set whenever a message is queued for persistence so that readers
// bypass the copy until the queue has caught up.
type HistoryCache struct {
	client         *redisv9.Client
	historyTTL     time.Duration
	dirtyMarkerTTL time.Duration
}

func NewHistoryCache(client *redisv9.Client, historyTTL, dirtyMarkerTTL time.Duration) *HistoryCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &HistoryCache{
		client:         client,
		historyTTL:     historyTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *HistoryCache) GetHistory(ctx context.Context, subjectID string) ([]model.ChatMessage, bool, error) {
	raw, err := c.client.Get(ctx, historyKey(subjectID)).Result()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get history failed: %w", err)
	}

	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached history failed: %w", err)
	}
	return messages, true, nil
}

func (c *HistoryCache) SetHistory(ctx context.Context, subjectID string, messages []model.ChatMessage) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, historyKey(subjectID), payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) DeleteHistory(ctx context.Context, subjectID string) error {
	if err := c.client.Del(ctx, historyKey(subjectID), dirtyKey(subjectID)).Err(); err != nil {
		return fmt.Errorf("redis delete history failed: %w", err)
	}
	return nil
}

// Invalidate marks the subject dirty and drops the cached copy.
func (c *HistoryCache) Invalidate(ctx context.Context, subjectID string) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, dirtyKey(subjectID), "1", c.dirtyMarkerTTL)
	pipe.Del(ctx, historyKey(subjectID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis invalidate history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) IsDirty(ctx context.Context, subjectID string) (bool, error) {
	exists, err := c.client.Exists(ctx, dirtyKey(subjectID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func historyKey(subjectID string) string {
	return "notes:history:" + subjectID
}

func dirtyKey(subjectID string) string {
	return "notes:history:dirty:" + subjectID
}
