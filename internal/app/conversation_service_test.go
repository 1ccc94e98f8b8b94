package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewise/internal/model"
)

func TestConversationService_HistoryUsesCacheWhenClean(t *testing.T) {
	env := newTestEnv(t)
	cache := newFakeHistoryCache()
	svc := NewConversationService(env.subjects, env.messages, cache)
	ctx := context.Background()
	bio := env.subject(t, "Biology")

	base := time.Now().Add(-time.Minute)
	for i, content := range []string{"q1", "a1", "q2"} {
		msg := model.NewUserMessage(bio.ID, content)
		msg.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, env.messages.Create(ctx, &msg))
	}

	got, err := svc.History(ctx, "session-1", bio.ID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].Content)
	assert.Equal(t, "q2", got[1].Content)

	cached, hit, _ := cache.GetHistory(ctx, bio.ID)
	require.True(t, hit)
	assert.Len(t, cached, 3)

	// a cached copy is served without touching the store
	require.NoError(t, cache.SetHistory(ctx, bio.ID, []model.ChatMessage{model.NewUserMessage(bio.ID, "from cache")}))
	got, err = svc.History(ctx, "session-1", bio.ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "from cache", got[0].Content)

	// a dirty subject bypasses the cache and is not re-cached
	require.NoError(t, cache.Invalidate(ctx, bio.ID))
	got, err = svc.History(ctx, "session-1", bio.ID, 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	_, hit, _ = cache.GetHistory(ctx, bio.ID)
	assert.False(t, hit)
}

func TestConversationService_UnknownSubject(t *testing.T) {
	env := newTestEnv(t)
	svc := NewConversationService(env.subjects, env.messages, nil)

	_, err := svc.History(context.Background(), "session-1", "missing", 10)
	assert.ErrorIs(t, err, ErrSubjectNotFound)
}
