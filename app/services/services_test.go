package services

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/amirphl/airwave/app/scheduler"
	"github.com/amirphl/airwave/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ scheduler.Publisher      = (*RedisNotificationService)(nil)
	_ scheduler.Publisher      = (*LogNotificationService)(nil)
	_ scheduler.PlaybackDevice = (*RedisPlaybackDevice)(nil)
	_ scheduler.PlaybackDevice = (*LogPlaybackDevice)(nil)
	_ scheduler.TickLock       = (*RedisTickLock)(nil)
)

func TestQueueEvents(t *testing.T) {
	t.Run("QueueUpdatedCarriesWholeQueue", func(t *testing.T) {
		raw, err := json.Marshal(NewQueueUpdatedEvent(nil))
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, EventQueueUpdated, decoded["type"])
		assert.Equal(t, []any{}, decoded["queue"])
		assert.NotContains(t, decoded, "item")
	})

	t.Run("ScheduledPlaybackCarriesItem", func(t *testing.T) {
		event := NewScheduledPlaybackEvent(&models.QueueItem{Title: "news", DurationSeconds: 60})
		raw, err := json.Marshal(event)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, EventScheduledPlayback, decoded["type"])
		require.IsType(t, map[string]any{}, decoded["item"])
		assert.Equal(t, "news", decoded["item"].(map[string]any)["title"])
		assert.NotContains(t, decoded, "queue")
	})

	t.Run("EmptyQueueKeepsKey", func(t *testing.T) {
		raw, err := json.Marshal(NewQueueUpdatedEvent([]*models.QueueItem{}))
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"queue":[]`)
	})
}

func TestLogFallbacks(t *testing.T) {
	ctx := context.Background()
	logger := log.New(io.Discard, "", 0)

	assert.NoError(t, NewLogNotificationService(logger).PublishQueueUpdated(ctx, nil))
	assert.NoError(t, NewLogNotificationService(logger).PublishScheduledPlayback(ctx, nil))
	assert.NoError(t, NewLogPlaybackDevice(logger).SetVolume(ctx, 40))
	assert.NoError(t, NewLogPlaybackDevice(logger).AddToQueue(ctx, &models.QueueItem{Title: "a"}, 0))
}

func TestRedisPlaybackDevice_RejectsVolumeOutOfRange(t *testing.T) {
	device := NewRedisPlaybackDevice(nil, "airwave:device")
	assert.Error(t, device.SetVolume(context.Background(), 101))
	assert.Error(t, device.SetVolume(context.Background(), -1))
}

// redisForTest connects to TEST_REDIS_URL or skips
func redisForTest(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRedisTickLock(t *testing.T) {
	client := redisForTest(t)
	ctx := context.Background()
	key := "airwave:test:tick-lock:" + time.Now().Format("150405.000000")
	t.Cleanup(func() { _ = client.Del(ctx, key).Err() })

	leader := NewRedisTickLock(client, key, time.Minute)
	standby := NewRedisTickLock(client, key, time.Minute)

	held, err := leader.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, held)

	held, err = standby.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, held)

	held, err = leader.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, held, "holder renews its lease")

	require.NoError(t, leader.Release(ctx))
	held, err = standby.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, held)
}

func TestRedisPlaybackDevice_PriorityOrder(t *testing.T) {
	client := redisForTest(t)
	ctx := context.Background()
	key := "airwave:test:device:" + time.Now().Format("150405.000000")
	t.Cleanup(func() { _ = client.Del(ctx, key).Err() })

	device := NewRedisPlaybackDevice(client, key)
	require.NoError(t, device.AddToQueue(ctx, &models.QueueItem{Title: "song"}, scheduler.DevicePriorityNormal))
	require.NoError(t, device.AddToQueue(ctx, &models.QueueItem{Title: "ad"}, scheduler.DevicePriorityUrgent))

	raw, err := client.LPop(ctx, key).Bytes()
	require.NoError(t, err)
	var cmd DeviceCommand
	require.NoError(t, json.Unmarshal(raw, &cmd))
	assert.Equal(t, DeviceCommandAddToQueue, cmd.Command)
	assert.Equal(t, "ad", cmd.Item.Title)
}
