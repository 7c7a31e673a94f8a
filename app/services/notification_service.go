// Package services provides external integrations of the engine: the
// notification channel, the playback device link and the distributed tick lock
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/utils"
	"github.com/redis/go-redis/v9"
)

// Event types carried on the notification channel
const (
	EventQueueUpdated      = "queue_updated"
	EventScheduledPlayback = "scheduled_playback"
)

// QueueUpdatedEvent carries the whole current queue, empty included
type QueueUpdatedEvent struct {
	Type      string              `json:"type"`
	Queue     []*models.QueueItem `json:"queue"`
	Timestamp time.Time           `json:"timestamp"`
}

// ScheduledPlaybackEvent asks clients to play one item now
type ScheduledPlaybackEvent struct {
	Type      string            `json:"type"`
	Item      *models.QueueItem `json:"item"`
	Timestamp time.Time         `json:"timestamp"`
}

// NotificationService broadcasts queue and playback changes. Delivery is best effort.
type NotificationService interface {
	PublishQueueUpdated(ctx context.Context, items []*models.QueueItem) error
	PublishScheduledPlayback(ctx context.Context, item *models.QueueItem) error
}

// RedisNotificationService publishes events on redis pub/sub channels
type RedisNotificationService struct {
	client *redis.Client
	prefix string
}

// NewRedisNotificationService creates a publisher; channels are <prefix>queue_updated and <prefix>scheduled_playback
func NewRedisNotificationService(client *redis.Client, prefix string) NotificationService {
	return &RedisNotificationService{client: client, prefix: prefix}
}

func (s *RedisNotificationService) PublishQueueUpdated(ctx context.Context, items []*models.QueueItem) error {
	return s.publish(ctx, EventQueueUpdated, NewQueueUpdatedEvent(items))
}

func (s *RedisNotificationService) PublishScheduledPlayback(ctx context.Context, item *models.QueueItem) error {
	return s.publish(ctx, EventScheduledPlayback, NewScheduledPlaybackEvent(item))
}

// Channel returns the channel an event type is published on
func (s *RedisNotificationService) Channel(eventType string) string {
	return s.prefix + eventType
}

func (s *RedisNotificationService) publish(ctx context.Context, eventType string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	if err := s.client.Publish(ctx, s.Channel(eventType), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

func NewQueueUpdatedEvent(items []*models.QueueItem) QueueUpdatedEvent {
	if items == nil {
		items = []*models.QueueItem{}
	}
	return QueueUpdatedEvent{Type: EventQueueUpdated, Queue: items, Timestamp: utils.UTCNow()}
}

func NewScheduledPlaybackEvent(item *models.QueueItem) ScheduledPlaybackEvent {
	return ScheduledPlaybackEvent{Type: EventScheduledPlayback, Item: item, Timestamp: utils.UTCNow()}
}

// LogNotificationService writes events to a logger. Used when redis is disabled.
type LogNotificationService struct {
	logger *log.Logger
}

func NewLogNotificationService(logger *log.Logger) NotificationService {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotificationService{logger: logger}
}

func (s *LogNotificationService) PublishQueueUpdated(_ context.Context, items []*models.QueueItem) error {
	s.logger.Printf("event %s: %d item(s) queued", EventQueueUpdated, len(items))
	return nil
}

func (s *LogNotificationService) PublishScheduledPlayback(_ context.Context, item *models.QueueItem) error {
	if item == nil {
		return nil
	}
	s.logger.Printf("event %s: %q (%ds)", EventScheduledPlayback, item.Title, item.DurationSeconds)
	return nil
}
