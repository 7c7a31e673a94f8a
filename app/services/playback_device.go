package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/amirphl/airwave/models"
	"github.com/redis/go-redis/v9"
)

// Device command names
const (
	DeviceCommandSetVolume  = "set_volume"
	DeviceCommandAddToQueue = "add_to_queue"
)

// DeviceCommand is one instruction for the playout agent
type DeviceCommand struct {
	Command  string            `json:"command"`
	Level    *int              `json:"level,omitempty"`
	Item     *models.QueueItem `json:"item,omitempty"`
	Priority int               `json:"priority,omitempty"`
}

// PlaybackDevice is the local output device with its own mixing queue
type PlaybackDevice interface {
	SetVolume(ctx context.Context, level int) error
	AddToQueue(ctx context.Context, item *models.QueueItem, priority int) error
}

// RedisPlaybackDevice hands commands to the playout agent through a redis list.
// Prioritized items are pushed to the head so the agent pops them first.
type RedisPlaybackDevice struct {
	client *redis.Client
	key    string
}

func NewRedisPlaybackDevice(client *redis.Client, key string) PlaybackDevice {
	return &RedisPlaybackDevice{client: client, key: key}
}

func (d *RedisPlaybackDevice) SetVolume(ctx context.Context, level int) error {
	if level < 0 || level > 100 {
		return fmt.Errorf("volume %d out of range 0-100", level)
	}
	return d.push(ctx, DeviceCommand{Command: DeviceCommandSetVolume, Level: &level}, true)
}

func (d *RedisPlaybackDevice) AddToQueue(ctx context.Context, item *models.QueueItem, priority int) error {
	if item == nil {
		return nil
	}
	return d.push(ctx, DeviceCommand{Command: DeviceCommandAddToQueue, Item: item, Priority: priority}, priority > 0)
}

func (d *RedisPlaybackDevice) push(ctx context.Context, cmd DeviceCommand, front bool) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to encode %s command: %w", cmd.Command, err)
	}
	if front {
		err = d.client.LPush(ctx, d.key, payload).Err()
	} else {
		err = d.client.RPush(ctx, d.key, payload).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to send %s command: %w", cmd.Command, err)
	}
	return nil
}

// LogPlaybackDevice only logs commands; for stations without a playout agent
type LogPlaybackDevice struct {
	logger *log.Logger
}

func NewLogPlaybackDevice(logger *log.Logger) PlaybackDevice {
	if logger == nil {
		logger = log.Default()
	}
	return &LogPlaybackDevice{logger: logger}
}

func (d *LogPlaybackDevice) SetVolume(_ context.Context, level int) error {
	d.logger.Printf("device: set volume %d", level)
	return nil
}

func (d *LogPlaybackDevice) AddToQueue(_ context.Context, item *models.QueueItem, priority int) error {
	if item != nil {
		d.logger.Printf("device: queue %q priority=%d", item.Title, priority)
	}
	return nil
}
