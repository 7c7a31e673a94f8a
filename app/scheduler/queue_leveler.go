package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/utils"
)

// QueueLeveler keeps the playback queue at or above a low-water mark with
// random active songs.
type QueueLeveler struct {
	queue        QueueStore
	contents     ContentSource
	history      PlayHistoryStore
	minWatermark int
	lookback     time.Duration
	logger       *log.Logger
}

func NewQueueLeveler(queue QueueStore, contents ContentSource, history PlayHistoryStore, minWatermark int, lookback time.Duration, logger *log.Logger) *QueueLeveler {
	if logger == nil {
		logger = log.Default()
	}
	return &QueueLeveler{
		queue:        queue,
		contents:     contents,
		history:      history,
		minWatermark: minWatermark,
		lookback:     lookback,
		logger:       logger,
	}
}

// Level appends songs until the queue holds minWatermark items or the catalog
// runs out. Candidates are drawn in tiers: songs neither queued nor aired within
// the lookback, then songs not queued, then any song. A song is never picked
// twice in one pass.
func (l *QueueLeveler) Level(ctx context.Context, now time.Time) (int, error) {
	n, err := l.queue.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	queueLength.Set(float64(n))

	missing := l.minWatermark - int(n)
	if missing <= 0 {
		return 0, nil
	}

	queued, err := l.queue.ContentIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list queued content: %w", err)
	}
	recent, err := l.history.ContentIDsPlayedSince(ctx, now.Add(-l.lookback))
	if err != nil {
		return 0, fmt.Errorf("failed to list recent plays: %w", err)
	}

	tiers := [][]uint{
		unionIDs(queued, recent),
		queued,
		nil,
	}

	song := models.ContentTypeSong
	picked := make([]*models.Content, 0, missing)
	chosen := make([]uint, 0, missing)
	for _, exclude := range tiers {
		need := missing - len(picked)
		if need <= 0 {
			break
		}
		rows, err := l.contents.RandomSample(ctx, models.ContentFilter{
			Type:       &song,
			IsActive:   utils.ToPtr(true),
			ExcludeIDs: unionIDs(exclude, chosen),
		}, need)
		if err != nil {
			return 0, fmt.Errorf("failed to sample songs: %w", err)
		}
		for _, c := range rows {
			if len(picked) >= missing {
				break
			}
			picked = append(picked, c)
			chosen = append(chosen, c.ID)
		}
	}

	if len(picked) == 0 {
		l.logger.Printf("queue leveling: no songs available, queue at %d of %d", n, l.minWatermark)
		return 0, nil
	}

	items := make([]*models.QueueItem, 0, len(picked))
	for _, c := range picked {
		item := models.NewQueueItemFromContent(c)
		item.AutoQueued = true
		items = append(items, item)
	}
	if err := l.queue.Append(ctx, items...); err != nil {
		return 0, fmt.Errorf("failed to append songs: %w", err)
	}

	autoQueuedTotal.Add(float64(len(items)))
	queueLength.Set(float64(int(n) + len(items)))
	if len(items) < missing {
		l.logger.Printf("queue leveling: catalog exhausted, added %d of %d", len(items), missing)
	}
	return len(items), nil
}

func unionIDs(sets ...[]uint) []uint {
	seen := make(map[uint]struct{})
	var out []uint
	for _, set := range sets {
		for _, id := range set {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
