package scheduler

import (
	"context"
	"errors"
	"io"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/airwave/models"
	"github.com/google/uuid"
)

var discardLogger = log.New(io.Discard, "", 0)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeCampaigns struct {
	campaigns []*models.Campaign
	err       error
}

func (f *fakeCampaigns) ListEligible(_ context.Context, date string, includeTypes, excludeTypes []string) ([]*models.Campaign, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Campaign, 0, len(f.campaigns))
	for _, c := range f.campaigns {
		if c.IsEligibleOn(date) {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeContents struct {
	items map[uint]*models.Content
}

func newFakeContents(items ...*models.Content) *fakeContents {
	f := &fakeContents{items: make(map[uint]*models.Content)}
	for _, c := range items {
		f.items[c.ID] = c
	}
	return f
}

func (f *fakeContents) ByID(_ context.Context, id uint) (*models.Content, error) {
	return f.items[id], nil
}

func (f *fakeContents) ByIDs(_ context.Context, ids []uint) (map[uint]*models.Content, error) {
	out := make(map[uint]*models.Content)
	for _, id := range ids {
		if c, ok := f.items[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

// RandomSample is deterministic: lowest ids first
func (f *fakeContents) RandomSample(_ context.Context, filter models.ContentFilter, n int) ([]*models.Content, error) {
	ids := make([]uint, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var out []*models.Content
	for _, id := range ids {
		c := f.items[id]
		if filter.Type != nil && c.Type != *filter.Type {
			continue
		}
		if filter.Genre != nil && !strings.EqualFold(c.Genre, *filter.Genre) {
			continue
		}
		if filter.IsActive != nil && (c.IsActive == nil || *c.IsActive != *filter.IsActive) {
			continue
		}
		if slices.Contains(filter.ExcludeIDs, c.ID) {
			continue
		}
		out = append(out, c)
		if len(out) == n {
			break
		}
	}
	return out, nil
}

type fakePlayLogs struct {
	mu   sync.Mutex
	logs []*models.PlayLog
}

func (f *fakePlayLogs) CountForSlot(_ context.Context, campaignID uint, slotDate string, slotIndex int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, l := range f.logs {
		if l.CampaignID == campaignID && l.SlotDate == slotDate && l.SlotIndex == slotIndex {
			n++
		}
	}
	return n, nil
}

func (f *fakePlayLogs) Save(_ context.Context, entry *models.PlayLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = uint(len(f.logs) + 1)
	f.logs = append(f.logs, entry)
	return nil
}

type fakeHistory struct {
	entries []*models.PlayHistory
}

func (f *fakeHistory) Save(_ context.Context, entry *models.PlayHistory) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeHistory) ContentIDsPlayedSince(_ context.Context, since time.Time) ([]uint, error) {
	var ids []uint
	for _, e := range f.entries {
		if e.ContentID != nil && !e.PlayedAt.Before(since) {
			ids = append(ids, *e.ContentID)
		}
	}
	return ids, nil
}

var errIndex = errors.New("index out of range")

type fakeQueue struct {
	items []*models.QueueItem
}

func (f *fakeQueue) renumber() {
	for i, it := range f.items {
		it.Position = i
		if it.UUID == uuid.Nil {
			it.UUID = uuid.New()
		}
	}
}

func (f *fakeQueue) List(context.Context) ([]*models.QueueItem, error) {
	return slices.Clone(f.items), nil
}

func (f *fakeQueue) Count(context.Context) (int64, error) {
	return int64(len(f.items)), nil
}

func (f *fakeQueue) ContentIDs(context.Context) ([]uint, error) {
	var ids []uint
	for _, it := range f.items {
		if it.ContentID != nil {
			ids = append(ids, *it.ContentID)
		}
	}
	return ids, nil
}

func (f *fakeQueue) Append(_ context.Context, items ...*models.QueueItem) error {
	f.items = append(f.items, items...)
	f.renumber()
	return nil
}

func (f *fakeQueue) InsertAt(_ context.Context, index int, items ...*models.QueueItem) error {
	if index < 0 || index > len(f.items) {
		return errIndex
	}
	f.items = slices.Insert(f.items, index, items...)
	f.renumber()
	return nil
}

func (f *fakeQueue) RemoveAt(_ context.Context, index int) (*models.QueueItem, error) {
	if index < 0 || index >= len(f.items) {
		return nil, errIndex
	}
	it := f.items[index]
	f.items = slices.Delete(f.items, index, index+1)
	f.renumber()
	return it, nil
}

func (f *fakeQueue) RemoveByUUID(_ context.Context, id uuid.UUID) (*models.QueueItem, error) {
	i := slices.IndexFunc(f.items, func(it *models.QueueItem) bool { return it.UUID == id })
	if i < 0 {
		return nil, nil
	}
	return f.RemoveAt(context.Background(), i)
}

func (f *fakeQueue) PopFront(ctx context.Context) (*models.QueueItem, error) {
	if len(f.items) == 0 {
		return nil, nil
	}
	return f.RemoveAt(ctx, 0)
}

func (f *fakeQueue) titles() []string {
	out := make([]string, 0, len(f.items))
	for _, it := range f.items {
		out = append(out, it.Title)
	}
	return out
}

type fakeFlows struct {
	flows []*models.Flow
	runs  map[uint]int
}

func (f *fakeFlows) ListScheduledLoops(context.Context) ([]*models.Flow, error) {
	return f.flows, nil
}

func (f *fakeFlows) RecordRun(_ context.Context, id uint, _ time.Time) error {
	if f.runs == nil {
		f.runs = make(map[uint]int)
	}
	f.runs[id]++
	return nil
}

type fakeExecutions struct {
	logs []*models.FlowExecutionLog
}

func (f *fakeExecutions) Save(_ context.Context, entry *models.FlowExecutionLog) error {
	entry.ID = uint(len(f.logs) + 1)
	f.logs = append(f.logs, entry)
	return nil
}

func (f *fakeExecutions) UpdateProgress(_ context.Context, id uint, actionsCompleted int) error {
	f.logs[id-1].ActionsCompleted = actionsCompleted
	return nil
}

func (f *fakeExecutions) Finish(_ context.Context, id uint, status models.FlowExecutionStatus, actionsCompleted int, endedAt time.Time, errMsg *string) error {
	l := f.logs[id-1]
	if l.Status != models.FlowExecutionRunning {
		return nil
	}
	l.Status = status
	l.ActionsCompleted = actionsCompleted
	l.EndedAt = &endedAt
	l.Error = errMsg
	return nil
}

type fakePublisher struct {
	queueUpdates int
	scheduled    []*models.QueueItem
}

func (f *fakePublisher) PublishQueueUpdated(context.Context, []*models.QueueItem) error {
	f.queueUpdates++
	return nil
}

func (f *fakePublisher) PublishScheduledPlayback(_ context.Context, item *models.QueueItem) error {
	f.scheduled = append(f.scheduled, item)
	return nil
}

type fakeDevice struct {
	volume int
	pushed []*models.QueueItem
}

func (f *fakeDevice) SetVolume(_ context.Context, level int) error {
	f.volume = level
	return nil
}

func (f *fakeDevice) AddToQueue(_ context.Context, item *models.QueueItem, _ int) error {
	f.pushed = append(f.pushed, item)
	return nil
}

func song(id uint, title, genre string, seconds int) *models.Content {
	active := true
	return &models.Content{ID: id, Title: title, Type: models.ContentTypeSong, Genre: genre, DurationSeconds: seconds, IsActive: &active}
}

func commercial(id uint, title string, seconds int) *models.Content {
	active := true
	return &models.Content{ID: id, Title: title, Type: models.ContentTypeCommercial, DurationSeconds: seconds, IsActive: &active}
}

func campaignWith(id uint, priority int, date string, slot, playCount int, contentIDs ...uint) *models.Campaign {
	refs := make(models.ContentRefs, 0, len(contentIDs))
	for _, cid := range contentIDs {
		cid := cid
		refs = append(refs, models.ContentRef{ContentID: &cid})
	}
	return &models.Campaign{
		ID:          id,
		Name:        "campaign",
		Type:        "commercial",
		Priority:    priority,
		StartDate:   date,
		EndDate:     date,
		Status:      models.CampaignStatusActive,
		ContentRefs: refs,
		ScheduleEntries: []models.CampaignScheduleEntry{
			{CampaignID: id, SlotDate: date, SlotIndex: slot, PlayCount: playCount},
		},
	}
}

func titlesOf(plays []ResolvedPlay) []string {
	out := make([]string, 0, len(plays))
	for _, p := range plays {
		out = append(out, p.Content.Title)
	}
	return out
}
