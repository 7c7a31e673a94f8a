package businessflow

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/repository"
	"github.com/amirphl/airwave/utils"
	"github.com/google/uuid"
)

var discardLogger = log.New(io.Discard, "", 0)

// memStore is an in-memory Repository[T, F] used behind every fake below
type memStore[T any, F any] struct {
	mu      sync.Mutex
	rows    []*T
	id      func(*T) uint
	setID   func(*T, uint)
	match   func(*T, F) bool
	created func(*T)
	saveErr error
}

func (m *memStore[T, F]) ByID(_ context.Context, id uint) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if m.id(r) == id {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memStore[T, F]) ByFilter(_ context.Context, filter F, _ string, limit, offset int) ([]*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*T
	for _, r := range m.rows {
		if m.match == nil || m.match(r, filter) {
			out = append(out, r)
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore[T, F]) Save(_ context.Context, entity *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.id(entity) == 0 {
		m.setID(entity, uint(len(m.rows)+1))
	}
	if m.created != nil {
		m.created(entity)
	}
	m.rows = append(m.rows, entity)
	return nil
}

func (m *memStore[T, F]) SaveBatch(ctx context.Context, entities []*T) error {
	for _, e := range entities {
		if err := m.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore[T, F]) Count(ctx context.Context, filter F) (int64, error) {
	rows, err := m.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (m *memStore[T, F]) Exists(ctx context.Context, filter F) (bool, error) {
	n, err := m.Count(ctx, filter)
	return n > 0, err
}

func (m *memStore[T, F]) all() []*T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*T(nil), m.rows...)
}

// contents

type fakeContentRepo struct {
	*memStore[models.Content, models.ContentFilter]
}

func newFakeContentRepo(items ...*models.Content) *fakeContentRepo {
	r := &fakeContentRepo{&memStore[models.Content, models.ContentFilter]{
		id:    func(c *models.Content) uint { return c.ID },
		setID: func(c *models.Content, id uint) { c.ID = id },
		match: func(c *models.Content, f models.ContentFilter) bool {
			if f.Type != nil && c.Type != *f.Type {
				return false
			}
			if f.Genre != nil && c.Genre != *f.Genre {
				return false
			}
			return true
		},
		created: func(c *models.Content) { _ = c.BeforeCreate(nil) },
	}}
	r.rows = append(r.rows, items...)
	return r
}

func (r *fakeContentRepo) ByIDs(ctx context.Context, ids []uint) (map[uint]*models.Content, error) {
	out := map[uint]*models.Content{}
	for _, id := range ids {
		c, _ := r.ByID(ctx, id)
		if c != nil {
			out[id] = c
		}
	}
	return out, nil
}

func (r *fakeContentRepo) RandomSample(ctx context.Context, filter models.ContentFilter, n int) ([]*models.Content, error) {
	return r.ByFilter(ctx, filter, "", n, 0)
}

// queue

type fakeQueueRepo struct {
	mu    sync.Mutex
	items []*models.QueueItem
}

func (q *fakeQueueRepo) List(_ context.Context) ([]*models.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, it := range q.items {
		it.Position = i
	}
	return append([]*models.QueueItem(nil), q.items...), nil
}

func (q *fakeQueueRepo) Count(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

func (q *fakeQueueRepo) ContentIDs(_ context.Context) ([]uint, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var ids []uint
	for _, it := range q.items {
		if it.ContentID != nil {
			ids = append(ids, *it.ContentID)
		}
	}
	return ids, nil
}

func (q *fakeQueueRepo) Append(ctx context.Context, items ...*models.QueueItem) error {
	q.mu.Lock()
	n := len(q.items)
	q.mu.Unlock()
	return q.InsertAt(ctx, n, items...)
}

func (q *fakeQueueRepo) InsertAt(_ context.Context, index int, items ...*models.QueueItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if index < 0 || index > len(q.items) {
		return fmt.Errorf("%w: %d", repository.ErrQueueIndexOutOfRange, index)
	}
	for _, it := range items {
		if it.UUID == uuid.Nil {
			it.UUID = uuid.New()
		}
	}
	rest := append([]*models.QueueItem(nil), q.items[index:]...)
	q.items = append(append(q.items[:index], items...), rest...)
	return nil
}

func (q *fakeQueueRepo) RemoveAt(_ context.Context, index int) (*models.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if index < 0 || index >= len(q.items) {
		return nil, fmt.Errorf("%w: %d", repository.ErrQueueIndexOutOfRange, index)
	}
	it := q.items[index]
	q.items = append(q.items[:index], q.items[index+1:]...)
	return it, nil
}

func (q *fakeQueueRepo) RemoveByUUID(_ context.Context, id uuid.UUID) (*models.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, it := range q.items {
		if it.UUID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return it, nil
		}
	}
	return nil, nil
}

func (q *fakeQueueRepo) Move(_ context.Context, from, to int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if from < 0 || from >= len(q.items) || to < 0 || to >= len(q.items) {
		return fmt.Errorf("%w: %d -> %d", repository.ErrQueueIndexOutOfRange, from, to)
	}
	it := q.items[from]
	q.items = append(q.items[:from], q.items[from+1:]...)
	rest := append([]*models.QueueItem(nil), q.items[to:]...)
	q.items = append(append(q.items[:to], it), rest...)
	return nil
}

func (q *fakeQueueRepo) Clear(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	return nil
}

func (q *fakeQueueRepo) PopFront(ctx context.Context) (*models.QueueItem, error) {
	q.mu.Lock()
	empty := len(q.items) == 0
	q.mu.Unlock()
	if empty {
		return nil, nil
	}
	return q.RemoveAt(ctx, 0)
}

func (q *fakeQueueRepo) titles() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.items))
	for _, it := range q.items {
		out = append(out, it.Title)
	}
	return out
}

// campaigns

type fakeCampaignRepo struct {
	*memStore[models.Campaign, models.CampaignFilter]
}

func newFakeCampaignRepo(items ...*models.Campaign) *fakeCampaignRepo {
	r := &fakeCampaignRepo{&memStore[models.Campaign, models.CampaignFilter]{
		id:    func(c *models.Campaign) uint { return c.ID },
		setID: func(c *models.Campaign, id uint) { c.ID = id },
		match: func(c *models.Campaign, f models.CampaignFilter) bool {
			if f.UUID != nil && c.UUID != *f.UUID {
				return false
			}
			if f.Status != nil && c.Status != *f.Status {
				return false
			}
			if f.ActiveOn != nil && !(c.StartDate <= *f.ActiveOn && *f.ActiveOn <= c.EndDate) {
				return false
			}
			return true
		},
		created: func(c *models.Campaign) { _ = c.BeforeCreate(nil) },
	}}
	for _, c := range items {
		_ = c.BeforeCreate(nil)
		r.rows = append(r.rows, c)
	}
	return r
}

func (r *fakeCampaignRepo) ByUUID(ctx context.Context, id string) (*models.Campaign, error) {
	parsed, err := utils.ParseUUID(id)
	if err != nil {
		return nil, err
	}
	rows, _ := r.ByFilter(ctx, models.CampaignFilter{UUID: &parsed}, "", 1, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *fakeCampaignRepo) ListEligible(_ context.Context, date string, _, _ []string) ([]*models.Campaign, error) {
	var out []*models.Campaign
	for _, c := range r.all() {
		if c.IsEligibleOn(date) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCampaignRepo) SaveScheduleEntries(ctx context.Context, campaignID uint, entries []models.CampaignScheduleEntry) error {
	c, _ := r.ByID(ctx, campaignID)
	if c == nil {
		return fmt.Errorf("campaign %d not found", campaignID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		e.CampaignID = campaignID
		if existing := c.ScheduleEntryFor(e.SlotDate, e.SlotIndex); existing != nil {
			existing.PlayCount = e.PlayCount
			continue
		}
		c.ScheduleEntries = append(c.ScheduleEntries, e)
	}
	return nil
}

func (r *fakeCampaignRepo) UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error {
	c, _ := r.ByID(ctx, id)
	if c == nil {
		return fmt.Errorf("campaign %d not found", id)
	}
	c.Status = status
	return nil
}

// play logs

type fakePlayLogRepo struct {
	*memStore[models.PlayLog, models.PlayLogFilter]
}

func newFakePlayLogRepo() *fakePlayLogRepo {
	return &fakePlayLogRepo{&memStore[models.PlayLog, models.PlayLogFilter]{
		id:    func(p *models.PlayLog) uint { return p.ID },
		setID: func(p *models.PlayLog, id uint) { p.ID = id },
		match: func(p *models.PlayLog, f models.PlayLogFilter) bool {
			if f.PlayedAfter != nil && p.PlayedAt.Before(*f.PlayedAfter) {
				return false
			}
			if f.PlayedBefore != nil && !p.PlayedAt.Before(*f.PlayedBefore) {
				return false
			}
			return true
		},
	}}
}

func (r *fakePlayLogRepo) CountForSlot(_ context.Context, campaignID uint, slotDate string, slotIndex int) (int64, error) {
	var n int64
	for _, p := range r.all() {
		if p.CampaignID == campaignID && p.SlotDate == slotDate && p.SlotIndex == slotIndex {
			n++
		}
	}
	return n, nil
}

// play history

type fakeHistoryRepo struct {
	*memStore[models.PlayHistory, models.PlayHistoryFilter]
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{&memStore[models.PlayHistory, models.PlayHistoryFilter]{
		id:    func(p *models.PlayHistory) uint { return p.ID },
		setID: func(p *models.PlayHistory, id uint) { p.ID = id },
		match: func(p *models.PlayHistory, f models.PlayHistoryFilter) bool {
			if f.PlayedAfter != nil && p.PlayedAt.Before(*f.PlayedAfter) {
				return false
			}
			if f.PlayedBefore != nil && !p.PlayedAt.Before(*f.PlayedBefore) {
				return false
			}
			return true
		},
	}}
}

func (r *fakeHistoryRepo) ContentIDsPlayedSince(_ context.Context, since time.Time) ([]uint, error) {
	var ids []uint
	for _, p := range r.all() {
		if p.ContentID != nil && !p.PlayedAt.Before(since) {
			ids = append(ids, *p.ContentID)
		}
	}
	return ids, nil
}

// flows

type fakeFlowRepo struct {
	*memStore[models.Flow, models.FlowFilter]
}

func newFakeFlowRepo(items ...*models.Flow) *fakeFlowRepo {
	r := &fakeFlowRepo{&memStore[models.Flow, models.FlowFilter]{
		id:    func(f *models.Flow) uint { return f.ID },
		setID: func(f *models.Flow, id uint) { f.ID = id },
		match: func(fl *models.Flow, f models.FlowFilter) bool {
			if f.UUID != nil && fl.UUID != *f.UUID {
				return false
			}
			if f.Status != nil && fl.Status != *f.Status {
				return false
			}
			if f.TriggerType != nil && fl.TriggerType != *f.TriggerType {
				return false
			}
			if f.ExcludeID != nil && fl.ID == *f.ExcludeID {
				return false
			}
			return true
		},
		created: func(f *models.Flow) { _ = f.BeforeCreate(nil) },
	}}
	for i, f := range items {
		if f.ID == 0 {
			f.ID = uint(i + 1)
		}
		_ = f.BeforeCreate(nil)
		r.rows = append(r.rows, f)
	}
	return r
}

func (r *fakeFlowRepo) ByUUID(ctx context.Context, id string) (*models.Flow, error) {
	parsed, err := utils.ParseUUID(id)
	if err != nil {
		return nil, err
	}
	rows, _ := r.ByFilter(ctx, models.FlowFilter{UUID: &parsed}, "", 1, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *fakeFlowRepo) ListScheduledLoops(ctx context.Context) ([]*models.Flow, error) {
	var out []*models.Flow
	for _, f := range r.all() {
		if f.IsScheduledLoop() {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFlowRepo) ListActiveScheduled(ctx context.Context, excludeID *uint) ([]*models.Flow, error) {
	status := models.FlowStatusActive
	trigger := models.FlowTriggerScheduled
	rows, _ := r.ByFilter(ctx, models.FlowFilter{Status: &status, TriggerType: &trigger, ExcludeID: excludeID}, "", 0, 0)
	var out []*models.Flow
	for _, f := range rows {
		if f.Schedule != nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFlowRepo) RecordRun(ctx context.Context, id uint, at time.Time) error {
	f, _ := r.ByID(ctx, id)
	if f == nil {
		return fmt.Errorf("flow %d not found", id)
	}
	f.LastRunAt = &at
	f.RunCount++
	return nil
}

func (r *fakeFlowRepo) UpdateStatus(ctx context.Context, id uint, status models.FlowStatus) error {
	f, _ := r.ByID(ctx, id)
	if f == nil {
		return fmt.Errorf("flow %d not found", id)
	}
	f.Status = status
	return nil
}

// flow executions

type fakeExecutionRepo struct {
	*memStore[models.FlowExecutionLog, models.FlowExecutionLogFilter]
}

func newFakeExecutionRepo(items ...*models.FlowExecutionLog) *fakeExecutionRepo {
	r := &fakeExecutionRepo{&memStore[models.FlowExecutionLog, models.FlowExecutionLogFilter]{
		id:    func(l *models.FlowExecutionLog) uint { return l.ID },
		setID: func(l *models.FlowExecutionLog, id uint) { l.ID = id },
		match: func(l *models.FlowExecutionLog, f models.FlowExecutionLogFilter) bool {
			return f.FlowID == nil || l.FlowID == *f.FlowID
		},
	}}
	r.rows = append(r.rows, items...)
	return r
}

func (r *fakeExecutionRepo) UpdateProgress(ctx context.Context, id uint, actionsCompleted int) error {
	if l, _ := r.ByID(ctx, id); l != nil {
		l.ActionsCompleted = actionsCompleted
	}
	return nil
}

func (r *fakeExecutionRepo) Finish(ctx context.Context, id uint, status models.FlowExecutionStatus, actionsCompleted int, endedAt time.Time, errMsg *string) error {
	if l, _ := r.ByID(ctx, id); l != nil && l.Status == models.FlowExecutionRunning {
		l.Status = status
		l.ActionsCompleted = actionsCompleted
		l.EndedAt = &endedAt
		l.Error = errMsg
	}
	return nil
}

// device and notifications

type recordedPush struct {
	title    string
	priority int
}

type fakeDevice struct {
	mu     sync.Mutex
	pushes []recordedPush
	volume []int
}

func (d *fakeDevice) SetVolume(_ context.Context, level int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volume = append(d.volume, level)
	return nil
}

func (d *fakeDevice) AddToQueue(_ context.Context, item *models.QueueItem, priority int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pushes = append(d.pushes, recordedPush{title: item.Title, priority: priority})
	return nil
}

type fakeNotifier struct {
	mu          sync.Mutex
	queueEvents [][]*models.QueueItem
	scheduled   []*models.QueueItem
}

func (n *fakeNotifier) PublishQueueUpdated(_ context.Context, items []*models.QueueItem) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queueEvents = append(n.queueEvents, items)
	return nil
}

func (n *fakeNotifier) PublishScheduledPlayback(_ context.Context, item *models.QueueItem) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scheduled = append(n.scheduled, item)
	return nil
}

func (n *fakeNotifier) queueEventCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queueEvents)
}

// builders

func song(id uint, title, genre string, seconds int) *models.Content {
	return &models.Content{
		ID:              id,
		Title:           title,
		Type:            models.ContentTypeSong,
		Genre:           genre,
		DurationSeconds: seconds,
		StorageKey:      fmt.Sprintf("songs/%d.mp3", id),
		IsActive:        utils.ToPtr(true),
	}
}

func commercial(id uint, title string, seconds int) *models.Content {
	return &models.Content{
		ID:              id,
		Title:           title,
		Type:            models.ContentTypeCommercial,
		DurationSeconds: seconds,
		StorageKey:      fmt.Sprintf("ads/%d.mp3", id),
		IsActive:        utils.ToPtr(true),
	}
}
