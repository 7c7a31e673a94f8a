package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/amirphl/airwave/models"
)

// NowPlaying is the item the monitor believes is on air
type NowPlaying struct {
	Item      *models.QueueItem `json:"item"`
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration"`
}

// EndsAt is when the item should finish, ignoring grace
func (p NowPlaying) EndsAt() time.Time {
	return p.StartedAt.Add(p.Duration)
}

// FlowProgress tracks one looping flow while it is inside its window
type FlowProgress struct {
	FlowID           uint          `json:"flow_id"`
	FlowName         string        `json:"flow_name"`
	EnteredAt        time.Time     `json:"entered_at"`
	PassStartedAt    time.Time     `json:"pass_started_at"`
	Passes           int           `json:"passes"`
	ActionsCompleted int           `json:"actions_completed"`
	TotalActions     int           `json:"total_actions"`
	NextActionAt     time.Time     `json:"next_action_at"`
	QueuedDuration   time.Duration `json:"queued_duration"`
	ExecutionLogID   uint          `json:"execution_log_id"`
}

// MonitorSnapshot is a point-in-time copy of MonitorState
type MonitorSnapshot struct {
	NowPlaying  *NowPlaying    `json:"now_playing,omitempty"`
	LastSlotKey string         `json:"last_slot_key,omitempty"`
	Flows       []FlowProgress `json:"flows"`
}

// MonitorState is the engine's in-memory state. It lives for the process
// and is shared between the tick loop and device reports.
type MonitorState struct {
	mu       sync.Mutex
	playing  *NowPlaying
	lastSlot *Slot
	flows    map[uint]*FlowProgress
}

func NewMonitorState() *MonitorState {
	return &MonitorState{flows: make(map[uint]*FlowProgress)}
}

func (s *MonitorState) Playing() (NowPlaying, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing == nil {
		return NowPlaying{}, false
	}
	return *s.playing, true
}

func (s *MonitorState) SetPlaying(item *models.QueueItem, startedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = &NowPlaying{Item: item, StartedAt: startedAt, Duration: item.Duration()}
}

func (s *MonitorState) ClearPlaying() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = nil
}

// LastSlot returns the last slot whose dispatch was attempted
func (s *MonitorState) LastSlot() (Slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSlot == nil {
		return Slot{}, false
	}
	return *s.lastSlot, true
}

func (s *MonitorState) SetLastSlot(slot Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSlot = &slot
}

func (s *MonitorState) Flow(id uint) (FlowProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.flows[id]
	if !ok {
		return FlowProgress{}, false
	}
	return *p, true
}

func (s *MonitorState) SetFlow(p FlowProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[p.FlowID] = &p
}

// DropFlow forgets a flow and returns what was tracked for it
func (s *MonitorState) DropFlow(id uint) (FlowProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.flows[id]
	if !ok {
		return FlowProgress{}, false
	}
	delete(s.flows, id)
	return *p, true
}

func (s *MonitorState) FlowIDs() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint, 0, len(s.flows))
	for id := range s.flows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *MonitorState) Snapshot() MonitorSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := MonitorSnapshot{Flows: make([]FlowProgress, 0, len(s.flows))}
	if s.playing != nil {
		p := *s.playing
		snap.NowPlaying = &p
	}
	if s.lastSlot != nil {
		snap.LastSlotKey = s.lastSlot.Key()
	}
	for _, p := range s.flows {
		snap.Flows = append(snap.Flows, *p)
	}
	sort.Slice(snap.Flows, func(i, j int) bool { return snap.Flows[i].FlowID < snap.Flows[j].FlowID })
	return snap
}
