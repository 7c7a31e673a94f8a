package scheduler

import (
	"fmt"
	"time"

	"github.com/amirphl/airwave/utils"
)

// Slot identifies one 30-minute bucket of a station day
type Slot struct {
	Date  string
	Index int
}

// SlotIndexOf returns hour*2, plus one in the second half of the hour
func SlotIndexOf(t time.Time) int {
	idx := t.Hour() * 2
	if t.Minute() >= 30 {
		idx++
	}
	return idx
}

// SlotAt returns the slot containing t, evaluated in the station timezone
func SlotAt(t time.Time, loc *time.Location) Slot {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return Slot{Date: utils.FormatDate(local), Index: SlotIndexOf(local)}
}

// Key is the dispatch identity of a slot occurrence, e.g. 2024-01-15_18
func (s Slot) Key() string {
	return fmt.Sprintf("%s_%d", s.Date, s.Index)
}

// Start returns the wall-clock start of the slot
func (s Slot) Start(loc *time.Location) (time.Time, error) {
	day, err := utils.ParseDate(s.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), s.Index/2, (s.Index%2)*30, 0, 0, day.Location()), nil
}

// slotsSkipped counts whole slots strictly between prev and next
func slotsSkipped(prev, next Slot, loc *time.Location) int {
	a, err := prev.Start(loc)
	if err != nil {
		return 0
	}
	b, err := next.Start(loc)
	if err != nil {
		return 0
	}
	n := int(b.Sub(a)/utils.SlotWidth) - 1
	if n < 0 {
		return 0
	}
	return n
}
