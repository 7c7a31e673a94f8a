package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/utils"
)

var ErrInvalidSchedule = errors.New("invalid flow schedule")

const minutesPerDay = 24 * 60

// FlowWindow evaluates flow schedules against wall-clock time in the station timezone.
type FlowWindow struct {
	loc *time.Location
}

func NewFlowWindow(loc *time.Location) *FlowWindow {
	if loc == nil {
		loc = time.UTC
	}
	return &FlowWindow{loc: loc}
}

// ValidateSchedule checks that a schedule carries the fields its recurrence needs
func ValidateSchedule(s *models.FlowSchedule) error {
	if s == nil {
		return fmt.Errorf("%w: missing schedule", ErrInvalidSchedule)
	}
	if s.Recurrence != "" && !s.Recurrence.Valid() {
		return fmt.Errorf("%w: unknown recurrence %q", ErrInvalidSchedule, s.Recurrence)
	}

	if s.IsOneOff() {
		if s.StartAt == nil || s.EndAt == nil {
			return fmt.Errorf("%w: one-off schedule needs start_at and end_at", ErrInvalidSchedule)
		}
		if s.EndAt.Before(*s.StartAt) {
			return fmt.Errorf("%w: end_at is before start_at", ErrInvalidSchedule)
		}
		return nil
	}

	if _, err := utils.ParseClock(s.StartTime); err != nil {
		return fmt.Errorf("%w: start_time: %v", ErrInvalidSchedule, err)
	}
	if _, err := utils.ParseClock(s.EndTime); err != nil {
		return fmt.Errorf("%w: end_time: %v", ErrInvalidSchedule, err)
	}

	switch s.Recurrence {
	case models.RecurrenceWeekly:
		if len(s.DaysOfWeek) == 0 {
			return fmt.Errorf("%w: weekly schedule needs days_of_week", ErrInvalidSchedule)
		}
		for _, d := range s.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("%w: day of week %d out of range 0-6", ErrInvalidSchedule, d)
			}
		}
	case models.RecurrenceMonthly:
		if s.DayOfMonth == nil || *s.DayOfMonth < 1 || *s.DayOfMonth > 31 {
			return fmt.Errorf("%w: monthly schedule needs day_of_month 1-31", ErrInvalidSchedule)
		}
	case models.RecurrenceYearly:
		if s.Month == nil || *s.Month < 1 || *s.Month > 12 {
			return fmt.Errorf("%w: yearly schedule needs month 1-12", ErrInvalidSchedule)
		}
		if s.DayOfMonth == nil || *s.DayOfMonth < 1 || *s.DayOfMonth > daysIn(time.Month(*s.Month), 2024) {
			return fmt.Errorf("%w: day_of_month does not exist in month %d", ErrInvalidSchedule, *s.Month)
		}
	}
	return nil
}

// Contains reports whether now falls inside the schedule's window. Both ends
// are inclusive. A recurring window whose end precedes its start runs past
// midnight; its early-morning part belongs to the previous day's occurrence.
// Invalid schedules contain nothing.
func (w *FlowWindow) Contains(s *models.FlowSchedule, now time.Time) bool {
	if ValidateSchedule(s) != nil {
		return false
	}

	if s.IsOneOff() {
		return !now.Before(*s.StartAt) && !now.After(*s.EndAt)
	}

	local := now.In(w.loc)
	start, end := clockRange(s)
	m := utils.MinuteOfDay(local)

	if start <= end {
		return m >= start && m <= end && matchesDay(s, local)
	}
	if m >= start {
		return matchesDay(s, local)
	}
	if m <= end {
		return matchesDay(s, local.AddDate(0, 0, -1))
	}
	return false
}

// Overlaps reports whether two schedules can ever be active at the same
// moment. Contains is inclusive at both ends, so windows that share an
// endpoint overlap: 09:00-10:00 and 10:00-11:00 are both active at 10:00.
func (w *FlowWindow) Overlaps(a, b *models.FlowSchedule) bool {
	if ValidateSchedule(a) != nil || ValidateSchedule(b) != nil {
		return false
	}

	switch {
	case a.IsOneOff() && b.IsOneOff():
		return !a.StartAt.After(*b.EndAt) && !b.StartAt.After(*a.EndAt)
	case a.IsOneOff():
		return w.oneOffOverlapsRecurring(a, b)
	case b.IsOneOff():
		return w.oneOffOverlapsRecurring(b, a)
	}

	// An occurrence of a on day D can only meet an occurrence of b on D-1, D or D+1.
	for offset := -1; offset <= 1; offset++ {
		if !intervalsMeet(a, b, offset) {
			continue
		}
		if patternsCoincide(a, b, offset) {
			return true
		}
	}
	return false
}

// oneOffOverlapsRecurring walks every day the one-off touches, plus the day
// before for windows that spill past midnight.
func (w *FlowWindow) oneOffOverlapsRecurring(once, rec *models.FlowSchedule) bool {
	from := once.StartAt.In(w.loc)
	to := once.EndAt.In(w.loc)
	start, end := clockRange(rec)

	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, w.loc).AddDate(0, 0, -1)
	last := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, w.loc)
	for !day.After(last) {
		if matchesDay(rec, day) {
			occStart := time.Date(day.Year(), day.Month(), day.Day(), start/60, start%60, 0, 0, w.loc)
			endDay := day
			if end < start {
				endDay = day.AddDate(0, 0, 1)
			}
			// the end minute is contained up to its last second
			occEnd := time.Date(endDay.Year(), endDay.Month(), endDay.Day(), end/60, end%60, 0, 0, w.loc).Add(time.Minute)
			if !occStart.After(*once.EndAt) && once.StartAt.Before(occEnd) {
				return true
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return false
}

func clockRange(s *models.FlowSchedule) (int, int) {
	start, _ := utils.ParseClock(s.StartTime)
	end, _ := utils.ParseClock(s.EndTime)
	return start, end
}

// intervalsMeet compares a's occurrence on day 0 with b's occurrence on day
// offset. Both minute ranges are inclusive.
func intervalsMeet(a, b *models.FlowSchedule, offset int) bool {
	aStart, aEnd := clockRange(a)
	bStart, bEnd := clockRange(b)
	if aEnd < aStart {
		aEnd += minutesPerDay
	}
	if bEnd < bStart {
		bEnd += minutesPerDay
	}
	bStart += offset * minutesPerDay
	bEnd += offset * minutesPerDay
	return aStart <= bEnd && bStart <= aEnd
}

// patternsCoincide reports whether some day D matches a while D+offset matches b
func patternsCoincide(a, b *models.FlowSchedule, offset int) bool {
	if a.Recurrence == models.RecurrenceDaily || b.Recurrence == models.RecurrenceDaily {
		return true
	}

	switch {
	case a.Recurrence == models.RecurrenceWeekly && b.Recurrence == models.RecurrenceWeekly:
		for _, d := range a.DaysOfWeek {
			if b.HasWeekday(time.Weekday((int(d) + offset + 7) % 7)) {
				return true
			}
		}
		return false
	case a.Recurrence == models.RecurrenceWeekly || b.Recurrence == models.RecurrenceWeekly:
		// any calendar date lands on every weekday over the years
		return true
	}

	// monthly and yearly patterns: probe real calendars, leap and common
	for _, year := range []int{2023, 2024} {
		for month := time.January; month <= time.December; month++ {
			for day := 1; day <= daysIn(month, year); day++ {
				d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
				if matchesDay(a, d) && matchesDay(b, d.AddDate(0, 0, offset)) {
					return true
				}
			}
		}
	}
	return false
}

// matchesDay reports whether a recurring schedule has an occurrence starting on day
func matchesDay(s *models.FlowSchedule, day time.Time) bool {
	switch s.Recurrence {
	case models.RecurrenceDaily:
		return true
	case models.RecurrenceWeekly:
		return s.HasWeekday(day.Weekday())
	case models.RecurrenceMonthly:
		return s.DayOfMonth != nil && day.Day() == *s.DayOfMonth
	case models.RecurrenceYearly:
		return s.Month != nil && s.DayOfMonth != nil &&
			int(day.Month()) == *s.Month && day.Day() == *s.DayOfMonth
	}
	return false
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
