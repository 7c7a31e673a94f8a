package utils

import (
	"time"
)

// Slot constants
const (
	// SlotWidth is the length of one commercial slot
	SlotWidth = 30 * time.Minute

	// SlotsPerDay is the number of slots in one calendar day (0..47)
	SlotsPerDay = 48
)

// Continuity defaults
const (
	DefaultTickInterval      = 10 * time.Second
	DefaultMinQueueWatermark = 20
	DefaultGracePeriod       = 15 * time.Second
	DefaultExclusionLookback = 3 * time.Hour

	DefaultSlotMaxCommercials  = 10
	DefaultSlotMaxDurationSecs = 300
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
