// Package businessflow contains the use cases behind the admin API: queue
// editing, playback reports, commercial triggers, flow and campaign management.
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Catalog errors
	ErrContentNotFound = errors.New("content not found")
	ErrContentInactive = errors.New("content is inactive")

	// Campaign errors
	ErrCampaignNotFound       = errors.New("campaign not found")
	ErrCampaignDateRange      = errors.New("campaign start date must not be after end date")
	ErrCampaignContentInvalid = errors.New("campaign content reference is invalid")
	ErrScheduleOutOfRange     = errors.New("schedule entry is outside the campaign date range")

	// Queue errors
	ErrQueueIndexOutOfRange = errors.New("queue index out of range")

	// Flow errors
	ErrFlowNotFound        = errors.New("flow not found")
	ErrFlowActionsInvalid  = errors.New("flow actions are invalid")
	ErrFlowScheduleMissing = errors.New("scheduled flow requires a schedule")
	ErrInvalidSchedule     = errors.New("invalid flow schedule")
	ErrScheduleConflict    = errors.New("flow schedule overlaps an active flow")

	// Commercial errors
	ErrTriggerInProgress = errors.New("a commercial trigger is already in progress")

	// Filter errors
	ErrInvalidDate           = errors.New("invalid date")
	ErrStartDateAfterEndDate = errors.New("start date must not be after end date")
	ErrReportRangeTooLarge   = errors.New("report range is too large")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsContentNotFound(err error) bool {
	return errors.Is(err, ErrContentNotFound)
}

func IsContentInactive(err error) bool {
	return errors.Is(err, ErrContentInactive)
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignDateRange(err error) bool {
	return errors.Is(err, ErrCampaignDateRange)
}

func IsCampaignContentInvalid(err error) bool {
	return errors.Is(err, ErrCampaignContentInvalid)
}

func IsScheduleOutOfRange(err error) bool {
	return errors.Is(err, ErrScheduleOutOfRange)
}

func IsQueueIndexOutOfRange(err error) bool {
	return errors.Is(err, ErrQueueIndexOutOfRange)
}

func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

func IsFlowActionsInvalid(err error) bool {
	return errors.Is(err, ErrFlowActionsInvalid)
}

func IsFlowScheduleMissing(err error) bool {
	return errors.Is(err, ErrFlowScheduleMissing)
}

func IsInvalidSchedule(err error) bool {
	return errors.Is(err, ErrInvalidSchedule)
}

func IsScheduleConflict(err error) bool {
	return errors.Is(err, ErrScheduleConflict)
}

func IsTriggerInProgress(err error) bool {
	return errors.Is(err, ErrTriggerInProgress)
}

func IsInvalidDate(err error) bool {
	return errors.Is(err, ErrInvalidDate)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}

func IsReportRangeTooLarge(err error) bool {
	return errors.Is(err, ErrReportRangeTooLarge)
}
