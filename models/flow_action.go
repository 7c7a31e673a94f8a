package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// FlowActionType is the wire discriminator of a flow action
type FlowActionType string

const (
	FlowActionPlayGenre       FlowActionType = "play_genre"
	FlowActionPlayCommercials FlowActionType = "play_commercials"
	FlowActionWait            FlowActionType = "wait"
	FlowActionSetVolume       FlowActionType = "set_volume"
	FlowActionAnnouncement    FlowActionType = "announcement"
	FlowActionPlayContent     FlowActionType = "play_content"
)

// FlowAction is one step of a flow. The set of implementations is closed:
// only the action types declared in this file satisfy it.
type FlowAction interface {
	ActionType() FlowActionType
	isFlowAction()
}

// PlayGenreAction appends Count random active songs of Genre
type PlayGenreAction struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// PlayCommercialsAction airs the commercials due in the current slot
type PlayCommercialsAction struct {
	MaxCount           int      `json:"max_count,omitempty"`
	MaxDurationSeconds int      `json:"max_duration_seconds,omitempty"`
	IncludeTypes       []string `json:"include_types,omitempty"`
	ExcludeTypes       []string `json:"exclude_types,omitempty"`
}

// WaitAction delays the next action
type WaitAction struct {
	Seconds int `json:"seconds"`
}

// SetVolumeAction changes the output level of the playback device (0-100)
type SetVolumeAction struct {
	Level int `json:"level"`
}

// AnnouncementAction puts an announcement at the head of the queue
type AnnouncementAction struct {
	ContentID uint `json:"content_id"`
}

// PlayContentAction appends one catalog item
type PlayContentAction struct {
	ContentID uint `json:"content_id"`
}

func (PlayGenreAction) ActionType() FlowActionType       { return FlowActionPlayGenre }
func (PlayCommercialsAction) ActionType() FlowActionType { return FlowActionPlayCommercials }
func (WaitAction) ActionType() FlowActionType            { return FlowActionWait }
func (SetVolumeAction) ActionType() FlowActionType       { return FlowActionSetVolume }
func (AnnouncementAction) ActionType() FlowActionType    { return FlowActionAnnouncement }
func (PlayContentAction) ActionType() FlowActionType     { return FlowActionPlayContent }

func (PlayGenreAction) isFlowAction()       {}
func (PlayCommercialsAction) isFlowAction() {}
func (WaitAction) isFlowAction()            {}
func (SetVolumeAction) isFlowAction()       {}
func (AnnouncementAction) isFlowAction()    {}
func (PlayContentAction) isFlowAction()     {}

var ErrUnknownFlowAction = errors.New("unknown flow action type")

// MarshalFlowAction encodes an action as a flat JSON object with a "type" field
func MarshalFlowAction(a FlowAction) ([]byte, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	typ, err := json.Marshal(a.ActionType())
	if err != nil {
		return nil, err
	}
	fields["type"] = typ
	return json.Marshal(fields)
}

// UnmarshalFlowAction decodes a JSON object produced by MarshalFlowAction
func UnmarshalFlowAction(data []byte) (FlowAction, error) {
	var head struct {
		Type FlowActionType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case FlowActionPlayGenre:
		var a PlayGenreAction
		err := json.Unmarshal(data, &a)
		return a, err
	case FlowActionPlayCommercials:
		var a PlayCommercialsAction
		err := json.Unmarshal(data, &a)
		return a, err
	case FlowActionWait:
		var a WaitAction
		err := json.Unmarshal(data, &a)
		return a, err
	case FlowActionSetVolume:
		var a SetVolumeAction
		err := json.Unmarshal(data, &a)
		return a, err
	case FlowActionAnnouncement:
		var a AnnouncementAction
		err := json.Unmarshal(data, &a)
		return a, err
	case FlowActionPlayContent:
		var a PlayContentAction
		err := json.Unmarshal(data, &a)
		return a, err
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlowAction, head.Type)
	}
}

// FlowActions is the ordered action list of a flow, stored as a jsonb array
type FlowActions []FlowAction

// MarshalJSON implements json.Marshaler
func (fa FlowActions) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(fa))
	for i, a := range fa {
		b, err := MarshalFlowAction(a)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		out = append(out, b)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (fa *FlowActions) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	actions := make(FlowActions, 0, len(raw))
	for i, r := range raw {
		a, err := UnmarshalFlowAction(r)
		if err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	*fa = actions
	return nil
}

// Value implements the driver.Valuer interface for FlowActions
func (fa FlowActions) Value() (driver.Value, error) {
	return fa.MarshalJSON()
}

// Scan implements the sql.Scanner interface for FlowActions
func (fa *FlowActions) Scan(value any) error {
	if value == nil {
		*fa = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into FlowActions", value)
	}

	return fa.UnmarshalJSON(bytes)
}
