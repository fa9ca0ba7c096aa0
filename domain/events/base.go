package events

import (
	"time"

	"dopesheet/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Event types
const (
	TypeNodeAdded            = "dopesheet.node_added"
	TypeNodeAboutToBeRemoved = "dopesheet.node_about_to_be_removed"
	TypeKeyframeSetOrRemoved = "dopesheet.keyframe_set_or_removed"
	TypeSelectionChanged     = "dopesheet.selection_changed"
	TypeModelChanged         = "dopesheet.model_changed"
	TypeRangeChanged         = "dopesheet.range_changed"
)

// Publisher delivers events synchronously to their subscribers
type Publisher interface {
	Publish(event DomainEvent)
}

// Handler receives a published event
type Handler func(event DomainEvent)

func newBase(aggregateID, eventType string) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   time.Now(),
		Version:     1,
	}
}

// NodeAdded is raised when a node enters the dope sheet
type NodeAdded struct {
	BaseEvent
	Row      valueobjects.RowID    `json:"row"`
	NodeID   string                `json:"node_id"`
	ItemType valueobjects.ItemType `json:"item_type"`
}

// NewNodeAdded creates a NodeAdded event
func NewNodeAdded(row valueobjects.RowID, nodeID string, itemType valueobjects.ItemType) NodeAdded {
	return NodeAdded{
		BaseEvent: newBase(row.String(), TypeNodeAdded),
		Row:       row,
		NodeID:    nodeID,
		ItemType:  itemType,
	}
}

// NodeAboutToBeRemoved is raised before a node's contexts are torn down
type NodeAboutToBeRemoved struct {
	BaseEvent
	Row    valueobjects.RowID `json:"row"`
	NodeID string             `json:"node_id"`
}

// NewNodeAboutToBeRemoved creates a NodeAboutToBeRemoved event
func NewNodeAboutToBeRemoved(row valueobjects.RowID, nodeID string) NodeAboutToBeRemoved {
	return NodeAboutToBeRemoved{
		BaseEvent: newBase(row.String(), TypeNodeAboutToBeRemoved),
		Row:       row,
		NodeID:    nodeID,
	}
}

// KeyframeSetOrRemoved is raised after a command changed keyframes
type KeyframeSetOrRemoved struct {
	BaseEvent
	Command string `json:"command"`
	Undo    bool   `json:"undo"`
}

// NewKeyframeSetOrRemoved creates a KeyframeSetOrRemoved event
func NewKeyframeSetOrRemoved(command string, undo bool) KeyframeSetOrRemoved {
	return KeyframeSetOrRemoved{
		BaseEvent: newBase("dopesheet", TypeKeyframeSetOrRemoved),
		Command:   command,
		Undo:      undo,
	}
}

// SelectionChanged is raised at most once per selection edit
type SelectionChanged struct {
	BaseEvent
	Keys  int `json:"keys"`
	Nodes int `json:"nodes"`
}

// NewSelectionChanged creates a SelectionChanged event
func NewSelectionChanged(keys, nodes int) SelectionChanged {
	return SelectionChanged{
		BaseEvent: newBase("selection", TypeSelectionChanged),
		Keys:      keys,
		Nodes:     nodes,
	}
}

// ModelChanged is raised when rows were added, removed or reparented
type ModelChanged struct {
	BaseEvent
	Reason string `json:"reason"`
}

// NewModelChanged creates a ModelChanged event
func NewModelChanged(reason string) ModelChanged {
	return ModelChanged{
		BaseEvent: newBase("dopesheet", TypeModelChanged),
		Reason:    reason,
	}
}

// RangeChanged is raised when a node's computed range differs from the cached one
type RangeChanged struct {
	BaseEvent
	Row   valueobjects.RowID `json:"row"`
	Range valueobjects.Range `json:"range"`
}

// NewRangeChanged creates a RangeChanged event
func NewRangeChanged(row valueobjects.RowID, r valueobjects.Range) RangeChanged {
	return RangeChanged{
		BaseEvent: newBase(row.String(), TypeRangeChanged),
		Row:       row,
		Range:     r,
	}
}
