// Package graph declares the node graph collaborators the dope sheet reads
// and edits: curves, knobs, nodes, node collections and the timeline.
package graph

import "dopesheet/domain/core/valueobjects"

// ChangeResult reports what a value or keyframe write did
type ChangeResult int

const (
	ChangeNone ChangeResult = iota
	ChangeValueChanged
	ChangeKeyFrameAdded
	ChangeKeyFrameModified
)

// Curve is a read-only view over the ordered keyframes of one knob dimension
type Curve interface {
	KeyFrames() []valueobjects.KeyFrame
	KeyFrameAt(time float64) (valueobjects.KeyFrame, bool)
	NextKeyFrameTime(time float64) (float64, bool)
	PreviousKeyFrameTime(time float64) (float64, bool)
}

// Knob is a node parameter with one curve per dimension.
// Keyframe edits return the updated keyframe and false when no key exists
// at the requested time or the edit was refused.
type Knob interface {
	Name() string
	Dimension() int
	CanAnimate() bool
	IsAnimationEnabled() bool
	HasAnimation() bool
	IsAnimated(dim int) bool
	Curve(dim int) Curve

	Value(dim int) float64
	SetValue(dim int, value float64) ChangeResult

	SetKeyFrame(dim int, key valueobjects.KeyFrame) ChangeResult
	DeleteValueAtTime(dim int, time float64) bool
	MoveValueAtTime(dim int, time, dt, dv float64) (valueobjects.KeyFrame, bool)
	TransformValueAtTime(dim int, time float64, m valueobjects.Matrix3) (valueobjects.KeyFrame, bool)
	SetInterpolationAtTime(dim int, time float64, interp valueobjects.Interpolation) (valueobjects.KeyFrame, bool)
	// CloneCurve replaces the whole curve of dim with keys
	CloneCurve(dim int, keys []valueobjects.KeyFrame)

	Holder() Node
}

// Node is a graph node. Inputs may contain nil entries for disconnected slots.
type Node interface {
	ID() string
	PluginID() string
	Label() string
	SetLabel(label string)

	Knobs() []Knob
	KnobByName(name string) Knob

	Inputs() []Node
	Outputs() []Node

	// Group returns the collection the node lives in
	Group() NodeCollection
	// AsGroup returns the node's own collection when the node is a group, nil otherwise
	AsGroup() NodeCollection

	// IsAlive is false once the node has been deleted from the graph
	IsAlive() bool

	// BeginChanges and EndChanges bracket a batch of knob edits; downstream
	// notifications are held until the outermost EndChanges.
	BeginChanges()
	EndChanges()
}

// NodeCollection is the project root or the inside of a group
type NodeCollection interface {
	Nodes() []Node
	// Owner returns the group node owning the collection, nil for the project root
	Owner() Node
}

// FramesNeededProvider is implemented by nodes that remap time and can tell
// which input frames an output time needs.
type FramesNeededProvider interface {
	FramesNeeded(time float64) []valueobjects.Range
}

// Timeline is the project playhead
type Timeline interface {
	CurrentFrame() float64
	SeekFrame(time float64)
}
