// Package memory is an in-process node graph: nodes, knobs, curves and a
// timeline held in plain Go structures. The dope sheet server and the tests
// run against it.
package memory

import (
	"sort"

	"dopesheet/domain/core/valueobjects"
)

// Curve is an ordered set of keyframes, at most one per time
type Curve struct {
	keys []valueobjects.KeyFrame
}

// NewCurve creates a curve from keys in any order
func NewCurve(keys ...valueobjects.KeyFrame) *Curve {
	c := &Curve{}
	for _, k := range keys {
		c.set(k)
	}
	return c
}

// KeyFrames returns a copy of the keyframes ordered by time
func (c *Curve) KeyFrames() []valueobjects.KeyFrame {
	out := make([]valueobjects.KeyFrame, len(c.keys))
	copy(out, c.keys)
	return out
}

// KeyFrameAt returns the keyframe at time
func (c *Curve) KeyFrameAt(time float64) (valueobjects.KeyFrame, bool) {
	i, ok := c.index(time)
	if !ok {
		return valueobjects.KeyFrame{}, false
	}
	return c.keys[i], true
}

// NextKeyFrameTime returns the time of the first keyframe after time
func (c *Curve) NextKeyFrameTime(time float64) (float64, bool) {
	i := sort.Search(len(c.keys), func(i int) bool { return c.keys[i].Time > time })
	if i == len(c.keys) {
		return 0, false
	}
	return c.keys[i].Time, true
}

// PreviousKeyFrameTime returns the time of the last keyframe before time
func (c *Curve) PreviousKeyFrameTime(time float64) (float64, bool) {
	i := sort.Search(len(c.keys), func(i int) bool { return c.keys[i].Time >= time })
	if i == 0 {
		return 0, false
	}
	return c.keys[i-1].Time, true
}

// Len returns the number of keyframes
func (c *Curve) Len() int { return len(c.keys) }

func (c *Curve) index(time float64) (int, bool) {
	i := sort.Search(len(c.keys), func(i int) bool { return c.keys[i].Time >= time })
	return i, i < len(c.keys) && c.keys[i].Time == time
}

// set inserts key or replaces the keyframe at the same time; it reports
// whether a keyframe was added.
func (c *Curve) set(key valueobjects.KeyFrame) bool {
	i, ok := c.index(key.Time)
	if ok {
		c.keys[i] = key
		return false
	}
	c.keys = append(c.keys, valueobjects.KeyFrame{})
	copy(c.keys[i+1:], c.keys[i:])
	c.keys[i] = key
	return true
}

func (c *Curve) remove(time float64) bool {
	i, ok := c.index(time)
	if !ok {
		return false
	}
	c.keys = append(c.keys[:i], c.keys[i+1:]...)
	return true
}

// replace moves the keyframe at time to key. It refuses to land on another
// keyframe.
func (c *Curve) replace(time float64, key valueobjects.KeyFrame) bool {
	if _, ok := c.index(time); !ok {
		return false
	}
	if key.Time != time {
		if _, taken := c.index(key.Time); taken {
			return false
		}
	}
	c.remove(time)
	c.set(key)
	return true
}

func (c *Curve) reset(keys []valueobjects.KeyFrame) {
	c.keys = nil
	for _, k := range keys {
		c.set(k)
	}
}
