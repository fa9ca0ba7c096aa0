package memory

import (
	"dopesheet/domain/core/graph"
	"dopesheet/domain/core/valueobjects"
)

// Knob is an in-memory node parameter with one curve per dimension
type Knob struct {
	name             string
	values           []float64
	curves           []*Curve
	canAnimate       bool
	animationEnabled bool
	holder           *Node
}

// KnobOption configures a Knob
type KnobOption func(*Knob)

// WithValues sets the static values, one per dimension
func WithValues(values ...float64) KnobOption {
	return func(k *Knob) {
		copy(k.values, values)
	}
}

// WithKeyFrames seeds the curve of dim
func WithKeyFrames(dim int, keys ...valueobjects.KeyFrame) KnobOption {
	return func(k *Knob) {
		if dim >= 0 && dim < len(k.curves) {
			for _, key := range keys {
				k.curves[dim].set(key)
			}
		}
	}
}

// Static makes the knob non-animatable
func Static() KnobOption {
	return func(k *Knob) { k.canAnimate = false }
}

// AnimationDisabled keeps the knob animatable but switches animation off
func AnimationDisabled() KnobOption {
	return func(k *Knob) { k.animationEnabled = false }
}

// NewKnob creates an animatable knob with dims dimensions
func NewKnob(name string, dims int, opts ...KnobOption) *Knob {
	if dims < 1 {
		dims = 1
	}
	k := &Knob{
		name:             name,
		values:           make([]float64, dims),
		curves:           make([]*Curve, dims),
		canAnimate:       true,
		animationEnabled: true,
	}
	for i := range k.curves {
		k.curves[i] = NewCurve()
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Name returns the knob script name
func (k *Knob) Name() string { return k.name }

// Dimension returns the number of dimensions
func (k *Knob) Dimension() int { return len(k.values) }

// CanAnimate reports whether the knob type supports animation
func (k *Knob) CanAnimate() bool { return k.canAnimate }

// IsAnimationEnabled reports whether animation is switched on
func (k *Knob) IsAnimationEnabled() bool { return k.animationEnabled }

// HasAnimation reports whether any dimension has keyframes
func (k *Knob) HasAnimation() bool {
	for _, c := range k.curves {
		if c.Len() > 0 {
			return true
		}
	}
	return false
}

// IsAnimated reports whether dim has keyframes
func (k *Knob) IsAnimated(dim int) bool {
	c := k.curve(dim)
	return c != nil && c.Len() > 0
}

// Curve returns the curve of dim
func (k *Knob) Curve(dim int) graph.Curve {
	c := k.curve(dim)
	if c == nil {
		return nil
	}
	return c
}

func (k *Knob) curve(dim int) *Curve {
	if dim < 0 || dim >= len(k.curves) {
		return nil
	}
	return k.curves[dim]
}

// Value returns the static value of dim
func (k *Knob) Value(dim int) float64 {
	if dim < 0 || dim >= len(k.values) {
		return 0
	}
	return k.values[dim]
}

// SetValue sets the static value of dim
func (k *Knob) SetValue(dim int, value float64) graph.ChangeResult {
	if dim < 0 || dim >= len(k.values) || k.values[dim] == value {
		return graph.ChangeNone
	}
	k.values[dim] = value
	k.changed(dim)
	return graph.ChangeValueChanged
}

func (k *Knob) setRaw(dim int, value float64) {
	if dim >= 0 && dim < len(k.values) {
		k.values[dim] = value
	}
}

// SetKeyFrame inserts key, replacing a keyframe at the same time
func (k *Knob) SetKeyFrame(dim int, key valueobjects.KeyFrame) graph.ChangeResult {
	c := k.curve(dim)
	if c == nil {
		return graph.ChangeNone
	}
	added := c.set(key)
	k.changed(dim)
	if added {
		return graph.ChangeKeyFrameAdded
	}
	return graph.ChangeKeyFrameModified
}

// DeleteValueAtTime removes the keyframe at time
func (k *Knob) DeleteValueAtTime(dim int, time float64) bool {
	c := k.curve(dim)
	if c == nil || !c.remove(time) {
		return false
	}
	k.changed(dim)
	return true
}

// MoveValueAtTime offsets the keyframe at time by (dt, dv)
func (k *Knob) MoveValueAtTime(dim int, time, dt, dv float64) (valueobjects.KeyFrame, bool) {
	c := k.curve(dim)
	if c == nil {
		return valueobjects.KeyFrame{}, false
	}
	key, ok := c.KeyFrameAt(time)
	if !ok {
		return valueobjects.KeyFrame{}, false
	}
	key.Time += dt
	key.Value += dv
	if !c.replace(time, key) {
		return valueobjects.KeyFrame{}, false
	}
	k.changed(dim)
	return key, true
}

// TransformValueAtTime applies m to the (time, value) of the keyframe at time
func (k *Knob) TransformValueAtTime(dim int, time float64, m valueobjects.Matrix3) (valueobjects.KeyFrame, bool) {
	c := k.curve(dim)
	if c == nil {
		return valueobjects.KeyFrame{}, false
	}
	key, ok := c.KeyFrameAt(time)
	if !ok {
		return valueobjects.KeyFrame{}, false
	}
	key.Time, key.Value = m.Apply(key.Time, key.Value)
	if !c.replace(time, key) {
		return valueobjects.KeyFrame{}, false
	}
	k.changed(dim)
	return key, true
}

// SetInterpolationAtTime changes the interpolation of the keyframe at time
func (k *Knob) SetInterpolationAtTime(dim int, time float64, interp valueobjects.Interpolation) (valueobjects.KeyFrame, bool) {
	c := k.curve(dim)
	if c == nil {
		return valueobjects.KeyFrame{}, false
	}
	key, ok := c.KeyFrameAt(time)
	if !ok {
		return valueobjects.KeyFrame{}, false
	}
	key.Interpolation = interp
	c.set(key)
	k.changed(dim)
	return key, true
}

// CloneCurve replaces the curve of dim with keys
func (k *Knob) CloneCurve(dim int, keys []valueobjects.KeyFrame) {
	c := k.curve(dim)
	if c == nil {
		return
	}
	c.reset(keys)
	k.changed(dim)
}

// Holder returns the node owning the knob
func (k *Knob) Holder() graph.Node {
	if k.holder == nil {
		return nil
	}
	return k.holder
}

func (k *Knob) changed(dim int) {
	if k.holder != nil {
		k.holder.knobChanged(k, dim)
	}
}
