package memory

import (
	"dopesheet/domain/config"
	"dopesheet/domain/core/valueobjects"
)

// Factory builds nodes named after a domain configuration
type Factory struct {
	cfg *config.DomainConfig
}

// NewFactory creates a node factory
func NewFactory(cfg *config.DomainConfig) *Factory {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Factory{cfg: cfg}
}

// Reader creates a reader over the footage [first, last] starting at first.
// Its starting time is kept equal to first frame + time offset.
func (f *Factory) Reader(label string, first, last float64) *Node {
	k := f.cfg.Knobs
	firstFrame := NewKnob(k.FirstFrame, 1, Static(), WithValues(first))
	lastFrame := NewKnob(k.LastFrame, 1, Static(), WithValues(last))
	startingTime := NewKnob(k.StartingTime, 1, Static(), WithValues(first))
	timeOffset := NewKnob(k.ReaderTimeOffset, 1, Static())
	original := NewKnob(k.OriginalFrameRange, 2, Static(), WithValues(first, last))

	n := NewNode(f.cfg.ReaderPluginIDs[0], label, firstFrame, lastFrame, startingTime, timeOffset, original)
	n.AddKnobHook(func(changed *Knob, _ int) {
		switch changed {
		case firstFrame, timeOffset:
			startingTime.setRaw(0, firstFrame.Value(0)+timeOffset.Value(0))
		case startingTime:
			timeOffset.setRaw(0, startingTime.Value(0)-firstFrame.Value(0))
		}
	})
	return n
}

// TimeOffset creates a time offset node shifting its input by offset
func (f *Factory) TimeOffset(label string, offset float64) *Node {
	return NewNode(f.cfg.TimeOffsetPluginID, label,
		NewKnob(f.cfg.Knobs.TimeOffset, 1, Static(), WithValues(offset)))
}

// FrameRange creates a frame range node restricting its input to [first, last]
func (f *Factory) FrameRange(label string, first, last float64) *Node {
	return NewNode(f.cfg.FrameRangePluginID, label,
		NewKnob(f.cfg.Knobs.FrameRange, 2, Static(), WithValues(first, last)))
}

// Retime creates a retime node playing its input at speed. An input frame t
// lands at output frame t / speed.
func (f *Factory) Retime(label string, speed float64) *Node {
	speedKnob := NewKnob(f.cfg.Knobs.Speed, 1, WithValues(speed))
	n := NewNode(f.cfg.RetimePluginID, label, speedKnob)
	n.SetFramesNeeded(func(t float64) []valueobjects.Range {
		s := speedKnob.Value(0)
		if s == 0 {
			return nil
		}
		return []valueobjects.Range{valueobjects.NewRange(t/s, t/s)}
	})
	return n
}

// Group creates a group node
func (f *Factory) Group(label string) *Node {
	return NewGroupNode(f.cfg.GroupPluginID, label)
}

// Effect creates a node of any other plugin owning knobs
func (f *Factory) Effect(pluginID, label string, knobs ...*Knob) *Node {
	return NewNode(pluginID, label, knobs...)
}

// Lifetime adds the lifetime knobs to a node: a two-dimensional frame range
// and its enabling switch.
func (f *Factory) Lifetime(n *Node, first, last float64, enabled bool) {
	on := 0.0
	if enabled {
		on = 1
	}
	n.AddKnob(NewKnob(f.cfg.Knobs.EnableLifetime, 1, Static(), WithValues(on)))
	n.AddKnob(NewKnob(f.cfg.Knobs.Lifetime, 2, Static(), WithValues(first, last)))
}
