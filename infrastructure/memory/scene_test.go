package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dopesheet/domain/config"
	"dopesheet/domain/core/valueobjects"
	pkgerrors "dopesheet/pkg/errors"
)

const scene = `
frame: 12
nodes:
  - name: Read1
    type: reader
    first: 1
    last: 48
  - name: Retime1
    type: retime
    inputs: [Read1]
  - name: Comp
    type: group
  - name: Blur1
    plugin: net.sf.openfx.Blur
    group: Comp
    inputs: [Retime1]
    lifetime: [5, 30]
    knobs:
      - name: size
        dims: 2
        values: [3, 4]
        keys:
          - {dim: 1, time: 20, value: 2, interpolation: linear}
          - {dim: 1, time: 10, value: 1, interpolation: constant}
`

func TestLoadScene(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	s, err := LoadScene(strings.NewReader(scene), NewFactory(cfg))
	require.NoError(t, err)

	assert.Equal(t, 12.0, s.Timeline.CurrentFrame())
	require.Len(t, s.Nodes, 4)
	assert.Len(t, s.Project.Nodes(), 3, "Blur1 lives in Comp")

	read, retime, comp, blur := s.Node("Read1"), s.Node("Retime1"), s.Node("Comp"), s.Node("Blur1")
	assert.Equal(t, cfg.ReaderPluginIDs[0], read.PluginID())
	assert.Equal(t, 1.0, retime.Knob(cfg.Knobs.Speed).Value(0), "speed defaults to 1")
	assert.Equal(t, comp.AsGroup(), blur.Group())
	assert.Equal(t, []*Node{blur}, comp.Inner().Members())
	assert.Len(t, blur.Inputs(), 1)
	assert.Len(t, read.Outputs(), 1)

	size := blur.Knob("size")
	require.NotNil(t, size)
	assert.Equal(t, 3.0, size.Value(0))
	assert.False(t, size.IsAnimated(0))
	keys := size.Curve(1).KeyFrames()
	require.Len(t, keys, 2)
	assert.Equal(t, 10.0, keys[0].Time)
	assert.Equal(t, valueobjects.InterpolationConstant, keys[0].Interpolation)

	assert.Equal(t, 1.0, blur.Knob(cfg.Knobs.EnableLifetime).Value(0))
	assert.Equal(t, 30.0, blur.Knob(cfg.Knobs.Lifetime).Value(1))
}

func TestLoadScene_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not yaml", "nodes: [: "},
		{"unnamed node", "nodes:\n  - type: group\n"},
		{"duplicate", "nodes:\n  - {name: A, type: group}\n  - {name: A, type: group}\n"},
		{"unknown type", "nodes:\n  - {name: A, type: teapot}\n"},
		{"effect without plugin", "nodes:\n  - {name: A}\n"},
		{"unknown group", "nodes:\n  - {name: A, type: group, group: B}\n"},
		{"group is not a group", "nodes:\n  - {name: A, type: reader}\n  - {name: B, plugin: x, group: A}\n"},
		{"unknown input", "nodes:\n  - {name: A, type: group, inputs: [B]}\n"},
		{"bad lifetime", "nodes:\n  - {name: A, plugin: x, lifetime: [1]}\n"},
		{"bad interpolation", "nodes:\n  - name: A\n    plugin: x\n    knobs:\n      - name: k\n        dims: 1\n        keys: [{time: 1, interpolation: wobbly}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScene(strings.NewReader(tt.input), NewFactory(nil))
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
		})
	}
}

func TestReaderHook(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	read := NewFactory(cfg).Reader("Read1", 10, 50)

	notified := 0
	read.OnChanged(func(*Node) { notified++ })

	read.Knob(cfg.Knobs.FirstFrame).SetValue(0, 15)
	assert.Equal(t, 15.0, read.Knob(cfg.Knobs.StartingTime).Value(0))

	read.Knob(cfg.Knobs.ReaderTimeOffset).SetValue(0, 5)
	assert.Equal(t, 20.0, read.Knob(cfg.Knobs.StartingTime).Value(0))

	read.Knob(cfg.Knobs.StartingTime).SetValue(0, 30)
	assert.Equal(t, 15.0, read.Knob(cfg.Knobs.ReaderTimeOffset).Value(0))
	assert.Equal(t, 3, notified)

	read.BeginChanges()
	read.Knob(cfg.Knobs.LastFrame).SetValue(0, 40)
	read.Knob(cfg.Knobs.LastFrame).SetValue(0, 45)
	assert.Equal(t, 3, notified)
	read.EndChanges()
	assert.Equal(t, 4, notified, "one notification per batch")
}

func TestCurve(t *testing.T) {
	c := NewCurve(
		valueobjects.NewKeyFrame(20, 2, valueobjects.InterpolationLinear),
		valueobjects.NewKeyFrame(10, 1, valueobjects.InterpolationLinear),
		valueobjects.NewKeyFrame(20, 3, valueobjects.InterpolationLinear),
	)
	assert.Equal(t, 2, c.Len())

	k, ok := c.KeyFrameAt(20)
	require.True(t, ok)
	assert.Equal(t, 3.0, k.Value, "later key at the same time wins")

	next, ok := c.NextKeyFrameTime(10)
	assert.True(t, ok)
	assert.Equal(t, 20.0, next)
	_, ok = c.NextKeyFrameTime(20)
	assert.False(t, ok)

	prev, ok := c.PreviousKeyFrameTime(20)
	assert.True(t, ok)
	assert.Equal(t, 10.0, prev)
	_, ok = c.PreviousKeyFrameTime(10)
	assert.False(t, ok)
}
