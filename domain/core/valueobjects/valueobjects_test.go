package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemTypePredicates(t *testing.T) {
	tests := []struct {
		name          string
		itemType      ItemType
		timeNode      bool
		rangeDrawing  bool
		containsNodes bool
	}{
		{"common", ItemTypeCommon, false, false, false},
		{"reader", ItemTypeReader, false, true, false},
		{"retime", ItemTypeRetime, true, true, true},
		{"time offset", ItemTypeTimeOffset, true, true, true},
		{"frame range", ItemTypeFrameRange, true, true, true},
		{"group", ItemTypeGroup, false, true, true},
		{"unknown", ItemType(42), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.timeNode, tt.itemType.IsTimeNode())
			assert.Equal(t, tt.rangeDrawing, tt.itemType.IsRangeDrawingEnabled())
			assert.Equal(t, tt.containsNodes, tt.itemType.CanContainOtherNodeContexts())
		})
	}
}

func TestMatrix3(t *testing.T) {
	t.Run("scale around pivot keeps the pivot fixed", func(t *testing.T) {
		m := ScaleAround(10, 5, 2, 3)

		x, y := m.Apply(10, 5)
		assert.InDelta(t, 10, x, 1e-9)
		assert.InDelta(t, 5, y, 1e-9)

		x, y = m.Apply(12, 6)
		assert.InDelta(t, 14, x, 1e-9)
		assert.InDelta(t, 8, y, 1e-9)
	})

	t.Run("multiply applies the right operand first", func(t *testing.T) {
		m := Translation(1, 0).Multiply(Scale(2, 1))

		x, _ := m.Apply(3, 0)
		assert.InDelta(t, 7, x, 1e-9)
	})

	t.Run("identity", func(t *testing.T) {
		assert.True(t, Identity().IsIdentity())
		assert.True(t, Scale(2, 2).Multiply(Scale(0.5, 0.5)).IsIdentity())
		assert.False(t, Translation(1, 0).IsIdentity())
	})
}

func TestRange(t *testing.T) {
	r := NewRange(10, 20)

	assert.Equal(t, float64(19), r.Last())
	assert.Equal(t, float64(10), r.Duration())
	assert.True(t, r.Contains(10))
	assert.False(t, r.Contains(20))
	assert.Equal(t, NewRange(15, 25), r.Shift(5))
	assert.True(t, r.Overlaps(18, 30))
	assert.False(t, r.Overlaps(21, 30))
	assert.True(t, Range{}.IsZero())

	assert.Equal(t, NewRange(3, 9), RangeOf([]float64{5, 3, 9}))
	assert.True(t, RangeOf([]float64{4, 4}).IsZero())
	assert.True(t, RangeOf(nil).IsZero())
}

func TestInterpolationText(t *testing.T) {
	for interp := InterpolationConstant; interp <= InterpolationBroken; interp++ {
		parsed, err := ParseInterpolation(interp.String())
		require.NoError(t, err)
		assert.Equal(t, interp, parsed)
	}

	_, err := ParseInterpolation("bezier")
	assert.Error(t, err)

	var k KeyFrame
	require.NoError(t, json.Unmarshal([]byte(`{"time":3,"value":1.5,"interpolation":"Smooth"}`), &k))
	assert.Equal(t, NewKeyFrame(3, 1.5, InterpolationSmooth), k)
}

func TestRowID(t *testing.T) {
	id := NewRowID()
	assert.False(t, id.IsZero())

	parsed, err := ParseRowID(id.String())
	require.NoError(t, err)
	assert.True(t, id.Equals(parsed))

	_, err = ParseRowID("not-a-uuid")
	assert.Error(t, err)
}
