package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dopesheet/domain/config"
	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/graph"
	"dopesheet/domain/core/valueobjects"
	"dopesheet/domain/events"
	"dopesheet/pkg/observability"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(e events.DomainEvent) {
	m.Called(e)
}

// plainNode hides the frames needed mapping of the wrapped node
type plainNode struct {
	graph.Node
}

func newEngine(idx mapIndex) *RangeEngine {
	return NewRangeEngine(idx, config.DefaultDomainConfig(), nil, observability.NewCollector("test"), zap.NewNop())
}

func TestRangeEngine_Reader(t *testing.T) {
	f := newFactory()
	reader := f.Reader("Read1", 1, 100)
	idx := mapIndex{}
	nc := idx.add(t, reader, valueobjects.ItemTypeReader)
	engine := newEngine(idx)

	engine.ComputeNodeRange(nc)
	r, ok := engine.Range(nc)
	require.True(t, ok)
	assert.Equal(t, valueobjects.NewRange(1, 101), r)

	reader.Knob("startingTime").SetValue(0, 11)
	engine.ComputeNodeRange(nc)
	r, _ = engine.Range(nc)
	assert.Equal(t, valueobjects.NewRange(11, 111), r)
}

func TestRangeEngine_TimeOffset(t *testing.T) {
	f := newFactory()
	idx := mapIndex{}

	t.Run("shifts the nearest reader range", func(t *testing.T) {
		reader := f.Reader("Read1", 1, 100)
		blur := f.Effect("net.sf.openfx.Blur", "Blur1")
		offset := f.TimeOffset("TimeOffset1", 10)
		blur.Connect(reader)
		offset.Connect(blur)
		nc := idx.add(t, offset, valueobjects.ItemTypeTimeOffset)
		engine := newEngine(idx)

		engine.ComputeNodeRange(nc)
		r, _ := engine.Range(nc)
		assert.Equal(t, valueobjects.NewRange(11, 111), r)
	})

	t.Run("zero without a reader", func(t *testing.T) {
		offset := f.TimeOffset("TimeOffset2", 10)
		nc := idx.add(t, offset, valueobjects.ItemTypeTimeOffset)
		engine := newEngine(idx)

		engine.ComputeNodeRange(nc)
		r, ok := engine.Range(nc)
		assert.True(t, ok)
		assert.True(t, r.IsZero())
	})
}

func TestRangeEngine_FrameRange(t *testing.T) {
	idx := mapIndex{}
	nc := idx.add(t, newFactory().FrameRange("FrameRange1", 5, 50), valueobjects.ItemTypeFrameRange)
	engine := newEngine(idx)

	engine.ComputeNodeRange(nc)
	r, _ := engine.Range(nc)
	assert.Equal(t, valueobjects.NewRange(5, 50), r)
}

func TestRangeEngine_Retime(t *testing.T) {
	f := newFactory()

	t.Run("maps the input range through frames needed", func(t *testing.T) {
		idx := mapIndex{}
		reader := f.Reader("Read1", 1, 100)
		retime := f.Retime("Retime1", 2)
		retime.Connect(reader)
		idx.add(t, reader, valueobjects.ItemTypeReader)
		nc := idx.add(t, retime, valueobjects.ItemTypeRetime)
		engine := newEngine(idx)

		engine.ComputeNodeRange(nc)
		r, _ := engine.Range(nc)
		assert.Equal(t, valueobjects.NewRange(1, 51), r)
	})

	t.Run("starts with the input", func(t *testing.T) {
		idx := mapIndex{}
		reader := f.Reader("Read1", 11, 110)
		retime := f.Retime("Retime1", 2)
		retime.Connect(reader)
		idx.add(t, reader, valueobjects.ItemTypeReader)
		nc := idx.add(t, retime, valueobjects.ItemTypeRetime)
		engine := newEngine(idx)

		engine.ComputeNodeRange(nc)
		r, _ := engine.Range(nc)
		assert.Equal(t, valueobjects.NewRange(11, 61), r)

		retime.Knob("speed").SetValue(0, 0.5)
		engine.ComputeNodeRange(nc)
		r, _ = engine.Range(nc)
		assert.Equal(t, valueobjects.NewRange(11, 211), r)
	})

	t.Run("zero without a frames needed mapping", func(t *testing.T) {
		idx := mapIndex{}
		reader := f.Reader("Read1", 1, 100)
		retime := f.Retime("Retime1", 2)
		retime.Connect(reader)
		plain, err := entities.NewNodeContext(plainNode{Node: retime}, valueobjects.ItemTypeRetime)
		require.NoError(t, err)
		idx[plain.Node()] = plain
		engine := newEngine(idx)

		engine.ComputeNodeRange(plain)
		r, ok := engine.Range(plain)
		assert.True(t, ok)
		assert.True(t, r.IsZero())
	})

	t.Run("zero when the mapping is empty", func(t *testing.T) {
		idx := mapIndex{}
		reader := f.Reader("Read1", 1, 100)
		retime := f.Retime("Retime1", 0)
		retime.Connect(reader)
		nc := idx.add(t, retime, valueobjects.ItemTypeRetime)
		engine := newEngine(idx)

		engine.ComputeNodeRange(nc)
		r, ok := engine.Range(nc)
		assert.True(t, ok)
		assert.True(t, r.IsZero())
	})

	t.Run("zero without input", func(t *testing.T) {
		idx := mapIndex{}
		nc := idx.add(t, f.Retime("Retime2", 2), valueobjects.ItemTypeRetime)
		engine := newEngine(idx)

		engine.ComputeNodeRange(nc)
		r, ok := engine.Range(nc)
		assert.True(t, ok)
		assert.True(t, r.IsZero())
	})
}

func TestRangeEngine_Group(t *testing.T) {
	f := newFactory()

	t.Run("unions member ranges and keyframes", func(t *testing.T) {
		idx := mapIndex{}
		group := f.Group("Group1")
		reader := f.Reader("Read1", 1, 100)
		blur := f.Effect("net.sf.openfx.Blur", "Blur1",
			memoryKnob("size", 1, map[int][]valueobjects.KeyFrame{0: {key(120, 1), key(150, 4)}}))
		group.Inner().Add(reader, blur)
		nc := idx.add(t, group, valueobjects.ItemTypeGroup)
		idx.add(t, reader, valueobjects.ItemTypeReader)
		idx.add(t, blur, valueobjects.ItemTypeCommon)
		engine := newEngine(idx)

		engine.ComputeNodeRange(nc)
		r, _ := engine.Range(nc)
		assert.Equal(t, valueobjects.NewRange(1, 150), r)
	})

	t.Run("hidden members are ignored", func(t *testing.T) {
		idx := mapIndex{}
		group := f.Group("Group2")
		reader := f.Reader("Read2", 1, 100)
		group.Inner().Add(reader)
		nc := idx.add(t, group, valueobjects.ItemTypeGroup)
		idx.add(t, reader, valueobjects.ItemTypeReader).SetVisible(false)
		engine := newEngine(idx)

		engine.ComputeNodeRange(nc)
		r, _ := engine.Range(nc)
		assert.True(t, r.IsZero())
	})
}

func TestRangeEngine_ReaderPropagates(t *testing.T) {
	f := newFactory()
	idx := mapIndex{}
	group := f.Group("Group1")
	reader := f.Reader("Read1", 1, 100)
	offset := f.TimeOffset("TimeOffset1", 5)
	group.Inner().Add(reader)
	offset.Connect(reader)
	groupCtx := idx.add(t, group, valueobjects.ItemTypeGroup)
	readerCtx := idx.add(t, reader, valueobjects.ItemTypeReader)
	offsetCtx := idx.add(t, offset, valueobjects.ItemTypeTimeOffset)

	pub := &mockPublisher{}
	pub.On("Publish", mock.AnythingOfType("events.RangeChanged")).Return()
	engine := NewRangeEngine(idx, nil, pub, nil, nil)

	engine.ComputeNodeRange(readerCtx)

	r, _ := engine.Range(groupCtx)
	assert.Equal(t, valueobjects.NewRange(1, 101), r)
	r, _ = engine.Range(offsetCtx)
	assert.Equal(t, valueobjects.NewRange(6, 106), r)
	pub.AssertNumberOfCalls(t, "Publish", 3)

	// unchanged ranges publish nothing
	engine.ComputeNodeRange(readerCtx)
	pub.AssertNumberOfCalls(t, "Publish", 3)
}

func TestRangeEngine_CycleTerminates(t *testing.T) {
	f := newFactory()
	idx := mapIndex{}
	group := f.Group("Group1")
	reader := f.Reader("Read1", 1, 100)
	offset := f.TimeOffset("TimeOffset1", 10)
	group.Inner().Add(reader, offset)
	offset.Connect(reader)
	// the group output feeds the reader back
	reader.Connect(group)
	groupCtx := idx.add(t, group, valueobjects.ItemTypeGroup)
	readerCtx := idx.add(t, reader, valueobjects.ItemTypeReader)
	offsetCtx := idx.add(t, offset, valueobjects.ItemTypeTimeOffset)
	engine := newEngine(idx)

	engine.ComputeNodeRange(groupCtx)
	engine.ComputeNodeRange(readerCtx)
	engine.ComputeNodeRange(offsetCtx)

	r, _ := engine.Range(readerCtx)
	assert.Equal(t, valueobjects.NewRange(1, 101), r)
	r, _ = engine.Range(offsetCtx)
	assert.Equal(t, valueobjects.NewRange(11, 111), r)
	r, _ = engine.Range(groupCtx)
	assert.Equal(t, valueobjects.NewRange(1, 111), r)
	assert.Empty(t, engine.computing)
}

func TestHierarchyWalks(t *testing.T) {
	f := newFactory()
	cfg := config.DefaultDomainConfig()
	idx := mapIndex{}
	group := f.Group("Group1")
	reader := f.Reader("Read1", 1, 100)
	blur := f.Effect("net.sf.openfx.Blur", "Blur1", memoryKnob("size", 1, nil))
	offset := f.TimeOffset("TimeOffset1", 10)
	group.Inner().Add(reader, blur)
	blur.Connect(reader)
	offset.Connect(blur)
	// cycle back into the blur
	blur.Connect(offset)

	groupCtx := idx.add(t, group, valueobjects.ItemTypeGroup)
	readerCtx := idx.add(t, reader, valueobjects.ItemTypeReader)
	blurCtx := idx.add(t, blur, valueobjects.ItemTypeCommon)
	offsetCtx := idx.add(t, offset, valueobjects.ItemTypeTimeOffset)

	assert.Equal(t, groupCtx, GroupNodeContext(idx, readerCtx))
	assert.True(t, IsPartOfGroup(idx, blurCtx))
	assert.False(t, IsPartOfGroup(idx, offsetCtx))
	assert.ElementsMatch(t, []any{readerCtx, blurCtx}, toAny(ImportantNodes(idx, groupCtx)))
	assert.ElementsMatch(t, []any{readerCtx, blurCtx}, toAny(ImportantNodes(idx, offsetCtx)))
	assert.Empty(t, ImportantNodes(idx, blurCtx))
	assert.Equal(t, offsetCtx, NearestTimeNodeFromOutputs(idx, readerCtx))
	assert.Nil(t, NearestTimeNodeFromOutputs(idx, offsetCtx))

	isReader := func(n graph.Node) bool { return cfg.IsReader(n.PluginID()) }
	assert.Equal(t, graph.Node(reader), NearestReader(idx, offsetCtx, isReader))
	assert.Nil(t, NearestReader(idx, readerCtx, isReader))
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
