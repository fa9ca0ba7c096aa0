package services

import (
	"go.uber.org/zap"

	"dopesheet/domain/config"
	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/graph"
	"dopesheet/domain/core/valueobjects"
	"dopesheet/domain/events"
	"dopesheet/pkg/observability"
)

// RangeEngine computes and caches the frame range drawn for every range
// node of the model. Recomputation is recursive through readers, time nodes
// and groups; a node already being computed is skipped, which bounds the
// recursion on cyclic graphs.
type RangeEngine struct {
	index  NodeIndex
	config *config.DomainConfig

	ranges    map[*entities.NodeContext]valueobjects.Range
	computing map[*entities.NodeContext]struct{}
	// previous holds the cache being replaced during ComputeRanges
	previous map[*entities.NodeContext]valueobjects.Range

	publisher events.Publisher
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewRangeEngine creates a range engine resolving nodes through index
func NewRangeEngine(index NodeIndex, cfg *config.DomainConfig, publisher events.Publisher, metrics *observability.Collector, logger *zap.Logger) *RangeEngine {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RangeEngine{
		index:     index,
		config:    cfg,
		ranges:    make(map[*entities.NodeContext]valueobjects.Range),
		computing: make(map[*entities.NodeContext]struct{}),
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Range returns the cached range of nc
func (e *RangeEngine) Range(nc *entities.NodeContext) (valueobjects.Range, bool) {
	r, ok := e.ranges[nc]
	return r, ok
}

// ComputeNodeRange recomputes the range of nc according to its item type.
// Nodes that draw no range are ignored.
func (e *RangeEngine) ComputeNodeRange(nc *entities.NodeContext) {
	if nc == nil || !nc.IsValid() {
		return
	}
	switch nc.ItemType() {
	case valueobjects.ItemTypeReader:
		e.computeReaderRange(nc)
	case valueobjects.ItemTypeRetime:
		e.computeRetimeRange(nc)
	case valueobjects.ItemTypeTimeOffset:
		e.computeTimeOffsetRange(nc)
	case valueobjects.ItemTypeFrameRange:
		e.computeFrameRangeRange(nc)
	case valueobjects.ItemTypeGroup:
		e.computeGroupRange(nc)
	}
}

// ComputeRanges drops the cache and recomputes the range of every node of
// nodes, in order. Nodes left out of nodes lose their range. RangeChanged is
// only published for ranges that differ from the dropped cache.
func (e *RangeEngine) ComputeRanges(nodes []*entities.NodeContext) {
	e.previous = e.ranges
	e.ranges = make(map[*entities.NodeContext]valueobjects.Range, len(e.previous))
	defer func() { e.previous = nil }()

	for _, nc := range nodes {
		if _, done := e.ranges[nc]; done {
			continue
		}
		e.ComputeNodeRange(nc)
	}
}

// enter marks nc as being computed. It returns false when nc already is,
// in which case the caller must return without recursing.
func (e *RangeEngine) enter(nc *entities.NodeContext) bool {
	if _, busy := e.computing[nc]; busy {
		e.metrics.RecordRangeCycleGuard()
		e.logger.Debug("Range computation cycle skipped", zap.String("node", nc.Label()))
		return false
	}
	e.computing[nc] = struct{}{}
	e.metrics.RecordRangeComputation(nc.ItemType().String())
	return true
}

func (e *RangeEngine) leave(nc *entities.NodeContext) {
	delete(e.computing, nc)
}

func (e *RangeEngine) computeReaderRange(nc *entities.NodeContext) {
	if !e.enter(nc) {
		return
	}
	defer e.leave(nc)

	r, _ := e.readerRange(nc.Node())
	e.store(nc, r)

	if group := GroupNodeContext(e.index, nc); group != nil {
		e.computeGroupRange(group)
	}
	if timeNode := NearestTimeNodeFromOutputs(e.index, nc); timeNode != nil {
		e.ComputeNodeRange(timeNode)
	}
}

func (e *RangeEngine) computeRetimeRange(nc *entities.NodeContext) {
	if !e.enter(nc) {
		return
	}
	defer e.leave(nc)

	input, ok := e.retimeInputRange(nc)
	if !ok {
		e.store(nc, valueobjects.Range{})
		return
	}

	provider, ok := nc.Node().(graph.FramesNeededProvider)
	if !ok {
		e.store(nc, valueobjects.Range{})
		return
	}
	// the mapped span of the input is the output duration; the output
	// starts with the input
	first := provider.FramesNeeded(input.Start)
	last := provider.FramesNeeded(input.End)
	if len(first) == 0 || len(last) == 0 {
		e.store(nc, valueobjects.Range{})
		return
	}
	e.store(nc, valueobjects.NewRange(input.Start, input.Start+last[0].Start-first[0].Start))
}

// retimeInputRange returns the range of the retime's first input when that
// input is in the model, else the range of its nearest reader.
func (e *RangeEngine) retimeInputRange(nc *entities.NodeContext) (valueobjects.Range, bool) {
	inputs := nc.Node().Inputs()
	if len(inputs) > 0 && inputs[0] != nil {
		if inCtx := e.index.FindNodeContext(inputs[0]); inCtx != nil && inCtx.IsRangeDrawingEnabled() {
			if _, cached := e.ranges[inCtx]; !cached {
				e.ComputeNodeRange(inCtx)
			}
			if r, ok := e.ranges[inCtx]; ok {
				return r, true
			}
		}
	}
	reader := NearestReader(e.index, nc, e.isReader)
	if reader == nil {
		return valueobjects.Range{}, false
	}
	return e.readerRange(reader)
}

func (e *RangeEngine) computeTimeOffsetRange(nc *entities.NodeContext) {
	if !e.enter(nc) {
		return
	}
	defer e.leave(nc)

	var r valueobjects.Range
	if reader := NearestReader(e.index, nc, e.isReader); reader != nil {
		readerRange, ok := e.readerRange(reader)
		offset := nc.Node().KnobByName(e.config.Knobs.TimeOffset)
		if ok && offset != nil {
			r = readerRange.Shift(offset.Value(0))
		}
	}
	e.store(nc, r)
}

func (e *RangeEngine) computeFrameRangeRange(nc *entities.NodeContext) {
	if !e.enter(nc) {
		return
	}
	defer e.leave(nc)

	var r valueobjects.Range
	if k := nc.Node().KnobByName(e.config.Knobs.FrameRange); k != nil && k.Dimension() >= 2 {
		r = valueobjects.NewRange(k.Value(0), k.Value(1))
	}
	e.store(nc, r)
}

func (e *RangeEngine) computeGroupRange(nc *entities.NodeContext) {
	if !e.enter(nc) {
		return
	}
	defer e.leave(nc)

	inner := nc.Node().AsGroup()
	if inner == nil {
		e.store(nc, valueobjects.Range{})
		return
	}

	var times []float64
	for _, member := range inner.Nodes() {
		ctx := e.index.FindNodeContext(member)
		if ctx == nil || !ctx.IsVisible() {
			continue
		}
		if ctx.IsRangeDrawingEnabled() {
			if _, cached := e.ranges[ctx]; !cached {
				e.ComputeNodeRange(ctx)
			}
			if r, ok := e.ranges[ctx]; ok && !r.IsZero() {
				times = append(times, r.Start, r.End)
			}
		}
		for _, knob := range member.Knobs() {
			if !knob.IsAnimationEnabled() || !knob.HasAnimation() {
				continue
			}
			for d := 0; d < knob.Dimension(); d++ {
				keys := knob.Curve(d).KeyFrames()
				if len(keys) == 0 {
					continue
				}
				times = append(times, keys[0].Time, keys[len(keys)-1].Time)
			}
		}
	}
	e.store(nc, valueobjects.RangeOf(times))
}

// readerRange returns [startingTime, startingTime + last - first + 1)
func (e *RangeEngine) readerRange(node graph.Node) (valueobjects.Range, bool) {
	k := e.config.Knobs
	starting := node.KnobByName(k.StartingTime)
	first := node.KnobByName(k.FirstFrame)
	last := node.KnobByName(k.LastFrame)
	if starting == nil || first == nil || last == nil {
		e.logger.Debug("Reader without frame knobs", zap.String("node", node.Label()))
		return valueobjects.Range{}, false
	}
	start := starting.Value(0)
	return valueobjects.NewRange(start, start+(last.Value(0)-first.Value(0))+1), true
}

func (e *RangeEngine) isReader(node graph.Node) bool {
	return e.config.IsReader(node.PluginID())
}

func (e *RangeEngine) store(nc *entities.NodeContext, r valueobjects.Range) {
	old, cached := e.ranges[nc]
	if !cached && e.previous != nil {
		old, cached = e.previous[nc]
	}
	e.ranges[nc] = r
	if cached && old.Equals(r) {
		return
	}
	if e.publisher != nil {
		e.publisher.Publish(events.NewRangeChanged(nc.ID(), r))
	}
}
