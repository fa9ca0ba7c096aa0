package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dopesheet/domain/config"
	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/graph"
	"dopesheet/domain/core/valueobjects"
	"dopesheet/domain/events"
	"dopesheet/infrastructure/memory"
)

// mapIndex is a NodeIndex over a plain map
type mapIndex map[graph.Node]*entities.NodeContext

func (m mapIndex) FindNodeContext(n graph.Node) *entities.NodeContext {
	if n == nil {
		return nil
	}
	return m[n]
}

func (m mapIndex) add(t *testing.T, n *memory.Node, itemType valueobjects.ItemType) *entities.NodeContext {
	t.Helper()
	nc, err := entities.NewNodeContext(n, itemType)
	require.NoError(t, err)
	m[n] = nc
	return nc
}

// recorder collects published events
type recorder struct {
	events []events.DomainEvent
}

func (r *recorder) Publish(e events.DomainEvent) {
	r.events = append(r.events, e)
}

func (r *recorder) count(eventType string) int {
	n := 0
	for _, e := range r.events {
		if e.GetEventType() == eventType {
			n++
		}
	}
	return n
}

func key(t float64, v float64) valueobjects.KeyFrame {
	return valueobjects.NewKeyFrame(t, v, valueobjects.InterpolationSmooth)
}

func newFactory() *memory.Factory {
	return memory.NewFactory(config.DefaultDomainConfig())
}

func memoryKnob(name string, dims int, keys map[int][]valueobjects.KeyFrame) *memory.Knob {
	var opts []memory.KnobOption
	for d, ks := range keys {
		opts = append(opts, memory.WithKeyFrames(d, ks...))
	}
	return memory.NewKnob(name, dims, opts...)
}
