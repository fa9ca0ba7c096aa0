package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_NodeListeners(t *testing.T) {
	f := NewFactory(nil)
	project := NewProject()
	group := f.Group("Group1")
	project.Add(group)

	var added, removed []string
	group.Inner().OnNodeAdded(func(n *Node) { added = append(added, n.Label()) })
	project.OnNodeAboutToBeRemoved(func(n *Node) {
		removed = append(removed, n.Label())
		assert.False(t, n.IsAlive())
		assert.NotNil(t, n.Group(), "still in its collection")
	})

	reader := f.Reader("Read1", 1, 100)
	offset := f.TimeOffset("TimeOffset1", 10)
	offset.Connect(reader)
	group.Inner().Add(reader)
	project.Add(offset)
	assert.Equal(t, []string{"Read1", "TimeOffset1"}, added, "listeners live on the root")

	project.Add(reader)
	assert.Len(t, added, 2, "moving between collections is not an addition")

	reader.Delete()
	assert.Equal(t, []string{"Read1"}, removed)
	assert.Nil(t, reader.Group())
	require.Len(t, offset.Inputs(), 1)
	assert.Nil(t, offset.Inputs()[0], "links are cut")

	reader.Delete()
	assert.Len(t, removed, 1, "deleting twice is a no-op")
}

func TestNode_DeleteGroupDeletesMembersFirst(t *testing.T) {
	f := NewFactory(nil)
	project := NewProject()
	group := f.Group("Group1")
	project.Add(group)
	group.Inner().Add(f.Reader("Read1", 1, 100), f.TimeOffset("TimeOffset1", 5))

	var removed []string
	project.OnNodeAboutToBeRemoved(func(n *Node) { removed = append(removed, n.Label()) })

	group.Delete()
	require.Equal(t, []string{"Read1", "TimeOffset1", "Group1"}, removed)
	assert.Empty(t, group.Inner().Nodes())
	assert.Empty(t, project.Nodes())
}
