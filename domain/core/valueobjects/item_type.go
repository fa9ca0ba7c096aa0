package valueobjects

// ItemType classifies a node in the dope sheet
type ItemType int

const (
	ItemTypeCommon ItemType = iota
	ItemTypeReader
	ItemTypeRetime
	ItemTypeTimeOffset
	ItemTypeFrameRange
	ItemTypeGroup
)

var itemTypeNames = [...]string{
	ItemTypeCommon:     "common",
	ItemTypeReader:     "reader",
	ItemTypeRetime:     "retime",
	ItemTypeTimeOffset: "time_offset",
	ItemTypeFrameRange: "frame_range",
	ItemTypeGroup:      "group",
}

// String returns the item type name
func (t ItemType) String() string {
	if t < ItemTypeCommon || t > ItemTypeGroup {
		return "unknown"
	}
	return itemTypeNames[t]
}

// MarshalText implements encoding.TextMarshaler
func (t ItemType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// IsTimeNode holds for the nodes that remap time: Retime, TimeOffset and
// FrameRange. Readers and groups are not time nodes.
func (t ItemType) IsTimeNode() bool {
	switch t {
	case ItemTypeRetime, ItemTypeTimeOffset, ItemTypeFrameRange:
		return true
	}
	return false
}

// IsRangeDrawingEnabled holds for the readers, the time nodes and the groups
func (t ItemType) IsRangeDrawingEnabled() bool {
	return t == ItemTypeReader || t == ItemTypeGroup || t.IsTimeNode()
}

// CanContainOtherNodeContexts holds for the types that nest other nodes
// under them for display: the time nodes and the groups
func (t ItemType) CanContainOtherNodeContexts() bool {
	return t == ItemTypeGroup || t.IsTimeNode()
}
