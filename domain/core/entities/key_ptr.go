package entities

import "dopesheet/domain/core/valueobjects"

// KeyPtr is a keyframe selection entry: a keyframe seen through one row.
// Two entries are the same item when they share the row, the dimension and
// the time, whatever the keyframe values.
type KeyPtr struct {
	Context *KnobContext
	Key     valueobjects.KeyFrame
}

// KeyIdentity is the comparable identity of a KeyPtr
type KeyIdentity struct {
	Row       valueobjects.RowID
	Dimension int
	Time      float64
}

// NewKeyPtr creates a selection entry
func NewKeyPtr(ctx *KnobContext, key valueobjects.KeyFrame) KeyPtr {
	return KeyPtr{Context: ctx, Key: key}
}

// Identity returns the entry identity
func (k KeyPtr) Identity() KeyIdentity {
	if k.Context == nil {
		return KeyIdentity{Time: k.Key.Time}
	}
	return KeyIdentity{Row: k.Context.ID(), Dimension: k.Context.Dimension(), Time: k.Key.Time}
}

// Same reports whether both entries designate the same selected item
func (k KeyPtr) Same(other KeyPtr) bool {
	return k.Context == other.Context && k.Identity() == other.Identity()
}

// IsValid reports whether the entry's row still exists
func (k KeyPtr) IsValid() bool {
	return k.Context != nil && k.Context.IsValid()
}
