package state

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// GroupSet is an immutable set of group numbers.
type GroupSet struct {
	bitmap *roaring.Bitmap
}

func NewGroupSet(groups ...int) GroupSet {
	bm := roaring.New()
	for _, g := range groups {
		if g >= 0 {
			bm.Add(uint32(g))
		}
	}
	bm.RunOptimize()
	return GroupSet{bitmap: bm}
}

func (s GroupSet) Contains(group int) bool {
	if s.bitmap == nil || group < 0 {
		return false
	}
	return s.bitmap.Contains(uint32(group))
}

func (s GroupSet) Len() int {
	if s.bitmap == nil {
		return 0
	}
	return int(s.bitmap.GetCardinality())
}

// Values returns the groups in ascending order.
func (s GroupSet) Values() []int {
	if s.bitmap == nil {
		return nil
	}
	out := make([]int, 0, s.bitmap.GetCardinality())
	it := s.bitmap.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}
