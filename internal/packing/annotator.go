package packing

import "github.com/eugenenazirov/box-packer/internal/geometry"

// Annotate returns a copy of r where every item lists the items above its
// footprint (LoadedBy) and the items it rests on (RestingOn), and where
// non-stackable items carrying load are flagged Unstable.
func Annotate(r Result) Result {
	out := r.Clone()
	for i := range out.Items {
		it := &out.Items[i]
		it.LoadedBy = nil
		it.RestingOn = nil
		box := it.Box()

		for j, other := range r.Items {
			if i == j {
				continue
			}
			otherBox := other.Box()
			if geometry.IsDirectlyAbove(otherBox, box) {
				it.LoadedBy = append(it.LoadedBy, other.Name)
			}
			if geometry.RestsOn(box, otherBox) {
				it.RestingOn = append(it.RestingOn, other.Name)
			}
		}
		it.Unstable = !it.CanStack && len(it.LoadedBy) > 0
	}
	return out
}
