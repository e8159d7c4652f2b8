package processor

import "bitcraftsd/models"

// OrderPredicate selects order tiers by their attribution tags.
type OrderPredicate func(models.Order) bool

// InRegion matches tiers listed in the named region.
func InRegion(name string) OrderPredicate {
	return func(o models.Order) bool { return o.RegionName == name }
}

// InClaim matches tiers listed at the claim with the given entity id.
func InClaim(id string) OrderPredicate {
	return func(o models.Order) bool { return o.ClaimEntityID == id }
}

// All matches tiers accepted by every predicate. With no predicates it
// matches everything.
func All(preds ...OrderPredicate) OrderPredicate {
	return func(o models.Order) bool {
		for _, p := range preds {
			if p != nil && !p(o) {
				return false
			}
		}
		return true
	}
}

// Segment keeps the tiers accepted by pred in their original order. No
// matches yields the NoOrders variant.
func Segment(seq models.OrderSequence, pred OrderPredicate) models.OrderSequence {
	if seq.IsEmpty() {
		return seq
	}
	if pred == nil {
		return seq
	}
	kept := make([]models.Order, 0, seq.Len())
	for i := 0; i < seq.Len(); i++ {
		if o := seq.At(i); pred(o) {
			kept = append(kept, o)
		}
	}
	return models.PresentOrders(seq.Side(), kept)
}
