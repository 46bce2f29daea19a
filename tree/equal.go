package tree

import (
	"github.com/shopspring/decimal"
)

// Equal reports whether two subtrees have the same shape, types and
// attributes.
func Equal(a, b *Node) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() == b.IsNull()
	}

	if a.Kind != b.Kind || a.Type != b.Type {
		return false
	}

	if len(a.Elems) != len(b.Elems) {
		return false
	}

	for i := range a.Elems {
		if !Equal(a.Elems[i], b.Elems[i]) {
			return false
		}
	}

	if countPresent(a.Fields) != countPresent(b.Fields) {
		return false
	}

	for k, av := range a.Fields {
		if av == nil {
			continue
		}

		bv, ok := b.Fields[k]
		if !ok {
			return false
		}

		if an, ok := av.(*Node); ok {
			bn, ok := bv.(*Node)
			if !ok || !Equal(an, bn) {
				return false
			}

			continue
		}

		if !AttrEqual(av, bv) {
			return false
		}
	}

	return true
}

func countPresent(m map[string]any) int {
	n := 0

	for _, v := range m {
		if v != nil {
			n++
		}
	}

	return n
}

// AttrEqual compares two atomic attribute values.
func AttrEqual(a, b any) bool {
	if ad, ok := a.(decimal.Decimal); ok {
		bd, ok := b.(decimal.Decimal)
		return ok && ad.Equal(bd)
	}

	switch a.(type) {
	case string, bool, nil:
		return a == b
	}

	return false
}
