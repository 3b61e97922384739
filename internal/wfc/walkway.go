package wfc

// WalkwayConnector is the reserved face-connector name used by
// EnforceWalkway/EnforceWalkwayBoth: any module whose face on a given
// direction is not labeled this way is considered non-walkable there.
const WalkwayConnector = "walkway"

// EnforceWalkway drops every candidate of the slot at p whose face on
// direction d is not walkable (§6). It is a thin wrapper over
// EnforceConnector with the reserved walkway connector name.
func EnforceWalkway(m Map, p Position, d Direction) error {
	s := m.GetSlot(p)
	if s == nil {
		return nil
	}
	return s.EnforceConnector(d, WalkwayConnector)
}

// EnforceWalkwayBoth applies EnforceWalkway on both ends of the axis
// connecting a and b: on a's face toward b, and on b's face toward a
// (§6's paired form). a and b must be axis-adjacent.
func EnforceWalkwayBoth(m Map, a, b Position) error {
	d, ok := directionBetween(a, b)
	if !ok {
		return nil
	}
	if err := EnforceWalkway(m, a, d); err != nil {
		return err
	}
	return EnforceWalkway(m, b, d.Inverse())
}

func directionBetween(a, b Position) (Direction, bool) {
	for _, d := range Directions {
		if Neighbor(a, d) == b {
			return d, true
		}
	}
	return 0, false
}
