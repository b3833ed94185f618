package domain

// Side identifies one of the two battle participants.
type Side int

const (
	// SideUnspecified represents an invalid side value.
	SideUnspecified Side = iota
	// SideA is the first participant slot.
	SideA
	// SideB is the second participant slot.
	SideB
)

// String returns the wire name of the side.
func (s Side) String() string {
	switch s {
	case SideA:
		return "a"
	case SideB:
		return "b"
	default:
		return "unspecified"
	}
}

// ParseSide maps a wire name back to a side.
func ParseSide(name string) Side {
	switch name {
	case "a":
		return SideA
	case "b":
		return SideB
	default:
		return SideUnspecified
	}
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	default:
		return SideUnspecified
	}
}
