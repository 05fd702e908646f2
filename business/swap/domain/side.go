// Package domain contains the core types and rules of the swap converter.
package domain

// Side identifies one of the two quantity fields. SideA is the sell field,
// SideB the buy field.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// IsSell reports whether the side is the sell field.
func (s Side) IsSell() bool { return s == SideA }

func (s Side) String() string {
	if s == SideA {
		return "sell"
	}
	return "buy"
}
