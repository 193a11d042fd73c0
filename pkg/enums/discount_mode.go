package enums

import "fmt"

// DiscountMode fixes how a flat promotion applies its value: as a percentage
// of the unit price or as an absolute amount off it. Set at creation, never
// changed afterwards.
type DiscountMode string

const (
	DiscountModePercentage DiscountMode = "PERCENTAGE"
	DiscountModeAbsolute   DiscountMode = "ABSOLUTE"
)

var validDiscountModes = []DiscountMode{
	DiscountModePercentage,
	DiscountModeAbsolute,
}

// String implements fmt.Stringer.
func (d DiscountMode) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountMode.
func (d DiscountMode) IsValid() bool {
	for _, candidate := range validDiscountModes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountMode converts raw input into a DiscountMode.
func ParseDiscountMode(value string) (DiscountMode, error) {
	for _, candidate := range validDiscountModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount mode %q", value)
}
