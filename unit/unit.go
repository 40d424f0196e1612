package unit

// This file defines unit-safe length helpers shared by the DSL front-end,
// the pagination engine and the measurement backends.

import (
	"strconv"
	"strings"
)

// Unit represents the original unit of a length value as written in markup.
type Unit int

const (
	None Unit = iota // unit-less numbers like factors
	MM               // millimeters
	CM               // centimeters
	IN               // inches
	PT               // points
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// String returns a short suffix for a Unit value.
func (u Unit) String() string {
	switch u {
	case MM:
		return "mm"
	case CM:
		return "cm"
	case IN:
		return "in"
	case PT:
		return "pt"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64
	Unit  Unit
}

// IsZero reports whether the length is exactly zero.
func (l Length) IsZero() bool { return l.Value == 0 }

// MM converts the length to millimeters. Unit-less values pass through as-is.
func (l Length) MM() float64 {
	switch l.Unit {
	case CM:
		return l.Value * 10
	case IN:
		return l.Value * 25.4
	case PT:
		return l.Value * PtToMm
	default:
		return l.Value
	}
}

// PT converts the length to points.
func (l Length) PT() float64 {
	if l.Unit == PT {
		return l.Value
	}
	return l.MM() * MmToPt
}

// Parse reads a length string such as "12pt", "20mm", "2.5cm" or "1in",
// preserving its unit. Unit-less numbers yield Unit None.
func Parse(value string) (Length, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, false
	}
	u := None
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", MM}, {"cm", CM}, {"in", IN}, {"pt", PT}} {
		if strings.HasSuffix(v, suf.s) {
			u = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: f, Unit: u}, true
}

// ParseMM parses a length string and returns millimeters, or 0 when invalid.
func ParseMM(value string) float64 {
	l, ok := Parse(value)
	if !ok {
		return 0
	}
	return l.MM()
}

// ParseFactor reads a line-height factor such as "1.4x"; returns (factor, ok).
func ParseFactor(value string) (float64, bool) {
	v := strings.TrimSpace(value)
	if !strings.HasSuffix(v, "x") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}
