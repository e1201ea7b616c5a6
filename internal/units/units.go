// Package units converts lengths between screen pixels and physical units.
package units

import "fmt"

// Unit is a length unit.
type Unit int

const (
	Px Unit = iota
	Mm
	Cm
	In
	Pt
)

const (
	// MmPerInch is the number of millimeters in an inch.
	MmPerInch = 25.4
	// PtPerInch is the number of PostScript points in an inch.
	PtPerInch = 72.0
	// DefaultDPI is the document resolution used when none is configured.
	DefaultDPI = 96.0
)

func (u Unit) String() string {
	switch u {
	case Px:
		return "px"
	case Mm:
		return "mm"
	case Cm:
		return "cm"
	case In:
		return "in"
	case Pt:
		return "pt"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// Parse maps a unit suffix such as "mm" to a Unit.
func Parse(s string) (Unit, bool) {
	switch s {
	case "px", "":
		return Px, true
	case "mm":
		return Mm, true
	case "cm":
		return Cm, true
	case "in":
		return In, true
	case "pt":
		return Pt, true
	}
	return Px, false
}

// Convert converts value from one unit to another. Pixel values are resolved
// against their respective dpi; the dpi of physical units is ignored.
func Convert(value float64, from Unit, fromDPI float64, to Unit, toDPI float64) float64 {
	return fromInches(toInches(value, from, fromDPI), to, toDPI)
}

func toInches(v float64, u Unit, dpi float64) float64 {
	switch u {
	case Mm:
		return v / MmPerInch
	case Cm:
		return v * 10 / MmPerInch
	case In:
		return v
	case Pt:
		return v / PtPerInch
	default:
		return v / dpi
	}
}

func fromInches(v float64, u Unit, dpi float64) float64 {
	switch u {
	case Mm:
		return v * MmPerInch
	case Cm:
		return v * MmPerInch / 10
	case In:
		return v
	case Pt:
		return v * PtPerInch
	default:
		return v * dpi
	}
}
