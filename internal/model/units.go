package model

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Units is the display unit preference.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
	UnitsMixed    Units = "mixed"
)

// mlPerFluidOunce is the US customary fluid ounce.
const mlPerFluidOunce = 29.5735

// UnitOption is a selectable unit preference.
type UnitOption struct {
	Value Units
	Label string
	Desc  string
}

// UnitOptions lists the unit preferences offered in settings.
var UnitOptions = []UnitOption{
	{Value: UnitsMetric, Label: "Metric (ml, L)", Desc: "Milliliters and Liters"},
	{Value: UnitsImperial, Label: "Imperial (fl oz)", Desc: "Fluid ounces"},
	{Value: UnitsMixed, Label: "Mixed Units", Desc: "Both metric and imperial"},
}

// ParseUnits validates a units string, falling back to metric.
func ParseUnits(s string) Units {
	switch Units(s) {
	case UnitsImperial:
		return UnitsImperial
	case UnitsMixed:
		return UnitsMixed
	default:
		return UnitsMetric
	}
}

// Format renders a milliliter quantity in this unit system.
func (u Units) Format(ml int) string {
	switch u {
	case UnitsImperial:
		return formatOunces(ml)
	case UnitsMixed:
		return fmt.Sprintf("%s (%s)", formatMetric(ml), formatOunces(ml))
	default:
		return formatMetric(ml)
	}
}

func formatMetric(ml int) string {
	if ml >= 1000 || ml <= -1000 {
		return humanize.FtoaWithDigits(roundTo(float64(ml)/1000, 2), 2) + " L"
	}
	return humanize.Comma(int64(ml)) + " ml"
}

func formatOunces(ml int) string {
	return humanize.FtoaWithDigits(roundTo(float64(ml)/mlPerFluidOunce, 1), 1) + " fl oz"
}

// roundTo rounds x half away from zero to digits decimals. FtoaWithDigits
// truncates, so values are rounded before formatting.
func roundTo(x float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(x*p) / p
}
