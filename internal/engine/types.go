package engine

import "strings"

type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

func (e EnergyLevel) IsValid() bool {
	switch e {
	case EnergyLow, EnergyMedium, EnergyHigh:
		return true
	default:
		return false
	}
}

// DefaultEnergy is used when user input is missing/invalid.
const DefaultEnergy EnergyLevel = EnergyMedium

// ParseEnergy parses user input to an EnergyLevel.
// If input is empty or unrecognized, returns DefaultEnergy.
func ParseEnergy(input string) EnergyLevel {
	s := strings.TrimSpace(strings.ToLower(input))
	switch s {
	case "low", "l":
		return EnergyLow
	case "medium", "med", "m":
		return EnergyMedium
	case "high", "h":
		return EnergyHigh
	default:
		return DefaultEnergy
	}
}

type Category string

const (
	CategoryRoutine  Category = "routine"
	CategoryWork     Category = "work"
	CategoryHealth   Category = "health"
	CategoryCreative Category = "creative"
	CategoryAdmin    Category = "admin"
	CategoryCustom   Category = "custom"
	CategoryCalendar Category = "calendar"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryRoutine, CategoryWork, CategoryHealth, CategoryCreative,
		CategoryAdmin, CategoryCustom, CategoryCalendar:
		return true
	default:
		return false
	}
}

const DefaultCategory Category = CategoryCustom

func ParseCategory(input string) Category {
	c := Category(strings.TrimSpace(strings.ToLower(input)))
	if c.IsValid() {
		return c
	}
	return DefaultCategory
}
