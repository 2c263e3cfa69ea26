// Package classify derives the truck-level categorical labels from the
// aggregated row: the food/non-food/mixed truck type and the donor sector.
package classify

import (
	"strings"

	"github.com/foodsec/trucktally/pkg/trucktally/manifest"
)

// Row sets TruckType and Sector on an aggregated row.
func Row(row *manifest.Row) {
	row.TruckType = TruckType(row.FoodItemCount, row.ItemCount)
	row.Sector = Sector(row.DonationType)
}

// TruckType classifies a truck from its item counts: all food items makes a
// food truck, none makes a non-food truck, anything between is mixed.
func TruckType(foodItems, items int) string {
	switch {
	case foodItems > 0 && foodItems == items:
		return manifest.TruckTypeFood
	case foodItems == 0:
		return manifest.TruckTypeNonFood
	default:
		return manifest.TruckTypeMixed
	}
}

// Sector derives the donor sector from the donation type text by
// case-insensitive substring containment. Missing or unrecognized text is
// "unknown".
func Sector(donationType string) string {
	lower := strings.ToLower(donationType)
	switch {
	case strings.Contains(lower, "private sector"):
		return manifest.SectorPrivate
	case strings.Contains(lower, "humanitarian"):
		return manifest.SectorHumanitarian
	default:
		return manifest.SectorUnknown
	}
}
