package liberty

import "strings"

// LocationOther selects free-text destination entry.
const LocationOther = "other"

// locationLabels maps location enum values to their display labels.
var locationLabels = map[string]string{
	"gym":         "Gym",
	"px":          "PX",
	"commissary":  "Commissary",
	"food_court":  "Food Court",
	"chapel":      "Chapel",
	"library":     "Library",
	"barber":      "Barber Shop",
	"off_post":    "Off Post",
	LocationOther: "Other",
}

// BuildDestination joins the display labels of the selected locations into
// one string, substituting the custom text when "other" is selected. Unknown
// values pass through as-is so older clients keep working.
func BuildDestination(locations []string, customLocation *string) string {
	parts := make([]string, 0, len(locations))
	for _, loc := range locations {
		if loc == LocationOther {
			if customLocation != nil && strings.TrimSpace(*customLocation) != "" {
				parts = append(parts, strings.TrimSpace(*customLocation))
			} else {
				parts = append(parts, locationLabels[LocationOther])
			}
			continue
		}
		if label, ok := locationLabels[loc]; ok {
			parts = append(parts, label)
		} else {
			parts = append(parts, loc)
		}
	}
	return strings.Join(parts, ", ")
}

// ValidLocation reports whether the value is a known location enum value.
func ValidLocation(loc string) bool {
	_, ok := locationLabels[loc]
	return ok
}
