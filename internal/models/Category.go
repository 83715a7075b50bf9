package models

// Category is a named AQI severity tier.
type Category string

const (
	CategoryGood               Category = "Good"
	CategoryModerate           Category = "Moderate"
	CategoryUnhealthySensitive Category = "Unhealthy for Sensitive Groups"
	CategoryUnhealthy          Category = "Unhealthy"
	CategoryVeryUnhealthy      Category = "Very Unhealthy"
	CategoryHazardous          Category = "Hazardous"
)

type categoryTier struct {
	upper    float64
	category Category
	color    string
}

// Upper bounds are inclusive. Anything above the last tier is Hazardous.
var categoryTiers = []categoryTier{
	{upper: 50, category: CategoryGood, color: "green"},
	{upper: 100, category: CategoryModerate, color: "yellow"},
	{upper: 150, category: CategoryUnhealthySensitive, color: "orange"},
	{upper: 200, category: CategoryUnhealthy, color: "red"},
	{upper: 300, category: CategoryVeryUnhealthy, color: "purple"},
}

const hazardousColor = "maroon"

// Classify maps an AQI estimate to its severity tier.
func Classify(aqi float64) Category {
	for _, t := range categoryTiers {
		if aqi <= t.upper {
			return t.category
		}
	}
	return CategoryHazardous
}

// Color is the display colour used for the category.
func (c Category) Color() string {
	for _, t := range categoryTiers {
		if t.category == c {
			return t.color
		}
	}
	return hazardousColor
}
