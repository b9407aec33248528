package activity

// Label is a UI-level grouping of several raw activity types under one
// visibility toggle and colour.
type Label string

const (
	Walks       Label = "Walks"
	Runs        Label = "Runs"
	Rides       Label = "Rides"
	Snowsports  Label = "Snowsports"
	Watersports Label = "Watersports"
	Other       Label = "Other"
)

// Theme selects the map colour variant.
type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"
)

// CategoryConfig maps a disjoint set of raw activity types to one category
// label and its line colours.
type CategoryConfig struct {
	Label  Label            `json:"label"`
	Types  []Type           `json:"activityTypes"`
	Colour map[Theme]string `json:"colour"`
}

// Categories is the fixed category table. Each raw type belongs to at most
// one category; a type listed nowhere is never shown on the map.
var Categories = []CategoryConfig{
	{
		Label:  Walks,
		Types:  []Type{"Hike", "Walk"},
		Colour: map[Theme]string{Dark: "#e08906", Light: "#cc5500"},
	},
	{
		Label: Runs,
		Types: []Type{"Run", "TrailRun"},
		Colour: map[Theme]string{Dark: "#da1e28", Light: "#a71b22"},
	},
	{
		Label: Rides,
		Types: []Type{
			"EBikeRide", "EMountainBikeRide", "GravelRide", "Handcycle",
			"MountainBikeRide", "Ride", "RollerSki", "Skateboard",
			"Velomobile", "Wheelchair",
		},
		Colour: map[Theme]string{Dark: "#3cb043", Light: "#2a7c30"},
	},
	{
		Label: Snowsports,
		Types: []Type{
			"AlpineSki", "BackcountrySki", "IceSkate", "InlineSkate",
			"NordicSki", "Snowboard", "Snowshoe",
		},
		Colour: map[Theme]string{Dark: "#bf40bf", Light: "#8c308c"},
	},
	{
		Label: Watersports,
		Types: []Type{
			"Canoeing", "Kayaking", "Kitesurf", "Rowing", "Sail",
			"StandUpPaddling", "Surfing", "Swim", "Windsurf",
		},
		Colour: map[Theme]string{Dark: "#00a1e4", Light: "#0077ab"},
	},
	{
		Label: Other,
		Types: []Type{
			"Badminton", "Crossfit", "Elliptical", "Golf",
			"HighIntensityIntervalTraining", "Pickleball", "Pilates",
			"Racquetball", "RockClimbing", "Soccer", "Squash",
			"StairStepper", "TableTennis", "Tennis", "VirtualRide",
			"VirtualRow", "VirtualRun", "WeightTraining", "Workout", "Yoga",
		},
		Colour: map[Theme]string{Dark: "#dddddd", Light: "#222222"},
	},
}

var categoryByType = func() map[Type]Label {
	m := make(map[Type]Label)
	for _, c := range Categories {
		for _, t := range c.Types {
			m[t] = c.Label
		}
	}
	return m
}()

// CategoryOf returns the category label owning the given raw type. The
// second return is false for a type no category claims.
func CategoryOf(t Type) (Label, bool) {
	label, ok := categoryByType[t]
	return label, ok
}
