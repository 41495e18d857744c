package catalog

type SeedActivityType struct {
	ActivityType
	Unit string
}

type SeedData struct {
	Units         []string
	ActivityTypes []SeedActivityType
}

func strPtr(value string) *string {
	return &value
}

// DefaultSeed is the catalog a fresh installation starts with. Factors are in
// kg CO2e per unit.
func DefaultSeed() SeedData {
	return SeedData{
		Units: []string{"kWh", "km", "kg", "L", "m3", "night"},
		ActivityTypes: []SeedActivityType{
			{Unit: "kWh", ActivityType: ActivityType{Name: "Electricity (grid)", EmissionFactor: 0.233, Description: strPtr("Average grid electricity")}},
			{Unit: "m3", ActivityType: ActivityType{Name: "Natural gas", EmissionFactor: 2.02}},
			{Unit: "L", ActivityType: ActivityType{Name: "Heating oil", EmissionFactor: 2.54}},
			{Unit: "km", ActivityType: ActivityType{Name: "Car (petrol)", EmissionFactor: 0.192}},
			{Unit: "km", ActivityType: ActivityType{Name: "Car (diesel)", EmissionFactor: 0.171}},
			{Unit: "km", ActivityType: ActivityType{Name: "Bus", EmissionFactor: 0.105}},
			{Unit: "km", ActivityType: ActivityType{Name: "Train", EmissionFactor: 0.041}},
			{Unit: "km", ActivityType: ActivityType{Name: "Flight (short haul)", EmissionFactor: 0.255}},
			{Unit: "km", ActivityType: ActivityType{Name: "Flight (long haul)", EmissionFactor: 0.195}},
			{Unit: "kg", ActivityType: ActivityType{Name: "Beef", EmissionFactor: 27.0}},
			{Unit: "kg", ActivityType: ActivityType{Name: "Chicken", EmissionFactor: 6.9}},
			{Unit: "kg", ActivityType: ActivityType{Name: "Vegetables", EmissionFactor: 2.0}},
			{Unit: "m3", ActivityType: ActivityType{Name: "Water supply", EmissionFactor: 0.344}},
			{Unit: "night", ActivityType: ActivityType{Name: "Hotel stay", EmissionFactor: 31.1}},
		},
	}
}
