package market

// DefaultCenters is the built-in center table.
var DefaultCenters = []Center{
	{Name: "New York", Timezone: "America/New_York", OpenHour: 9.5, CloseHour: 16},
	{Name: "London", Timezone: "Europe/London", OpenHour: 8, CloseHour: 16.5},
	{Name: "Tokyo", Timezone: "Asia/Tokyo", OpenHour: 9, CloseHour: 15},
	{Name: "Sydney", Timezone: "Australia/Sydney", OpenHour: 10, CloseHour: 16},
}

// Transition is a change of a single center's state between two ticks.
type Transition struct {
	Center string
	Open   bool
}

// Diff lists centers whose state differs between prev and next, in the order of centers.
// A center absent from prev counts as closed.
func Diff(centers []Center, prev, next StatusMap) []Transition {
	var out []Transition
	for _, c := range centers {
		if prev[c.Name] != next[c.Name] {
			out = append(out, Transition{Center: c.Name, Open: next[c.Name]})
		}
	}
	return out
}
