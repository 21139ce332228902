// Package plugin models the boundary to the hosting DAW runtime. The host
// itself is external; these types describe what it may ask of a processor:
// lifecycle, audio callbacks, buffer-size notifications, parameters,
// programs and string-keyed state.
package plugin

// Info contains plugin metadata reported to the host.
type Info struct {
	ID          string // unique identifier (e.g. "com.example.myplugin")
	Name        string // display name
	Version     string // semantic version
	Vendor      string // company/developer name
	Category    string // host category (e.g. "Fx|Mastering")
	Description string // one-line description
}
