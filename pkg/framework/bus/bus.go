// Package bus describes the plugin's audio port layout toward the host.
// The mastering processor is always stereo in, stereo out.
package bus

// Direction represents the bus direction.
type Direction int32

const (
	// DirectionInput represents an input bus.
	DirectionInput Direction = 0
	// DirectionOutput represents an output bus.
	DirectionOutput Direction = 1
)

// Info contains one bus configuration.
type Info struct {
	Direction    Direction
	ChannelCount int32
	Name         string
	IsActive     bool
}

// Configuration manages the audio buses declared to the host.
type Configuration struct {
	audioBuses []Info
}

// NewStereoConfiguration creates the standard stereo I/O configuration.
func NewStereoConfiguration() *Configuration {
	return &Configuration{
		audioBuses: []Info{
			{
				Direction:    DirectionInput,
				ChannelCount: 2,
				Name:         "Stereo In",
				IsActive:     true,
			},
			{
				Direction:    DirectionOutput,
				ChannelCount: 2,
				Name:         "Stereo Out",
				IsActive:     true,
			},
		},
	}
}

// BusCount returns the number of buses in a direction.
func (c *Configuration) BusCount(direction Direction) int32 {
	count := int32(0)
	for _, b := range c.audioBuses {
		if b.Direction == direction {
			count++
		}
	}
	return count
}

// BusInfo returns information about a bus by direction and index, or nil.
func (c *Configuration) BusInfo(direction Direction, index int32) *Info {
	busIndex := int32(0)
	for i := range c.audioBuses {
		if c.audioBuses[i].Direction == direction {
			if busIndex == index {
				return &c.audioBuses[i]
			}
			busIndex++
		}
	}
	return nil
}

// ChannelCount returns the channel count of the main bus in a direction,
// or 0 when the direction has no bus.
func (c *Configuration) ChannelCount(direction Direction) int32 {
	if info := c.BusInfo(direction, 0); info != nil {
		return info.ChannelCount
	}
	return 0
}
