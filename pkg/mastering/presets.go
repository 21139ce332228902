package mastering

// preset is one entry of the easy-mode program list: a name plus the
// plain parameter values it applies. Bypass is deliberately absent so
// switching programs never un-bypasses the plugin.
type preset struct {
	name   string
	values map[uint32]float64
}

var presets = []preset{
	{
		name: "Streaming Loud",
		values: map[uint32]float64{
			ParamTarget:        -14,
			ParamGateThreshold: -60,
			ParamCeiling:       -1,
			ParamLevelerSpeed:  1.5,
		},
	},
	{
		name: "Streaming Standard",
		values: map[uint32]float64{
			ParamTarget:        -16,
			ParamGateThreshold: -60,
			ParamCeiling:       -1,
			ParamLevelerSpeed:  2,
		},
	},
	{
		name: "Podcast",
		values: map[uint32]float64{
			ParamTarget:        -18,
			ParamGateThreshold: -50,
			ParamCeiling:       -1.5,
			ParamLevelerSpeed:  1,
		},
	},
	{
		name: "Broadcast EBU",
		values: map[uint32]float64{
			ParamTarget:        -23,
			ParamGateThreshold: -65,
			ParamCeiling:       -1,
			ParamLevelerSpeed:  3,
		},
	},
}

// ProgramCount implements plugin.ProgramHandler.
func (p *Processor) ProgramCount() int32 {
	return int32(len(presets))
}

// ProgramName implements plugin.ProgramHandler.
func (p *Processor) ProgramName(index int32) string {
	if index < 0 || int(index) >= len(presets) {
		return ""
	}
	return presets[index].name
}

// LoadProgram implements plugin.ProgramHandler. Values land in the
// parameter registry's atomics, so the audio thread picks them up on
// its next callback without coordination.
func (p *Processor) LoadProgram(index int32) error {
	if index < 0 || int(index) >= len(presets) {
		return nil
	}
	for id, plain := range presets[index].values {
		p.Parameters().SetPlain(id, plain)
	}
	p.mu.Lock()
	p.program = index
	p.mu.Unlock()
	return nil
}
