package packing

// Presets returns the common shipping box sizes offered as quick picks.
func Presets() []ContainerSpec {
	return []ContainerSpec{
		{Name: "Small", Width: 30, Height: 20, Depth: 20, MaxWeight: DefaultMaxWeight},
		{Name: "Medium", Width: 40, Height: 30, Depth: 30, MaxWeight: DefaultMaxWeight},
		{Name: "Large", Width: 60, Height: 40, Depth: 40, MaxWeight: DefaultMaxWeight},
		{Name: "Extra Large", Width: 80, Height: 50, Depth: 50, MaxWeight: DefaultMaxWeight},
	}
}

// PresetByName looks a preset up by its exact name.
func PresetByName(name string) (ContainerSpec, bool) {
	for _, p := range Presets() {
		if p.Name == name {
			return p, true
		}
	}
	return ContainerSpec{}, false
}
