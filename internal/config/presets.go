package config

func boolPtr(b bool) *bool { return &b }

var Presets = map[string]*Run{
	"quick": {
		Steps: 1000, PrintEvery: 100, Beta: 1.0, Pressure: 1.0, Seed: DefaultSeed,
	},
	"anneal": {
		Steps: 200000, PrintEvery: 10000, Beta: 5.0, Pressure: 1.0, Seed: DefaultSeed,
	},
	"hot": {
		Steps: 100000, PrintEvery: 10000, Beta: 0.2, Pressure: 1.0, Seed: DefaultSeed,
	},
	"hard-disc": {
		// Hard walls, no periodic images: pure confinement behaviour.
		Steps: 100000, PrintEvery: 10000, Beta: 1.0, Pressure: 1.0, Seed: DefaultSeed,
		Periodic: boolPtr(false),
	},
}

func GetPreset(name string) *Run {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
