package config

// Presets are ready-made scene setups selectable by name from the CLI.
// Each starts from DefaultConfig and overrides what differs.
var Presets = map[string]func(*Config){
	"tree": func(c *Config) {},
	"wide": func(c *Config) {
		c.Layout.Spacing = 3.5
		c.Physics.Bounds.Min[0] = -20
		c.Physics.Bounds.Max[0] = 20
	},
	"bouncy": func(c *Config) {
		c.Physics.Restitution = 0.95
		c.Physics.Damping = 0.995
	},
	"calm": func(c *Config) {
		c.Physics.Restitution = 0.5
		c.Physics.Damping = 0.9
	},
	"free": func(c *Config) {
		c.Physics.PlanarLock = false
		c.Physics.Bounds.VerticalOnly = true
	},
}

func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
