package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"spheretree/internal/gesture"
	"spheretree/internal/physics"
	"spheretree/internal/scene"
)

const (
	DefaultTPS     = 30
	DefaultAddr    = ":8080"
	DefaultFocal   = 500.0
	DefaultZoom    = 20.0
	DefaultMinZoom = 5.0
	DefaultMaxZoom = 60.0
	DefaultDataDir = "data"
)

type Config struct {
	Server  ServerConfig   `yaml:"server"`
	TPS     int            `yaml:"tps"`
	DataDir string         `yaml:"data_dir"`
	Layout  LayoutConfig   `yaml:"layout"`
	Physics physics.Config `yaml:"physics"`
	Gesture GestureConfig  `yaml:"gesture"`
	Camera  CameraConfig   `yaml:"camera"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	AdminPassword string `yaml:"admin_password"`
	DatabaseURL   string `yaml:"database_url"`
}

type LayoutConfig struct {
	Spacing   float64 `yaml:"spacing"`
	RowHeight float64 `yaml:"row_height"`
	ApexY     float64 `yaml:"apex_y"`
}

type GestureConfig struct {
	TapThreshold  float64 `yaml:"tap_threshold"`
	DragThreshold float64 `yaml:"drag_threshold"`
	ZoomScale     float64 `yaml:"zoom_scale"`
	FrameMillis   int     `yaml:"frame_millis"`
}

type CameraConfig struct {
	Focal   float64 `yaml:"focal"`
	Zoom    float64 `yaml:"zoom"`
	MinZoom float64 `yaml:"min_zoom"`
	MaxZoom float64 `yaml:"max_zoom"`
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
}

func DefaultConfig() *Config {
	g := gesture.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
		TPS:     DefaultTPS,
		DataDir: DefaultDataDir,
		Layout: LayoutConfig{
			Spacing:   2.2,
			RowHeight: 2.0,
			ApexY:     10.0,
		},
		Physics: physics.DefaultConfig(),
		Gesture: GestureConfig{
			TapThreshold:  g.TapThreshold,
			DragThreshold: g.DragThreshold,
			ZoomScale:     g.ZoomScale,
			FrameMillis:   int(g.FrameInterval.Milliseconds()),
		},
		Camera: CameraConfig{
			Focal:   DefaultFocal,
			Zoom:    DefaultZoom,
			MinZoom: DefaultMinZoom,
			MaxZoom: DefaultMaxZoom,
			Width:   800,
			Height:  600,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SceneLayout converts to the registry's placement parameters.
func (c *Config) SceneLayout() scene.Layout {
	return scene.Layout{
		Spacing:   c.Layout.Spacing,
		RowHeight: c.Layout.RowHeight,
		ApexY:     c.Layout.ApexY,
	}
}

// GestureConfig converts to the pointer machine's parameters, keeping
// unset fields at their defaults.
func (c *Config) GestureConfig() gesture.Config {
	g := gesture.DefaultConfig()
	if c.Gesture.TapThreshold > 0 {
		g.TapThreshold = c.Gesture.TapThreshold
	}
	if c.Gesture.DragThreshold > 0 {
		g.DragThreshold = c.Gesture.DragThreshold
	}
	if c.Gesture.ZoomScale > 0 {
		g.ZoomScale = c.Gesture.ZoomScale
	}
	if c.Gesture.FrameMillis > 0 {
		g.FrameInterval = time.Duration(c.Gesture.FrameMillis) * time.Millisecond
	}
	g.PlanarLock = c.Physics.PlanarLock
	return g
}
