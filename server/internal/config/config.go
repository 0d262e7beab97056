package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHost             = "localhost"
	DefaultPort             = 8765
	DefaultHTTPPort         = 8766
	DefaultPollInterval     = time.Second
	DefaultWriteTimeout     = time.Second
	DefaultHandshakeTimeout = 5 * time.Second
	DefaultHandshakeBuffer  = 1024
	DefaultFPS              = 24
	DefaultResolutionX      = 1920
	DefaultResolutionY      = 1080
	DefaultLogMaxSizeMB     = 100
	DefaultLogMaxBackups    = 3
)

// Config is the parsed config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Scene  SceneConfig  `yaml:"scene"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds the WebSocket and control API settings.
type ServerConfig struct {
	// Host and Port form the WebSocket listen address (default localhost:8765).
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// HTTPPort is the control API and /metrics port (default 8766). Zero
	// disables the HTTP listener.
	HTTPPort int `yaml:"http_port"`

	// PollInterval bounds accept and read waits; shutdown is observed within
	// one interval.
	PollInterval time.Duration `yaml:"poll_interval"`

	// WriteTimeout is the per-client broadcast write deadline.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	HandshakeBuffer  int           `yaml:"handshake_buffer"`

	// Autostart starts the WebSocket server when the binary starts. When
	// false, it is started through POST /api/v1/server/start.
	Autostart bool `yaml:"autostart"`

	// CORSOrigins lists origins allowed to call the control API from a browser.
	CORSOrigins []string `yaml:"cors_origins"`

	// Auth configures how the control API authenticates callers.
	Auth AuthConfig `yaml:"auth"`
}

// Addr returns the WebSocket listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// HTTPAddr returns the control API listen address, or "" when disabled.
func (s ServerConfig) HTTPAddr() string {
	if s.HTTPPort == 0 {
		return ""
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(s.HTTPPort))
}

// AuthConfig controls control API authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header to read the key from. Defaults to "x-api-key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// SceneConfig is the initial scene state.
type SceneConfig struct {
	FPS         float64        `yaml:"fps"`
	Frame       int            `yaml:"frame"`
	ResolutionX int            `yaml:"resolution_x"`
	ResolutionY int            `yaml:"resolution_y"`
	Selected    string         `yaml:"selected"`
	Objects     []ObjectConfig `yaml:"objects"`
}

// ObjectConfig is one scene object in Blender world space.
type ObjectConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// Location is x, y, z.
	Location []float64 `yaml:"location"`

	// Rotation is a quaternion w, x, y, z. Empty means identity.
	Rotation []float64 `yaml:"rotation"`

	Camera *CameraConfig `yaml:"camera"`
}

// CameraConfig is the lens data of a CAMERA object.
type CameraConfig struct {
	Projection string  `yaml:"projection"`
	Angle      float64 `yaml:"angle"`
	SensorFit  string  `yaml:"sensor_fit"`
}

// LogConfig controls logging output.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// File, when set, writes logs to a size-rotated file instead of stdout.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// SlogLevel returns the slog level for Level. Validation guarantees the
// string is known.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Load reads and parses the config file at path.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             DefaultHost,
			Port:             DefaultPort,
			HTTPPort:         DefaultHTTPPort,
			PollInterval:     DefaultPollInterval,
			WriteTimeout:     DefaultWriteTimeout,
			HandshakeTimeout: DefaultHandshakeTimeout,
			HandshakeBuffer:  DefaultHandshakeBuffer,
			Autostart:        true,
			CORSOrigins:      []string{"*"},
		},
		Scene: SceneConfig{
			FPS:         DefaultFPS,
			Frame:       1,
			ResolutionX: DefaultResolutionX,
			ResolutionY: DefaultResolutionY,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range [1, 65535]", s.Port)
	}
	if s.HTTPPort < 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [0, 65535]", s.HTTPPort)
	}
	if s.HTTPPort == s.Port {
		return fmt.Errorf("server.http_port must differ from server.port (%d)", s.Port)
	}
	if s.PollInterval <= 0 {
		return fmt.Errorf("server.poll_interval must be positive")
	}
	if s.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}
	if s.HandshakeTimeout <= 0 {
		return fmt.Errorf("server.handshake_timeout must be positive")
	}
	if s.HandshakeBuffer < 64 {
		return fmt.Errorf("server.handshake_buffer %d is too small (min 64)", s.HandshakeBuffer)
	}
	switch s.Auth.Mode {
	case "apikey":
		if s.Auth.KeyEnv == "" {
			return fmt.Errorf("server.auth.key_env is required when mode is apikey")
		}
	case "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", s.Auth.Mode)
	}

	if err := validateScene(cfg.Scene); err != nil {
		return err
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	if cfg.Log.MaxSizeMB < 0 || cfg.Log.MaxBackups < 0 {
		return fmt.Errorf("log.max_size_mb and log.max_backups must not be negative")
	}
	return nil
}

func validateScene(sc SceneConfig) error {
	if sc.FPS <= 0 {
		return fmt.Errorf("scene.fps must be positive, got %v", sc.FPS)
	}
	if sc.ResolutionX <= 0 || sc.ResolutionY <= 0 {
		return fmt.Errorf("scene.resolution_x and scene.resolution_y must be positive")
	}

	seen := make(map[string]bool, len(sc.Objects))
	for i, o := range sc.Objects {
		if o.Name == "" {
			return fmt.Errorf("scene.objects[%d]: name is required", i)
		}
		if seen[o.Name] {
			return fmt.Errorf("scene.objects[%d]: duplicate name %q", i, o.Name)
		}
		seen[o.Name] = true
		if n := len(o.Location); n != 0 && n != 3 {
			return fmt.Errorf("scene.objects[%d] %q: location needs 3 values, got %d", i, o.Name, n)
		}
		if n := len(o.Rotation); n != 0 && n != 4 {
			return fmt.Errorf("scene.objects[%d] %q: rotation needs 4 values (w, x, y, z), got %d", i, o.Name, n)
		}
		if c := o.Camera; c != nil {
			switch c.Projection {
			case "PERSP", "ORTHO":
			default:
				return fmt.Errorf("scene.objects[%d] %q: camera.projection %q unknown: want PERSP|ORTHO", i, o.Name, c.Projection)
			}
			switch c.SensorFit {
			case "AUTO", "HORIZONTAL", "VERTICAL", "":
			default:
				return fmt.Errorf("scene.objects[%d] %q: camera.sensor_fit %q unknown", i, o.Name, c.SensorFit)
			}
		}
	}
	if sc.Selected != "" && !seen[sc.Selected] {
		return fmt.Errorf("scene.selected %q does not name an object", sc.Selected)
	}
	return nil
}
