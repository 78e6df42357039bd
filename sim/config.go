package sim

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml"
)

// ErrConfigUnavailable names the error for a missing Config. No function in
// this package returns it; Config's methods do not check for a nil receiver.
var ErrConfigUnavailable = errors.New("sim: config is not configured")

// Config holds the tunables a deployment sets once at startup, persisted to
// a TOML file with the same load/create-if-missing shape the teacher's
// Whitelist uses.
type Config struct {
	// FramesPerSecond is the fixed logic tick rate.
	FramesPerSecond int `toml:"frames_per_second"`
	// MaxHistorySize bounds per-entity lag-compensation history depth.
	MaxHistorySize int `toml:"max_history_size"`
	// SpeedChangeCoef is the persisted slew coefficient. It is loaded and
	// saved only; NewClock does not read it and always uses
	// TimeSpeedChangeCoef.
	SpeedChangeCoef float64 `toml:"speed_change_coef"`
	// MaxPlayers bounds concurrently connected players.
	MaxPlayers int `toml:"max_players"`
	// Mode selects server or client behaviour ("server" or "client").
	Mode string `toml:"mode"`

	// Log is not persisted; it is attached after loading.
	Log *slog.Logger `toml:"-"`

	filePath string
}

func defaultConfig() Config {
	return Config{
		FramesPerSecond: 30,
		MaxHistorySize:  30,
		SpeedChangeCoef: TimeSpeedChangeCoef,
		MaxPlayers:      MaxPlayers,
		Mode:            "server",
	}
}

// LoadConfig loads the config stored in the file at path. If the file does
// not exist yet, it is created with default values.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	cfg.filePath = path

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := cfg.save(); err != nil {
				return Config{}, err
			}
			return cfg, nil
		}
		return Config{}, fmt.Errorf("sim: read config: %w", err)
	}
	if len(contents) != 0 {
		if err := toml.Unmarshal(contents, &cfg); err != nil {
			return Config{}, fmt.Errorf("sim: decode config: %w", err)
		}
	}
	return cfg, nil
}

func (c *Config) save() error {
	dir := filepath.Dir(c.filePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fmt.Errorf("sim: create config directory: %w", err)
		}
	}
	encoded, err := toml.Marshal(*c)
	if err != nil {
		return fmt.Errorf("sim: encode config: %w", err)
	}
	if err := os.WriteFile(c.filePath, encoded, 0644); err != nil {
		return fmt.Errorf("sim: write config: %w", err)
	}
	return nil
}

// TickRate returns FramesPerSecond as a time.Duration suitable for
// NewClock/NewManager.
func (c Config) TickRate() time.Duration {
	if c.FramesPerSecond <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(c.FramesPerSecond)
}

// ModeValue parses Mode into a sim.Mode, defaulting to ModeServer for any
// unrecognised value.
func (c Config) ModeValue() Mode {
	if c.Mode == "client" {
		return ModeClient
	}
	return ModeServer
}

// Logger returns c.Log, or slog.Default() if unset.
func (c Config) Logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}
