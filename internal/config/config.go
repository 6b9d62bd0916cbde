package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/vthunder/cube/internal/logging"
	"github.com/vthunder/cube/internal/types"
	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultStatePath          = "state"
	DefaultDBDriver           = "sqlite3"
	DefaultIdleTimeout        = 30 * time.Second
	DefaultTickInterval       = time.Second
	DefaultPollInterval       = 50 * time.Millisecond
	DefaultStopTimeout        = time.Second
	DefaultLaserHold          = 5 * time.Second
	DefaultDetectionThreshold = 0.35
	DefaultLocationHint       = "桌面区域"
)

// DiscordConfig holds the optional Discord command channel
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
	OwnerID   string `yaml:"owner_id"`
	Prefix    string `yaml:"prefix"`
}

// Enabled reports whether a bot token is configured
func (d DiscordConfig) Enabled() bool {
	return d.Token != ""
}

// Config is the runtime configuration of the cube
type Config struct {
	StatePath          string                          `yaml:"state_path"`
	DBPath             string                          `yaml:"db_path"`
	DBDriver           string                          `yaml:"db_driver"`
	IdleTimeout        time.Duration                   `yaml:"idle_timeout"`
	TickInterval       time.Duration                   `yaml:"tick_interval"`
	PollInterval       time.Duration                   `yaml:"poll_interval"`
	StopTimeout        time.Duration                   `yaml:"stop_timeout"`
	LaserHold          time.Duration                   `yaml:"laser_hold"`
	QueueSize          int                             `yaml:"queue_size"` // 0 = unbounded
	DetectionThreshold float64                         `yaml:"detection_threshold"`
	LocationHint       string                          `yaml:"location_hint"`
	MetricsAddr        string                          `yaml:"metrics_addr"` // empty disables /metrics
	Discord            DiscordConfig                   `yaml:"discord"`
	Emotions           map[string]types.EmotionProfile `yaml:"emotions"`
}

// Default returns a config with every default filled in
func Default() *Config {
	return &Config{
		StatePath:          DefaultStatePath,
		DBDriver:           DefaultDBDriver,
		IdleTimeout:        DefaultIdleTimeout,
		TickInterval:       DefaultTickInterval,
		PollInterval:       DefaultPollInterval,
		StopTimeout:        DefaultStopTimeout,
		LaserHold:          DefaultLaserHold,
		DetectionThreshold: DefaultDetectionThreshold,
		LocationHint:       DefaultLocationHint,
		Emotions:           types.DefaultEmotions(),
	}
}

// LoadDotEnv loads .env into the environment (optional - won't error if missing)
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		logging.Debug("config", "No .env file found, using environment variables")
	} else {
		logging.Info("config", "Loaded .env file")
	}
}

// Load builds the config from defaults, the YAML file at path (if any) and
// then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.StatePath, "system", "objects.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	// Decode into a copy so emotion overrides merge with the built-ins
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if file.StatePath != "" {
		c.StatePath = file.StatePath
	}
	if file.DBPath != "" {
		c.DBPath = file.DBPath
	}
	if file.DBDriver != "" {
		c.DBDriver = file.DBDriver
	}
	if file.IdleTimeout > 0 {
		c.IdleTimeout = file.IdleTimeout
	}
	if file.TickInterval > 0 {
		c.TickInterval = file.TickInterval
	}
	if file.PollInterval > 0 {
		c.PollInterval = file.PollInterval
	}
	if file.StopTimeout > 0 {
		c.StopTimeout = file.StopTimeout
	}
	if file.LaserHold > 0 {
		c.LaserHold = file.LaserHold
	}
	if file.QueueSize > 0 {
		c.QueueSize = file.QueueSize
	}
	if file.DetectionThreshold > 0 {
		c.DetectionThreshold = file.DetectionThreshold
	}
	if file.LocationHint != "" {
		c.LocationHint = file.LocationHint
	}
	if file.MetricsAddr != "" {
		c.MetricsAddr = file.MetricsAddr
	}
	if file.Discord.Token != "" {
		c.Discord = file.Discord
	}
	for name, profile := range file.Emotions {
		c.Emotions[name] = profile
	}

	logging.Info("config", "Loaded %s", path)
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("CUBE_STATE_PATH"); v != "" {
		c.StatePath = v
	}
	if v := os.Getenv("CUBE_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("CUBE_DB_DRIVER"); v != "" {
		c.DBDriver = v
	}
	if v := os.Getenv("CUBE_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv("CUBE_LOCATION_HINT"); v != "" {
		c.LocationHint = v
	}
	if v := os.Getenv("CUBE_QUEUE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CUBE_QUEUE_SIZE: %w", err)
		}
		c.QueueSize = n
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"CUBE_IDLE_TIMEOUT", &c.IdleTimeout},
		{"CUBE_TICK_INTERVAL", &c.TickInterval},
		{"CUBE_LASER_HOLD", &c.LaserHold},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.env, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("DISCORD_CHANNEL_ID"); v != "" {
		c.Discord.ChannelID = v
	}
	if v := os.Getenv("DISCORD_OWNER_ID"); v != "" {
		c.Discord.OwnerID = v
	}
	if v := os.Getenv("CUBE_DISCORD_PREFIX"); v != "" {
		c.Discord.Prefix = v
	}
	return nil
}

// Validate rejects settings the runtime cannot work with
func (c *Config) Validate() error {
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive, got %s", c.IdleTimeout)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("queue size must not be negative, got %d", c.QueueSize)
	}
	if c.DetectionThreshold < 0 || c.DetectionThreshold > 1 {
		return fmt.Errorf("detection threshold must be in [0,1], got %v", c.DetectionThreshold)
	}
	if _, ok := c.Emotions[types.DefaultEmotion]; !ok {
		return fmt.Errorf("emotion profiles must include %q", types.DefaultEmotion)
	}
	return nil
}
