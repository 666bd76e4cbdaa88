// Package config handles loading pedaldose.toml configuration files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/calvinmclean/pedaldose/controller"
)

// EnvPath is the environment variable holding the config file path
const EnvPath = "PEDALDOSE_CONFIG"

// Config represents the pedaldose.toml configuration file.
type Config struct {
	Pins   Pins   `toml:"pins"`
	Timing Timing `toml:"timing"`
	Pedals Pedals `toml:"pedals"`
	Alarm  Alarm  `toml:"alarm"`
	Log    Log    `toml:"log"`
	Report Report `toml:"report"`
	Serial Serial `toml:"serial"`
}

// Pins are BCM pin numbers for the Raspberry Pi backend.
type Pins struct {
	Pulse     [2]int `toml:"pulse"`
	Direction [2]int `toml:"direction"`
	Enable    [2]int `toml:"enable"`
	Relay     int    `toml:"relay"`
	Strong    int    `toml:"strong"`
	Medium    int    `toml:"medium"`
	Weak      int    `toml:"weak"`
}

// Timing contains the motor and session timing.
type Timing struct {
	// Settle is waited after enabling and after disabling the motor drivers.
	Settle Duration `toml:"settle"`
	// Pause is the wait between the down and up runs.
	Pause Duration `toml:"pause"`
	// PulseTrain divided by the step count is the pulse half-period.
	PulseTrain  Duration `toml:"pulse-train"`
	StrongDwell Duration `toml:"strong-dwell"`
	// StrongTiming is "computed" or "dwell".
	StrongTiming string `toml:"strong-timing"`
}

// Pedals contains the pedal input settings.
type Pedals struct {
	DeadTime     Duration `toml:"dead-time"`
	PollInterval Duration `toml:"poll-interval"`
	QueueSize    int      `toml:"queue-size"`
}

// Alarm contains the completion alarm settings.
type Alarm struct {
	Duration Duration `toml:"duration"`
}

// Log contains logger settings.
type Log struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level"`
	// Format is text or json.
	Format string `toml:"format"`
	// Output is stderr, stdout or a file path.
	Output string `toml:"output"`
}

// Report contains the session report settings. An empty Addr disables reporting.
type Report struct {
	Addr      string `toml:"addr"`
	QueueSize int    `toml:"queue-size"`
}

// Serial contains the optional serial command source.
type Serial struct {
	Port     string `toml:"port"`
	BaudRate int    `toml:"baud-rate"`
}

// Duration is a time.Duration written as a string like "500ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration of the original dispenser.
func Default() *Config {
	return &Config{
		Pins: Pins{
			Pulse:     [2]int{17, 23},
			Direction: [2]int{27, 24},
			Enable:    [2]int{22, 25},
			Relay:     12,
			Strong:    4,
			Medium:    5,
			Weak:      6,
		},
		Timing: Timing{
			Settle:       Duration(500 * time.Millisecond),
			Pause:        Duration(time.Second),
			PulseTrain:   Duration(50 * time.Millisecond),
			StrongDwell:  Duration(2 * time.Second),
			StrongTiming: "computed",
		},
		Pedals: Pedals{
			DeadTime:     Duration(200 * time.Millisecond),
			PollInterval: Duration(5 * time.Millisecond),
			QueueSize:    16,
		},
		Alarm: Alarm{
			Duration: Duration(time.Second),
		},
		Log: Log{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Report: Report{
			QueueSize: 64,
		},
		Serial: Serial{
			BaudRate: 115200,
		},
	}
}

// Load reads the config file at path on top of the defaults.
// Returns the defaults if path is empty or the file does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv loads the file named by PEDALDOSE_CONFIG.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(EnvPath))
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if _, ok := controller.ParseStrongTiming(c.Timing.StrongTiming); !ok {
		return fmt.Errorf("strong-timing must be \"computed\" or \"dwell\", got %q", c.Timing.StrongTiming)
	}
	for name, d := range map[string]Duration{
		"settle":       c.Timing.Settle,
		"pause":        c.Timing.Pause,
		"pulse-train":  c.Timing.PulseTrain,
		"strong-dwell": c.Timing.StrongDwell,
		"alarm":        c.Alarm.Duration,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

// Controller returns the controller timing.
func (c *Config) Controller() controller.Config {
	timing, _ := controller.ParseStrongTiming(c.Timing.StrongTiming)
	cfg := controller.DefaultConfig()
	cfg.Pause = c.Timing.Pause.Std()
	cfg.StrongDwell = c.Timing.StrongDwell.Std()
	cfg.StrongTiming = timing
	cfg.PulseTrain = c.Timing.PulseTrain.Std()
	cfg.InboxSize = c.Pedals.QueueSize
	return cfg
}
