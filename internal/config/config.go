// ABOUTME: Runtime configuration for the avsync frontend
// ABOUTME: Defaults, AVSYNC_* environment overrides, command-line flags and validation
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Resonate-Protocol/avsync/pkg/audio/buffer"
	"github.com/Resonate-Protocol/avsync/pkg/video/pixel"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

const envPrefix = "AVSYNC_"

// Config holds all application configuration
type Config struct {
	// Engine
	Engine      string // testpattern or media
	MediaPath   string
	ContentFPS  float64
	SampleRate  float64
	Width       int
	Height      int
	PixelFormat string
	SkipEvery   int
	ToneHz      float64

	// Display
	DisplayHz    float64
	DisplayModes string // comma separated refresh rates
	VRR          string // auto, on or off
	DisableBFI   bool

	// Audio
	Output   string
	Policy   string
	BufferMs int
	PoolSize int
	Volume   int

	// Frontend
	HTTPAddr string
	LogFile  string
	LogLevel string
	NoTUI    bool
	Duration time.Duration
}

// Default returns the built-in defaults
func Default() *Config {
	return &Config{
		Engine:       "testpattern",
		ContentFPS:   60,
		SampleRate:   48000,
		Width:        320,
		Height:       240,
		PixelFormat:  "RGB565",
		ToneHz:       440,
		DisplayHz:    60,
		DisplayModes: "60",
		VRR:          "auto",
		Output:       "oto",
		Policy:       "strict",
		BufferMs:     int(buffer.DefaultBufferDuration / time.Millisecond),
		PoolSize:     buffer.DefaultPoolSize,
		Volume:       100,
		LogFile:      "avsync.log",
		LogLevel:     "info",
	}
}

// Load returns defaults overridden by AVSYNC_* environment variables
func Load() *Config {
	d := Default()
	return &Config{
		Engine:       getEnv("ENGINE", d.Engine),
		MediaPath:    getEnv("MEDIA", d.MediaPath),
		ContentFPS:   getFloatEnv("FPS", d.ContentFPS),
		SampleRate:   getFloatEnv("SAMPLE_RATE", d.SampleRate),
		Width:        getIntEnv("WIDTH", d.Width),
		Height:       getIntEnv("HEIGHT", d.Height),
		PixelFormat:  getEnv("PIXEL_FORMAT", d.PixelFormat),
		SkipEvery:    getIntEnv("SKIP_EVERY", d.SkipEvery),
		ToneHz:       getFloatEnv("TONE_HZ", d.ToneHz),
		DisplayHz:    getFloatEnv("DISPLAY_HZ", d.DisplayHz),
		DisplayModes: getEnv("DISPLAY_MODES", d.DisplayModes),
		VRR:          getEnv("VRR", d.VRR),
		DisableBFI:   getBoolEnv("NO_BFI", d.DisableBFI),
		Output:       getEnv("OUTPUT", d.Output),
		Policy:       getEnv("POLICY", d.Policy),
		BufferMs:     getIntEnv("BUFFER_MS", d.BufferMs),
		PoolSize:     getIntEnv("POOL_SIZE", d.PoolSize),
		Volume:       getIntEnv("VOLUME", d.Volume),
		HTTPAddr:     getEnv("HTTP_ADDR", d.HTTPAddr),
		LogFile:      getEnv("LOG_FILE", d.LogFile),
		LogLevel:     getEnv("LOG_LEVEL", d.LogLevel),
		NoTUI:        getBoolEnv("NO_TUI", d.NoTUI),
		Duration:     getDurationEnv("DURATION", d.Duration),
	}
}

// Bind registers a flag for every field, using the current values as defaults
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Engine, "engine", c.Engine, "Engine: testpattern or media")
	fs.StringVar(&c.MediaPath, "media", c.MediaPath, "MP3 or FLAC file for the media engine")
	fs.Float64Var(&c.ContentFPS, "fps", c.ContentFPS, "Content frame rate")
	fs.Float64Var(&c.SampleRate, "sample-rate", c.SampleRate, "Test pattern audio sample rate")
	fs.IntVar(&c.Width, "width", c.Width, "Frame width")
	fs.IntVar(&c.Height, "height", c.Height, "Frame height")
	fs.StringVar(&c.PixelFormat, "pixel-format", c.PixelFormat, "Test pattern pixel format: RGB565, ARGB1555 or ARGB8888")
	fs.IntVar(&c.SkipEvery, "skip-every", c.SkipEvery, "Omit video on every Nth engine tick (0 disables)")
	fs.Float64Var(&c.ToneHz, "tone", c.ToneHz, "Test tone frequency in Hz")
	fs.Float64Var(&c.DisplayHz, "display-hz", c.DisplayHz, "Display refresh rate")
	fs.StringVar(&c.DisplayModes, "display-modes", c.DisplayModes, "Comma separated refresh rates the display supports")
	fs.StringVar(&c.VRR, "vrr", c.VRR, "Variable refresh: auto, on or off")
	fs.BoolVar(&c.DisableBFI, "no-bfi", c.DisableBFI, "Disable black frame insertion")
	fs.StringVar(&c.Output, "output", c.Output, "Audio output: oto, malgo or null")
	fs.StringVar(&c.Policy, "policy", c.Policy, "Audio lock policy: strict or lossy")
	fs.IntVar(&c.BufferMs, "buffer-ms", c.BufferMs, "Audio batch capacity in milliseconds")
	fs.IntVar(&c.PoolSize, "pool-size", c.PoolSize, "Number of pooled audio batches")
	fs.IntVar(&c.Volume, "volume", c.Volume, "Initial volume (0-100)")
	fs.StringVar(&c.HTTPAddr, "http", c.HTTPAddr, "Status/metrics listen address (empty disables)")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Log file path")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&c.NoTUI, "no-tui", c.NoTUI, "Disable TUI, use streaming logs instead")
	fs.DurationVar(&c.Duration, "duration", c.Duration, "Stop after this long (0 runs until interrupted)")
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	var problems []string

	switch c.Engine {
	case "testpattern":
	case "media":
		if c.MediaPath == "" {
			problems = append(problems, "media engine needs -media")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown engine %q", c.Engine))
	}

	if c.ContentFPS <= 0 {
		problems = append(problems, fmt.Sprintf("fps must be positive, got %v", c.ContentFPS))
	}
	if c.SampleRate <= 0 {
		problems = append(problems, fmt.Sprintf("sample rate must be positive, got %v", c.SampleRate))
	}
	if c.Width <= 0 || c.Height <= 0 {
		problems = append(problems, fmt.Sprintf("invalid size %dx%d", c.Width, c.Height))
	}
	if _, err := pixel.ParseFormat(c.PixelFormat); err != nil {
		problems = append(problems, err.Error())
	}
	if c.SkipEvery < 0 {
		problems = append(problems, "skip-every must not be negative")
	}
	if c.DisplayHz <= 0 {
		problems = append(problems, fmt.Sprintf("display refresh must be positive, got %v", c.DisplayHz))
	}
	if _, err := c.Modes(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := c.ForceVRR(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := buffer.ParsePolicy(c.Policy); err != nil {
		problems = append(problems, err.Error())
	}
	if c.BufferMs <= 0 {
		problems = append(problems, fmt.Sprintf("buffer-ms must be positive, got %d", c.BufferMs))
	}
	if c.PoolSize <= 0 {
		problems = append(problems, fmt.Sprintf("pool-size must be positive, got %d", c.PoolSize))
	}
	if c.Volume < 0 || c.Volume > 100 {
		problems = append(problems, fmt.Sprintf("volume must be 0-100, got %d", c.Volume))
	}
	if c.Duration < 0 {
		problems = append(problems, "duration must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Modes parses DisplayModes into refresh rates. The current refresh rate is
// always included.
func (c *Config) Modes() ([]float64, error) {
	rates := []float64{c.DisplayHz}
	for _, field := range strings.Split(c.DisplayModes, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		hz, err := strconv.ParseFloat(field, 64)
		if err != nil || hz <= 0 {
			return nil, fmt.Errorf("invalid display mode %q", field)
		}
		rates = append(rates, hz)
	}
	return rates, nil
}

// ForceVRR maps the VRR setting to an override; nil means detect
func (c *Config) ForceVRR() (*bool, error) {
	switch strings.ToLower(c.VRR) {
	case "auto", "":
		return nil, nil
	case "on", "true", "yes":
		v := true
		return &v, nil
	case "off", "false", "no":
		v := false
		return &v, nil
	default:
		return nil, fmt.Errorf("invalid vrr setting %q (auto, on, off)", c.VRR)
	}
}

// BufferDuration returns BufferMs as a duration
func (c *Config) BufferDuration() time.Duration {
	return time.Duration(c.BufferMs) * time.Millisecond
}

// Helper functions to get environment variables with defaults

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(envPrefix + key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
