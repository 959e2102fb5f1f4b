package logger

import (
	"fmt"
	"slices"
)

var (
	validLevels  = []string{"trace", "debug", "info", "warn", "error", "fatal", "disabled"}
	validFormats = []string{"json", "console", "pretty"}
)

// Config contains logging configuration.
type Config struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	// Output is "stderr" (default), "stdout", or a file path rotated by
	// size and age.
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`

	// Rotation, file output only.
	MaxSize    int  `yaml:"max_size" mapstructure:"max_size"` // megabytes
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int  `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool `yaml:"compress" mapstructure:"compress"`
	LocalTime  bool `yaml:"local_time" mapstructure:"local_time"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
	if c.isFile() {
		if c.MaxSize == 0 {
			c.MaxSize = 10
		}
		if c.MaxBackups == 0 {
			c.MaxBackups = 3
		}
		if c.MaxAge == 0 {
			c.MaxAge = 7
		}
	}
	c.Timestamp = true
}

// Validate checks level and format.
func (c *Config) Validate() error {
	if !slices.Contains(validLevels, c.Level) {
		return fmt.Errorf("logging.level must be one of %v (got: %s)", validLevels, c.Level)
	}
	if !slices.Contains(validFormats, c.Format) {
		return fmt.Errorf("logging.format must be one of %v (got: %s)", validFormats, c.Format)
	}
	if c.MaxSize < 0 || c.MaxBackups < 0 || c.MaxAge < 0 {
		return fmt.Errorf("logging rotation limits must not be negative")
	}
	return nil
}

func (c *Config) isFile() bool {
	switch c.Output {
	case "", "stdout", "stderr":
		return false
	}
	return true
}
