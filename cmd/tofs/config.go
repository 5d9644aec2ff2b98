package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aligator/tofs"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	envVarPrefix = "TOFS"
	appName      = "tofs"
)

// Config of the command line tool. Values are read from the YAML file first, the
// environment overrides them.
type Config struct {
	Image           string   `envconfig:"TOFS_IMAGE"             yaml:"image"`
	SectorSize      int      `envconfig:"TOFS_SECTOR_SIZE"       yaml:"sectorSize"`
	SectorsPerTrack int      `envconfig:"TOFS_SECTORS_PER_TRACK" yaml:"sectorsPerTrack"`
	Tracks          int      `envconfig:"TOFS_TRACKS"            yaml:"tracks"`
	Extended        bool     `envconfig:"TOFS_EXTENDED"          yaml:"extended"`
	Buffers         int      `envconfig:"TOFS_BUFFERS"           yaml:"buffers"`
	CaseSensitive   bool     `envconfig:"TOFS_CASE_SENSITIVE"    yaml:"caseSensitive"`
	LogLevel        LogLevel `envconfig:"TOFS_LOG_LEVEL"         yaml:"logLevel"`
}

// DefaultConfig describes the default floppy geometry.
func DefaultConfig() Config {
	geo := tofs.DefaultGeometry()
	return Config{
		SectorSize:      geo.SectorSize,
		SectorsPerTrack: geo.SectorsPerTrack,
		Tracks:          geo.Tracks,
		Buffers:         16,
		LogLevel:        LogLevel(logrus.WarnLevel),
	}
}

// LoadConfig reads the config file at path. An empty path selects $TOFS_CONFIG_FILE or
// ~/.config/tofs.yaml. A missing file is no error.
func LoadConfig(afs afero.Fs, path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(envVarPrefix + "_CONFIG_FILE")
	}
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".config", appName+".yaml")
		}
	}

	c := DefaultConfig()
	if path != "" {
		data, err := afero.ReadFile(afs, path)
		switch {
		case err == nil:
			if err := yaml.UnmarshalStrict(data, &c); err != nil {
				return nil, fmt.Errorf("unmarshaling config file: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	return &c, nil
}

// Geometry of the image.
func (c *Config) Geometry() tofs.Geometry {
	return tofs.Geometry{
		SectorSize:      c.SectorSize,
		SectorsPerTrack: c.SectorsPerTrack,
		Tracks:          c.Tracks,
		Extended:        c.Extended,
	}
}

func (c *Config) Validate() error {
	if c.Image == "" {
		return fmt.Errorf("missing required configuration: image / %s_IMAGE", envVarPrefix)
	}
	if c.Buffers < 1 {
		return fmt.Errorf("buffers must be at least 1, got %d", c.Buffers)
	}
	if err := c.Geometry().Validate(); err != nil {
		return fmt.Errorf("geometry: %w", err)
	}
	return nil
}

// LogLevel is a logrus.Level which can be read from YAML and from the environment.
type LogLevel logrus.Level

func (l *LogLevel) Decode(value string) error {
	level, err := logrus.ParseLevel(value)
	if err != nil {
		return err
	}
	*l = LogLevel(level)
	return nil
}

func (l *LogLevel) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("yaml-unmarshaling *LogLevel: %w", err)
	}

	if err := l.Decode(s); err != nil {
		return fmt.Errorf("yaml-unmarshaling *LogLevel: %w", err)
	}

	return nil
}

func (l LogLevel) Std() logrus.Level {
	return logrus.Level(l)
}
