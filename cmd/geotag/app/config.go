package app

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/rov-survey/geotag/internal/camera"
	"github.com/rov-survey/geotag/internal/correlate"
	"github.com/rov-survey/geotag/internal/geodesy"
	"github.com/rov-survey/geotag/internal/telemetry"
)

// TimeDuration is a time.Duration that reads and writes YAML and JSON
// as a duration string such as "2s" or "1500ms".
type TimeDuration time.Duration

func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("tolerance: failed to parse: %s", err)
	}

	*d = TimeDuration(duration)
	return nil
}

func (d *TimeDuration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *TimeDuration) UnmarshalJSON(bytes []byte) error {
	var v string
	if err := json.Unmarshal(bytes, &v); err != nil {
		return err
	}

	duration, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("tolerance: failed to parse: %s", err)
	}

	*d = TimeDuration(duration)
	return nil
}

func (d *TimeDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *TimeDuration) Validate() error {
	if time.Duration(*d) <= 0 {
		return fmt.Errorf("tolerance: must be positive: %s given", time.Duration(*d))
	}

	return nil
}

func (d *TimeDuration) String() string {
	return time.Duration(*d).String()
}

// Config is the effective run configuration after merging defaults, the
// optional configuration file and CLI flags, in that order.
type Config struct {
	TelemetryPath string
	ImageDir      string
	LogPath       string
	KMLPath       string
	DBPath        string
	Zone          *geodesy.Zone // nil keeps outputs geographic
	Tolerance     time.Duration
	Delimiter     rune
	Columns       telemetry.Columns
	Profiles      camera.Profiles
	Verbose       bool
}

func NewConfig() *Config {
	return &Config{
		Tolerance: correlate.DefaultTolerance,
		Delimiter: telemetry.DefaultDelimiter,
		Columns:   telemetry.DefaultColumns(),
		Profiles:  camera.DefaultProfiles(),
	}
}

// fileConfig is the YAML configuration file shape. Absent keys keep
// their defaults; camera entries override per family.
type fileConfig struct {
	Tolerance *TimeDuration             `yaml:"tolerance"`
	Delimiter string                    `yaml:"delimiter"`
	Columns   telemetry.Columns         `yaml:"columns"`
	Cameras   map[string]camera.Profile `yaml:"cameras"`
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var configFile, zone string
	var tolerance time.Duration
	flag.StringVar(&c.TelemetryPath, "telemetry", "", "Path to the telemetry export file")
	flag.StringVar(&c.ImageDir, "images", "", "Path to the survey image directory")
	flag.StringVar(&c.LogPath, "log", "", "Path of the flight log to write")
	flag.StringVar(&c.KMLPath, "kml", "", "Path of the KML overlay to write")
	flag.StringVar(&c.DBPath, "db", "", "Path of the archive database to write")
	flag.StringVar(&zone, "zone", "", "UTM zone for projected output, e.g. 55G")
	flag.DurationVar(&tolerance, "tolerance", correlate.DefaultTolerance, "Maximum time between capture and telemetry fix")
	flag.StringVar(&configFile, "config", "", "Path to a YAML configuration file")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	flag.Parse()

	if configFile != "" {
		if err := c.loadFile(configFile); err != nil {
			return nil, err
		}
	}

	// Flags take precedence over the configuration file.
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "tolerance" {
			c.Tolerance = tolerance
		}
	})

	if zone != "" {
		z, err := geodesy.ParseZone(zone)
		if err != nil {
			flag.Usage()
			return nil, err
		}
		c.Zone = &z
	}

	if err := c.validate(); err != nil {
		flag.Usage()
		return nil, err
	}

	return c, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	// Unmarshal over the current columns so a partial mapping only
	// overrides the named ones.
	fc := fileConfig{Columns: c.Columns}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fc.Tolerance != nil {
		if err := fc.Tolerance.Validate(); err != nil {
			return err
		}
		c.Tolerance = time.Duration(*fc.Tolerance)
	}

	if fc.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(fc.Delimiter)
		if r == utf8.RuneError || size != len(fc.Delimiter) {
			return fmt.Errorf("delimiter must be a single character: %q given", fc.Delimiter)
		}
		c.Delimiter = r
	}

	c.Columns = fc.Columns
	for name, profile := range fc.Cameras {
		c.Profiles[camera.Family(name)] = profile
	}

	return nil
}

func (c *Config) validate() error {
	var err error
	if c.TelemetryPath == "" {
		err = errors.New("telemetry file is required")
	} else if c.ImageDir == "" {
		err = errors.New("image directory is required")
	} else if c.LogPath == "" && c.KMLPath == "" && c.DBPath == "" {
		err = errors.New("at least one output is required: -log, -kml or -db")
	} else if c.Tolerance <= 0 {
		err = errors.New("tolerance must be positive")
	}
	if err != nil {
		return err
	}

	if err = c.Columns.Validate(); err != nil {
		return err
	}
	return c.Profiles.Validate()
}
