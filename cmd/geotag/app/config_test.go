package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rov-survey/geotag/internal/camera"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "geotag.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	content := `
tolerance: 5s
delimiter: ","
columns:
  time: NAV_TIME
  depth: BOTTOM_DEPTH
cameras:
  A:
    pitchOffset: -80
    focalLength: 12mm
  other:
    pitchOffset: -30
    focalLength: 2.1mm
`
	c := NewConfig()
	if err := c.loadFile(writeConfigFile(t, content)); err != nil {
		t.Fatalf("loadFile() error = %v", err)
	}

	if c.Tolerance != 5*time.Second {
		t.Errorf("Tolerance = %v, want 5s", c.Tolerance)
	}
	if c.Delimiter != ',' {
		t.Errorf("Delimiter = %q, want ','", c.Delimiter)
	}
	if c.Columns.Time != "NAV_TIME" || c.Columns.Depth != "BOTTOM_DEPTH" {
		t.Errorf("Columns = %+v, overrides not applied", c.Columns)
	}
	if c.Columns.Latitude != "LAT" {
		t.Errorf("Columns.Latitude = %q, unnamed columns must keep defaults", c.Columns.Latitude)
	}

	a, err := c.Profiles.For(camera.FamilyA)
	if err != nil {
		t.Fatal(err)
	}
	if a.PitchOffset != -80 || a.FocalLength != "12mm" {
		t.Errorf("FamilyA profile = %+v, override not applied", a)
	}

	b, err := c.Profiles.For(camera.FamilyB)
	if err != nil {
		t.Fatal(err)
	}
	if b.PitchOffset != -45 {
		t.Errorf("FamilyB profile = %+v, default must survive", b)
	}

	other, err := c.Profiles.For(camera.FamilyOther)
	if err != nil {
		t.Fatal(err)
	}
	if other.PitchOffset != -30 || other.FocalLength != "2.1mm" {
		t.Errorf("fallback profile = %+v, override not applied", other)
	}
}

func TestLoadFileTabDelimiter(t *testing.T) {
	c := NewConfig()
	if err := c.loadFile(writeConfigFile(t, "delimiter: \"\\t\"\n")); err != nil {
		t.Fatalf("loadFile() error = %v", err)
	}
	if c.Delimiter != '\t' {
		t.Errorf("Delimiter = %q, want tab", c.Delimiter)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "tolerance: [\n"},
		{"bad tolerance", "tolerance: fast\n"},
		{"negative tolerance", "tolerance: -2s\n"},
		{"multi rune delimiter", "delimiter: \"||\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfig()
			if err := c.loadFile(writeConfigFile(t, tt.content)); err == nil {
				t.Error("loadFile() expected error, got nil")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := NewConfig()
		c.TelemetryPath = "nav.txt"
		c.ImageDir = "images"
		c.LogPath = "flight_log.txt"
		return c
	}

	if err := valid().validate(); err != nil {
		t.Errorf("validate() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing telemetry", func(c *Config) { c.TelemetryPath = "" }},
		{"missing images", func(c *Config) { c.ImageDir = "" }},
		{"no outputs", func(c *Config) { c.LogPath = "" }},
		{"zero tolerance", func(c *Config) { c.Tolerance = 0 }},
		{"empty column name", func(c *Config) { c.Columns.Time = "" }},
		{"no fallback profile", func(c *Config) { delete(c.Profiles, camera.FamilyOther) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.validate(); err == nil {
				t.Error("validate() expected error, got nil")
			}
		})
	}
}

func TestValidateAnyOutput(t *testing.T) {
	c := NewConfig()
	c.TelemetryPath = "nav.txt"
	c.ImageDir = "images"
	c.DBPath = "survey.db"

	if err := c.validate(); err != nil {
		t.Errorf("validate() error = %v, archive alone is a valid output", err)
	}
}

func TestTimeDurationJSON(t *testing.T) {
	d := TimeDuration(1500 * time.Millisecond)

	data, err := json.Marshal(&d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"1.5s"` {
		t.Errorf("Marshal() = %s, want \"1.5s\"", data)
	}

	var back TimeDuration
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != d {
		t.Errorf("round trip = %v, want %v", back, d)
	}

	if err := json.Unmarshal([]byte(`"quick"`), &back); err == nil {
		t.Error("Unmarshal() expected error for non-duration string")
	}
}

func TestSessionConfigSnapshot(t *testing.T) {
	c := NewConfig()
	c.TelemetryPath = "nav.txt"
	c.ImageDir = "images"
	c.DBPath = "survey.db"

	data, err := json.Marshal(newSessionConfig(c))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var snapshot map[string]any
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatal(err)
	}

	if snapshot["tolerance"] != "2s" {
		t.Errorf("tolerance = %v, want \"2s\"", snapshot["tolerance"])
	}
	if snapshot["delimiter"] != "\t" {
		t.Errorf("delimiter = %v, want tab", snapshot["delimiter"])
	}
	if _, ok := snapshot["zone"]; ok {
		t.Error("zone must be omitted when not projecting")
	}
	cameras, ok := snapshot["cameras"].(map[string]any)
	if !ok || len(cameras) != 3 {
		t.Errorf("cameras = %v, want all three families", snapshot["cameras"])
	}
}
