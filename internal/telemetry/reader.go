package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrFormat is returned when a telemetry export cannot be interpreted:
// a mapped column is missing from the header, a timestamp does not parse,
// a numeric cell holds garbage, or the table has no data rows at all.
var ErrFormat = errors.New("invalid telemetry format")

// DefaultDelimiter separates columns in the navigation exports the
// survey software produces.
const DefaultDelimiter = '\t'

// Columns maps the logical telemetry fields to the column names used in
// a particular export's header row. Empty names are not valid; start
// from DefaultColumns and override what differs.
type Columns struct {
	Time      string `yaml:"time" json:"time"`
	Latitude  string `yaml:"latitude" json:"latitude"`
	Longitude string `yaml:"longitude" json:"longitude"`
	Depth     string `yaml:"depth" json:"depth"`
	Heading   string `yaml:"heading" json:"heading"`
	Pitch     string `yaml:"pitch" json:"pitch"`
	Roll      string `yaml:"roll" json:"roll"`
}

// DefaultColumns returns the header names used by the sampled NAV
// exports this tool has historically consumed.
func DefaultColumns() Columns {
	return Columns{
		Time:      "TIME",
		Latitude:  "LAT",
		Longitude: "LONG",
		Depth:     "DEPTH",
		Heading:   "HEADING",
		Pitch:     "PITCH",
		Roll:      "ROLL",
	}
}

// Validate checks that every field has a column name.
func (c Columns) Validate() error {
	for _, name := range []string{c.Time, c.Latitude, c.Longitude, c.Depth, c.Heading, c.Pitch, c.Roll} {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: column mapping has empty names", ErrFormat)
		}
	}
	return nil
}

// timeLayouts are tried in order when parsing the time column. The
// exports are ISO-8601-ish but inconsistent about zone designators and
// fractional seconds; zoneless values are taken as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

type reader struct {
	delimiter rune
}

// Option configures the telemetry reader.
type Option func(*reader)

// WithDelimiter overrides the column delimiter, which defaults to tab.
func WithDelimiter(d rune) Option {
	return func(r *reader) {
		r.delimiter = d
	}
}

// ReadSamples consumes a delimited navigation export and returns its
// rows as samples, preserving file order. The first row must be a
// header containing every column named in columns; the time column must
// parse on every row, other cells may be empty. Depth readings are
// sign-normalized so that below-surface values come out negative
// regardless of the export's convention.
func ReadSamples(r io.Reader, columns Columns, opts ...Option) ([]Sample, error) {
	if err := columns.Validate(); err != nil {
		return nil, err
	}

	rd := reader{delimiter: DefaultDelimiter}
	for _, opt := range opts {
		opt(&rd)
	}

	// TrimLeadingSpace stays off: the reader treats a tab delimiter as
	// trimmable space and would swallow empty cells. Cells are trimmed
	// when parsed instead.
	cr := csv.NewReader(r)
	cr.Comma = rd.delimiter

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrFormat)
	} else if err != nil {
		return nil, fmt.Errorf("reading telemetry header: %w", err)
	}

	idx, err := resolveColumns(header, columns)
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("reading telemetry line %d: %w", line, err)
		}

		sample, err := parseRow(row, idx, line)
		if err != nil {
			return nil, err
		}

		samples = append(samples, sample)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrFormat)
	}

	return samples, nil
}

// columnIndex holds resolved header positions for the mapped columns.
type columnIndex struct {
	time      int
	latitude  int
	longitude int
	depth     int
	heading   int
	pitch     int
	roll      int
}

func resolveColumns(header []string, columns Columns) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}

	var idx columnIndex
	for _, col := range []struct {
		name string
		dst  *int
	}{
		{columns.Time, &idx.time},
		{columns.Latitude, &idx.latitude},
		{columns.Longitude, &idx.longitude},
		{columns.Depth, &idx.depth},
		{columns.Heading, &idx.heading},
		{columns.Pitch, &idx.pitch},
		{columns.Roll, &idx.roll},
	} {
		i, ok := pos[col.name]
		if !ok {
			return columnIndex{}, fmt.Errorf("%w: column %q not found in header", ErrFormat, col.name)
		}
		*col.dst = i
	}

	return idx, nil
}

func parseRow(row []string, idx columnIndex, line int) (Sample, error) {
	ts, err := parseTime(strings.TrimSpace(row[idx.time]), line)
	if err != nil {
		return Sample{}, err
	}

	sample := Sample{Timestamp: ts}
	for _, cell := range []struct {
		name string
		pos  int
		dst  **float64
	}{
		{"latitude", idx.latitude, &sample.Latitude},
		{"longitude", idx.longitude, &sample.Longitude},
		{"depth", idx.depth, &sample.Depth},
		{"heading", idx.heading, &sample.Heading},
		{"pitch", idx.pitch, &sample.Pitch},
		{"roll", idx.roll, &sample.Roll},
	} {
		v, err := parseOptional(row[cell.pos], cell.name, line)
		if err != nil {
			return Sample{}, err
		}
		*cell.dst = v
	}

	if sample.Depth != nil {
		depth := -math.Abs(*sample.Depth)
		sample.Depth = &depth
	}

	return sample, nil
}

func parseTime(value string, line int) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: unsupported time value %q on line %d", ErrFormat, value, line)
}

func parseOptional(value, name string, line int) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad %s value %q on line %d", ErrFormat, name, value, line)
	}

	return &v, nil
}
