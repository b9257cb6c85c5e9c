package imagery

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rov-survey/geotag/internal/camera"
)

func writeImage(t *testing.T, dir, name string, encode func(*bytes.Buffer) error) {
	t.Helper()

	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		t.Fatalf("encoding %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func writePNG(t *testing.T, dir, name string) {
	t.Helper()
	writeImage(t, dir, name, func(buf *bytes.Buffer) error {
		return png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 2, 2)))
	})
}

func writeJPEG(t *testing.T, dir, name string) {
	t.Helper()
	writeImage(t, dir, name, func(buf *bytes.Buffer) error {
		return jpeg.Encode(buf, image.NewRGBA(image.Rect(0, 0, 2, 2)), nil)
	})
}

func TestScan(t *testing.T) {
	dir := t.TempDir()

	writePNG(t, dir, "B_20211005061214_0002.png")
	writePNG(t, dir, "A_20211005061211_0001.png")
	writeJPEG(t, dir, "20211005T061220Z_site9.jpg")
	writePNG(t, dir, "undated_capture.png")

	// Wrong extension, skipped before decoding.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("dive notes"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Image extension but not image content.
	if err := os.WriteFile(filepath.Join(dir, "A_20211005061299_bad.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Subdirectories are not scanned.
	if err := os.Mkdir(filepath.Join(dir, "thumbnails"), 0o755); err != nil {
		t.Fatal(err)
	}

	records, stats, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if stats.Entries != 6 {
		t.Errorf("stats.Entries = %d, want 6", stats.Entries)
	}
	if stats.Images != 4 {
		t.Errorf("stats.Images = %d, want 4", stats.Images)
	}
	if stats.Skipped != 2 {
		t.Errorf("stats.Skipped = %d, want 2", stats.Skipped)
	}
	if stats.BadNames != 1 {
		t.Errorf("stats.BadNames = %d, want 1", stats.BadNames)
	}

	want := []Record{
		{
			Filename: "20211005T061220Z_site9.jpg",
			Family:   camera.FamilyOther,
			Captured: time.Date(2021, 10, 5, 6, 12, 20, 0, time.UTC),
		},
		{
			Filename: "A_20211005061211_0001.png",
			Family:   camera.FamilyA,
			Captured: time.Date(2021, 10, 5, 6, 12, 11, 0, time.UTC),
		},
		{
			Filename: "B_20211005061214_0002.png",
			Family:   camera.FamilyB,
			Captured: time.Date(2021, 10, 5, 6, 12, 14, 0, time.UTC),
		},
	}

	if len(records) != len(want) {
		t.Fatalf("Scan() returned %d records, want %d", len(records), len(want))
	}
	for i, rec := range records {
		if rec.Filename != want[i].Filename {
			t.Errorf("records[%d].Filename = %q, want %q", i, rec.Filename, want[i].Filename)
		}
		if rec.Family != want[i].Family {
			t.Errorf("records[%d].Family = %v, want %v", i, rec.Family, want[i].Family)
		}
		if !rec.Captured.Equal(want[i].Captured) {
			t.Errorf("records[%d].Captured = %v, want %v", i, rec.Captured, want[i].Captured)
		}
	}
}

func TestScanEmptyDir(t *testing.T) {
	records, stats, err := Scan(t.TempDir())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(records) != 0 || stats.Entries != 0 {
		t.Errorf("Scan() on empty dir = %d records, %+v", len(records), stats)
	}
}

func TestScanMissingDir(t *testing.T) {
	if _, _, err := Scan(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("Scan() expected error for missing directory")
	}
}
