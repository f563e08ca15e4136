package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSegmentPath(t *testing.T) {
	root := t.TempDir()
	start := time.Date(2026, 8, 29, 10, 30, 0, 0, time.Local)

	path, err := segmentPath(root, start)
	if err != nil {
		t.Fatalf("segmentPath failed: %v", err)
	}

	want := filepath.Join(root, "20260829", "record_103000.mp4")
	if path != want {
		t.Errorf("segmentPath = %q, want %q", path, want)
	}

	// The day directory must exist afterwards.
	info, err := os.Stat(filepath.Join(root, "20260829"))
	if err != nil {
		t.Fatalf("day directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("day path is not a directory")
	}
}

func TestFinalName(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected string
	}{
		{
			name:     "half hour span",
			start:    time.Date(2026, 8, 29, 10, 30, 0, 0, time.Local),
			end:      time.Date(2026, 8, 29, 11, 0, 0, 0, time.Local),
			expected: "10:30-11:00.mp4",
		},
		{
			name:     "seconds are dropped",
			start:    time.Date(2026, 8, 29, 10, 30, 45, 0, time.Local),
			end:      time.Date(2026, 8, 29, 10, 59, 59, 0, time.Local),
			expected: "10:30-10:59.mp4",
		},
		{
			name:     "span across midnight",
			start:    time.Date(2026, 8, 29, 23, 45, 0, 0, time.Local),
			end:      time.Date(2026, 8, 30, 0, 15, 0, 0, time.Local),
			expected: "23:45-00:15.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := finalName(tt.start, tt.end); got != tt.expected {
				t.Errorf("finalName = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRenameToSpan(t *testing.T) {
	dir := t.TempDir()
	working := filepath.Join(dir, "record_103000.mp4")
	if err := os.WriteFile(working, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	start := time.Date(2026, 8, 29, 10, 30, 0, 0, time.Local)
	end := time.Date(2026, 8, 29, 11, 0, 0, 0, time.Local)

	final, err := renameToSpan(working, start, end)
	if err != nil {
		t.Fatalf("renameToSpan failed: %v", err)
	}

	want := filepath.Join(dir, "10:30-11:00.mp4")
	if final != want {
		t.Errorf("final path = %q, want %q", final, want)
	}
	if _, err := os.Stat(working); !os.IsNotExist(err) {
		t.Error("working file still exists after rename")
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("final file missing: %v", err)
	}
}

func TestRenameToSpanKeepsWorkingNameOnCollision(t *testing.T) {
	dir := t.TempDir()
	working := filepath.Join(dir, "record_103000.mp4")
	existing := filepath.Join(dir, "10:30-11:00.mp4")
	if err := os.WriteFile(working, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	start := time.Date(2026, 8, 29, 10, 30, 0, 0, time.Local)
	end := time.Date(2026, 8, 29, 11, 0, 0, 0, time.Local)

	final, err := renameToSpan(working, start, end)
	if err != nil {
		t.Fatalf("renameToSpan failed: %v", err)
	}
	if final != working {
		t.Errorf("final path = %q, want working name %q", final, working)
	}

	// Both files survive and the existing one is untouched.
	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "old" {
		t.Errorf("existing file content = %q, want %q", data, "old")
	}
	if _, err := os.Stat(working); err != nil {
		t.Errorf("working file missing: %v", err)
	}
}
