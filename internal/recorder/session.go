package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dkovalev/camdvr/internal/pipeline"
)

// segment is one open recording file plus the timing needed to finalize
// it.
type segment struct {
	enc     *pipeline.Encoder
	path    string
	started time.Time
}

// segmentPath builds the working name for a segment starting at start:
// <root>/yyyyMMdd/record_HHmmss.mp4. The day directory is created if
// missing.
func segmentPath(root string, start time.Time) (string, error) {
	dir := filepath.Join(root, start.Format("20060102"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create day directory %s: %w", dir, err)
	}
	return filepath.Join(dir, "record_"+start.Format("150405")+".mp4"), nil
}

// openSegment creates the segment file and its encoder.
func openSegment(root string, cfg pipeline.EncoderConfig, start time.Time) (*segment, error) {
	path, err := segmentPath(root, start)
	if err != nil {
		return nil, err
	}
	enc, err := pipeline.NewEncoder(path, cfg)
	if err != nil {
		return nil, err
	}
	return &segment{enc: enc, path: path, started: start}, nil
}

// finalName builds the human-readable span name for a finished segment,
// e.g. "10:30-11:00.mp4".
func finalName(start, end time.Time) string {
	return start.Format("15:04") + "-" + end.Format("15:04") + ".mp4"
}

// finalize closes the segment and renames it to its span name. An
// encoder failure still leaves the working file in place so no footage
// is lost. Returns the final path and the number of frames written.
func (s *segment) finalize(end time.Time) (string, int64, error) {
	frames := s.enc.FrameCount()
	if err := s.enc.Close(); err != nil {
		return s.path, frames, err
	}
	final, err := renameToSpan(s.path, s.started, end)
	return final, frames, err
}

// renameToSpan renames a finished working file to its span name. If a
// file with the span name already exists the working name is kept and
// no error is reported.
func renameToSpan(path string, start, end time.Time) (string, error) {
	target := filepath.Join(filepath.Dir(path), finalName(start, end))
	if _, err := os.Stat(target); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return path, err
	}

	if err := os.Rename(path, target); err != nil {
		return path, err
	}
	return target, nil
}
