package retention

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"golang.org/x/sys/unix"

	"github.com/dkovalev/camdvr/internal/events"
	"github.com/dkovalev/camdvr/internal/logging"
	"github.com/dkovalev/camdvr/internal/metrics"
)

// Defaults for the storage watchdog.
const (
	DefaultMinFreePercent = 10.0
	DefaultCheckInterval  = time.Minute
)

// ErrNoCandidates is returned by CleanupOldestDay when the recording
// root contains no day directories to delete.
var ErrNoCandidates = errors.New("no day directories to clean up")

// Recording day directories are named yyyyMMdd.
var dayDirPattern = regexp.MustCompile(`^\d{8}$`)

// Config controls the retention manager.
type Config struct {
	Root           string        // recording root directory
	MinFreePercent float64       // threshold below which cleanup runs
	CheckInterval  time.Duration // period of the background check
}

// Usage is a snapshot of the recording filesystem.
type Usage struct {
	TotalBytes     uint64
	AvailableBytes uint64
	FreePercent    float64
}

// Manager watches free space on the recording filesystem and deletes
// the oldest day of recordings when space runs low.
type Manager struct {
	cfg    Config
	bus    *events.Bus
	logger *slog.Logger
}

// NewManager creates a retention manager. Zero config fields fall back
// to the package defaults.
func NewManager(cfg Config, bus *events.Bus) *Manager {
	if cfg.MinFreePercent <= 0 {
		cfg.MinFreePercent = DefaultMinFreePercent
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	return &Manager{
		cfg:    cfg,
		bus:    bus,
		logger: logging.GetLogger("retention"),
	}
}

// CheckSpace queries the recording filesystem and reports whether
// enough space is free. A filesystem that cannot be queried or reports
// zero size counts as out of space.
func (m *Manager) CheckSpace() (Usage, bool, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(m.cfg.Root, &st); err != nil {
		// Publish zeros so listeners see the device itself is gone.
		m.publishLow(Usage{})
		return Usage{}, false, fmt.Errorf("failed to stat filesystem at %s: %w", m.cfg.Root, err)
	}

	usage := Usage{
		TotalBytes:     st.Blocks * uint64(st.Bsize),
		AvailableBytes: st.Bavail * uint64(st.Bsize),
	}
	usage.FreePercent = freePercent(usage.TotalBytes, usage.AvailableBytes)
	metrics.SetStorageFreePercent(usage.FreePercent)

	ok := hasEnoughSpace(usage.TotalBytes, usage.AvailableBytes, m.cfg.MinFreePercent)
	if !ok {
		m.publishLow(usage)
	}
	return usage, ok, nil
}

// CleanupOldestDay deletes the chronologically oldest day directory and
// returns its name and the number of bytes it occupied.
func (m *Manager) CleanupOldestDay() (string, uint64, error) {
	entries, err := os.ReadDir(m.cfg.Root)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read recording root %s: %w", m.cfg.Root, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	oldest, ok := oldestDay(names)
	if !ok {
		m.publishCleanupFailed(ErrNoCandidates)
		return "", 0, ErrNoCandidates
	}

	target := filepath.Join(m.cfg.Root, oldest)
	size := dirSize(target)
	if err := os.RemoveAll(target); err != nil {
		err = fmt.Errorf("failed to remove %s: %w", target, err)
		m.publishCleanupFailed(err)
		return "", 0, err
	}

	m.logger.Info("deleted oldest recording day",
		"dir", oldest,
		"freed_bytes", size)
	metrics.AddStorageCleanup(size)
	if m.bus != nil {
		m.bus.Publish(events.StorageCleanupEvent{
			Removed:    oldest,
			FreedBytes: size,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		})
	}
	return oldest, size, nil
}

// EnsureCapacity runs one check-clean-recheck cycle: if space is low,
// delete the single oldest day and re-check. At most one day is deleted
// per call so a burst of checks cannot wipe the archive.
func (m *Manager) EnsureCapacity() error {
	usage, ok, err := m.CheckSpace()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	m.logger.Warn("storage space low",
		"free_percent", usage.FreePercent,
		"available_bytes", usage.AvailableBytes)

	if _, _, err := m.CleanupOldestDay(); err != nil {
		if errors.Is(err, ErrNoCandidates) {
			m.logger.Warn("storage low but nothing to clean up")
			return nil
		}
		return err
	}

	usage, ok, err = m.CheckSpace()
	if err != nil {
		return err
	}
	if !ok {
		m.logger.Warn("storage still low after cleanup",
			"free_percent", usage.FreePercent)
	}
	return nil
}

// Run performs periodic capacity checks until the context is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	m.logger.Info("retention manager started",
		"root", m.cfg.Root,
		"min_free_percent", m.cfg.MinFreePercent,
		"interval", m.cfg.CheckInterval)

	// First cycle runs right away; a nearly full disk must not wait a
	// whole interval before cleanup starts.
	if err := m.EnsureCapacity(); err != nil {
		m.logger.Error("capacity check failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("retention manager stopped")
			return
		case <-ticker.C:
			if err := m.EnsureCapacity(); err != nil {
				m.logger.Error("capacity check failed", "error", err)
			}
		}
	}
}

// publishCleanupFailed tells event listeners that a sweep could not
// reclaim anything; CleanupOldestDay publishes it on every failure
// branch so callers need not.
func (m *Manager) publishCleanupFailed(err error) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.CleanupFailedEvent{
		Message:   err.Error(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (m *Manager) publishLow(usage Usage) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.StorageLowEvent{
		TotalBytes:     usage.TotalBytes,
		AvailableBytes: usage.AvailableBytes,
		FreePercent:    usage.FreePercent,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}

// hasEnoughSpace reports whether the available fraction of a filesystem
// meets the threshold. A zero-size filesystem never has enough space.
func hasEnoughSpace(total, available uint64, minFreePercent float64) bool {
	if total == 0 {
		return false
	}
	return freePercent(total, available) >= minFreePercent
}

// freePercent returns available space as a percentage of total.
func freePercent(total, available uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(available) / float64(total) * 100
}

// oldestDay picks the chronologically oldest day directory name.
// Day names sort lexicographically in date order, so the minimum wins.
func oldestDay(names []string) (string, bool) {
	var days []string
	for _, name := range names {
		if dayDirPattern.MatchString(name) {
			days = append(days, name)
		}
	}
	if len(days) == 0 {
		return "", false
	}
	sort.Strings(days)
	return days[0], true
}

// dirSize sums the sizes of all regular files under path. Entries that
// cannot be inspected are skipped.
func dirSize(path string) uint64 {
	var total uint64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += uint64(info.Size())
		return nil
	})
	return total
}
