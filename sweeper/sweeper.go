// Package sweeper deletes uploads and split output older than a retention window.
package sweeper

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/moyoez/video-splitter-go/tool"
)

const (
	DefaultRetention = time.Hour
	DefaultInterval  = 5 * time.Minute
)

// Config contains sweeper configuration
type Config struct {
	UploadDir string
	OutputDir string
	Retention time.Duration
	Interval  time.Duration
	// Skip reports paths currently in use by a running job. Optional.
	Skip func(path string) bool
	// OnOutputRemoved is called with every output directory the sweeper deleted. Optional.
	OnOutputRemoved func(dir string)
}

// Stats counts what one pass did.
type Stats struct {
	Uploads int // upload files removed
	Outputs int // output directories removed
	Failed  int // entries that could not be removed
}

// Sweeper periodically removes stale artifacts.
type Sweeper struct {
	config Config
	now    func() time.Time
}

func New(config Config) *Sweeper {
	if config.Retention <= 0 {
		config.Retention = DefaultRetention
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	return &Sweeper{config: config, now: time.Now}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	tool.DefaultLogger.Infof("[Sweeper] Started: retention=%s interval=%s", s.config.Retention, s.config.Interval)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.Sweep()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-ctx.Done():
			tool.DefaultLogger.Infof("[Sweeper] Stopped")
			return
		}
	}
}

// Sweep runs a single pass over both folders. Individual failures are logged and skipped.
func (s *Sweeper) Sweep() Stats {
	var stats Stats
	cutoff := s.now().Add(-s.config.Retention)

	s.sweepDir(s.config.UploadDir, cutoff, false, &stats)
	s.sweepDir(s.config.OutputDir, cutoff, true, &stats)

	if stats.Uploads > 0 || stats.Outputs > 0 || stats.Failed > 0 {
		tool.DefaultLogger.Infof("[Sweeper] Removed %d uploads and %d output folders, %d failures",
			stats.Uploads, stats.Outputs, stats.Failed)
	} else {
		tool.DefaultLogger.Debugf("[Sweeper] Nothing to remove")
	}
	return stats
}

func (s *Sweeper) sweepDir(root string, cutoff time.Time, dirs bool, stats *Stats) {
	if root == "" {
		return
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			tool.DefaultLogger.Errorf("[Sweeper] Failed to read %s: %v", root, err)
			stats.Failed++
		}
		return
	}

	for _, entry := range entries {
		if entry.IsDir() != dirs {
			continue
		}
		path := filepath.Join(root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			tool.DefaultLogger.Warnf("[Sweeper] Failed to stat %s: %v", path, err)
			stats.Failed++
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if s.config.Skip != nil && s.config.Skip(path) {
			tool.DefaultLogger.Debugf("[Sweeper] %s is in use, skipping", path)
			continue
		}
		if err := tool.RemovePath(path); err != nil {
			tool.DefaultLogger.Errorf("[Sweeper] %v", err)
			stats.Failed++
			continue
		}
		if dirs {
			stats.Outputs++
			if s.config.OnOutputRemoved != nil {
				s.config.OnOutputRemoved(path)
			}
		} else {
			stats.Uploads++
		}
		tool.DefaultLogger.Debugf("[Sweeper] Removed %s (modified %s)", path, info.ModTime().Format(time.DateTime))
	}
}
