package tool

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/moyoez/video-splitter-go/types"
)

// diskUsage is swapped in tests.
var diskUsage = disk.Usage

// EnsureFreeSpace fails with ErrInsufficientDisk when dir's filesystem has less than need bytes free.
// If usage cannot be read the check passes and a warning is logged.
func EnsureFreeSpace(dir string, need int64) error {
	if need <= 0 {
		return nil
	}
	stat, err := diskUsage(dir)
	if err != nil {
		DefaultLogger.Warnf("[Disk] Could not read usage of %s: %v", dir, err)
		return nil
	}
	if stat.Free < uint64(need) {
		return fmt.Errorf("%w: need %d bytes, %d free on %s", types.ErrInsufficientDisk, need, stat.Free, dir)
	}
	return nil
}
