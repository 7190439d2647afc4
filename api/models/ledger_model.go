package models

import (
	"sync"

	"github.com/moyoez/video-splitter-go/tool"
)

// DownloadLedger remembers which parts of each output folder have not been downloaded yet.
type DownloadLedger struct {
	mu      sync.Mutex
	pending map[string]map[string]struct{} // folder name -> undownloaded part names
}

func NewDownloadLedger() *DownloadLedger {
	return &DownloadLedger{pending: make(map[string]map[string]struct{})}
}

// Register records parts as the full set of downloadable files of folder, replacing any earlier record.
func (l *DownloadLedger) Register(folder string, parts []string) {
	set := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		set[part] = struct{}{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending[folder] = set
}

// MarkDownloaded crosses part off folder's list and reports whether it was the last one.
// For a folder the ledger never saw, the part counts as last when it is the only file left in dir.
func (l *DownloadLedger) MarkDownloaded(folder, dir, part string) bool {
	l.mu.Lock()
	set, known := l.pending[folder]
	if known {
		if _, ok := set[part]; !ok {
			l.mu.Unlock()
			return false
		}
		delete(set, part)
		last := len(set) == 0
		if last {
			delete(l.pending, folder)
		}
		l.mu.Unlock()
		return last
	}
	l.mu.Unlock()

	files, err := tool.ListFiles(dir)
	if err != nil {
		return false
	}
	return len(files) == 1 && files[0] == part
}

// Remaining returns how many parts of folder are still undownloaded, -1 when unknown.
func (l *DownloadLedger) Remaining(folder string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.pending[folder]
	if !ok {
		return -1
	}
	return len(set)
}

// Forget drops folder, used when the whole folder went away (zip download, purge, sweep).
func (l *DownloadLedger) Forget(folder string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, folder)
}
