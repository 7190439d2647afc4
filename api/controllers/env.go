package controllers

import (
	"path/filepath"
	"sync"

	"github.com/moyoez/video-splitter-go/api/models"
	"github.com/moyoez/video-splitter-go/notify"
	"github.com/moyoez/video-splitter-go/packager"
	"github.com/moyoez/video-splitter-go/splitter"
	"github.com/moyoez/video-splitter-go/tool"
	"github.com/moyoez/video-splitter-go/types"
)

// Env carries the stores and settings shared by all controllers. It is built once by api.Server.
type Env struct {
	Config    *types.AppConfig
	Tracker   *models.ProgressTracker
	Sessions  *models.SessionRegistry
	Ledger    *models.DownloadLedger
	Packager  *packager.Packager
	Splitters map[types.SplitMode]splitter.Splitter
	Notifier  *notify.Notifier

	busy sync.Map // paths used by running jobs
}

// Busy reports whether path is the source or output of a running job.
func (e *Env) Busy(path string) bool {
	_, ok := e.busy.Load(filepath.Clean(path))
	return ok
}

func (e *Env) markBusy(paths ...string) func() {
	for _, p := range paths {
		e.busy.Store(filepath.Clean(p), struct{}{})
	}
	return func() {
		for _, p := range paths {
			e.busy.Delete(filepath.Clean(p))
		}
	}
}

// OutputRemoved drops every record of an output directory that no longer exists.
func (e *Env) OutputRemoved(dir string) {
	e.Ledger.Forget(filepath.Base(dir))
	e.Sessions.ForgetSplit(dir)
}

func (e *Env) uploadPath(name string) string {
	return filepath.Join(e.Config.UploadFolder, name)
}

func (e *Env) outputPath(folder string) string {
	return filepath.Join(e.Config.OutputFolder, folder)
}

func (e *Env) partBytes(partSizeMB int64) int64 {
	if partSizeMB <= 0 {
		partSizeMB = e.Config.PartSizeMB
	}
	return partSizeMB * tool.MiB
}
