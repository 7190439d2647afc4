package models

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/moyoez/video-splitter-go/tool"
	"github.com/moyoez/video-splitter-go/types"
)

const DefaultSessionTTL = 24 * time.Hour

// SessionRegistry tracks, per session token, the uploads and output directories
// that still belong to that browser. Records of idle sessions expire; their files
// are then left to the retention sweeper.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions *ttlworker.Cache[string, *types.SplitSession]
	owners   map[string]string // output dir -> token

	onSplitRemoved func(dir string)
}

func NewSessionRegistry(ttl time.Duration) *SessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionRegistry{
		sessions: ttlworker.NewCache[string, *types.SplitSession](ttl),
		owners:   make(map[string]string),
	}
}

// SetOnSplitRemoved installs fn, called for every output directory PurgeSession drops.
func (r *SessionRegistry) SetOnSplitRemoved(fn func(dir string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSplitRemoved = fn
}

// Ensure returns the record for token, creating an empty one on first use.
func (r *SessionRegistry) Ensure(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLocked(token)
}

func (r *SessionRegistry) ensureLocked(token string) *types.SplitSession {
	sess := r.sessions.Get(token)
	if sess == nil {
		sess = &types.SplitSession{Token: token}
	}
	// re-set on every touch so active sessions keep their ttl
	r.sessions.Set(token, sess)
	return sess
}

func (r *SessionRegistry) TrackUpload(token, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess := r.ensureLocked(token)
	if !slices.Contains(sess.Uploads, path) {
		sess.Uploads = append(sess.Uploads, path)
	}
}

func (r *SessionRegistry) TrackSplit(token, dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess := r.ensureLocked(token)
	if !slices.Contains(sess.Splits, dir) {
		sess.Splits = append(sess.Splits, dir)
	}
	r.owners[dir] = token
}

// ConsumeUpload removes path from the session's pending uploads after a split used it.
func (r *SessionRegistry) ConsumeUpload(token, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess := r.sessions.Get(token)
	if sess == nil {
		return
	}
	sess.Uploads = slices.DeleteFunc(sess.Uploads, func(p string) bool { return p == path })
}

// ForgetSplit untracks dir from whichever session owns it, used once a download removed it.
func (r *SessionRegistry) ForgetSplit(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.owners[dir]
	if !ok {
		return
	}
	delete(r.owners, dir)
	if sess := r.sessions.Get(token); sess != nil {
		sess.Splits = slices.DeleteFunc(sess.Splits, func(d string) bool { return d == dir })
	}
}

// PurgeSession deletes every tracked upload and output directory of token and clears its lists.
// Missing paths are skipped. Calling it twice is harmless.
func (r *SessionRegistry) PurgeSession(token string) (removed int) {
	r.mu.Lock()
	sess := r.sessions.Get(token)
	if sess == nil {
		r.mu.Unlock()
		return 0
	}
	uploads, splits := sess.Uploads, sess.Splits
	sess.Uploads, sess.Splits = nil, nil
	for _, dir := range splits {
		delete(r.owners, dir)
	}
	onSplitRemoved := r.onSplitRemoved
	r.mu.Unlock()

	for _, path := range append(uploads, splits...) {
		if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
			tool.DefaultLogger.Debugf("[Session] %s already gone, skipping", path)
			continue
		}
		if err := tool.RemovePath(path); err != nil {
			tool.DefaultLogger.Warnf("[Session] Failed to remove %s: %v", path, err)
			continue
		}
		removed++
	}
	if onSplitRemoved != nil {
		for _, dir := range splits {
			onSplitRemoved(dir)
		}
	}
	if removed > 0 {
		tool.DefaultLogger.Infof("[Session] Purged %d paths for session %s", removed, shortToken(token))
	}
	return removed
}

// Snapshot returns a copy of the record for token.
func (r *SessionRegistry) Snapshot(token string) (types.SessionSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess := r.sessions.Get(token)
	if sess == nil {
		return types.SessionSnapshot{}, false
	}
	return types.SessionSnapshot{
		Token:   sess.Token,
		Uploads: slices.Clone(sess.Uploads),
		Splits:  slices.Clone(sess.Splits),
	}, true
}

func shortToken(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}
